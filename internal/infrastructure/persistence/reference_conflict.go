package persistence

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// isNumberConflict reports whether err is a unique violation on the
// named reference number column. Two transactions that scanned the same
// period maximum will generate the same number; the loser's insert
// trips the unique index and the caller is expected to regenerate and
// retry once.
func isNumberConflict(err error, column string) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, column)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// sqlite reports "UNIQUE constraint failed: <table>.<column>".
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
