package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginated(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		page       int
		pageSize   int
		totalPages int
	}{
		{name: "exact multiple", total: 40, page: 1, pageSize: 20, totalPages: 2},
		{name: "partial last page", total: 41, page: 2, pageSize: 20, totalPages: 3},
		{name: "empty result", total: 0, page: 1, pageSize: 20, totalPages: 0},
		{name: "zero page size", total: 41, page: 1, pageSize: 0, totalPages: 0},
		{name: "negative page size", total: 41, page: 1, pageSize: -5, totalPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaginated([]string{}, tt.total, tt.page, tt.pageSize)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.pageSize, p.PageSize)
		})
	}
}

func TestDefaultFilter(t *testing.T) {
	f := DefaultFilter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.Equal(t, "created_at", f.OrderBy)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
}
