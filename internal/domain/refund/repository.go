package refund

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// RequestRepository defines the persistence interface for refund requests
type RequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Request, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// HasPendingForInvoice reports whether a pending request already
	// exists for the invoice; only one may be open at a time.
	HasPendingForInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	Save(ctx context.Context, r *Request) error
	SaveWithLock(ctx context.Context, r *Request, expectedVersion int) error
	// GenerateRequestNumber returns the next RRN{YYYY}{MM}{DD}{NNNN}
	// number for the given date. The sequence resets daily.
	GenerateRequestNumber(ctx context.Context, at time.Time) (string, error)
}

// Repository defines the persistence interface for refunds
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Refund, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Refund, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Refund, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// SumActiveForInvoice totals the amounts of non-cancelled,
	// non-exchange refunds for an invoice; used to enforce the
	// invoice-total cap on money handed back.
	SumActiveForInvoice(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error)
	Save(ctx context.Context, r *Refund) error
	SaveWithLock(ctx context.Context, r *Refund, expectedVersion int) error
	// GenerateRefundNumber returns the next REF{YYYY}{MM}{NNNN} number
	// for the given date's period.
	GenerateRefundNumber(ctx context.Context, at time.Time) (string, error)
}
