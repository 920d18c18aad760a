package invoice

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the persistence interface for invoices
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, inv *Invoice) error
	SaveWithLock(ctx context.Context, inv *Invoice, expectedVersion int) error
	// GenerateInvoiceNumber returns the next INV-{YYYY}{MM}-{NNNN} number
	// for the given date's period.
	GenerateInvoiceNumber(ctx context.Context, at time.Time) (string, error)
}
