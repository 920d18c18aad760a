package ledger

import (
	"context"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StockMovementRepository defines the persistence interface for the
// append-only movement log. Movements are never updated or deleted.
type StockMovementRepository interface {
	Save(ctx context.Context, movements ...*StockMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)
	// FindByProduct returns a product's movements in application order
	// (oldest first), suitable for replay.
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]StockMovement, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]StockMovement, error)
	FindByRefund(ctx context.Context, refundID uuid.UUID) ([]StockMovement, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]StockMovement, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
