package order

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the persistence interface for orders
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, o *Order) error
	// SaveWithLock persists the order only if the stored version matches,
	// returning shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, o *Order, expectedVersion int) error
	// GenerateOrderNumber returns the next ORD-{YYYY}{MM}-{NNNN} number
	// for the given date's period.
	GenerateOrderNumber(ctx context.Context, at time.Time) (string, error)
}
