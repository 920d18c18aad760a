package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/backoffice/backend/internal/application/fulfillment"
	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupSharedFulfillmentDB opens a named in-memory database with a shared
// cache so every pooled connection sees the same data, then pins the pool
// to a single connection so concurrent transactions queue instead of
// tripping over SQLite's writer lock.
func setupSharedFulfillmentDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&catalog.Product{},
		&ledger.StockMovement{},
		&order.Order{},
		&order.Item{},
		&invoice.Invoice{},
		&invoice.Item{},
		&refund.Refund{},
		&refund.Item{},
		&refund.Request{},
		&refund.RequestItem{},
	)
	require.NoError(t, err)

	return db
}

// Two staff members approve two orders at the same moment, each wanting
// the entire remaining stock. The row lock taken during approval must
// let exactly one through; the loser sees the post-commit stock level
// and is turned away without the quantity ever going negative.
func TestOrderService_Approve_ConcurrentApprovalsSingleWinner(t *testing.T) {
	db := setupSharedFulfillmentDB(t)
	productRepo := NewGormProductRepository(db)
	orderRepo := NewGormOrderRepository(db)
	movementRepo := NewGormStockMovementRepository(db)
	txScope := NewGormTransactionScope(db)
	ctx := context.Background()

	product, err := catalog.NewProduct("WID-001", "Widget", "pcs", valueobject.MustParseMajor("100.00"))
	require.NoError(t, err)
	require.NoError(t, product.ApplyStockDelta(5))
	require.NoError(t, productRepo.Save(ctx, product))

	placeOrder := func(number string) *order.Order {
		item, err := order.NewItem(product.ID, product.Name, 5, product.SellingPrice)
		require.NoError(t, err)
		o, err := order.NewOrder(uuid.New(), order.DeliveryTypePickup, "", order.PaymentMethodCash, 0, "", []order.Item{item})
		require.NoError(t, err)
		o.OrderNumber = number
		o.ClearDomainEvents()
		require.NoError(t, orderRepo.Save(ctx, o))
		return o
	}
	first := placeOrder("ORD-202609-0001")
	second := placeOrder("ORD-202609-0002")

	service := fulfillment.NewOrderService(orderRepo, productRepo, txScope, nil, zap.NewNop())
	staff := shared.NewActor(uuid.New(), shared.RoleStaff)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, o := range []*order.Order{first, second} {
		wg.Add(1)
		go func(slot int, orderID uuid.UUID) {
			defer wg.Done()
			_, err := service.Approve(ctx, staff, orderID)
			results[slot] = err
		}(i, o.ID)
	}
	wg.Wait()

	var winners, losers int
	for _, err := range results {
		if err == nil {
			winners++
			continue
		}
		losers++
		var insufficient *ledger.InsufficientStockError
		if !errors.As(err, &insufficient) {
			assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)

	// Stock went to zero exactly once and never below it.
	reloaded, err := productRepo.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reloaded.StockQuantity)

	movements, err := movementRepo.FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.MovementTypeSale, movements[0].Type)
	assert.Equal(t, int64(-5), movements[0].Quantity)
	assert.Equal(t, int64(0), movements[0].QuantityAfter)

	// Exactly one of the two orders was approved.
	var approvedCount int
	for _, o := range []*order.Order{first, second} {
		found, err := orderRepo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		if found.Status == order.StatusApproved {
			approvedCount++
			assert.NotNil(t, found.InvoiceID)
		} else {
			assert.Equal(t, order.StatusPending, found.Status)
		}
	}
	assert.Equal(t, 1, approvedCount)
}
