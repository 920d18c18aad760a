package persistence

import (
	"context"

	"github.com/backoffice/backend/internal/application/fulfillment"
	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/refund"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos fulfillment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Products returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// Movements returns the stock movement repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Movements() ledger.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() order.Repository {
	return NewGormOrderRepository(r.tx)
}

// Invoices returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Invoices() invoice.Repository {
	return NewGormInvoiceRepository(r.tx)
}

// Refunds returns the refund repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Refunds() refund.Repository {
	return NewGormRefundRepository(r.tx)
}

// RefundRequests returns the refund request repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RefundRequests() refund.RequestRepository {
	return NewGormRefundRequestRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ fulfillment.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ fulfillment.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
