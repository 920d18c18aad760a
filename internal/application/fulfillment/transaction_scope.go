package fulfillment

import (
	"context"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/refund"
)

// TransactionScope provides transactional access to the fulfillment
// repositories. Everything executed inside one scope commits or rolls
// back atomically; approval and refund completion rely on this to keep
// stock, movements, orders and invoices consistent.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all fulfillment
// repositories within a transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Movements() ledger.StockMovementRepository
	Orders() order.Repository
	Invoices() invoice.Repository
	Refunds() refund.Repository
	RefundRequests() refund.RequestRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful in tests where the repositories are mocks.
type NoOpTransactionScope struct {
	ProductRepo       catalog.ProductRepository
	MovementRepo      ledger.StockMovementRepository
	OrderRepo         order.Repository
	InvoiceRepo       invoice.Repository
	RefundRepo        refund.Repository
	RefundRequestRepo refund.RequestRepository
}

// Execute runs the function against the configured repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository
func (s *NoOpTransactionScope) Products() catalog.ProductRepository { return s.ProductRepo }

// Movements returns the stock movement repository
func (s *NoOpTransactionScope) Movements() ledger.StockMovementRepository { return s.MovementRepo }

// Orders returns the order repository
func (s *NoOpTransactionScope) Orders() order.Repository { return s.OrderRepo }

// Invoices returns the invoice repository
func (s *NoOpTransactionScope) Invoices() invoice.Repository { return s.InvoiceRepo }

// Refunds returns the refund repository
func (s *NoOpTransactionScope) Refunds() refund.Repository { return s.RefundRepo }

// RefundRequests returns the refund request repository
func (s *NoOpTransactionScope) RefundRequests() refund.RequestRepository { return s.RefundRequestRepo }

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*NoOpTransactionScope)(nil)
)
