package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testProduct(t *testing.T, sku, name, price string, stock int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, name, "pcs", valueobject.MustParseMajor(price))
	require.NoError(t, err)
	if stock > 0 {
		require.NoError(t, p.ApplyStockDelta(stock))
	}
	return p
}

func pendingOrder(t *testing.T, customerID uuid.UUID, products []*catalog.Product, quantities []int64) *order.Order {
	t.Helper()
	items := make([]order.Item, 0, len(products))
	for i, p := range products {
		item, err := order.NewItem(p.ID, p.Name, quantities[i], p.SellingPrice)
		require.NoError(t, err)
		items = append(items, item)
	}
	o, err := order.NewOrder(customerID, order.DeliveryTypePickup, "",
		order.PaymentMethodCash, 0, "", items)
	require.NoError(t, err)
	o.OrderNumber = "ORD-202609-0001"
	o.ClearDomainEvents()
	return o
}

func newTestOrderService(orderRepo *MockOrderRepository, productRepo *MockProductRepository, invoiceRepo *MockInvoiceRepository, movementRepo *MockMovementRepository) *OrderService {
	txScope := &NoOpTransactionScope{
		ProductRepo:  productRepo,
		MovementRepo: movementRepo,
		OrderRepo:    orderRepo,
		InvoiceRepo:  invoiceRepo,
	}
	return NewOrderService(orderRepo, productRepo, txScope, nil, zap.NewNop())
}

func TestOrderService_Create(t *testing.T) {
	ctx := context.Background()
	customer := shared.NewActor(uuid.New(), shared.RoleCustomer)

	t.Run("snapshots price and name from catalog", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		product := testProduct(t, "WID-001", "Widget", "100.00", 10)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		orderRepo.On("GenerateOrderNumber", ctx, mock.Anything).Return("ORD-202609-0042", nil)
		orderRepo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := service.Create(ctx, customer, CreateOrderRequest{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 3}},
			DeliveryType:  "pickup",
			PaymentMethod: "cash",
		})

		require.NoError(t, err)
		assert.Equal(t, "ORD-202609-0042", resp.OrderNumber)
		assert.Equal(t, "pending", resp.Status)
		assert.Equal(t, "300.00", resp.TotalAmount)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Widget", resp.Items[0].ProductName)
		assert.Equal(t, "100.00", resp.Items[0].UnitPrice)
		orderRepo.AssertExpectations(t)
		productRepo.AssertExpectations(t)
	})

	t.Run("rejects inactive product", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		product := testProduct(t, "WID-002", "Widget", "100.00", 10)
		product.Deactivate()
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)

		_, err := service.Create(ctx, customer, CreateOrderRequest{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			DeliveryType:  "pickup",
			PaymentMethod: "cash",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "PRODUCT_INACTIVE", domainErr.Code)
		orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("low stock does not block submission", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		product := testProduct(t, "WID-003", "Widget", "550.00", 1)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		orderRepo.On("GenerateOrderNumber", ctx, mock.Anything).Return("ORD-202609-0043", nil)
		orderRepo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := service.Create(ctx, customer, CreateOrderRequest{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 5}},
			DeliveryType:  "pickup",
			PaymentMethod: "cash",
		})

		require.NoError(t, err)
		assert.Equal(t, "pending", resp.Status)
	})

	t.Run("regenerates the number once after losing a numbering race", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		product := testProduct(t, "WID-004", "Widget", "100.00", 10)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		orderRepo.On("GenerateOrderNumber", ctx, mock.Anything).Return("ORD-202609-0044", nil).Once()
		orderRepo.On("Save", ctx, mock.Anything).Return(shared.ErrDuplicateReference).Once()
		orderRepo.On("GenerateOrderNumber", ctx, mock.Anything).Return("ORD-202609-0045", nil).Once()
		orderRepo.On("Save", ctx, mock.Anything).Return(nil).Once()

		resp, err := service.Create(ctx, customer, CreateOrderRequest{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			DeliveryType:  "pickup",
			PaymentMethod: "cash",
		})

		require.NoError(t, err)
		assert.Equal(t, "ORD-202609-0045", resp.OrderNumber)
		orderRepo.AssertExpectations(t)
	})

	t.Run("gives up after a second numbering collision", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		product := testProduct(t, "WID-005", "Widget", "100.00", 10)
		productRepo.On("FindByID", ctx, product.ID).Return(product, nil)
		orderRepo.On("GenerateOrderNumber", ctx, mock.Anything).Return("ORD-202609-0046", nil).Twice()
		orderRepo.On("Save", ctx, mock.Anything).Return(shared.ErrDuplicateReference).Twice()

		_, err := service.Create(ctx, customer, CreateOrderRequest{
			Items:         []CreateOrderItemInput{{ProductID: product.ID, Quantity: 1}},
			DeliveryType:  "pickup",
			PaymentMethod: "cash",
		})

		assert.ErrorIs(t, err, shared.ErrDuplicateReference)
		orderRepo.AssertExpectations(t)
	})
}

func TestOrderService_Approve(t *testing.T) {
	ctx := context.Background()
	staff := shared.NewActor(uuid.New(), shared.RoleStaff)
	customerID := uuid.New()

	t.Run("deducts stock and creates invoice in one pass", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		movementRepo := new(MockMovementRepository)
		service := newTestOrderService(orderRepo, productRepo, invoiceRepo, movementRepo)

		widget := testProduct(t, "WID-010", "Widget", "100.00", 10)
		gadget := testProduct(t, "GAD-010", "Gadget", "250.00", 5)
		o := pendingOrder(t, customerID, []*catalog.Product{widget, gadget}, []int64{2, 3})

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		productRepo.On("FindByIDForUpdate", ctx, widget.ID).Return(widget, nil)
		productRepo.On("FindByIDForUpdate", ctx, gadget.ID).Return(gadget, nil)
		productRepo.On("SaveWithLock", ctx, mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("GenerateInvoiceNumber", ctx, mock.Anything).Return("INV-202609-0007", nil)
		invoiceRepo.On("Save", ctx, mock.Anything).Return(nil)
		var savedMovements []*ledger.StockMovement
		movementRepo.On("Save", ctx, mock.Anything).Run(func(args mock.Arguments) {
			savedMovements = args.Get(1).([]*ledger.StockMovement)
		}).Return(nil)
		orderRepo.On("SaveWithLock", ctx, o, mock.Anything).Return(nil)

		resp, err := service.Approve(ctx, staff, o.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		require.NotNil(t, resp.InvoiceID)
		assert.Equal(t, int64(8), widget.StockQuantity)
		assert.Equal(t, int64(2), gadget.StockQuantity)

		require.Len(t, savedMovements, 2)
		byProduct := map[uuid.UUID]*ledger.StockMovement{}
		for _, mov := range savedMovements {
			byProduct[mov.ProductID] = mov
			assert.Equal(t, ledger.MovementTypeSale, mov.Type)
			require.NotNil(t, mov.InvoiceID)
			assert.Equal(t, *resp.InvoiceID, *mov.InvoiceID)
			assert.Equal(t, mov.QuantityBefore+mov.Quantity, mov.QuantityAfter)
		}
		assert.Equal(t, int64(-2), byProduct[widget.ID].Quantity)
		assert.Equal(t, int64(-3), byProduct[gadget.ID].Quantity)

		orderRepo.AssertExpectations(t)
		productRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
		movementRepo.AssertExpectations(t)
	})

	t.Run("reports every shortage at once", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		movementRepo := new(MockMovementRepository)
		service := newTestOrderService(orderRepo, productRepo, invoiceRepo, movementRepo)

		widget := testProduct(t, "WID-011", "Widget", "100.00", 1)
		gadget := testProduct(t, "GAD-011", "Gadget", "250.00", 0)
		o := pendingOrder(t, customerID, []*catalog.Product{widget, gadget}, []int64{2, 3})

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		productRepo.On("FindByIDForUpdate", ctx, widget.ID).Return(widget, nil)
		productRepo.On("FindByIDForUpdate", ctx, gadget.ID).Return(gadget, nil)

		_, err := service.Approve(ctx, staff, o.ID)

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		var stockErr *ledger.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Len(t, stockErr.Shortages, 2)

		// Nothing was written: the order stays pending, stock untouched.
		assert.Equal(t, "pending", o.Status.String())
		assert.Equal(t, int64(1), widget.StockQuantity)
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		movementRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reruns the transaction once after an invoice numbering race", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		invoiceRepo := new(MockInvoiceRepository)
		movementRepo := new(MockMovementRepository)
		service := newTestOrderService(orderRepo, productRepo, invoiceRepo, movementRepo)

		widget := testProduct(t, "WID-013", "Widget", "100.00", 10)
		o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{2})

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil).Twice()
		productRepo.On("FindByIDForUpdate", ctx, widget.ID).Return(widget, nil).Twice()
		productRepo.On("SaveWithLock", ctx, mock.Anything, mock.Anything).Return(nil).Twice()
		invoiceRepo.On("GenerateInvoiceNumber", ctx, mock.Anything).Return("INV-202609-0008", nil).Once()
		invoiceRepo.On("Save", ctx, mock.Anything).Return(shared.ErrDuplicateReference).Once()
		invoiceRepo.On("GenerateInvoiceNumber", ctx, mock.Anything).Return("INV-202609-0009", nil).Once()
		invoiceRepo.On("Save", ctx, mock.Anything).Return(nil).Once()
		movementRepo.On("Save", ctx, mock.Anything).Return(nil).Once()
		orderRepo.On("SaveWithLock", ctx, o, mock.Anything).Return(nil).Once()

		resp, err := service.Approve(ctx, staff, o.ID)

		require.NoError(t, err)
		assert.Equal(t, "approved", resp.Status)
		orderRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("only pending orders can be approved", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		productRepo := new(MockProductRepository)
		service := newTestOrderService(orderRepo, productRepo, new(MockInvoiceRepository), new(MockMovementRepository))

		widget := testProduct(t, "WID-012", "Widget", "100.00", 10)
		o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{1})
		o.Status = order.StatusRejected

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := service.Approve(ctx, staff, o.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})

	t.Run("customers cannot approve", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := newTestOrderService(orderRepo, new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

		_, err := service.Approve(ctx, shared.NewActor(customerID, shared.RoleCustomer), uuid.New())

		assert.ErrorIs(t, err, shared.ErrForbidden)
		orderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}

func TestOrderService_Reject(t *testing.T) {
	ctx := context.Background()
	staff := shared.NewActor(uuid.New(), shared.RoleStaff)
	customerID := uuid.New()

	t.Run("rejects pending order with reason", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := newTestOrderService(orderRepo, new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

		widget := testProduct(t, "WID-020", "Widget", "100.00", 10)
		o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{1})
		expectedVersion := o.Version

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		orderRepo.On("SaveWithLock", ctx, o, expectedVersion).Return(nil)

		resp, err := service.Reject(ctx, staff, o.ID, RejectOrderRequest{Reason: "out of season"})

		require.NoError(t, err)
		assert.Equal(t, "rejected", resp.Status)
		assert.Equal(t, "out of season", resp.RejectionReason)
		orderRepo.AssertExpectations(t)
	})

	t.Run("customers cannot reject", func(t *testing.T) {
		service := newTestOrderService(new(MockOrderRepository), new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

		_, err := service.Reject(ctx, shared.NewActor(customerID, shared.RoleCustomer), uuid.New(), RejectOrderRequest{Reason: "nope"})

		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	t.Run("customer cancels own pending order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := newTestOrderService(orderRepo, new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

		widget := testProduct(t, "WID-030", "Widget", "100.00", 10)
		o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{1})

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)
		orderRepo.On("SaveWithLock", ctx, o, mock.Anything).Return(nil)

		resp, err := service.Cancel(ctx, shared.NewActor(customerID, shared.RoleCustomer), o.ID, CancelOrderRequest{Reason: "changed my mind"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
	})

	t.Run("customer cannot cancel someone else's order", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		service := newTestOrderService(orderRepo, new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

		widget := testProduct(t, "WID-031", "Widget", "100.00", 10)
		o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{1})

		orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

		_, err := service.Cancel(ctx, shared.NewActor(uuid.New(), shared.RoleCustomer), o.ID, CancelOrderRequest{})

		assert.ErrorIs(t, err, shared.ErrForbidden)
		orderRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()
	customerID := uuid.New()

	orderRepo := new(MockOrderRepository)
	service := newTestOrderService(orderRepo, new(MockProductRepository), new(MockInvoiceRepository), new(MockMovementRepository))

	widget := testProduct(t, "WID-040", "Widget", "100.00", 10)
	o := pendingOrder(t, customerID, []*catalog.Product{widget}, []int64{1})
	orderRepo.On("FindByID", ctx, o.ID).Return(o, nil)

	t.Run("owner sees the order", func(t *testing.T) {
		resp, err := service.GetByID(ctx, shared.NewActor(customerID, shared.RoleCustomer), o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, resp.ID)
	})

	t.Run("other customers do not", func(t *testing.T) {
		_, err := service.GetByID(ctx, shared.NewActor(uuid.New(), shared.RoleCustomer), o.ID)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("staff sees any order", func(t *testing.T) {
		resp, err := service.GetByID(ctx, shared.NewActor(uuid.New(), shared.RoleStaff), o.ID)
		require.NoError(t, err)
		assert.Equal(t, o.ID, resp.ID)
	})

	t.Run("not found propagates", func(t *testing.T) {
		missing := uuid.New()
		orderRepo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
		_, err := service.GetByID(ctx, shared.NewActor(uuid.New(), shared.RoleStaff), missing)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
