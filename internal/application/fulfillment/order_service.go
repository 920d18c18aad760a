package fulfillment

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order submission and the fulfillment state
// machine. Approval is its critical operation: stock check, deduction
// and invoice creation happen in one transaction, and events fire only
// after that transaction commits.
type OrderService struct {
	orderRepo      order.Repository
	productRepo    catalog.ProductRepository
	txScope        TransactionScope
	stockLedger    *ledger.StockLedger
	deliveries     DeliveryGateway
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.Repository,
	productRepo catalog.ProductRepository,
	txScope TransactionScope,
	deliveries DeliveryGateway,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		txScope:     txScope,
		stockLedger: ledger.NewStockLedger(),
		deliveries:  deliveries,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create submits a new pending order for the acting customer. Prices and
// product names are snapshotted from the catalog; the stock check here
// is advisory only, the binding check happens at approval.
func (s *OrderService) Create(ctx context.Context, actor shared.Actor, req CreateOrderRequest) (*OrderResponse, error) {
	items := make([]order.Item, 0, len(req.Items))
	for _, line := range req.Items {
		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive() {
			return nil, shared.NewDomainError("PRODUCT_INACTIVE",
				"Product "+product.Name+" is not available for sale")
		}
		if !product.HasSufficientStock(line.Quantity) {
			// Advisory: stock may recover before approval, so only log.
			s.logger.Info("order submitted with low stock",
				zap.String("product_id", product.ID.String()),
				zap.Int64("requested", line.Quantity),
				zap.Int64("available", product.StockQuantity),
			)
		}

		item, err := order.NewItem(product.ID, product.Name, line.Quantity, product.SellingPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	o, err := order.NewOrder(
		actor.ID,
		order.DeliveryType(req.DeliveryType),
		req.DeliveryAddress,
		order.PaymentMethod(req.PaymentMethod),
		req.CreditTermDays,
		req.Notes,
		items,
	)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	o.OrderNumber = orderNumber

	if err := s.orderRepo.Save(ctx, o); err != nil {
		if !errors.Is(err, shared.ErrDuplicateReference) {
			return nil, err
		}
		// A concurrent submission claimed the same number. Regenerate
		// once; the scan now sees the committed winner.
		orderNumber, err = s.orderRepo.GenerateOrderNumber(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		o.OrderNumber = orderNumber
		if err := s.orderRepo.Save(ctx, o); err != nil {
			return nil, err
		}
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Approve approves a pending order: in one transaction every product is
// locked and checked (all shortfalls are reported together), the invoice
// is created with the order's amounts copied verbatim, and each line is
// debited from stock with a movement row linking back to the invoice.
// Events and the delivery notification happen only after commit.
func (s *OrderService) Approve(ctx context.Context, actor shared.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	var approved *order.Order
	approve := func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.IsPending() {
			return shared.NewDomainError("INVALID_STATE",
				"Only pending orders can be approved, current status: "+o.Status.String())
		}

		// Lock products in a stable order to avoid deadlocks between
		// concurrent approvals touching the same products.
		lines := make([]order.Item, len(o.Items))
		copy(lines, o.Items)
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		products := make(map[uuid.UUID]*catalog.Product, len(lines))
		var shortages []ledger.StockShortage
		for _, line := range lines {
			product, err := repos.Products().FindByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			products[line.ProductID] = product
			if shortage := s.stockLedger.CheckAvailability(product, line.Quantity); shortage != nil {
				shortages = append(shortages, *shortage)
			}
		}
		if len(shortages) > 0 {
			return &ledger.InsufficientStockError{Shortages: shortages}
		}

		inv, err := invoice.NewInvoiceFromOrder(o, actor.ID)
		if err != nil {
			return err
		}
		invoiceNumber, err := repos.Invoices().GenerateInvoiceNumber(ctx, time.Now())
		if err != nil {
			return err
		}
		inv.InvoiceNumber = invoiceNumber

		movements := make([]*ledger.StockMovement, 0, len(lines))
		for _, line := range lines {
			product := products[line.ProductID]
			expected := product.Version
			mov, err := s.stockLedger.Debit(product, line.Quantity)
			if err != nil {
				return err
			}
			mov = mov.WithInvoice(inv.ID).WithActor(actor.ID).WithNotes("sale " + inv.InvoiceNumber)
			movements = append(movements, &mov)

			if err := repos.Products().SaveWithLock(ctx, product, expected); err != nil {
				return err
			}
		}

		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		if err := repos.Movements().Save(ctx, movements...); err != nil {
			return err
		}

		expectedVersion := o.Version
		if err := o.Approve(actor.ID, inv.ID); err != nil {
			return err
		}
		if err := repos.Orders().SaveWithLock(ctx, o, expectedVersion); err != nil {
			return err
		}

		approved = o
		return nil
	}

	err := s.txScope.Execute(ctx, approve)
	if errors.Is(err, shared.ErrDuplicateReference) {
		// A concurrent approval claimed the same invoice number. Rerun
		// the transaction once; the generator now sees the committed
		// winner and hands out the next number.
		err = s.txScope.Execute(ctx, approve)
	}
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, approved)
	s.notifyDelivery(ctx, approved)

	response := ToOrderResponse(approved)
	return &response, nil
}

// Reject rejects a pending order with a reason
func (s *OrderService) Reject(ctx context.Context, actor shared.Actor, orderID uuid.UUID, req RejectOrderRequest) (*OrderResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	expectedVersion := o.Version
	if err := o.Reject(actor.ID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o, expectedVersion); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// Cancel cancels an order, enforcing the role rules in the aggregate
func (s *OrderService) Cancel(ctx context.Context, actor shared.Actor, orderID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	expectedVersion := o.Version
	if err := o.Cancel(actor, req.Reason); err != nil {
		return nil, err
	}
	if err := s.orderRepo.SaveWithLock(ctx, o, expectedVersion); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, o)

	response := ToOrderResponse(o)
	return &response, nil
}

// GetByID retrieves an order. Customers can only see their own orders.
func (s *OrderService) GetByID(ctx context.Context, actor shared.Actor, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actor.Role == shared.RoleCustomer && o.CustomerID != actor.ID {
		return nil, shared.ErrForbidden
	}

	response := ToOrderResponse(o)
	return &response, nil
}

// List retrieves orders with filtering and pagination. Customers are
// always scoped to their own orders.
func (s *OrderService) List(ctx context.Context, actor shared.Actor, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if actor.Role == shared.RoleCustomer {
		f.Filters["customer_id"] = actor.ID
	} else if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.StartDate != nil {
		f.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		f.Filters["end_date"] = *filter.EndDate
	}

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderResponse(&orders[i]))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// publishEvents pushes the aggregate's pending events onto the bus.
// Called only after the aggregate's changes are durably saved.
func (s *OrderService) publishEvents(ctx context.Context, o *order.Order) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range o.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish order event",
				zap.String("event_type", event.EventType()),
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
		}
	}
	o.ClearDomainEvents()
}

// notifyDelivery schedules the physical delivery for approved delivery
// orders. Best effort: the approval stands even if the gateway fails.
func (s *OrderService) notifyDelivery(ctx context.Context, o *order.Order) {
	if s.deliveries == nil || o.DeliveryType != order.DeliveryTypeDelivery || o.InvoiceID == nil {
		return
	}
	if err := s.deliveries.ScheduleIntake(ctx, *o.InvoiceID, o.ID, o.DeliveryAddress); err != nil {
		s.logger.Error("failed to schedule delivery intake",
			zap.String("order_id", o.ID.String()),
			zap.String("invoice_id", o.InvoiceID.String()),
			zap.Error(err),
		)
	}
}
