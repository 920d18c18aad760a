package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RefundService handles the refund and exchange workflow: customer
// requests, their review, and the refund lifecycle through to the stock
// consequences of completion.
type RefundService struct {
	refundRepo     refund.Repository
	requestRepo    refund.RequestRepository
	invoiceService *InvoiceService
	txScope        TransactionScope
	stockLedger    *ledger.StockLedger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRefundService creates a new RefundService
func NewRefundService(
	refundRepo refund.Repository,
	requestRepo refund.RequestRepository,
	invoiceService *InvoiceService,
	txScope TransactionScope,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		refundRepo:     refundRepo,
		requestRepo:    requestRepo,
		invoiceService: invoiceService,
		txScope:        txScope,
		stockLedger:    ledger.NewStockLedger(),
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *RefundService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateRequest files a customer's refund or exchange request against a
// completed invoice. Only one pending request per invoice is allowed.
func (s *RefundService) CreateRequest(ctx context.Context, actor shared.Actor, req CreateRefundRequestRequest) (*RefundRequestResponse, error) {
	inv, err := s.invoiceService.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	pending, err := s.requestRepo.HasPendingForInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, shared.ErrDuplicatePendingClaim
	}

	lines := make([]refund.RequestLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, refund.RequestLine{
			InvoiceItemID: item.InvoiceItemID,
			Quantity:      item.Quantity,
		})
	}

	customerID := actor.ID
	if actor.Role.IsStaff() {
		// Staff may file on the customer's behalf.
		customerID = inv.CustomerID
	}

	request, err := refund.NewRequest(inv, customerID, lines,
		refund.RequestKind(req.Kind), req.ExchangeProductID, req.Reason, req.TrackingNumber)
	if err != nil {
		return nil, err
	}

	requestNumber, err := s.requestRepo.GenerateRequestNumber(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	request.RequestNumber = requestNumber

	if err := s.requestRepo.Save(ctx, request); err != nil {
		if !errors.Is(err, shared.ErrDuplicateReference) {
			return nil, err
		}
		// Lost a numbering race; the next scan sees the winner.
		requestNumber, err = s.requestRepo.GenerateRequestNumber(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		request.RequestNumber = requestNumber
		if err := s.requestRepo.Save(ctx, request); err != nil {
			return nil, err
		}
	}

	response := ToRefundRequestResponse(request)
	return &response, nil
}

// ApproveRequest approves a pending request and creates the refund it
// asked for, in one transaction. The refund cap is enforced here: the
// new refund plus everything already granted may not exceed the invoice
// total. Exchanges are outside the cap, they return goods, not money.
func (s *RefundService) ApproveRequest(ctx context.Context, actor shared.Actor, requestID uuid.UUID, req ApproveRefundRequestRequest) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	var (
		approvedRequest *refund.Request
		created         *refund.Refund
	)
	approve := func(repos TransactionalRepositories) error {
		request, err := repos.RefundRequests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		inv, err := repos.Invoices().FindByID(ctx, request.InvoiceID)
		if err != nil {
			return err
		}

		r, err := refund.NewFromRequest(request, inv, refund.Method(req.Method), actor.ID)
		if err != nil {
			return err
		}

		if !r.IsExchange() {
			granted, err := repos.Refunds().SumActiveForInvoice(ctx, inv.ID)
			if err != nil {
				return err
			}
			if granted.Add(r.TotalAmount).GreaterThan(inv.TotalAmount) {
				return shared.ErrRefundExceedsInvoice
			}
		}

		refundNumber, err := repos.Refunds().GenerateRefundNumber(ctx, time.Now())
		if err != nil {
			return err
		}
		r.RefundNumber = refundNumber

		if err := repos.Refunds().Save(ctx, r); err != nil {
			return err
		}

		expectedVersion := request.Version
		if err := request.Approve(actor.ID, r.ID, req.Notes); err != nil {
			return err
		}
		if err := repos.RefundRequests().SaveWithLock(ctx, request, expectedVersion); err != nil {
			return err
		}

		approvedRequest = request
		created = r
		return nil
	}

	err := s.txScope.Execute(ctx, approve)
	if errors.Is(err, shared.ErrDuplicateReference) {
		// A concurrent approval claimed the same refund number. Rerun
		// the transaction once; the generator now sees the committed
		// winner and hands out the next number.
		err = s.txScope.Execute(ctx, approve)
	}
	if err != nil {
		return nil, err
	}

	s.publishRequestEvents(ctx, approvedRequest)

	response := ToRefundResponse(created)
	return &response, nil
}

// RejectRequest declines a pending request with a reason
func (s *RefundService) RejectRequest(ctx context.Context, actor shared.Actor, requestID uuid.UUID, req RejectRefundRequestRequest) (*RefundRequestResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	expectedVersion := request.Version
	if err := request.Reject(actor.ID, req.Reason); err != nil {
		return nil, err
	}
	if err := s.requestRepo.SaveWithLock(ctx, request, expectedVersion); err != nil {
		return nil, err
	}

	response := ToRefundRequestResponse(request)
	return &response, nil
}

// GetRequest retrieves a refund request. Customers only see their own.
func (s *RefundService) GetRequest(ctx context.Context, actor shared.Actor, requestID uuid.UUID) (*RefundRequestResponse, error) {
	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role == shared.RoleCustomer && request.CustomerID != actor.ID {
		return nil, shared.ErrForbidden
	}

	response := ToRefundRequestResponse(request)
	return &response, nil
}

// ListRequests retrieves refund requests with filtering and pagination
func (s *RefundService) ListRequests(ctx context.Context, actor shared.Actor, filter RefundListFilter) (*shared.Paginated[RefundRequestResponse], error) {
	f := s.buildFilter(actor, filter)

	requests, err := s.requestRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.requestRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]RefundRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, ToRefundRequestResponse(&requests[i]))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Create enters a refund directly, without a customer request. The cap
// against the invoice total applies here as well.
func (s *RefundService) Create(ctx context.Context, actor shared.Actor, req CreateRefundRequest) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	inv, err := s.invoiceService.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	lines := make([]refund.RequestLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, refund.RequestLine{
			InvoiceItemID: item.InvoiceItemID,
			Quantity:      item.Quantity,
		})
	}

	r, err := refund.NewDirect(inv, lines, refund.Method(req.Method), req.Reason)
	if err != nil {
		return nil, err
	}

	if !r.IsExchange() {
		granted, err := s.refundRepo.SumActiveForInvoice(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if granted.Add(r.TotalAmount).GreaterThan(inv.TotalAmount) {
			return nil, shared.ErrRefundExceedsInvoice
		}
	}

	refundNumber, err := s.refundRepo.GenerateRefundNumber(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	r.RefundNumber = refundNumber

	if err := s.refundRepo.Save(ctx, r); err != nil {
		if !errors.Is(err, shared.ErrDuplicateReference) {
			return nil, err
		}
		// Lost a numbering race; the next scan sees the winner.
		refundNumber, err = s.refundRepo.GenerateRefundNumber(ctx, time.Now())
		if err != nil {
			return nil, err
		}
		r.RefundNumber = refundNumber
		if err := s.refundRepo.Save(ctx, r); err != nil {
			return nil, err
		}
	}

	response := ToRefundResponse(r)
	return &response, nil
}

// Approve approves a pending refund
func (s *RefundService) Approve(ctx context.Context, actor shared.Actor, refundID uuid.UUID) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}
	return s.transition(ctx, refundID, func(r *refund.Refund) error {
		return r.Approve(actor.ID)
	})
}

// Process marks an approved refund's payout as underway
func (s *RefundService) Process(ctx context.Context, actor shared.Actor, refundID uuid.UUID) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}
	return s.transition(ctx, refundID, func(r *refund.Refund) error {
		return r.Process(actor.ID)
	})
}

// Cancel abandons a refund before processing starts
func (s *RefundService) Cancel(ctx context.Context, actor shared.Actor, refundID uuid.UUID, req CancelRefundRequest) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}
	return s.transition(ctx, refundID, func(r *refund.Refund) error {
		return r.Cancel(actor.ID, req.Reason)
	})
}

// Complete finishes a processed refund. For non-exchange refunds the
// returned goods move through the ledger in the same transaction:
// credited back to sellable stock, or credited and immediately written
// off when they are not resellable, so the paper trail shows both what
// came back and what was destroyed.
func (s *RefundService) Complete(ctx context.Context, actor shared.Actor, refundID uuid.UUID, req CompleteRefundRequest) (*RefundResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	var completed *refund.Refund
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Refunds().FindByID(ctx, refundID)
		if err != nil {
			return err
		}

		expectedVersion := r.Version
		if err := r.Complete(actor.ID); err != nil {
			return err
		}

		if !r.IsExchange() {
			if err := s.applyStockReturns(ctx, repos, r, actor, req.ReturnToStock); err != nil {
				return err
			}
		}

		if err := repos.Refunds().SaveWithLock(ctx, r, expectedVersion); err != nil {
			return err
		}

		completed = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRefundEvents(ctx, completed)

	response := ToRefundResponse(completed)
	return &response, nil
}

// applyStockReturns moves the refunded quantities through the ledger
// while the products are locked
func (s *RefundService) applyStockReturns(ctx context.Context, repos TransactionalRepositories, r *refund.Refund, actor shared.Actor, returnToStock bool) error {
	movements := make([]*ledger.StockMovement, 0, len(r.Items)*2)
	for _, line := range r.Items {
		product, err := repos.Products().FindByIDForUpdate(ctx, line.ProductID)
		if err != nil {
			return err
		}

		expected := product.Version
		credit, err := s.stockLedger.Credit(product, line.Quantity)
		if err != nil {
			return err
		}
		credit = credit.WithRefund(r.ID).WithActor(actor.ID).WithNotes("return " + r.RefundNumber)
		movements = append(movements, &credit)

		if !returnToStock {
			writeOff, err := s.stockLedger.WriteOff(product, line.Quantity)
			if err != nil {
				return err
			}
			writeOff = writeOff.WithRefund(r.ID).WithActor(actor.ID).WithNotes("written off " + r.RefundNumber)
			movements = append(movements, &writeOff)
		}

		if err := repos.Products().SaveWithLock(ctx, product, expected); err != nil {
			return err
		}
	}

	return repos.Movements().Save(ctx, movements...)
}

// GetByID retrieves a refund. Customers only see their own.
func (s *RefundService) GetByID(ctx context.Context, actor shared.Actor, refundID uuid.UUID) (*RefundResponse, error) {
	r, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if actor.Role == shared.RoleCustomer && r.CustomerID != actor.ID {
		return nil, shared.ErrForbidden
	}

	response := ToRefundResponse(r)
	return &response, nil
}

// List retrieves refunds with filtering and pagination
func (s *RefundService) List(ctx context.Context, actor shared.Actor, filter RefundListFilter) (*shared.Paginated[RefundResponse], error) {
	f := s.buildFilter(actor, filter)

	refunds, err := s.refundRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.refundRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]RefundResponse, 0, len(refunds))
	for i := range refunds {
		items = append(items, ToRefundResponse(&refunds[i]))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

func (s *RefundService) buildFilter(actor shared.Actor, filter RefundListFilter) shared.Filter {
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
	if filter.InvoiceID != nil {
		f.Filters["invoice_id"] = *filter.InvoiceID
	}
	if actor.Role == shared.RoleCustomer {
		f.Filters["customer_id"] = actor.ID
	} else if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}
	return f
}

// transition loads a refund, applies fn, and saves with optimistic lock
func (s *RefundService) transition(ctx context.Context, refundID uuid.UUID, fn func(*refund.Refund) error) (*RefundResponse, error) {
	r, err := s.refundRepo.FindByID(ctx, refundID)
	if err != nil {
		return nil, err
	}

	expectedVersion := r.Version
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.refundRepo.SaveWithLock(ctx, r, expectedVersion); err != nil {
		return nil, err
	}

	response := ToRefundResponse(r)
	return &response, nil
}

func (s *RefundService) publishRequestEvents(ctx context.Context, r *refund.Request) {
	if s.eventPublisher == nil || r == nil {
		return
	}
	for _, event := range r.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish refund request event",
				zap.String("event_type", event.EventType()),
				zap.String("request_id", r.ID.String()),
				zap.Error(err),
			)
		}
	}
	r.ClearDomainEvents()
}

func (s *RefundService) publishRefundEvents(ctx context.Context, r *refund.Refund) {
	if s.eventPublisher == nil || r == nil {
		return
	}
	for _, event := range r.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish refund event",
				zap.String("event_type", event.EventType()),
				zap.String("refund_id", r.ID.String()),
				zap.Error(err),
			)
		}
	}
	r.ClearDomainEvents()
}
