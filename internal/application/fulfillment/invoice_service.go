package fulfillment

import (
	"context"

	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InvoiceService exposes read access and the few lifecycle operations an
// invoice has. Invoices are created by order approval, never directly.
type InvoiceService struct {
	invoiceRepo invoice.Repository
	refundRepo  refund.Repository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo invoice.Repository, refundRepo refund.Repository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		refundRepo:  refundRepo,
	}
}

// GetByID retrieves an invoice with its refund summary. Customers can
// only see their own invoices.
func (s *InvoiceService) GetByID(ctx context.Context, actor shared.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if actor.Role == shared.RoleCustomer && inv.CustomerID != actor.ID {
		return nil, shared.ErrForbidden
	}

	refunded, err := s.monetaryRefunded(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv, refunded)
	return &response, nil
}

// List retrieves invoices with filtering and pagination. Customers are
// always scoped to their own invoices.
func (s *InvoiceService) List(ctx context.Context, actor shared.Actor, filter InvoiceListFilter) (*shared.Paginated[InvoiceResponse], error) {
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
	if filter.PaymentStatus != "" {
		f.Filters["payment_status"] = filter.PaymentStatus
	}
	if actor.Role == shared.RoleCustomer {
		f.Filters["customer_id"] = actor.ID
	} else if filter.CustomerID != nil {
		f.Filters["customer_id"] = *filter.CustomerID
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.invoiceRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	items := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		refunded, err := s.monetaryRefunded(ctx, invoices[i].ID)
		if err != nil {
			return nil, err
		}
		items = append(items, ToInvoiceResponse(&invoices[i], refunded))
	}

	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// MarkCompleted records that the goods were handed over
func (s *InvoiceService) MarkCompleted(ctx context.Context, actor shared.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	expectedVersion := inv.Version
	if err := inv.MarkCompleted(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv, expectedVersion); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv, valueobject.Zero())
	return &response, nil
}

// MarkPaid records settlement of the invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, actor shared.Actor, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if !actor.Role.IsStaff() {
		return nil, shared.ErrForbidden
	}

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	expectedVersion := inv.Version
	if err := inv.MarkPaid(); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, inv, expectedVersion); err != nil {
		return nil, err
	}

	refunded, err := s.monetaryRefunded(ctx, inv.ID)
	if err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv, refunded)
	return &response, nil
}

// monetaryRefunded sums the money actually owed back against the
// invoice: refunds in counting states, excluding exchanges (those hand
// out replacement goods, not money).
func (s *InvoiceService) monetaryRefunded(ctx context.Context, invoiceID uuid.UUID) (valueobject.Money, error) {
	refunds, err := s.refundRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return valueobject.Zero(), err
	}

	total := valueobject.Zero()
	for i := range refunds {
		r := &refunds[i]
		if r.Status.CountsAgainstInvoice() && !r.IsExchange() {
			total = total.Add(r.TotalAmount)
		}
	}
	return total, nil
}
