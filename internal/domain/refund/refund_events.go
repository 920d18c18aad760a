package refund

import (
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the refund aggregates
const (
	EventRequestApproved = "refund_request.approved"
	EventRefundCompleted = "refund.completed"
)

// RequestApprovedEvent is raised when a refund request is approved
type RequestApprovedEvent struct {
	shared.BaseDomainEvent
	RequestNumber string    `json:"request_number"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	RefundID      uuid.UUID `json:"refund_id"`
}

// NewRequestApprovedEvent creates a RequestApprovedEvent
func NewRequestApprovedEvent(r *Request) *RequestApprovedEvent {
	e := &RequestApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRequestApproved, "RefundRequest", r.ID),
		RequestNumber:   r.RequestNumber,
		InvoiceID:       r.InvoiceID,
		CustomerID:      r.CustomerID,
	}
	if r.RefundID != nil {
		e.RefundID = *r.RefundID
	}
	return e
}

// RefundItemInfo captures a refunded line for event payloads
type RefundItemInfo struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	Amount    string    `json:"amount"`
}

// RefundCompletedEvent is raised when a refund finishes, after its stock
// consequences have been committed
type RefundCompletedEvent struct {
	shared.BaseDomainEvent
	RefundNumber string           `json:"refund_number"`
	InvoiceID    uuid.UUID        `json:"invoice_id"`
	CustomerID   uuid.UUID        `json:"customer_id"`
	RefundType   Type             `json:"refund_type"`
	Method       Method           `json:"method"`
	TotalAmount  string           `json:"total_amount"`
	Items        []RefundItemInfo `json:"items"`
}

// NewRefundCompletedEvent creates a RefundCompletedEvent
func NewRefundCompletedEvent(r *Refund) *RefundCompletedEvent {
	items := make([]RefundItemInfo, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, RefundItemInfo{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Amount:    item.Amount.MajorString(),
		})
	}
	return &RefundCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventRefundCompleted, "Refund", r.ID),
		RefundNumber:    r.RefundNumber,
		InvoiceID:       r.InvoiceID,
		CustomerID:      r.CustomerID,
		RefundType:      r.RefundType,
		Method:          r.Method,
		TotalAmount:     r.TotalAmount.MajorString(),
		Items:           items,
	}
}
