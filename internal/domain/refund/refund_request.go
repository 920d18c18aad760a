package refund

import (
	"time"

	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// RequestKind distinguishes money-back requests from exchanges
type RequestKind string

const (
	RequestKindRefund   RequestKind = "refund"
	RequestKindExchange RequestKind = "exchange"
)

// IsValid checks if the kind is recognized
func (k RequestKind) IsValid() bool {
	return k == RequestKindRefund || k == RequestKindExchange
}

// RequestStatus is the lifecycle state of a refund request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// RequestItem is one line of a refund request. The requested quantity is
// clamped to the invoiced quantity at creation, so a request can never
// ask back more than was bought.
type RequestItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequestID     uuid.UUID `gorm:"type:uuid;not null;index"`
	InvoiceItemID uuid.UUID `gorm:"type:uuid;not null"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null"`
	ProductName   string    `gorm:"type:varchar(200);not null"`
	Quantity      int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RequestItem) TableName() string {
	return "refund_request_items"
}

// RequestLine is the caller's view of one requested line
type RequestLine struct {
	InvoiceItemID uuid.UUID
	Quantity      int64
}

// Request is a customer's petition to return goods from a completed
// invoice. Approval turns it into a Refund; rejection ends it.
type Request struct {
	shared.BaseAggregateRoot
	RequestNumber     string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	InvoiceID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	CustomerID        uuid.UUID     `gorm:"type:uuid;not null;index"`
	Items             []RequestItem `gorm:"foreignKey:RequestID;references:ID"`
	Kind              RequestKind   `gorm:"type:varchar(20);not null"`
	ExchangeProductID *uuid.UUID    `gorm:"type:uuid"`
	Reason            string        `gorm:"type:text;not null"`
	TrackingNumber    string        `gorm:"type:varchar(100)"` // shipment returning the goods
	Status            RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewedBy        *uuid.UUID    `gorm:"type:uuid"`
	ReviewedAt        *time.Time
	ReviewNotes       string     `gorm:"type:text"`
	RefundID          *uuid.UUID `gorm:"type:uuid"` // set when approval creates the refund
}

// TableName returns the table name for GORM
func (Request) TableName() string {
	return "refund_requests"
}

// NewRequest creates a pending refund request against a completed
// invoice. Line quantities are clamped to what the invoice shows. The
// request number is assigned by the repository at first save.
func NewRequest(inv *invoice.Invoice, customerID uuid.UUID, lines []RequestLine, kind RequestKind, exchangeProductID *uuid.UUID, reason, trackingNumber string) (*Request, error) {
	if !inv.IsCompleted() {
		return nil, shared.ErrInvoiceNotCompleted
	}
	if customerID != inv.CustomerID {
		return nil, shared.ErrForbidden
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown refund request kind")
	}
	if kind == RequestKindExchange && exchangeProductID == nil {
		return nil, shared.NewDomainError("MISSING_EXCHANGE_PRODUCT", "Exchange requests must name a replacement product")
	}
	if reason == "" {
		return nil, shared.NewDomainError("MISSING_REASON", "A reason is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_REQUEST", "Request must contain at least one line")
	}

	r := &Request{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         inv.ID,
		CustomerID:        customerID,
		Kind:              kind,
		ExchangeProductID: exchangeProductID,
		Reason:            reason,
		TrackingNumber:    trackingNumber,
		Status:            RequestStatusPending,
	}

	for _, line := range lines {
		invItem, ok := inv.GetItem(line.InvoiceItemID)
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_INVOICE_ITEM", "Requested line does not belong to the invoice")
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
		}

		qty := line.Quantity
		if qty > invItem.Quantity {
			qty = invItem.Quantity
		}

		r.Items = append(r.Items, RequestItem{
			ID:            uuid.New(),
			RequestID:     r.ID,
			InvoiceItemID: invItem.ID,
			ProductID:     invItem.ProductID,
			ProductName:   invItem.ProductName,
			Quantity:      qty,
		})
	}

	return r, nil
}

// Approve marks the request approved and links the refund created from it
func (r *Request) Approve(actorID uuid.UUID, refundID uuid.UUID, notes string) error {
	if r.Status != RequestStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending requests can be approved, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = RequestStatusApproved
	r.ReviewedBy = &actorID
	r.ReviewedAt = &now
	r.ReviewNotes = notes
	r.RefundID = &refundID
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRequestApprovedEvent(r))

	return nil
}

// Reject declines the request with a reason
func (r *Request) Reject(actorID uuid.UUID, reason string) error {
	if r.Status != RequestStatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending requests can be rejected, current status: "+string(r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("MISSING_REASON", "Rejection requires a reason")
	}

	now := time.Now()
	r.Status = RequestStatusRejected
	r.ReviewedBy = &actorID
	r.ReviewedAt = &now
	r.ReviewNotes = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// IsPending returns true while the request awaits review
func (r *Request) IsPending() bool {
	return r.Status == RequestStatusPending
}
