package refund

import (
	"time"

	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Type classifies how much of the invoice a refund covers
type Type string

const (
	TypeFull     Type = "full"
	TypePartial  Type = "partial"
	TypeExchange Type = "exchange"
)

// Method is how the customer is compensated
type Method string

const (
	MethodCash         Method = "cash"
	MethodBankTransfer Method = "bank_transfer"
	MethodEWallet      Method = "e_wallet"
	MethodCreditNote   Method = "credit_note"
	MethodExchange     Method = "exchange"
)

// IsValid checks if the method is recognized
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodEWallet, MethodCreditNote, MethodExchange:
		return true
	}
	return false
}

// Status is the lifecycle state of a refund
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusProcessed Status = "processed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransitionTo checks if a transition to the target status is allowed.
// The happy path is pending -> approved -> processed -> completed;
// cancellation is possible until processing starts.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusProcessed || target == StatusCancelled
	case StatusProcessed:
		return target == StatusCompleted
	default:
		return false
	}
}

// CountsAgainstInvoice reports whether a refund in this status consumes
// part of the invoice's refundable total
func (s Status) CountsAgainstInvoice() bool {
	return s == StatusApproved || s == StatusProcessed || s == StatusCompleted
}

// Item is one refunded line, frozen from the invoice at approval
type Item struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	RefundID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	InvoiceItemID uuid.UUID         `gorm:"type:uuid;not null"`
	ProductID     uuid.UUID         `gorm:"type:uuid;not null"`
	ProductName   string            `gorm:"type:varchar(200);not null"`
	Quantity      int64             `gorm:"not null"`
	UnitPrice     valueobject.Money `gorm:"type:bigint;not null"`
	Amount        valueobject.Money `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "refund_items"
}

// Refund is money (or replacement goods) owed back to a customer against
// an invoice. Completion is the point where stock moves: returned goods
// are credited back or written off, with movement rows linking here.
type Refund struct {
	shared.BaseAggregateRoot
	RefundNumber      string            `gorm:"type:varchar(20);not null;uniqueIndex"`
	InvoiceID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	RequestID         *uuid.UUID        `gorm:"type:uuid;index"`
	CustomerID        uuid.UUID         `gorm:"type:uuid;not null;index"`
	Items             []Item            `gorm:"foreignKey:RefundID;references:ID"`
	TotalAmount       valueobject.Money `gorm:"type:bigint;not null"`
	RefundType        Type              `gorm:"type:varchar(20);not null"`
	Method            Method            `gorm:"type:varchar(20);not null"`
	ExchangeProductID *uuid.UUID        `gorm:"type:uuid"`
	Reason            string            `gorm:"type:text"`
	Status            Status            `gorm:"type:varchar(20);not null;default:'pending';index"`
	ApprovedBy        *uuid.UUID        `gorm:"type:uuid"`
	ApprovedAt        *time.Time
	ProcessedBy       *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt       *time.Time
	CompletedBy       *uuid.UUID `gorm:"type:uuid"`
	CompletedAt       *time.Time
	CancelledBy       *uuid.UUID `gorm:"type:uuid"`
	CancelledAt       *time.Time
	CancellationReason string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Refund) TableName() string {
	return "refunds"
}

// NewFromRequest builds an approved refund from an approved request. Each
// line takes min(requested, invoiced) units at the invoice's unit price;
// the refund type is full only when every invoice line is returned in
// its entirety. Exchange requests always carry the exchange method and
// type. The refund number is assigned by the repository at first save.
func NewFromRequest(req *Request, inv *invoice.Invoice, method Method, approvedBy uuid.UUID) (*Refund, error) {
	if req.InvoiceID != inv.ID {
		return nil, shared.NewDomainError("INVOICE_MISMATCH", "Request does not belong to this invoice")
	}
	if req.Kind == RequestKindExchange {
		method = MethodExchange
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown refund method")
	}

	now := time.Now()
	r := &Refund{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         inv.ID,
		CustomerID:        req.CustomerID,
		Method:            method,
		ExchangeProductID: req.ExchangeProductID,
		Reason:            req.Reason,
		Status:            StatusApproved,
		ApprovedBy:        &approvedBy,
		ApprovedAt:        &now,
	}
	reqID := req.ID
	r.RequestID = &reqID

	total := valueobject.Zero()
	refundedByInvoiceItem := make(map[uuid.UUID]int64)
	for _, line := range req.Items {
		invItem, ok := inv.GetItem(line.InvoiceItemID)
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_INVOICE_ITEM", "Requested line does not belong to the invoice")
		}

		qty := line.Quantity
		if qty > invItem.Quantity {
			qty = invItem.Quantity
		}
		amount := invItem.UnitPrice.MulQty(qty)
		total = total.Add(amount)
		refundedByInvoiceItem[invItem.ID] += qty

		r.Items = append(r.Items, Item{
			ID:            uuid.New(),
			RefundID:      r.ID,
			InvoiceItemID: invItem.ID,
			ProductID:     invItem.ProductID,
			ProductName:   invItem.ProductName,
			Quantity:      qty,
			UnitPrice:     invItem.UnitPrice,
			Amount:        amount,
		})
	}
	r.TotalAmount = total

	switch {
	case req.Kind == RequestKindExchange:
		r.RefundType = TypeExchange
	case coversWholeInvoice(inv, refundedByInvoiceItem):
		r.RefundType = TypeFull
	default:
		r.RefundType = TypePartial
	}

	return r, nil
}

// NewDirect creates a pending refund entered by staff without a customer
// request, e.g. for goods rejected at the door.
func NewDirect(inv *invoice.Invoice, lines []RequestLine, method Method, reason string) (*Refund, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown refund method")
	}
	if method == MethodExchange {
		return nil, shared.NewDomainError("INVALID_METHOD", "Exchanges must go through a refund request")
	}
	if reason == "" {
		return nil, shared.NewDomainError("MISSING_REASON", "A reason is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_REFUND", "Refund must contain at least one line")
	}

	r := &Refund{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceID:         inv.ID,
		CustomerID:        inv.CustomerID,
		Method:            method,
		Reason:            reason,
		Status:            StatusPending,
	}

	total := valueobject.Zero()
	refundedByInvoiceItem := make(map[uuid.UUID]int64)
	for _, line := range lines {
		invItem, ok := inv.GetItem(line.InvoiceItemID)
		if !ok {
			return nil, shared.NewDomainError("UNKNOWN_INVOICE_ITEM", "Line does not belong to the invoice")
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}

		qty := line.Quantity
		if qty > invItem.Quantity {
			qty = invItem.Quantity
		}
		amount := invItem.UnitPrice.MulQty(qty)
		total = total.Add(amount)
		refundedByInvoiceItem[invItem.ID] += qty

		r.Items = append(r.Items, Item{
			ID:            uuid.New(),
			RefundID:      r.ID,
			InvoiceItemID: invItem.ID,
			ProductID:     invItem.ProductID,
			ProductName:   invItem.ProductName,
			Quantity:      qty,
			UnitPrice:     invItem.UnitPrice,
			Amount:        amount,
		})
	}
	r.TotalAmount = total

	if coversWholeInvoice(inv, refundedByInvoiceItem) {
		r.RefundType = TypeFull
	} else {
		r.RefundType = TypePartial
	}

	return r, nil
}

func coversWholeInvoice(inv *invoice.Invoice, refunded map[uuid.UUID]int64) bool {
	for _, item := range inv.Items {
		if refunded[item.ID] != item.Quantity {
			return false
		}
	}
	return true
}

// IsExchange returns true when the customer receives replacement goods
// instead of money
func (r *Refund) IsExchange() bool {
	return r.RefundType == TypeExchange
}

// Approve moves a pending refund into the approved state
func (r *Refund) Approve(actorID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusApproved) {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending refunds can be approved, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = StatusApproved
	r.ApprovedBy = &actorID
	r.ApprovedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// Process marks the payout as underway
func (r *Refund) Process(actorID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusProcessed) {
		return shared.NewDomainError("INVALID_STATE",
			"Only approved refunds can be processed, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = StatusProcessed
	r.ProcessedBy = &actorID
	r.ProcessedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}

// Complete finishes the refund. The stock consequences (credit or write
// off of returned goods) happen in the same transaction as this save.
func (r *Refund) Complete(actorID uuid.UUID) error {
	if !r.Status.CanTransitionTo(StatusCompleted) {
		return shared.NewDomainError("INVALID_STATE",
			"Only processed refunds can be completed, current status: "+string(r.Status))
	}

	now := time.Now()
	r.Status = StatusCompleted
	r.CompletedBy = &actorID
	r.CompletedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()

	r.AddDomainEvent(NewRefundCompletedEvent(r))

	return nil
}

// Cancel abandons a refund that has not started processing
func (r *Refund) Cancel(actorID uuid.UUID, reason string) error {
	if !r.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainError("INVALID_STATE",
			"Refunds can only be cancelled before processing, current status: "+string(r.Status))
	}
	if reason == "" {
		return shared.NewDomainError("MISSING_REASON", "Cancellation requires a reason")
	}

	now := time.Now()
	r.Status = StatusCancelled
	r.CancelledBy = &actorID
	r.CancelledAt = &now
	r.CancellationReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()

	return nil
}
