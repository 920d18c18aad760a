package order

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Prices are VAT-inclusive; the VAT portion is carved out of the subtotal
// rather than added on top.
var (
	// DefaultVATRate is the VAT percentage included in all selling prices
	DefaultVATRate = decimal.NewFromInt(12)
	// DefaultWithholdingTaxRate applies when a withholding agent is involved
	DefaultWithholdingTaxRate = decimal.NewFromInt(1)
	// MinimumDeliveryTotal is the smallest order total accepted for delivery
	MinimumDeliveryTotal = valueobject.MustParseMajor("500.00")
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is recognized
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if a transition to the target status is allowed.
// Approved, rejected and cancelled are terminal except that staff may
// cancel an approved order before its invoice exists.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusApproved || target == StatusRejected || target == StatusCancelled
	case StatusApproved:
		return target == StatusCancelled
	default:
		return false
	}
}

// DeliveryType indicates how the customer receives the goods
type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "pickup"
	DeliveryTypeDelivery DeliveryType = "delivery"
)

// IsValid checks if the delivery type is recognized
func (d DeliveryType) IsValid() bool {
	return d == DeliveryTypePickup || d == DeliveryTypeDelivery
}

// PaymentMethod indicates how the order will be paid
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCredit PaymentMethod = "credit"
)

// IsValid checks if the payment method is recognized
func (p PaymentMethod) IsValid() bool {
	return p == PaymentMethodCash || p == PaymentMethodCredit
}

// Item is one order line. Name and unit price are snapshots taken at
// submission so later catalog edits cannot change what was ordered.
type Item struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName string            `gorm:"type:varchar(200);not null"`
	Quantity    int64             `gorm:"not null"`
	UnitPrice   valueobject.Money `gorm:"type:bigint;not null"`
	LineTotal   valueobject.Money `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// NewItem creates an order line
func NewItem(productID uuid.UUID, productName string, quantity int64, unitPrice valueobject.Money) (Item, error) {
	if productID == uuid.Nil {
		return Item{}, shared.NewDomainError("INVALID_ITEM", "Product ID is required")
	}
	if quantity <= 0 {
		return Item{}, shared.NewDomainError("INVALID_ITEM", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return Item{}, shared.NewDomainError("INVALID_ITEM", "Unit price cannot be negative")
	}

	return Item{
		ID:          uuid.New(),
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.MulQty(quantity),
	}, nil
}

// Order is a customer's request to purchase. It is the aggregate root of
// the fulfillment state machine: pending orders can be approved (which
// creates the invoice and moves stock), rejected, or cancelled.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber          string            `gorm:"type:varchar(20);not null;uniqueIndex"`
	CustomerID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status               Status            `gorm:"type:varchar(20);not null;default:'pending';index"`
	Items                []Item            `gorm:"foreignKey:OrderID;references:ID"`
	DeliveryType         DeliveryType      `gorm:"type:varchar(20);not null"`
	DeliveryAddress      string            `gorm:"type:text"`
	PaymentMethod        PaymentMethod     `gorm:"type:varchar(20);not null"`
	CreditTermDays       int               `gorm:"not null;default:0"`
	Notes                string            `gorm:"type:text"`
	Subtotal             valueobject.Money `gorm:"type:bigint;not null;default:0"`
	VATRate              decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	VATAmount            valueobject.Money `gorm:"type:bigint;not null;default:0"`
	WithholdingTaxRate   decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	WithholdingTaxAmount valueobject.Money `gorm:"type:bigint;not null;default:0"`
	TotalAmount          valueobject.Money `gorm:"type:bigint;not null;default:0"`
	InvoiceID            *uuid.UUID        `gorm:"type:uuid;index"`
	ApprovedBy           *uuid.UUID        `gorm:"type:uuid"`
	ApprovedAt           *time.Time
	RejectedBy           *uuid.UUID `gorm:"type:uuid"`
	RejectedAt           *time.Time
	RejectionReason      string     `gorm:"type:text"`
	CancelledBy          *uuid.UUID `gorm:"type:uuid"`
	CancelledAt          *time.Time
	CancellationReason   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a pending order and computes its totals. The order
// number is assigned by the repository at first save.
func NewOrder(customerID uuid.UUID, deliveryType DeliveryType, deliveryAddress string, paymentMethod PaymentMethod, creditTermDays int, notes string, items []Item) (*Order, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID is required")
	}
	if !deliveryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DELIVERY_TYPE", "Unknown delivery type")
	}
	if !paymentMethod.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Order must contain at least one item")
	}
	if deliveryType == DeliveryTypeDelivery && deliveryAddress == "" {
		return nil, shared.NewDomainError("MISSING_ADDRESS", "Delivery orders require an address")
	}
	if paymentMethod == PaymentMethodCredit && creditTermDays <= 0 {
		return nil, shared.NewDomainError("INVALID_CREDIT_TERM", "Credit orders require a positive term in days")
	}

	o := &Order{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		CustomerID:         customerID,
		Status:             StatusPending,
		DeliveryType:       deliveryType,
		DeliveryAddress:    deliveryAddress,
		PaymentMethod:      paymentMethod,
		CreditTermDays:     creditTermDays,
		Notes:              notes,
		VATRate:            DefaultVATRate,
		WithholdingTaxRate: DefaultWithholdingTaxRate,
	}

	for _, item := range items {
		item.OrderID = o.ID
		o.Items = append(o.Items, item)
	}
	o.recalculateTotals()

	if deliveryType == DeliveryTypeDelivery && o.TotalAmount.LessThan(MinimumDeliveryTotal) {
		return nil, shared.ErrMinimumOrderNotMet
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// recalculateTotals derives the money fields from the items. Prices are
// VAT-inclusive, so the total equals the subtotal and the VAT amount is
// the portion contained within it. Withholding tax stays at zero unless
// explicitly applied.
func (o *Order) recalculateTotals() {
	subtotal := valueobject.Zero()
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	o.Subtotal = subtotal
	o.VATAmount = subtotal.InclusiveTaxPortion(o.VATRate)
	o.TotalAmount = subtotal
}

// Approve transitions a pending order to approved and links the invoice
// created for it. Stock checks and the invoice itself are the caller's
// responsibility; both happen in the same transaction as this save.
func (o *Order) Approve(actorID uuid.UUID, invoiceID uuid.UUID) error {
	if !o.Status.CanTransitionTo(StatusApproved) {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending orders can be approved, current status: "+o.Status.String())
	}

	now := time.Now()
	o.Status = StatusApproved
	o.InvoiceID = &invoiceID
	o.ApprovedBy = &actorID
	o.ApprovedAt = &now
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderApprovedEvent(o))

	return nil
}

// Reject transitions a pending order to rejected. A reason is required.
func (o *Order) Reject(actorID uuid.UUID, reason string) error {
	if !o.Status.CanTransitionTo(StatusRejected) {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending orders can be rejected, current status: "+o.Status.String())
	}
	if reason == "" {
		return shared.NewDomainError("MISSING_REASON", "Rejection requires a reason")
	}

	now := time.Now()
	o.Status = StatusRejected
	o.RejectedBy = &actorID
	o.RejectedAt = &now
	o.RejectionReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderRejectedEvent(o, reason))

	return nil
}

// Cancel transitions the order to cancelled, applying role rules:
// customers may cancel only their own pending orders; staff may cancel
// pending orders always and approved orders only while no invoice exists.
func (o *Order) Cancel(actor shared.Actor, reason string) error {
	if actor.Role == shared.RoleCustomer {
		if actor.ID != o.CustomerID {
			return shared.ErrForbidden
		}
		if o.Status != StatusPending {
			return shared.NewDomainError("INVALID_STATE",
				"Customers can only cancel pending orders")
		}
	} else {
		if !o.Status.CanTransitionTo(StatusCancelled) {
			return shared.NewDomainError("INVALID_STATE",
				"Cannot cancel an order in status "+o.Status.String())
		}
		if o.Status == StatusApproved && o.InvoiceID != nil {
			return shared.NewDomainError("INVALID_STATE",
				"Approved orders with an invoice must be handled through a refund")
		}
	}

	now := time.Now()
	o.Status = StatusCancelled
	o.CancelledBy = &actor.ID
	o.CancelledAt = &now
	o.CancellationReason = reason
	o.UpdatedAt = now
	o.IncrementVersion()

	o.AddDomainEvent(NewOrderCancelledEvent(o, reason))

	return nil
}

// IsPending returns true if the order awaits a decision
func (o *Order) IsPending() bool {
	return o.Status == StatusPending
}

// IsApproved returns true if the order has been approved
func (o *Order) IsApproved() bool {
	return o.Status == StatusApproved
}

// GetItem finds an order line by product
func (o *Order) GetItem(productID uuid.UUID) (Item, bool) {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}
