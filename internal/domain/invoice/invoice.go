package invoice

import (
	"time"

	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status tracks invoice fulfillment, not payment
type Status string

const (
	StatusPending   Status = "pending"   // goods not yet handed over
	StatusCompleted Status = "completed" // delivered or picked up
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is recognized
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus tracks whether the invoice has been settled
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Item is a frozen copy of an order line at approval time
type Item struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	ProductName string            `gorm:"type:varchar(200);not null"`
	Quantity    int64             `gorm:"not null"`
	UnitPrice   valueobject.Money `gorm:"type:bigint;not null"`
	LineTotal   valueobject.Money `gorm:"type:bigint;not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "invoice_items"
}

// Invoice is the immutable financial record produced when an order is
// approved. Its amounts are copied verbatim from the order and never
// recomputed; refunds reference the invoice instead of mutating it.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber        string            `gorm:"type:varchar(20);not null;uniqueIndex"`
	OrderID              uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID           uuid.UUID         `gorm:"type:uuid;not null;index"`
	Items                []Item            `gorm:"foreignKey:InvoiceID;references:ID"`
	Subtotal             valueobject.Money `gorm:"type:bigint;not null"`
	VATRate              decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	VATAmount            valueobject.Money `gorm:"type:bigint;not null"`
	WithholdingTaxRate   decimal.Decimal   `gorm:"type:decimal(5,2);not null"`
	WithholdingTaxAmount valueobject.Money `gorm:"type:bigint;not null"`
	TotalAmount          valueobject.Money `gorm:"type:bigint;not null"`
	Status               Status            `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus        PaymentStatus     `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt               *time.Time
	DueDate              *time.Time
	CompletedAt          *time.Time
	CreatedBy            uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoiceFromOrder freezes an approved order into an invoice. Amounts
// are copied field for field; nothing is recomputed here so the invoice
// can never drift from what the customer was shown. The invoice number
// is assigned by the repository at first save.
func NewInvoiceFromOrder(o *order.Order, createdBy uuid.UUID) (*Invoice, error) {
	if len(o.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_ORDER", "Cannot invoice an order without items")
	}

	inv := &Invoice{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		OrderID:              o.ID,
		CustomerID:           o.CustomerID,
		Subtotal:             o.Subtotal,
		VATRate:              o.VATRate,
		VATAmount:            o.VATAmount,
		WithholdingTaxRate:   o.WithholdingTaxRate,
		WithholdingTaxAmount: o.WithholdingTaxAmount,
		TotalAmount:          o.TotalAmount,
		Status:               StatusPending,
		PaymentStatus:        PaymentStatusPending,
		CreatedBy:            createdBy,
	}

	for _, line := range o.Items {
		inv.Items = append(inv.Items, Item{
			ID:          uuid.New(),
			InvoiceID:   inv.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
		})
	}

	if o.PaymentMethod == order.PaymentMethodCredit && o.CreditTermDays > 0 {
		due := time.Now().AddDate(0, 0, o.CreditTermDays)
		inv.DueDate = &due
	}

	return inv, nil
}

// MarkCompleted records that the goods were handed over. Refund requests
// are only accepted against completed invoices.
func (i *Invoice) MarkCompleted() error {
	if i.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending invoices can be completed, current status: "+string(i.Status))
	}

	now := time.Now()
	i.Status = StatusCompleted
	i.CompletedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	return nil
}

// MarkPaid records settlement of the invoice
func (i *Invoice) MarkPaid() error {
	if i.PaymentStatus == PaymentStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Invoice is already paid")
	}
	if i.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cancelled invoices cannot be paid")
	}

	now := time.Now()
	i.PaymentStatus = PaymentStatusPaid
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	return nil
}

// Cancel voids an unfulfilled invoice
func (i *Invoice) Cancel() error {
	if i.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE",
			"Only pending invoices can be cancelled, current status: "+string(i.Status))
	}

	i.Status = StatusCancelled
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return nil
}

// IsCompleted returns true once the goods were handed over
func (i *Invoice) IsCompleted() bool {
	return i.Status == StatusCompleted
}

// GetItem finds an invoice line by its ID
func (i *Invoice) GetItem(itemID uuid.UUID) (Item, bool) {
	for _, item := range i.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// NetBalance is the invoice total minus already granted refunds. The
// refunded amount is supplied by the caller (the refund aggregate owns
// that data).
func (i *Invoice) NetBalance(refunded valueobject.Money) valueobject.Money {
	return i.TotalAmount.Sub(refunded)
}
