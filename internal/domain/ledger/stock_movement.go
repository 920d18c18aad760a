package ledger

import (
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementTypeSale       MovementType = "sale"       // invoice fulfillment, negative quantity
	MovementTypeRefund     MovementType = "refund"     // goods returned to stock, positive quantity
	MovementTypeWriteOff   MovementType = "writeoff"   // goods destroyed, negative quantity
	MovementTypeAdjustment MovementType = "adjustment" // manual correction, either sign
)

// IsValid checks if the movement type is recognized
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeSale, MovementTypeRefund, MovementTypeWriteOff, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is one immutable row in the append-only stock ledger.
// Quantity is the signed delta applied to the product's on-hand stock;
// QuantityAfter always equals QuantityBefore + Quantity, so replaying the
// ledger from zero reproduces the current stock exactly.
type StockMovement struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	ProductID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type           MovementType `gorm:"type:varchar(20);not null;index"`
	Quantity       int64        `gorm:"not null"`
	QuantityBefore int64        `gorm:"not null"`
	QuantityAfter  int64        `gorm:"not null"`
	InvoiceID      *uuid.UUID   `gorm:"type:uuid;index"`
	RefundID       *uuid.UUID   `gorm:"type:uuid;index"`
	ActorID        *uuid.UUID   `gorm:"type:uuid"`
	Notes          string       `gorm:"type:text"`
	CreatedAt      time.Time    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// newStockMovement records a single applied delta
func newStockMovement(productID uuid.UUID, movType MovementType, quantity, before int64) StockMovement {
	return StockMovement{
		ID:             uuid.New(),
		ProductID:      productID,
		Type:           movType,
		Quantity:       quantity,
		QuantityBefore: before,
		QuantityAfter:  before + quantity,
		CreatedAt:      time.Now(),
	}
}

// WithInvoice links the movement to the invoice that caused it
func (m StockMovement) WithInvoice(invoiceID uuid.UUID) StockMovement {
	m.InvoiceID = &invoiceID
	return m
}

// WithRefund links the movement to the refund that caused it
func (m StockMovement) WithRefund(refundID uuid.UUID) StockMovement {
	m.RefundID = &refundID
	return m
}

// WithActor records who triggered the movement
func (m StockMovement) WithActor(actorID uuid.UUID) StockMovement {
	m.ActorID = &actorID
	return m
}

// WithNotes attaches a free-form note
func (m StockMovement) WithNotes(notes string) StockMovement {
	m.Notes = notes
	return m
}

// Validate checks the internal consistency of a movement row
func (m StockMovement) Validate() error {
	if !m.Type.IsValid() {
		return shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Unknown stock movement type")
	}
	if m.QuantityAfter != m.QuantityBefore+m.Quantity {
		return shared.NewDomainError("INCONSISTENT_MOVEMENT", "Movement balance does not add up")
	}
	if m.QuantityAfter < 0 {
		return shared.NewDomainError("INCONSISTENT_MOVEMENT", "Movement leaves a negative balance")
	}
	return nil
}

// Replay folds a product's movements in order and returns the resulting
// stock quantity. Movements must all belong to the same product.
func Replay(movements []StockMovement) int64 {
	var qty int64
	for _, m := range movements {
		qty += m.Quantity
	}
	return qty
}
