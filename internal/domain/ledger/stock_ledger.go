package ledger

import (
	"fmt"
	"strings"

	"github.com/backoffice/backend/internal/domain/catalog"
	"github.com/backoffice/backend/internal/domain/shared"
)

// StockShortage describes one product that cannot cover a requested debit
type StockShortage struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

// InsufficientStockError carries the full list of shortfalls so a caller
// checking several lines learns about every offending product at once
type InsufficientStockError struct {
	Shortages []StockShortage
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)",
			s.ProductName, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match the shared sentinel
func (e *InsufficientStockError) Unwrap() error {
	return shared.ErrInsufficientStock
}

// StockLedger applies stock changes to products and records each change
// as a movement. Callers are responsible for loading the product under a
// row lock and for persisting both the product and the returned movement
// in the same transaction.
type StockLedger struct{}

// NewStockLedger creates a stock ledger service
func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// CheckAvailability verifies that the product can cover qty units without
// changing anything. Returns a shortage description when it cannot.
func (l *StockLedger) CheckAvailability(product *catalog.Product, qty int64) *StockShortage {
	if product.HasSufficientStock(qty) {
		return nil
	}
	return &StockShortage{
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		Requested:   qty,
		Available:   product.StockQuantity,
	}
}

// Debit removes qty units of sellable stock (a sale). Fails with
// InsufficientStockError when the product cannot cover the quantity.
func (l *StockLedger) Debit(product *catalog.Product, qty int64) (StockMovement, error) {
	if qty <= 0 {
		return StockMovement{}, shared.NewDomainError("INVALID_QUANTITY", "Debit quantity must be positive")
	}
	if shortage := l.CheckAvailability(product, qty); shortage != nil {
		return StockMovement{}, &InsufficientStockError{Shortages: []StockShortage{*shortage}}
	}

	before := product.StockQuantity
	if err := product.ApplyStockDelta(-qty); err != nil {
		return StockMovement{}, err
	}

	return newStockMovement(product.ID, MovementTypeSale, -qty, before), nil
}

// Credit returns qty units to sellable stock (a completed refund)
func (l *StockLedger) Credit(product *catalog.Product, qty int64) (StockMovement, error) {
	if qty <= 0 {
		return StockMovement{}, shared.NewDomainError("INVALID_QUANTITY", "Credit quantity must be positive")
	}

	before := product.StockQuantity
	if err := product.ApplyStockDelta(qty); err != nil {
		return StockMovement{}, err
	}

	return newStockMovement(product.ID, MovementTypeRefund, qty, before), nil
}

// WriteOff removes qty units that will never be sold (damaged or
// destroyed goods). Stock cannot go negative.
func (l *StockLedger) WriteOff(product *catalog.Product, qty int64) (StockMovement, error) {
	if qty <= 0 {
		return StockMovement{}, shared.NewDomainError("INVALID_QUANTITY", "Write-off quantity must be positive")
	}

	before := product.StockQuantity
	if err := product.ApplyStockDelta(-qty); err != nil {
		return StockMovement{}, err
	}

	return newStockMovement(product.ID, MovementTypeWriteOff, -qty, before), nil
}

// Adjust sets the product's stock to newQty, recording the delta as a
// manual adjustment. A zero delta produces no movement.
func (l *StockLedger) Adjust(product *catalog.Product, newQty int64) (StockMovement, bool, error) {
	if newQty < 0 {
		return StockMovement{}, false, shared.NewDomainError("INVALID_QUANTITY", "Stock cannot be set below zero")
	}

	before := product.StockQuantity
	delta := newQty - before
	if delta == 0 {
		return StockMovement{}, false, nil
	}
	if err := product.ApplyStockDelta(delta); err != nil {
		return StockMovement{}, false, err
	}

	return newStockMovement(product.ID, MovementTypeAdjustment, delta, before), true, nil
}
