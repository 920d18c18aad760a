package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product represents a sellable SKU. It is the aggregate root for
// catalog operations and holds the authoritative on-hand stock quantity;
// stock may only change through the ledger so every delta leaves a
// movement row behind.
type Product struct {
	shared.BaseAggregateRoot
	SKU           string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string            `gorm:"type:varchar(200);not null"`
	Description   string            `gorm:"type:text"`
	Unit          string            `gorm:"type:varchar(20);not null"` // e.g. "pcs", "box"
	SellingPrice  valueobject.Money `gorm:"type:bigint;not null;default:0"`
	StockQuantity int64             `gorm:"not null;default:0"`
	Status        ProductStatus     `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(sku, name, unit string, sellingPrice valueobject.Money) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if strings.TrimSpace(unit) == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Product unit cannot be empty")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(sku),
		Name:              name,
		Unit:              unit,
		SellingPrice:      sellingPrice,
		StockQuantity:     0,
		Status:            ProductStatusActive,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetSellingPrice updates the selling price
func (p *Product) SetSellingPrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}

	p.SellingPrice = price
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Activate marks the product as sellable
func (p *Product) Activate() {
	p.Status = ProductStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Deactivate removes the product from sale without touching stock
func (p *Product) Deactivate() {
	p.Status = ProductStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsActive returns true if the product can be sold
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasSufficientStock returns true if at least qty units are on hand
func (p *Product) HasSufficientStock(qty int64) bool {
	return p.StockQuantity >= qty
}

// ApplyStockDelta mutates the on-hand quantity. Only the stock ledger
// calls this, so every delta is paired with a movement row; the
// non-negativity invariant is enforced here as the last line of defense.
func (p *Product) ApplyStockDelta(delta int64) error {
	next := p.StockQuantity + delta
	if next < 0 {
		return fmt.Errorf("stock for %s would become negative (%d): %w",
			p.SKU, next, shared.ErrInsufficientStock)
	}

	p.StockQuantity = next
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}
