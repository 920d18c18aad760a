package catalog

import (
	"errors"
	"testing"

	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	price := valueobject.MustParseMajor("250.00")

	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct("wid-001", "Widget", "pcs", price)
		require.NoError(t, err)
		assert.Equal(t, "WID-001", p.SKU)
		assert.Equal(t, int64(0), p.StockQuantity)
		assert.Equal(t, ProductStatusActive, p.Status)
		assert.Equal(t, 1, p.GetVersion())
	})

	t.Run("empty sku rejected", func(t *testing.T) {
		_, err := NewProduct("", "Widget", "pcs", price)
		assert.Error(t, err)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		_, err := NewProduct("WID-001", "Widget", "pcs", valueobject.FromMinorUnits(-1))
		assert.Error(t, err)
	})
}

func TestProductApplyStockDelta(t *testing.T) {
	p, err := NewProduct("WID-001", "Widget", "pcs", valueobject.MustParseMajor("250.00"))
	require.NoError(t, err)

	require.NoError(t, p.ApplyStockDelta(10))
	assert.Equal(t, int64(10), p.StockQuantity)

	require.NoError(t, p.ApplyStockDelta(-4))
	assert.Equal(t, int64(6), p.StockQuantity)

	err = p.ApplyStockDelta(-7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
	assert.Equal(t, int64(6), p.StockQuantity, "failed delta must not change stock")
}

func TestProductHasSufficientStock(t *testing.T) {
	p := &Product{StockQuantity: 5}
	assert.True(t, p.HasSufficientStock(5))
	assert.False(t, p.HasSufficientStock(6))
}
