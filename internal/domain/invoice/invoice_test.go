package invoice

import (
	"testing"
	"time"

	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrder(t *testing.T, method order.PaymentMethod, termDays int) *order.Order {
	t.Helper()
	item, err := order.NewItem(uuid.New(), "Widget", 4, valueobject.MustParseMajor("280.00"))
	require.NoError(t, err)
	o, err := order.NewOrder(uuid.New(), order.DeliveryTypePickup, "", method, termDays, "", []order.Item{item})
	require.NoError(t, err)
	return o
}

func TestNewInvoiceFromOrder(t *testing.T) {
	o := buildOrder(t, order.PaymentMethodCash, 0)

	inv, err := NewInvoiceFromOrder(o, uuid.New())
	require.NoError(t, err)

	// Amounts must match the order verbatim, not be recomputed.
	assert.Equal(t, o.Subtotal, inv.Subtotal)
	assert.Equal(t, o.VATAmount, inv.VATAmount)
	assert.True(t, o.VATRate.Equal(inv.VATRate))
	assert.Equal(t, o.TotalAmount, inv.TotalAmount)
	assert.Equal(t, o.WithholdingTaxAmount, inv.WithholdingTaxAmount)

	require.Len(t, inv.Items, 1)
	assert.Equal(t, o.Items[0].ProductID, inv.Items[0].ProductID)
	assert.Equal(t, o.Items[0].Quantity, inv.Items[0].Quantity)
	assert.Equal(t, o.Items[0].UnitPrice, inv.Items[0].UnitPrice)
	assert.Equal(t, inv.ID, inv.Items[0].InvoiceID)

	assert.Equal(t, StatusPending, inv.Status)
	assert.Equal(t, PaymentStatusPending, inv.PaymentStatus)
	assert.Nil(t, inv.DueDate, "cash invoices carry no due date")
}

func TestCreditInvoiceDueDate(t *testing.T) {
	o := buildOrder(t, order.PaymentMethodCredit, 30)

	inv, err := NewInvoiceFromOrder(o, uuid.New())
	require.NoError(t, err)

	require.NotNil(t, inv.DueDate)
	wantDay := time.Now().AddDate(0, 0, 30)
	assert.WithinDuration(t, wantDay, *inv.DueDate, time.Minute)
}

func TestInvoiceLifecycle(t *testing.T) {
	o := buildOrder(t, order.PaymentMethodCash, 0)

	t.Run("complete then pay", func(t *testing.T) {
		inv, err := NewInvoiceFromOrder(o, uuid.New())
		require.NoError(t, err)

		require.NoError(t, inv.MarkCompleted())
		assert.True(t, inv.IsCompleted())
		assert.Error(t, inv.MarkCompleted(), "cannot complete twice")

		require.NoError(t, inv.MarkPaid())
		assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
		assert.Error(t, inv.MarkPaid(), "cannot pay twice")
	})

	t.Run("cancel only while pending", func(t *testing.T) {
		inv, err := NewInvoiceFromOrder(o, uuid.New())
		require.NoError(t, err)

		require.NoError(t, inv.MarkCompleted())
		assert.Error(t, inv.Cancel())
	})

	t.Run("cancelled invoice cannot be paid", func(t *testing.T) {
		inv, err := NewInvoiceFromOrder(o, uuid.New())
		require.NoError(t, err)

		require.NoError(t, inv.Cancel())
		assert.Error(t, inv.MarkPaid())
	})
}

func TestNetBalance(t *testing.T) {
	o := buildOrder(t, order.PaymentMethodCash, 0)
	inv, err := NewInvoiceFromOrder(o, uuid.New())
	require.NoError(t, err)

	refunded := valueobject.MustParseMajor("280.00")
	assert.Equal(t, "840.00", inv.NetBalance(refunded).MajorString())
	assert.Equal(t, "1120.00", inv.NetBalance(valueobject.Zero()).MajorString())
}
