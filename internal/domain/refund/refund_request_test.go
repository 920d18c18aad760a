package refund

import (
	"testing"

	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	inv := completedInvoice(t)

	t.Run("valid request", func(t *testing.T) {
		req, err := NewRequest(inv, inv.CustomerID,
			[]RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 2}},
			RequestKindRefund, nil, "damaged", "TRK-1")
		require.NoError(t, err)

		assert.Equal(t, RequestStatusPending, req.Status)
		require.Len(t, req.Items, 1)
		assert.Equal(t, int64(2), req.Items[0].Quantity)
		assert.Equal(t, inv.Items[0].ProductID, req.Items[0].ProductID)
	})

	t.Run("quantity clamped to invoiced", func(t *testing.T) {
		req, err := NewRequest(inv, inv.CustomerID,
			[]RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 10}},
			RequestKindRefund, nil, "damaged", "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), req.Items[0].Quantity)
	})

	t.Run("only the invoice's customer may request", func(t *testing.T) {
		_, err := NewRequest(inv, uuid.New(),
			[]RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 1}},
			RequestKindRefund, nil, "damaged", "")
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("uncompleted invoice rejected", func(t *testing.T) {
		item, err := order.NewItem(uuid.New(), "Widget", 1, valueobject.MustParseMajor("50.00"))
		require.NoError(t, err)
		o, err := order.NewOrder(uuid.New(), order.DeliveryTypePickup, "", order.PaymentMethodCash, 0, "", []order.Item{item})
		require.NoError(t, err)
		pendingInv, err := invoice.NewInvoiceFromOrder(o, uuid.New())
		require.NoError(t, err)

		_, err = NewRequest(pendingInv, pendingInv.CustomerID,
			[]RequestLine{{InvoiceItemID: pendingInv.Items[0].ID, Quantity: 1}},
			RequestKindRefund, nil, "damaged", "")
		assert.ErrorIs(t, err, shared.ErrInvoiceNotCompleted)
	})

	t.Run("foreign invoice item rejected", func(t *testing.T) {
		_, err := NewRequest(inv, inv.CustomerID,
			[]RequestLine{{InvoiceItemID: uuid.New(), Quantity: 1}},
			RequestKindRefund, nil, "damaged", "")
		assert.Error(t, err)
	})

	t.Run("exchange requires a replacement product", func(t *testing.T) {
		_, err := NewRequest(inv, inv.CustomerID,
			[]RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 1}},
			RequestKindExchange, nil, "wrong size", "")
		assert.Error(t, err)
	})

	t.Run("reason required", func(t *testing.T) {
		_, err := NewRequest(inv, inv.CustomerID,
			[]RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 1}},
			RequestKindRefund, nil, "", "")
		assert.Error(t, err)
	})
}

func TestRequestReview(t *testing.T) {
	inv := completedInvoice(t)
	staff := uuid.New()

	t.Run("approve links the refund", func(t *testing.T) {
		req := pendingRequest(t, inv, []RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 1}})
		refundID := uuid.New()

		require.NoError(t, req.Approve(staff, refundID, "ok"))
		assert.Equal(t, RequestStatusApproved, req.Status)
		require.NotNil(t, req.RefundID)
		assert.Equal(t, refundID, *req.RefundID)

		events := req.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventRequestApproved, events[0].EventType())

		assert.Error(t, req.Approve(staff, uuid.New(), ""), "cannot approve twice")
	})

	t.Run("reject requires reason", func(t *testing.T) {
		req := pendingRequest(t, inv, []RequestLine{{InvoiceItemID: inv.Items[0].ID, Quantity: 1}})
		assert.Error(t, req.Reject(staff, ""))
		require.NoError(t, req.Reject(staff, "outside return window"))
		assert.Equal(t, RequestStatusRejected, req.Status)
	})
}
