package fulfillment

import (
	"time"

	"github.com/backoffice/backend/internal/domain/invoice"
	"github.com/backoffice/backend/internal/domain/ledger"
	"github.com/backoffice/backend/internal/domain/order"
	"github.com/backoffice/backend/internal/domain/refund"
	"github.com/backoffice/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ==================== Order DTOs ====================

// CreateOrderItemInput is one requested line; price and name are taken
// from the catalog, never from the client
type CreateOrderItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int64     `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest represents a request to submit an order
type CreateOrderRequest struct {
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	DeliveryType    string                 `json:"delivery_type" binding:"required,oneof=pickup delivery"`
	DeliveryAddress string                 `json:"delivery_address"`
	PaymentMethod   string                 `json:"payment_method" binding:"required,oneof=cash credit"`
	CreditTermDays  int                    `json:"credit_term_days" binding:"omitempty,gt=0"`
	Notes           string                 `json:"notes"`
}

// RejectOrderRequest represents a request to reject an order
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=pending approved rejected cancelled"`
	CustomerID *uuid.UUID `form:"customer_id"`
	StartDate  *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"end_date" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderItemResponse represents an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// OrderResponse represents an order in API responses. Every amount is a
// major-unit decimal string with two fraction digits.
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	CustomerID           uuid.UUID           `json:"customer_id"`
	Status               string              `json:"status"`
	Items                []OrderItemResponse `json:"items"`
	DeliveryType         string              `json:"delivery_type"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	PaymentMethod        string              `json:"payment_method"`
	CreditTermDays       int                 `json:"credit_term_days,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Subtotal             string              `json:"subtotal"`
	VATRate              string              `json:"vat_rate"`
	VATAmount            string              `json:"vat_amount"`
	WithholdingTaxRate   string              `json:"withholding_tax_rate"`
	WithholdingTaxAmount string              `json:"withholding_tax_amount"`
	TotalAmount          string              `json:"total_amount"`
	InvoiceID            *uuid.UUID          `json:"invoice_id,omitempty"`
	ApprovedBy           *uuid.UUID          `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time          `json:"approved_at,omitempty"`
	RejectionReason      string              `json:"rejection_reason,omitempty"`
	CancellationReason   string              `json:"cancellation_reason,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	Version              int                 `json:"version"`
}

// ToOrderResponse converts an order aggregate into its API shape
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.MajorString(),
			LineTotal:   item.LineTotal.MajorString(),
		})
	}

	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		CustomerID:           o.CustomerID,
		Status:               o.Status.String(),
		Items:                items,
		DeliveryType:         string(o.DeliveryType),
		DeliveryAddress:      o.DeliveryAddress,
		PaymentMethod:        string(o.PaymentMethod),
		CreditTermDays:       o.CreditTermDays,
		Notes:                o.Notes,
		Subtotal:             o.Subtotal.MajorString(),
		VATRate:              o.VATRate.StringFixed(2),
		VATAmount:            o.VATAmount.MajorString(),
		WithholdingTaxRate:   o.WithholdingTaxRate.StringFixed(2),
		WithholdingTaxAmount: o.WithholdingTaxAmount.MajorString(),
		TotalAmount:          o.TotalAmount.MajorString(),
		InvoiceID:            o.InvoiceID,
		ApprovedBy:           o.ApprovedBy,
		ApprovedAt:           o.ApprovedAt,
		RejectionReason:      o.RejectionReason,
		CancellationReason:   o.CancellationReason,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
		Version:              o.Version,
	}
}

// ==================== Invoice DTOs ====================

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	LineTotal   string    `json:"line_total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                   uuid.UUID             `json:"id"`
	InvoiceNumber        string                `json:"invoice_number"`
	OrderID              uuid.UUID             `json:"order_id"`
	CustomerID           uuid.UUID             `json:"customer_id"`
	Items                []InvoiceItemResponse `json:"items"`
	Subtotal             string                `json:"subtotal"`
	VATRate              string                `json:"vat_rate"`
	VATAmount            string                `json:"vat_amount"`
	WithholdingTaxRate   string                `json:"withholding_tax_rate"`
	WithholdingTaxAmount string                `json:"withholding_tax_amount"`
	TotalAmount          string                `json:"total_amount"`
	RefundedAmount       string                `json:"refunded_amount"`
	NetBalance           string                `json:"net_balance"`
	Status               string                `json:"status"`
	PaymentStatus        string                `json:"payment_status"`
	PaidAt               *time.Time            `json:"paid_at,omitempty"`
	DueDate              *time.Time            `json:"due_date,omitempty"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
}

// InvoiceListFilter represents filter options for invoice lists
type InvoiceListFilter struct {
	Status        string     `form:"status" binding:"omitempty,oneof=pending completed cancelled"`
	PaymentStatus string     `form:"payment_status" binding:"omitempty,oneof=pending paid"`
	CustomerID    *uuid.UUID `form:"customer_id"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Refund DTOs ====================

// RefundLineInput is one requested line of a refund or refund request
type RefundLineInput struct {
	InvoiceItemID uuid.UUID `json:"invoice_item_id" binding:"required"`
	Quantity      int64     `json:"quantity" binding:"required,gt=0"`
}

// CreateRefundRequestRequest represents a customer's refund petition
type CreateRefundRequestRequest struct {
	InvoiceID         uuid.UUID         `json:"invoice_id" binding:"required"`
	Items             []RefundLineInput `json:"items" binding:"required,min=1,dive"`
	Kind              string            `json:"kind" binding:"required,oneof=refund exchange"`
	ExchangeProductID *uuid.UUID        `json:"exchange_product_id"`
	Reason            string            `json:"reason" binding:"required,min=1,max=500"`
	TrackingNumber    string            `json:"tracking_number" binding:"max=100"`
}

// ApproveRefundRequestRequest carries the approval decision
type ApproveRefundRequestRequest struct {
	Method string `json:"method" binding:"required,oneof=cash bank_transfer e_wallet credit_note exchange"`
	Notes  string `json:"notes" binding:"max=500"`
}

// RejectRefundRequestRequest carries the rejection decision
type RejectRefundRequestRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CreateRefundRequest represents a staff-entered refund without a
// customer request
type CreateRefundRequest struct {
	InvoiceID uuid.UUID         `json:"invoice_id" binding:"required"`
	Items     []RefundLineInput `json:"items" binding:"required,min=1,dive"`
	Method    string            `json:"method" binding:"required,oneof=cash bank_transfer e_wallet credit_note"`
	Reason    string            `json:"reason" binding:"required,min=1,max=500"`
}

// CompleteRefundRequest finishes a refund; ReturnToStock decides whether
// the returned goods become sellable again or are written off
type CompleteRefundRequest struct {
	ReturnToStock bool `json:"return_to_stock"`
}

// CancelRefundRequest represents a request to cancel a refund
type CancelRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RefundRequestItemResponse represents a requested line in API responses
type RefundRequestItemResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceItemID uuid.UUID `json:"invoice_item_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int64     `json:"quantity"`
}

// RefundRequestResponse represents a refund request in API responses
type RefundRequestResponse struct {
	ID                uuid.UUID                   `json:"id"`
	RequestNumber     string                      `json:"request_number"`
	InvoiceID         uuid.UUID                   `json:"invoice_id"`
	CustomerID        uuid.UUID                   `json:"customer_id"`
	Items             []RefundRequestItemResponse `json:"items"`
	Kind              string                      `json:"kind"`
	ExchangeProductID *uuid.UUID                  `json:"exchange_product_id,omitempty"`
	Reason            string                      `json:"reason"`
	TrackingNumber    string                      `json:"tracking_number,omitempty"`
	Status            string                      `json:"status"`
	ReviewNotes       string                      `json:"review_notes,omitempty"`
	RefundID          *uuid.UUID                  `json:"refund_id,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
}

// ToRefundRequestResponse converts a request aggregate into its API shape
func ToRefundRequestResponse(r *refund.Request) RefundRequestResponse {
	items := make([]RefundRequestItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, RefundRequestItemResponse{
			ID:            item.ID,
			InvoiceItemID: item.InvoiceItemID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
		})
	}

	return RefundRequestResponse{
		ID:                r.ID,
		RequestNumber:     r.RequestNumber,
		InvoiceID:         r.InvoiceID,
		CustomerID:        r.CustomerID,
		Items:             items,
		Kind:              string(r.Kind),
		ExchangeProductID: r.ExchangeProductID,
		Reason:            r.Reason,
		TrackingNumber:    r.TrackingNumber,
		Status:            string(r.Status),
		ReviewNotes:       r.ReviewNotes,
		RefundID:          r.RefundID,
		CreatedAt:         r.CreatedAt,
	}
}

// RefundItemResponse represents a refunded line in API responses
type RefundItemResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceItemID uuid.UUID `json:"invoice_item_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int64     `json:"quantity"`
	UnitPrice     string    `json:"unit_price"`
	Amount        string    `json:"amount"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	ID                uuid.UUID            `json:"id"`
	RefundNumber      string               `json:"refund_number"`
	InvoiceID         uuid.UUID            `json:"invoice_id"`
	RequestID         *uuid.UUID           `json:"request_id,omitempty"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	Items             []RefundItemResponse `json:"items"`
	TotalAmount       string               `json:"total_amount"`
	RefundType        string               `json:"refund_type"`
	Method            string               `json:"method"`
	ExchangeProductID *uuid.UUID           `json:"exchange_product_id,omitempty"`
	Reason            string               `json:"reason,omitempty"`
	Status            string               `json:"status"`
	ProcessedAt       *time.Time           `json:"processed_at,omitempty"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ToRefundResponse converts a refund aggregate into its API shape
func ToRefundResponse(r *refund.Refund) RefundResponse {
	items := make([]RefundItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, RefundItemResponse{
			ID:            item.ID,
			InvoiceItemID: item.InvoiceItemID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice.MajorString(),
			Amount:        item.Amount.MajorString(),
		})
	}

	return RefundResponse{
		ID:                r.ID,
		RefundNumber:      r.RefundNumber,
		InvoiceID:         r.InvoiceID,
		RequestID:         r.RequestID,
		CustomerID:        r.CustomerID,
		Items:             items,
		TotalAmount:       r.TotalAmount.MajorString(),
		RefundType:        string(r.RefundType),
		Method:            string(r.Method),
		ExchangeProductID: r.ExchangeProductID,
		Reason:            r.Reason,
		Status:            string(r.Status),
		ProcessedAt:       r.ProcessedAt,
		CompletedAt:       r.CompletedAt,
		CreatedAt:         r.CreatedAt,
	}
}

// RefundListFilter represents filter options for refund lists
type RefundListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=pending approved processed completed cancelled"`
	InvoiceID  *uuid.UUID `form:"invoice_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ==================== Stock movement DTOs ====================

// StockMovementResponse represents a ledger row in API responses
type StockMovementResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	Type           string     `json:"type"`
	Quantity       int64      `json:"quantity"`
	QuantityBefore int64      `json:"quantity_before"`
	QuantityAfter  int64      `json:"quantity_after"`
	InvoiceID      *uuid.UUID `json:"invoice_id,omitempty"`
	RefundID       *uuid.UUID `json:"refund_id,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToStockMovementResponse converts a movement row into its API shape
func ToStockMovementResponse(m ledger.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		InvoiceID:      m.InvoiceID,
		RefundID:       m.RefundID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}

// ToInvoiceResponse converts an invoice aggregate plus the monetary
// total already refunded against it into the API shape
func ToInvoiceResponse(inv *invoice.Invoice, refunded valueobject.Money) InvoiceResponse {
	items := make([]InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, InvoiceItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.MajorString(),
			LineTotal:   item.LineTotal.MajorString(),
		})
	}

	return InvoiceResponse{
		ID:                   inv.ID,
		InvoiceNumber:        inv.InvoiceNumber,
		OrderID:              inv.OrderID,
		CustomerID:           inv.CustomerID,
		Items:                items,
		Subtotal:             inv.Subtotal.MajorString(),
		VATRate:              inv.VATRate.StringFixed(2),
		VATAmount:            inv.VATAmount.MajorString(),
		WithholdingTaxRate:   inv.WithholdingTaxRate.StringFixed(2),
		WithholdingTaxAmount: inv.WithholdingTaxAmount.MajorString(),
		TotalAmount:          inv.TotalAmount.MajorString(),
		RefundedAmount:       refunded.MajorString(),
		NetBalance:           inv.NetBalance(refunded).MajorString(),
		Status:               string(inv.Status),
		PaymentStatus:        string(inv.PaymentStatus),
		PaidAt:               inv.PaidAt,
		DueDate:              inv.DueDate,
		CompletedAt:          inv.CompletedAt,
		CreatedAt:            inv.CreatedAt,
	}
}
