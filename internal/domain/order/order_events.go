package order

import (
	"github.com/backoffice/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the order aggregate
const (
	EventOrderCreated   = "order.created"
	EventOrderApproved  = "order.approved"
	EventOrderRejected  = "order.rejected"
	EventOrderCancelled = "order.cancelled"
)

const aggregateType = "Order"

// ItemInfo captures an order line for event payloads
type ItemInfo struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
}

func itemInfos(o *Order) []ItemInfo {
	infos := make([]ItemInfo, 0, len(o.Items))
	for _, item := range o.Items {
		infos = append(infos, ItemInfo{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
		})
	}
	return infos
}

// OrderCreatedEvent is raised when a pending order is submitted
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string       `json:"order_number"`
	CustomerID  uuid.UUID    `json:"customer_id"`
	TotalAmount string       `json:"total_amount"`
	Delivery    DeliveryType `json:"delivery_type"`
	Items       []ItemInfo   `json:"items"`
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCreated, aggregateType, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount.MajorString(),
		Delivery:        o.DeliveryType,
		Items:           itemInfos(o),
	}
}

// OrderApprovedEvent is raised when an order is approved and invoiced
type OrderApprovedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string     `json:"order_number"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	InvoiceID   uuid.UUID  `json:"invoice_id"`
	ApprovedBy  uuid.UUID  `json:"approved_by"`
	TotalAmount string     `json:"total_amount"`
	Items       []ItemInfo `json:"items"`
}

// NewOrderApprovedEvent creates an OrderApprovedEvent
func NewOrderApprovedEvent(o *Order) *OrderApprovedEvent {
	e := &OrderApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderApproved, aggregateType, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		TotalAmount:     o.TotalAmount.MajorString(),
		Items:           itemInfos(o),
	}
	if o.InvoiceID != nil {
		e.InvoiceID = *o.InvoiceID
	}
	if o.ApprovedBy != nil {
		e.ApprovedBy = *o.ApprovedBy
	}
	return e
}

// OrderRejectedEvent is raised when a pending order is rejected
type OrderRejectedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}

// NewOrderRejectedEvent creates an OrderRejectedEvent
func NewOrderRejectedEvent(o *Order, reason string) *OrderRejectedEvent {
	return &OrderRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderRejected, aggregateType, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Reason:          reason,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string    `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Reason      string    `json:"reason"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventOrderCancelled, aggregateType, o.ID),
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Reason:          reason,
	}
}
