package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/backoffice/backend/internal/application/fulfillment"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *fulfillment.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *fulfillment.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return
	}

	resp, err := h.invoiceService.GetByID(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var filter fulfillment.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.invoiceService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// MarkCompleted handles POST /invoices/:id/complete
func (h *InvoiceHandler) MarkCompleted(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return
	}

	resp, err := h.invoiceService.MarkCompleted(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkPaid handles POST /invoices/:id/pay
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	invoiceID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid invoice id")
		return
	}

	resp, err := h.invoiceService.MarkPaid(c.Request.Context(), actor, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
