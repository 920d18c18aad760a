package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/backoffice/backend/internal/application/fulfillment"
	"github.com/backoffice/backend/internal/domain/shared"
)

// RefundHandler handles refund request and refund lifecycle endpoints
type RefundHandler struct {
	BaseHandler
	refundService *fulfillment.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *fulfillment.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// CreateRequest handles POST /refund-requests
func (h *RefundHandler) CreateRequest(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var req fulfillment.CreateRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.CreateRequest(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ApproveRequest handles POST /refund-requests/:id/approve
func (h *RefundHandler) ApproveRequest(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	requestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund request id")
		return
	}

	var req fulfillment.ApproveRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.ApproveRequest(c.Request.Context(), actor, requestID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RejectRequest handles POST /refund-requests/:id/reject
func (h *RefundHandler) RejectRequest(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	requestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund request id")
		return
	}

	var req fulfillment.RejectRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.RejectRequest(c.Request.Context(), actor, requestID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetRequest handles GET /refund-requests/:id
func (h *RefundHandler) GetRequest(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	requestID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund request id")
		return
	}

	resp, err := h.refundService.GetRequest(c.Request.Context(), actor, requestID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListRequests handles GET /refund-requests
func (h *RefundHandler) ListRequests(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var filter fulfillment.RefundListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.refundService.ListRequests(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Create handles POST /refunds
func (h *RefundHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var req fulfillment.CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// transition runs a body-less refund operation keyed by the :id param
func (h *RefundHandler) transition(c *gin.Context, fn func(context.Context, shared.Actor, uuid.UUID) (*fulfillment.RefundResponse, error)) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	refundID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund id")
		return
	}

	resp, err := fn(c.Request.Context(), actor, refundID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve handles POST /refunds/:id/approve
func (h *RefundHandler) Approve(c *gin.Context) {
	h.transition(c, h.refundService.Approve)
}

// Process handles POST /refunds/:id/process
func (h *RefundHandler) Process(c *gin.Context) {
	h.transition(c, h.refundService.Process)
}

// Cancel handles POST /refunds/:id/cancel
func (h *RefundHandler) Cancel(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	refundID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund id")
		return
	}

	var req fulfillment.CancelRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.Cancel(c.Request.Context(), actor, refundID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete handles POST /refunds/:id/complete
func (h *RefundHandler) Complete(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	refundID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid refund id")
		return
	}

	var req fulfillment.CompleteRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.refundService.Complete(c.Request.Context(), actor, refundID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /refunds/:id
func (h *RefundHandler) GetByID(c *gin.Context) {
	h.transition(c, h.refundService.GetByID)
}

// List handles GET /refunds
func (h *RefundHandler) List(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var filter fulfillment.RefundListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.refundService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
