package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/backoffice/backend/internal/application/fulfillment"
)

// ProductHandler handles catalog and stock ledger endpoints
type ProductHandler struct {
	BaseHandler
	productService *fulfillment.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *fulfillment.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	var req fulfillment.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.productService.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	var req fulfillment.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.productService.Update(c.Request.Context(), actor, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AdjustStock handles POST /products/:id/adjust-stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	var req fulfillment.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.productService.AdjustStock(c.Request.Context(), actor, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	resp, err := h.productService.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter fulfillment.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Movements handles GET /products/:id/movements
func (h *ProductHandler) Movements(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		h.Unauthorized(c, "missing actor identity")
		return
	}

	productID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid product id")
		return
	}

	movements, err := h.productService.Movements(c.Request.Context(), actor, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}
