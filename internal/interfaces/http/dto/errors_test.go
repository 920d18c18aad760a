package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"forbidden", ErrCodeForbidden, http.StatusForbidden},
		{"concurrency conflict", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"insufficient stock", ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{"refund over invoice", ErrCodeRefundExceedsInvoice, http.StatusUnprocessableEntity},
		{"duplicate pending request", ErrCodeDuplicatePendingReview, http.StatusConflict},
		{"validation", ErrCodeValidation, http.StatusBadRequest},
		{"unknown code defaults to 500", "ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"api code passes through", ErrCodeNotFound, ErrCodeNotFound},
		{"domain not found", "NOT_FOUND", ErrCodeNotFound},
		{"domain insufficient stock", "INSUFFICIENT_STOCK", ErrCodeInsufficientStock},
		{"domain minimum order", "MINIMUM_ORDER_NOT_MET", ErrCodeMinimumOrderNotMet},
		{"domain refund cap", "REFUND_EXCEEDS_INVOICE", ErrCodeRefundExceedsInvoice},
		{"domain duplicate pending", "DUPLICATE_PENDING_REQUEST", ErrCodeDuplicatePendingReview},
		{"domain duplicate reference", "DUPLICATE_REFERENCE", ErrCodeConflict},
		{"domain invalid state", "INVALID_STATE", ErrCodeInvalidState},
		{"domain inactive product", "PRODUCT_INACTIVE", ErrCodeBusinessRule},
		{"unmapped domain code falls back to business rule", "SOME_NEW_RULE", ErrCodeBusinessRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeErrorCode(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 41, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "order not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "order not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}
