package dto

import "net/http"

// Error codes returned in the API error envelope. Handlers translate
// domain error codes into one of these before writing the response.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeValidation   = "ERR_VALIDATION"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"

	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"

	ErrCodeInvalidState           = "ERR_INVALID_STATE"
	ErrCodeBusinessRule           = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock      = "ERR_INSUFFICIENT_STOCK"
	ErrCodeMinimumOrderNotMet     = "ERR_MINIMUM_ORDER_NOT_MET"
	ErrCodeRefundExceedsInvoice   = "ERR_REFUND_EXCEEDS_INVOICE"
	ErrCodeDuplicatePendingReview = "ERR_DUPLICATE_PENDING_REQUEST"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,

	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAlreadyExists:       http.StatusConflict,

	ErrCodeInvalidState:           http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:           http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:      http.StatusUnprocessableEntity,
	ErrCodeMinimumOrderNotMet:     http.StatusUnprocessableEntity,
	ErrCodeRefundExceedsInvoice:   http.StatusUnprocessableEntity,
	ErrCodeDuplicatePendingReview: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an API error code,
// defaulting to 500 for codes it does not know.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodeMapping translates codes raised by the domain layer
// into API error codes.
var domainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                 ErrCodeNotFound,
	"FORBIDDEN":                 ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":      ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":        ErrCodeInsufficientStock,
	"MINIMUM_ORDER_NOT_MET":     ErrCodeMinimumOrderNotMet,
	"REFUND_EXCEEDS_INVOICE":    ErrCodeRefundExceedsInvoice,
	"DUPLICATE_PENDING_REQUEST": ErrCodeDuplicatePendingReview,
	"DUPLICATE_REFERENCE":       ErrCodeConflict,
	"INVALID_STATE":             ErrCodeInvalidState,

	"PRODUCT_INACTIVE":    ErrCodeBusinessRule,
	"PRODUCT_EXISTS":      ErrCodeAlreadyExists,
	"EMPTY_ORDER":         ErrCodeBusinessRule,
	"EMPTY_REQUEST":       ErrCodeBusinessRule,
	"INVALID_QUANTITY":    ErrCodeInvalidInput,
	"INVALID_AMOUNT":      ErrCodeInvalidInput,
	"INVALID_MOVEMENT":    ErrCodeInvalidInput,
	"INVOICE_NOT_PAYABLE": ErrCodeInvalidState,
	"REFUND_NOT_ACTIVE":   ErrCodeInvalidState,
}

// NormalizeErrorCode converts a domain error code into an API error
// code. Codes already in the API namespace pass through unchanged;
// unknown codes fall back to ERR_BUSINESS_RULE so domain rules never
// surface as internal errors.
func NormalizeErrorCode(code string) string {
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	if mapped, ok := domainErrorCodeMapping[code]; ok {
		return mapped
	}
	return ErrCodeBusinessRule
}
