package shared

import "errors"

// DomainError is a business rule violation. Code is a stable,
// machine-readable identifier; Message is for humans.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so wrapped and
// reworded instances still compare equal under errors.Is.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if errors.As(target, &de) {
		return e.Code == de.Code
	}
	return false
}

// NewDomainError creates a domain error with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinel errors shared across the domain packages.
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrForbidden             = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInsufficientStock     = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrMinimumOrderNotMet    = NewDomainError("MINIMUM_ORDER_NOT_MET", "Order total is below the delivery minimum")
	ErrRefundExceedsInvoice  = NewDomainError("REFUND_EXCEEDS_INVOICE", "Refund total would exceed the invoice total")
	ErrDuplicatePendingClaim = NewDomainError("DUPLICATE_PENDING_REQUEST", "A pending refund request already exists for this invoice")
	ErrDuplicateReference    = NewDomainError("DUPLICATE_REFERENCE", "Generated reference number is already in use")
	ErrInvoiceNotCompleted   = NewDomainError("INVOICE_NOT_COMPLETED", "Refunds can only be requested against completed invoices")
)
