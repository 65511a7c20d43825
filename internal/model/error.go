package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeValidationFailed        = "VALIDATION_FAILED"
	ErrCodeInvalidQuantity         = "INVALID_QUANTITY"
	ErrCodeInvalidStatus           = "INVALID_STATUS"
	ErrCodeInvalidPaymentMethod    = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidPrescription     = "INVALID_PRESCRIPTION"
	ErrCodeTotalMismatch           = "TOTAL_MISMATCH"
	ErrCodePrescriptionRequired    = "PRESCRIPTION_REQUIRED"
	ErrCodeMedicineNotFound        = "MEDICINE_NOT_FOUND"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodePrescriptionNotFound    = "PRESCRIPTION_NOT_FOUND"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeUserExists              = "USER_EXISTS"
	ErrCodeInsufficientStock       = "INSUFFICIENT_STOCK"
	ErrCodeStatusConflict          = "STATUS_CONFLICT"
	ErrCodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	ErrCodeSelfApproval            = "SELF_APPROVAL_FORBIDDEN"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeForbidden               = "FORBIDDEN"
	ErrCodeInternalError           = "INTERNAL_ERROR"
	ErrCodeRouteNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that a validation error
// built with a custom message still matches ErrValidation.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a descriptive message.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidationFailed, message)
}

// Common domain errors
var (
	ErrValidation              = NewDomainError(ErrCodeValidationFailed, "Request validation failed")
	ErrInvalidQuantity         = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidStatus           = NewDomainError(ErrCodeInvalidStatus, "Unknown order status")
	ErrInvalidPaymentMethod    = NewDomainError(ErrCodeInvalidPaymentMethod, "Payment method must be 'Cash on Delivery' or 'Online Payment'")
	ErrInvalidPrescription     = NewDomainError(ErrCodeInvalidPrescription, "Prescription must be a non-empty image")
	ErrTotalMismatch           = NewDomainError(ErrCodeTotalMismatch, "Order total does not match current prices")
	ErrPrescriptionRequired    = NewDomainError(ErrCodePrescriptionRequired, "A prescription is required for one or more items")
	ErrMedicineNotFound        = NewDomainError(ErrCodeMedicineNotFound, "Medicine not found")
	ErrOrderNotFound           = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrPrescriptionNotFound    = NewDomainError(ErrCodePrescriptionNotFound, "Prescription not found")
	ErrInvalidCredentials      = NewDomainError(ErrCodeInvalidCredentials, "Invalid credentials")
	ErrUserExists              = NewDomainError(ErrCodeUserExists, "User already exists")
	ErrInsufficientStock       = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
	ErrStatusConflict          = NewDomainError(ErrCodeStatusConflict, "Order status was changed concurrently")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidStatusTransition, "Order status transition is not allowed")
	ErrSelfApproval            = NewDomainError(ErrCodeSelfApproval, "Admins cannot confirm or dispatch their own orders")
	ErrUnauthorised            = NewDomainError(ErrCodeUnauthorised, "Authentication required")
	ErrForbidden               = NewDomainError(ErrCodeForbidden, "Not allowed")
)

// CodeOf returns the domain error code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}
