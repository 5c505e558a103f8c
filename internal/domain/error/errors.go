package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeValidation          = 4001
	CodeInvalidAmount       = 4002
	CodeRefundExceedsTotal  = 4003
	CodeEmptyCommissionBase = 4004
	CodeAuthentication      = 4010
	CodeNotFound            = 4040
	CodeStateConflict       = 4090
	CodeAlreadyVerified     = 4092
	CodeDuplicateCommission = 4093

	// 5xxx - Server errors
	CodeInternalServer = 5000
)

// Base error types
var (
	// ErrValidation is returned when input fails validation before persistence
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount is returned when a monetary amount is malformed or negative
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("resource not found")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrItemNotFound is returned when the requested transaction item doesn't exist
	ErrItemNotFound = errors.New("transaction item not found")

	// ErrCollectionNotFound is returned when the requested collection record doesn't exist
	ErrCollectionNotFound = errors.New("collection record not found")

	// ErrCommissionNotFound is returned when the requested commission doesn't exist
	ErrCommissionNotFound = errors.New("commission not found")

	// ErrStateConflict is returned when an operation is illegal in the record's current state
	ErrStateConflict = errors.New("operation conflicts with current state")

	// ErrAlreadyVerified is returned when a collection record is verified a second time
	ErrAlreadyVerified = errors.New("collection record is already verified")

	// ErrRefundExceedsTotal is returned when refunds would exceed the original total
	ErrRefundExceedsTotal = errors.New("refund amount exceeds transaction total")

	// ErrEmptyCommissionBase is returned when no completed sales exist in the period
	ErrEmptyCommissionBase = errors.New("no completed sales in commission period")

	// ErrDuplicateCommission is returned when a commission already exists for the contract and period
	ErrDuplicateCommission = errors.New("commission already calculated for this period")

	// ErrAuthentication is returned when webhook signature verification fails.
	// Deliberately carries no detail about which check failed.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrRefundExceedsTotal):
		return CodeRefundExceedsTotal
	case errors.Is(err, ErrEmptyCommissionBase):
		return CodeEmptyCommissionBase
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrAlreadyVerified):
		return CodeAlreadyVerified
	case errors.Is(err, ErrDuplicateCommission):
		return CodeDuplicateCommission
	case errors.Is(err, ErrStateConflict):
		return CodeStateConflict
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrTransactionNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrCollectionNotFound),
		errors.Is(err, ErrCommissionNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAuthentication):
		return CodeAuthentication
	default:
		return CodeInternalServer
	}
}

// StateConflictError describes an illegal state transition attempt
type StateConflictError struct {
	TransactionID string
	CurrentStatus string
	Operation     string
}

// Error implements the error interface
func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s transaction %s in status %s",
		e.Operation, e.TransactionID, e.CurrentStatus)
}

// Is checks if the target error is an ErrStateConflict
func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// LogFields returns a map of fields for structured logging
func (e *StateConflictError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "state_conflict",
		"transaction_id": e.TransactionID,
		"current_status": e.CurrentStatus,
		"operation":      e.Operation,
		"error_code":     CodeStateConflict,
	}
}

// NewStateConflictError creates a new detailed state conflict error
func NewStateConflictError(transactionID, currentStatus, operation string) error {
	return &StateConflictError{
		TransactionID: transactionID,
		CurrentStatus: currentStatus,
		Operation:     operation,
	}
}

// ValidationError describes input rejected before persistence
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// Is checks if the target error is an ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation",
		"field":      e.Field,
		"reason":     e.Reason,
		"error_code": CodeValidation,
	}
}

// NewValidationError creates a new detailed validation error
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RefundError describes a refund that violates the bounded-refund invariant
type RefundError struct {
	TransactionID   string
	TotalAmount     string
	RequestedAmount string
	RefundedAmount  string
}

// Error implements the error interface
func (e *RefundError) Error() string {
	return fmt.Sprintf("refund of %s rejected for transaction %s: %s of %s already refunded",
		e.RequestedAmount, e.TransactionID, e.RefundedAmount, e.TotalAmount)
}

// Is checks if the target error is an ErrRefundExceedsTotal
func (e *RefundError) Is(target error) bool {
	return target == ErrRefundExceedsTotal
}

// LogFields returns a map of fields for structured logging
func (e *RefundError) LogFields() map[string]any {
	return map[string]any{
		"error_type":       "refund_exceeds_total",
		"transaction_id":   e.TransactionID,
		"total_amount":     e.TotalAmount,
		"requested_amount": e.RequestedAmount,
		"refunded_amount":  e.RefundedAmount,
		"error_code":       CodeRefundExceedsTotal,
	}
}

// IsStateConflictError checks if the error is any state conflict kind of error
func IsStateConflictError(err error) bool {
	return errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrAlreadyVerified) ||
		errors.Is(err, ErrDuplicateCommission)
}

// IsValidationError checks if the error is any validation kind of error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrRefundExceedsTotal) ||
		errors.Is(err, ErrEmptyCommissionBase)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrCommissionNotFound)
}

// IsAuthenticationError checks if the error is an authentication error
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthentication)
}
