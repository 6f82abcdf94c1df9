package core

import (
	"errors"
	"fmt"
)

// Validation failures detected before any request is sent.
var (
	ErrInvalidQuantity         = errors.New("quantity must be a whole number greater than zero")
	ErrMissingNextDeliveryDate = errors.New("next delivery date is required for a partial delivery")
	ErrInvalidUnitCost         = errors.New("unit cost must be greater than zero")
	ErrInvalidStatus           = errors.New("unknown order status")
	ErrInvalidDate             = errors.New("date must be in YYYY-MM-DD format")
)

// ErrReceivingClosed is returned when a receipt is attempted on a Cancelled or Received order.
var ErrReceivingClosed = errors.New("purchase order is closed for receiving")

// ValidationError ties a validation sentinel to the offending field.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap returns the sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExtraQuantityError is the server's refusal to record more than was ordered
// without explicit confirmation. It is a confirmation step, not a failure:
// adapters must show Ordered, WouldBeReceived and Message to the operator.
type ExtraQuantityError struct {
	Ordered         int
	WouldBeReceived int
	Message         string
}

// Error implements the error interface.
func (e *ExtraQuantityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("receiving would bring the total to %d but only %d were ordered", e.WouldBeReceived, e.Ordered)
}

// Extra returns how many units exceed the ordered quantity.
func (e *ExtraQuantityError) Extra() int {
	return e.WouldBeReceived - e.Ordered
}

// APIError is any non-confirmation error returned by the order API.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("order API returned status %d", e.Status)
	}
	return e.Message
}

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == 404
}
