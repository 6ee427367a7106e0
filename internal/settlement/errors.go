// Package settlement holds the pure rules behind a sale: payment state,
// coupon checks, discount arithmetic and the item/coupon diff applied when a
// transaction is edited. Nothing here touches the database.
package settlement

import (
	"errors"
	"fmt"
)

// Error kinds. A *ValidationError unwraps to exactly one of these.
var (
	ErrInvalid         = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTemporalInvalid = errors.New("not valid at this time")
	ErrDisabled        = errors.New("disabled")
)

// ValidationError is a user-facing rejection. Field is empty for errors that
// concern the request as a whole.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func newError(kind error, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found rejection for a referenced record.
func NotFound(field, format string, args ...any) *ValidationError {
	return newError(ErrNotFound, field, format, args...)
}

// Conflict builds a rejection caused by the current state of a record.
func Conflict(field, format string, args ...any) *ValidationError {
	return newError(ErrConflict, field, format, args...)
}

// Invalid builds a rejection of malformed input.
func Invalid(field, format string, args ...any) *ValidationError {
	return newError(ErrInvalid, field, format, args...)
}

// UnderpaidMessage is returned when pay does not cover the total.
const UnderpaidMessage = "Pay amount cannot be less than total amount."

// CheckPay rejects a pay amount below total. A nil pay is accepted.
func CheckPay(pay *int64, total int64) error {
	if pay != nil && *pay < total {
		return Conflict("pay", UnderpaidMessage)
	}
	return nil
}
