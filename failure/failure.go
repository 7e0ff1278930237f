// Package failure provides the typed error taxonomy returned by the pricing pipeline.
package failure

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeBadInput indicates unparseable or unsupported input
	TypeBadInput Type = "BAD_INPUT"

	// TypeCurveBootstrap indicates a curve ladder could not be bootstrapped
	TypeCurveBootstrap Type = "CURVE_BOOTSTRAP_FAILURE"

	// TypeCalibration indicates a model could not be fitted to market volatilities
	TypeCalibration Type = "CALIBRATION_FAILURE"

	// TypePricing indicates an engine produced an unusable value
	TypePricing Type = "PRICING_FAILURE"
)

// Error represents a domain error with context
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsType reports whether any error in err's chain is a *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the outermost failure type in err's chain, or "" when there is none.
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// BadInput creates an input error
func BadInput(format string, args ...any) *Error {
	return Newf(TypeBadInput, format, args...)
}

// CurveBootstrap creates a bootstrap error
func CurveBootstrap(format string, args ...any) *Error {
	return Newf(TypeCurveBootstrap, format, args...)
}

// Calibration creates a calibration error
func Calibration(format string, args ...any) *Error {
	return Newf(TypeCalibration, format, args...)
}

// Pricing creates a pricing error
func Pricing(format string, args ...any) *Error {
	return Newf(TypePricing, format, args...)
}
