package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeClientError ErrorType = "client_error"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeLocalIO     ErrorType = "local_io"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a failure of a client operation with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(errorType ErrorType, code int, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errorType,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	}
}

// Wrap creates a typed error that keeps the underlying cause
func Wrap(errorType ErrorType, err error, format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &Error{
		Type:    errorType,
		Message: msg,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown for untyped errors
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// Classification is the outcome of a single HTTP exchange as seen by the limiter
type Classification int

const (
	ClassSuccess Classification = iota
	ClassTransient
	ClassServerError
	ClassClientError
)

func (c Classification) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassTransient:
		return "transient"
	case ClassServerError:
		return "server_error"
	case ClassClientError:
		return "client_error"
	default:
		return "unknown"
	}
}

// IsFailure reports whether the classification counts against the backoff state
func (c Classification) IsFailure() bool {
	return c == ClassTransient || c == ClassServerError
}

// Classify maps an HTTP status code to a Classification.
// Client errors other than 429 do not count as limiter failures.
func Classify(statusCode int) Classification {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ClassTransient
	case statusCode >= 500:
		return ClassServerError
	case statusCode >= 400:
		return ClassClientError
	default:
		return ClassSuccess
	}
}

// FromStatus builds the error for a non-success classification
func FromStatus(statusCode int) *Error {
	switch Classify(statusCode) {
	case ClassTransient:
		return New(ErrorTypeRateLimit, statusCode, "rate limited by server")
	case ClassServerError:
		return New(ErrorTypeServerError, statusCode, "server returned status %d", statusCode)
	case ClassClientError:
		return New(ErrorTypeClientError, statusCode, "unexpected status code: %d", statusCode)
	default:
		return nil
	}
}
