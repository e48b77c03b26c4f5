package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes, one per failure class in the workflow.
const (
	CodeConfig     = "CONFIG_ERROR"       // missing/invalid configuration
	CodeTransport  = "TRANSPORT_ERROR"    // network failure or non-JSON response
	CodeRejected   = "API_REJECTED"       // remote reported an explicit failure status
	CodeAnomalous  = "ANOMALOUS_STATUS"   // status stuck at Unknown past the retry budget
	CodeTimeout    = "TIMEOUT"            // poll deadline exceeded
	CodeDownstream = "DOWNSTREAM_FAILURE" // LLM or document-store call failed
)

// Common application errors
var (
	ErrNoPendingKeyword = errors.New("no pending keyword")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInternal         = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the AppError code carried by err, or "" if err carries none.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
