package common

import (
	"errors"
	"fmt"
)

// Extraction failure taxonomy. Every pipeline stage maps its failures onto
// exactly one of these so callers can switch on errors.Is.
var (
	// ErrDocumentUnreadable means the uploaded bytes could not be parsed at all.
	ErrDocumentUnreadable = errors.New("document unreadable")
	// ErrTextRecoveryFailed means every recovery tier was exhausted or produced
	// only whitespace.
	ErrTextRecoveryFailed = errors.New("text recovery failed")
	// ErrModelInvocation covers transport, auth and quota failures from the
	// model backend.
	ErrModelInvocation = errors.New("model invocation failed")
	// ErrMalformedResponse means the model reply could not be decoded as JSON.
	ErrMalformedResponse = errors.New("malformed extraction response")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// AppError represents application-specific errors with a stable code.
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
