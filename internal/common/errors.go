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

// Common application errors
var (
	// ErrDocumentUnreadable marks a malformed container (PDF structure,
	// image codec, mail header block). Recovered by falling back to the
	// next strategy in the cascade.
	ErrDocumentUnreadable = errors.New("document unreadable")

	// ErrRecognitionUnavailable marks an OCR/barcode engine failure.
	// Recovered by treating the result as "nothing found".
	ErrRecognitionUnavailable = errors.New("recognition unavailable")

	// ErrCorruptAttachment marks an undecodable mail part. The part is
	// skipped; siblings are still processed.
	ErrCorruptAttachment = errors.New("corrupt attachment")

	// ErrEmptyInput is the only error a caller should ever see from the
	// pipeline: a zero-byte blob is a caller contract violation.
	ErrEmptyInput = errors.New("empty input")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
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
