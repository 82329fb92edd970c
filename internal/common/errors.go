// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Capture errors.
	ErrCapacityExceeded = errors.New("capture buffer capacity exceeded")

	// Analysis errors.
	ErrEmptyResponse = errors.New("empty analysis response")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// CapacityError reports images refused by a full capture buffer. It is
// non-fatal: the capture is simply declined, and the caller learns
// exactly which images did not make it in.
type CapacityError struct {
	RejectedIDs []string
	Limit       int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capture buffer full (limit %d): rejected %s",
		e.Limit, strings.Join(e.RejectedIDs, ", "))
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// AnalysisError is a per-item analysis failure. The owning batch item
// moves to ERROR status and stays retryable; the batch as a whole is
// never aborted by one of these.
type AnalysisError struct {
	Err     error
	Message string
}

func (e *AnalysisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// PersistError is a per-item commit failure. The item remains in the
// batch store for user-driven retry; other items are unaffected.
type PersistError struct {
	Err       error
	ReceiptID string
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist receipt %s: %v", e.ReceiptID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
