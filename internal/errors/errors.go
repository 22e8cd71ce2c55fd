// Package errors provides custom error types for the eerieecho chat client.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for common cases
var (
	ErrMissingCredential = errors.New("no API key provided")
	ErrCompletionFailed  = errors.New("completion request failed")
	ErrInvalidResponse   = errors.New("invalid response format")
	ErrNoCandidates      = errors.New("no candidates in response")

	// Conversation controller rejections. These never reach the user as a
	// failure; the input is simply ignored.
	ErrBusy           = errors.New("a reply is already in progress")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrClosed         = errors.New("conversation is closed")
	ErrTurnNotPending = errors.New("turn is not pending")
)

// Messages surfaced to the user when the remote endpoint does not provide one.
const (
	MsgMissingCredential = "No API key provided. Please configure your Gemini API key in settings."
	MsgGenericFailure    = "Failed to generate response from Gemini API"
	MsgNoCandidates      = "No response generated from Gemini API"
)

// CompletionError is the single failure kind of the remote completion client.
// Transport failures, non-success statuses, malformed bodies and empty
// candidate lists all end up here.
type CompletionError struct {
	StatusCode int
	Endpoint   string
	Message    string
	Cause      error
}

func (e *CompletionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("completion failed [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	if e.Endpoint == "" {
		return fmt.Sprintf("completion failed: %s", e.Message)
	}
	return fmt.Sprintf("completion failed at %s: %s", e.Endpoint, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *CompletionError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *CompletionError) Is(target error) bool {
	if target == ErrCompletionFailed {
		return true
	}
	_, ok := target.(*CompletionError)
	return ok
}

// NewCompletionError creates a CompletionError for an HTTP-level failure
func NewCompletionError(statusCode int, endpoint, message string) *CompletionError {
	return &CompletionError{
		StatusCode: statusCode,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewTransportError wraps a network failure
func NewTransportError(endpoint string, cause error) *CompletionError {
	msg := "request failed"
	if cause != nil {
		msg = cause.Error()
	}
	return &CompletionError{
		Endpoint: endpoint,
		Message:  msg,
		Cause:    cause,
	}
}

// NewParseError wraps a malformed response body
func NewParseError(endpoint, message string) *CompletionError {
	return &CompletionError{
		Endpoint: endpoint,
		Message:  message,
		Cause:    ErrInvalidResponse,
	}
}

// NewMissingCredentialError is returned before any network call when no key is set
func NewMissingCredentialError() *CompletionError {
	return &CompletionError{
		Message: MsgMissingCredential,
		Cause:   ErrMissingCredential,
	}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// IsCompletionError reports whether err is (or wraps) a CompletionError
func IsCompletionError(err error) bool {
	var ce *CompletionError
	return errors.As(err, &ce)
}

// IsTimeoutError reports whether err was caused by a deadline
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// GetHTTPStatus extracts the HTTP status from err, or 0
func GetHTTPStatus(err error) int {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// GetEndpoint extracts the endpoint from err, or ""
func GetEndpoint(err error) string {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Endpoint
	}
	return ""
}

// UserMessage returns the human-readable part of err suitable for a toast
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *CompletionError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}
