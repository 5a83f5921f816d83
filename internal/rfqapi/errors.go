package rfqapi

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of a failed remote call.
type ErrorType int

const (
	// ErrTypeNetwork indicates a transport failure (connection refused, reset, unreachable)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request did not complete in time
	ErrTypeTimeout
	// ErrTypeHTTP indicates a non-success status code
	ErrTypeHTTP
	// ErrTypeParse indicates a response that is not valid structured data
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// RemoteError is returned by every Client operation that does not produce
// new state. Callers treat all types the same way: the local cache stays
// as it was.
type RemoteError struct {
	Type       ErrorType
	Message    string
	StatusCode int   // HTTP status code (ErrTypeHTTP only)
	Err        error // Underlying error, if any
	Retryable  bool
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewNetworkError classifies a transport error. Timeouts get their own type.
func NewNetworkError(message string, err error) *RemoteError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() || os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &RemoteError{Type: ErrTypeTimeout, Message: message, Err: err, Retryable: true}
	}

	retryable := true
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTemporary {
		retryable = false
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		message += " (connection refused)"
	}

	return &RemoteError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: retryable}
}

// NewHTTPError creates an error for a non-success status code
func NewHTTPError(statusCode int, message string) *RemoteError {
	return &RemoteError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500, // Server errors are retryable
	}
}

// NewParseError creates an error for a malformed response body
func NewParseError(message string, err error) *RemoteError {
	return &RemoteError{Type: ErrTypeParse, Message: message, Err: err}
}

func typeOf(err error) (ErrorType, bool) {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Type, true
	}
	return 0, false
}

// IsNetworkError reports whether err is a transport failure or timeout
func IsNetworkError(err error) bool {
	t, ok := typeOf(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout)
}

// IsHTTPError reports whether err is a non-success status
func IsHTTPError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeHTTP
}

// IsParseError reports whether err is a malformed response
func IsParseError(err error) bool {
	t, ok := typeOf(err)
	return ok && t == ErrTypeParse
}

// StatusCode returns the HTTP status of err, or 0.
func StatusCode(err error) int {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode
	}
	return 0
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Retryable
	}
	return false
}

// ShortMessage returns a concise message for a status line.
func ShortMessage(err error) string {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return err.Error()
	}

	switch remoteErr.Type {
	case ErrTypeTimeout:
		return "Server not responding (timeout)"
	case ErrTypeNetwork:
		return "Network error - check the server address"
	case ErrTypeHTTP:
		return fmt.Sprintf("Server returned HTTP %d", remoteErr.StatusCode)
	case ErrTypeParse:
		return "Server response was not valid JSON"
	default:
		return remoteErr.Message
	}
}
