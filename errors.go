package livetl

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoProvider is returned when a Run needs the remote service but the
// engine was built without one.
var ErrNoProvider = errors.New("no translation provider configured")

// ProviderError indicates a remote translation failure. A zero StatusCode
// means the call never produced a response (network error, refused
// connection); a non-zero StatusCode is a non-success reply.
type ProviderError struct {
	Message    string
	Cause      error
	StatusCode int  // HTTP status of a non-success reply, 0 for transport failures
	Retryable  bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError indicates a reply that could not be read as an
// ordered list of strings.
type MalformedResponseError struct {
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed translation response: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed translation response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// CountMismatchError indicates the service returned a different number of
// translations than were requested.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("translation count mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ApplyError indicates an unexpected failure while committing translations
// into the document.
type ApplyError struct {
	Message string
	Cause   error
}

func (e *ApplyError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("apply error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("apply error: %s", e.Message)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// IsFallback reports whether err means the service answered but the answer is
// unusable. Such batches resolve to their original strings.
func IsFallback(err error) bool {
	if err == nil {
		return false
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return true
	}

	var mismatch *CountMismatchError
	if errors.As(err, &mismatch) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode != 0
	}

	return false
}

// IsCancelled reports whether err stems from a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
