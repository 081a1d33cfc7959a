package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// TransientError represents a retryable service failure: network trouble,
// rate limiting, server-side errors, or a per-call timeout.
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient service error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError represents a response that is not a well-formed JSON
// object or does not match the requested shape. Retrying with the same prompt
// is unlikely to help.
type MalformedResponseError struct {
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed model response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("malformed model response: %s", e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// FatalError represents a non-retryable failure: bad credentials, quota
// exhaustion, or misconfiguration.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal service error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fatal service error: %s", e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsMalformed reports whether err is (or wraps) a MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// classifyCallError maps an error returned by the generative API into the
// pipeline's taxonomy. Auth and permission failures are fatal; everything
// else (rate limits, 5xx, network, timeouts) is considered retryable.
func classifyCallError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired:
			return &FatalError{Message: "model call rejected", Cause: err}
		case http.StatusBadRequest:
			return &FatalError{Message: "model call misconfigured", Cause: err}
		}
		return &TransientError{Message: "model call failed", Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientError{Message: "model call timed out", Cause: err}
	}

	// A cancelled context is the caller giving up, not a service failure.
	// It still classifies as transient; the retry loop stops on its own
	// once the context is done.
	if errors.Is(err, context.Canceled) {
		return &TransientError{Message: "model call cancelled", Cause: err}
	}

	return &TransientError{Message: "model call failed", Cause: err}
}
