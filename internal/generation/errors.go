// Package generation provides the stage executors of the course pipeline.
// Each executor builds its prompt, calls the injected model client, validates
// the returned shape and decodes it into the domain types. Retry policy lives
// in the orchestrator, not here.
package generation

import (
	"errors"
	"fmt"
)

// ValidationError represents a stage response that parsed as JSON but failed
// the stage's shape or count requirements. The orchestrator treats it like a
// malformed response: one stricter re-prompt, then escalation.
type ValidationError struct {
	Stage  string
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s stage validation failed: %s: %v", e.Stage, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s stage validation failed: %s", e.Stage, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is (or wraps) a stage ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
