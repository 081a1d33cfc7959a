// Package pipeline provides the high-level orchestration for the course
// generation process: the stage state machine, the retry policy around each
// stage, and the bounded fan-out that expands lessons.
package pipeline

import (
	"errors"
	"fmt"
)

// State names the phase a pipeline run is in. Transitions only move forward;
// any stage failure lands in StateFailed and no partial course is produced.
type State string

const (
	StateInit      State = "init"
	StatePersona   State = "persona"
	StateStructure State = "structure"
	StateExpanding State = "expanding"
	StateExtras    State = "extras"
	StateAssembled State = "assembled"
	StateFailed    State = "failed"
)

// InputValidationError means the learner profile was rejected before any
// model call was made.
type InputValidationError struct {
	Cause error
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid learner profile: %v", e.Cause)
}

func (e *InputValidationError) Unwrap() error {
	return e.Cause
}

// PipelineError wraps a stage failure with its position in the run. Module
// and Lesson are zero-based indexes into the course structure; both are -1
// for course-level stages.
type PipelineError struct {
	Stage  State
	Module int
	Lesson int
	Cause  error
}

func (e *PipelineError) Error() string {
	if e.Module >= 0 && e.Lesson >= 0 {
		return fmt.Sprintf("%s stage failed at module %d, lesson %d: %v", e.Stage, e.Module, e.Lesson, e.Cause)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// AsPipelineError returns the wrapped PipelineError, if any.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}
