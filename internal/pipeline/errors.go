package pipeline

import (
	"errors"
	"fmt"
)

// ErrStageInputInvalid marks a precondition violation: the stage was
// invoked without a required upstream artifact. Caller bug; never
// retried automatically and never writes anything.
var ErrStageInputInvalid = errors.New("stage input invalid")

// ErrStageGenerationFailed marks a failed, timed-out, or schema-invalid
// generation call. Retryable: stages are pure functions of their
// persisted inputs, so re-invoking the same stage is always safe.
var ErrStageGenerationFailed = errors.New("stage generation failed")

// Stage names used in errors, logs, and progress events.
const (
	StageReviewer   = "reviewer"
	StageCoach      = "coach"
	StageStrategist = "strategist"
	StageEditor     = "editor"
)

// StageError scopes a failure to the stage that produced it so callers
// can report per-stage status instead of a generic error.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, sentinel error, format string, args ...any) error {
	return &StageError{Stage: stage, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
