package core

// stages.go runs multi-step remote operations as an ordered list of named
// stages. Each stage either succeeds or stops the run; the error returned
// names the stage that failed so callers and logs can tell a token failure
// from a storage failure.

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/linkboard/internal/logging"
)

// Stage names shared by the service flows.
const (
	StageValidate = "validate"
	StageToken    = "token"
	StageRead     = "read"
	StageMatch    = "match"
	StageWrite    = "write"
	StageStore    = "store"
	StageParse    = "parse"
	StageCleanup  = "cleanup"
)

// Stage is one fallible step of a pipeline.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// StageError wraps the error of the stage that stopped a pipeline.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage name carried by err, or "" if err did not
// come from RunStages.
func FailedStage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// RunStages runs stages in order and stops at the first failure, returning
// it as a *StageError. A cancelled context stops the run before the next
// stage starts.
func RunStages(ctx context.Context, stages ...Stage) error {
	logger := logging.FromContext(ctx)

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: st.Name, Err: err}
		}

		start := time.Now()
		if err := st.Run(ctx); err != nil {
			logger.Debug("stage failed",
				"stage", st.Name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", err,
			)
			return &StageError{Stage: st.Name, Err: err}
		}
		logger.Debug("stage complete", "stage", st.Name, "duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}
