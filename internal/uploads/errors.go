package uploads

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before any remote call is made.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when an upload record does not exist.
var ErrNotFound = errors.New("upload not found")

// Pipeline stages, used for logging and failure records.
const (
	StageStoreOriginal = "store_original"
	StageReopen        = "reopen_original"
	StageAnalyze       = "analyze"
	StageRender        = "render"
	StageStoreResult   = "store_result"
)

// PipelineError wraps a failure with the stage it occurred in. The wrapped
// error keeps its identity so callers can classify it with errors.Is/As.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
