package pipeline

import "fmt"

// Stage names a state of a pipeline run.
type Stage string

const (
	StageCacheCheck  Stage = "CACHE_CHECK"
	StagePreprocess  Stage = "PREPROCESS"
	StageTranslate   Stage = "TRANSLATE"
	StagePostprocess Stage = "POSTPROCESS"
	StagePersist     Stage = "PERSIST"
	StageDone        Stage = "DONE"
	StageFailed      Stage = "FAILED"
)

// Error is the single failure surface of Run. Err wraps one of the
// sentinels in package internal.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("translation pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
