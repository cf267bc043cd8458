package ghsecrets

import (
	"errors"
	"fmt"
)

// ErrPartialFailure is returned by Result.Err when at least one secret could
// not be written.
var ErrPartialFailure = errors.New("some secrets were not written")

// Stage names a step of a run.
type Stage string

const (
	StageConfig   Stage = "config"
	StageAuth     Stage = "auth"
	StageKeyFetch Stage = "key fetch"
	StageEncrypt  Stage = "encrypt"
	StageUpsert   Stage = "upsert"
)

// StageError reports the step a run stopped at.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
