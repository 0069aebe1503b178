package interview

import (
	"errors"
	"fmt"
)

// ErrInvalidStage matches every StageError via errors.Is.
var ErrInvalidStage = errors.New("operation not allowed in current stage")

// ValidationError reports user input that blocks a single action.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StageError reports an operation attempted in the wrong stage.
type StageError struct {
	Op    string
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: not allowed in stage %q", e.Op, e.Stage)
}

func (e *StageError) Is(target error) bool {
	return target == ErrInvalidStage
}

// RemoteCallError wraps a failed call to the question, feedback or summary generator.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: remote call failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure to write the history store.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("saving session: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemote reports whether err is (or wraps) a RemoteCallError.
func IsRemote(err error) bool {
	var re *RemoteCallError
	return errors.As(err, &re)
}

// IsPersistence reports whether err is (or wraps) a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
