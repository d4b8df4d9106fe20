package domain

import (
	"errors"
	"strings"
)

// CycleError reports a dependency cycle. Cycle is a closed path: the first
// and last element are the same task id.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return ErrCycleDetected.Error() + ": " + strings.Join(e.Cycle, " -> ")
}

// Is makes errors.Is(err, ErrCycleDetected) hold.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycleDetected
}

// Members returns the distinct task ids taking part in the cycle.
func (e *CycleError) Members() []string {
	if len(e.Cycle) < 2 {
		return e.Cycle
	}
	return e.Cycle[:len(e.Cycle)-1]
}

// Storage operations reported by StorageError.
const (
	OpExists      = "exists"
	OpMaterialize = "materialize"
	OpLock        = "lock"
	OpClean       = "clean"
)

// StorageError reports that a target's backing store could not be reached.
type StorageError struct {
	Task  string
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	msg := e.Message()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Message returns the failure without its cause.
func (e *StorageError) Message() string {
	return ErrStorage.Error() + ": task " + e.Task + ": " + e.Op
}

// Is makes errors.Is(err, ErrStorage) hold.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// TaskFailure reports that a task's run returned an error. Timeout is set
// when the run exceeded its deadline.
type TaskFailure struct {
	Task    string
	Cause   error
	Timeout bool
}

func (e *TaskFailure) Error() string {
	msg := e.Message()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Message returns the failure without its cause.
func (e *TaskFailure) Message() string {
	if e.Timeout {
		return ErrTaskTimeout.Error() + ": " + e.Task
	}
	return ErrTaskFailed.Error() + ": " + e.Task
}

// Is matches ErrTaskFailed, and ErrTaskTimeout for timeouts.
func (e *TaskFailure) Is(target error) bool {
	return target == ErrTaskFailed || (e.Timeout && target == ErrTaskTimeout)
}

func (e *TaskFailure) Unwrap() error {
	return e.Cause
}

// FailedTask returns the id of the task a failure belongs to, if any.
func FailedTask(err error) (string, bool) {
	var tf *TaskFailure
	if errors.As(err, &tf) {
		return tf.Task, true
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Task, true
	}
	return "", false
}
