package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when a task id is registered or added twice.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that is not registered.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not registered.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrNoTargetsSpecified is returned when no targets are given and the config has no root.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrReservedTaskName is returned when a task uses a reserved name (e.g., "all").
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrInvalidTaskName is returned when a task name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrNilTask is returned when a nil task or a task without an output is registered.
	ErrNilTask = zerr.New("task must not be nil and must declare an output")

	// ErrInvalidTransition is returned when a node status change is not allowed.
	ErrInvalidTransition = zerr.New("invalid status transition")

	// ErrGraphNotValidated is returned when the graph is used before Validate succeeded.
	ErrGraphNotValidated = zerr.New("graph has not been validated")

	// ErrStorage is the sentinel matched by every StorageError.
	ErrStorage = zerr.New("target storage failed")

	// ErrTaskFailed is the sentinel matched by every TaskFailure.
	ErrTaskFailed = zerr.New("task failed")

	// ErrTaskTimeout is matched by TaskFailures caused by an exceeded deadline.
	ErrTaskTimeout = zerr.New("task timed out")

	// ErrPipelineFailed is returned by the application layer when a run did not succeed.
	ErrPipelineFailed = zerr.New("pipeline execution failed")

	// ErrOutputMissing is returned when a task succeeded but its declared output file is absent.
	ErrOutputMissing = zerr.New("task succeeded but its output is missing")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrFailedToCleanOutput is returned when a stale or partial output cannot be removed.
	ErrFailedToCleanOutput = zerr.New("failed to clean output")

	// ErrMarkerWriteFailed is returned when a marker cannot be written atomically.
	ErrMarkerWriteFailed = zerr.New("failed to write marker")

	// ErrMarkerReadFailed is returned when a marker cannot be read.
	ErrMarkerReadFailed = zerr.New("failed to read marker")

	// ErrMarkerRemoveFailed is returned when a marker cannot be removed.
	ErrMarkerRemoveFailed = zerr.New("failed to remove marker")

	// ErrStoreCreateFailed is returned when the marker store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create marker store directory")

	// ErrLockFailed is returned when a target lock cannot be acquired.
	ErrLockFailed = zerr.New("failed to acquire target lock")

	// ErrConfigNotFound is returned when no mark.yaml is found in the directory tree.
	ErrConfigNotFound = zerr.New("could not find " + ConfigFileName)

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidDuration is returned when a duration field cannot be parsed.
	ErrInvalidDuration = zerr.New("invalid duration")

	// ErrConflictingTarget is returned when a task declares both a marker and an output.
	ErrConflictingTarget = zerr.New("task declares both marker and output")

	// ErrEmptyTask is returned when a task has neither a command nor dependencies.
	ErrEmptyTask = zerr.New("task has no command and no dependencies")

	// ErrInvalidMetrics is returned when a metrics file does not contain a JSON object of numbers.
	ErrInvalidMetrics = zerr.New("invalid metrics file")

	// ErrCommandFailed is returned by the executor when a command exits non-zero.
	ErrCommandFailed = zerr.New("command failed")

	// ErrInvalidOutputMode is returned when --output names an unknown renderer.
	ErrInvalidOutputMode = zerr.New("invalid output mode; use auto, tui or linear")

	// ErrWatcherFailed is returned when the file watcher cannot start.
	ErrWatcherFailed = zerr.New("failed to start file watcher")

	// ErrTrackerOpenFailed is returned when the metrics file cannot be opened.
	ErrTrackerOpenFailed = zerr.New("failed to open metrics file")

	// ErrTrackerWriteFailed is returned by Close when metrics could not be written.
	ErrTrackerWriteFailed = zerr.New("failed to write metrics")

	// ErrInterrupted is returned when the user quits the interactive view mid-run.
	ErrInterrupted = zerr.New("interrupted by user")
)

// sentinelError carries a cause under a sentinel so that errors.Is matches
// both the sentinel and anything in the cause chain.
type sentinelError struct {
	sentinel error
	cause    error
}

func (e *sentinelError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

// Message returns the sentinel text without the cause chain.
func (e *sentinelError) Message() string {
	return e.sentinel.Error()
}

func (e *sentinelError) Unwrap() error {
	return e.cause
}

func (e *sentinelError) Is(target error) bool {
	return target == e.sentinel
}

// Wrap files cause under sentinel. It returns nil when cause is nil.
func Wrap(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return &sentinelError{sentinel: sentinel, cause: cause}
}

// Annotate attaches key/value metadata to err without hiding its identity
// from errors.Is. Odd trailing keys are ignored.
func Annotate(err error, kv ...any) error {
	if err == nil {
		return nil
	}
	out := zerr.Wrap(err, "")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out = zerr.With(out, key, kv[i+1])
	}
	return out
}
