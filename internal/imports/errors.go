package imports

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskInFlight is returned when a task id already has a live worker in this process
	ErrTaskInFlight = errors.New("task already in flight")

	// ErrLauncherClosed is returned for submissions after the launcher shut down
	ErrLauncherClosed = errors.New("launcher closed")
)

// ValidationError reports a malformed or missing request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// WorkerLaunchError reports that a worker could not be started. The task is never marked running.
type WorkerLaunchError struct {
	TaskID string
	Err    error
}

func (e *WorkerLaunchError) Error() string {
	return fmt.Sprintf("failed to launch worker for task %s: %v", e.TaskID, e.Err)
}

func (e *WorkerLaunchError) Unwrap() error {
	return e.Err
}
