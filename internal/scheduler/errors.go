package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownReference  = errors.New("unknown task reference")
	ErrSelfReference     = errors.New("task cannot reference itself")
	ErrCycleDetected     = errors.New("circular dependency detected")
	ErrExecutionStall    = errors.New("execution stalled")
	ErrPassLimitExceeded = errors.New("pass limit exceeded")
)

// GraphError wraps graph mutation and validation failures.
type GraphError struct {
	Kind error
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func unknownRef(id int) error {
	return &GraphError{Kind: ErrUnknownReference, Msg: fmt.Sprintf("task %d does not exist", id)}
}

func selfRef(id int, relation string) error {
	return &GraphError{Kind: ErrSelfReference, Msg: fmt.Sprintf("task %d as its own %s", id, relation)}
}

func cycleError(path []int) error {
	if len(path) == 0 {
		return &GraphError{Kind: ErrCycleDetected}
	}
	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return &GraphError{Kind: ErrCycleDetected, Msg: "cycle: " + strings.Join(parts, " -> ")}
}

// StallError reports the tasks that could not run when an execution stopped
// making progress.
type StallError struct {
	Kind    error // ErrExecutionStall or ErrPassLimitExceeded
	TaskIDs []int
}

func (e *StallError) Error() string {
	ids := make([]string, len(e.TaskIDs))
	for i, id := range e.TaskIDs {
		ids[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%s: %d task(s) not ready: %s", e.Kind.Error(), len(e.TaskIDs), strings.Join(ids, ", "))
}

func (e *StallError) Unwrap() error { return e.Kind }
