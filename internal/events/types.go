package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	TaskID() int // 0 for run-level events
}

// Topic constants
const (
	TopicTask = "task"
	TopicRun  = "run"
)

// Event type constants
const (
	EventTypeTaskStarted   = "task.started"
	EventTypeTaskCompleted = "task.completed"
	EventTypeTaskDeferred  = "task.deferred"
	EventTypePassCompleted = "run.pass"
	EventTypeRunProgress   = "run.progress"
	EventTypeRunStalled    = "run.stalled"
	EventTypeRunFinished   = "run.finished"
)

// TaskStartedEvent is published when a task begins, before its ready subtasks run.
// Depth is the composition depth relative to the task that was picked from
// the pass list (0 for the task itself, 1 for its subtasks, ...).
type TaskStartedEvent struct {
	ID        int
	Name      string
	Priority  int
	Deadline  int
	Depth     int
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) TaskID() int       { return e.ID }

// TaskCompletedEvent is published when a task reaches Completed.
type TaskCompletedEvent struct {
	ID        int
	Name      string
	Cost      int
	Depth     int
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) TaskID() int       { return e.ID }

// TaskDeferredEvent is published when a task is carried to the next pass
// because a dependency is not completed yet.
type TaskDeferredEvent struct {
	ID        int
	Name      string
	Pass      int
	Timestamp time.Time
}

func (e TaskDeferredEvent) EventType() string { return EventTypeTaskDeferred }
func (e TaskDeferredEvent) TaskID() int       { return e.ID }

// PassCompletedEvent is published at the end of every pass.
type PassCompletedEvent struct {
	RunID     string
	Pass      int
	Executed  int
	Deferred  int
	Timestamp time.Time
}

func (e PassCompletedEvent) EventType() string { return EventTypePassCompleted }
func (e PassCompletedEvent) TaskID() int       { return 0 }

// RunProgressEvent is published whenever the completed count changes.
type RunProgressEvent struct {
	RunID     string
	Total     int
	Completed int
	Running   int
	Pending   int
	Timestamp time.Time
}

func (e RunProgressEvent) EventType() string { return EventTypeRunProgress }
func (e RunProgressEvent) TaskID() int       { return 0 }

// RunStalledEvent is published when a pass completes nothing while tasks
// remain, or the pass limit is reached.
type RunStalledEvent struct {
	RunID     string
	Pass      int
	Stalled   []int
	Timestamp time.Time
}

func (e RunStalledEvent) EventType() string { return EventTypeRunStalled }
func (e RunStalledEvent) TaskID() int       { return 0 }

// RunFinishedEvent is published once per run, after the last pass.
type RunFinishedEvent struct {
	RunID     string
	Scheduler string
	Executed  int
	NotReady  int
	TotalCost int
	Duration  time.Duration
	Timestamp time.Time
}

func (e RunFinishedEvent) EventType() string { return EventTypeRunFinished }
func (e RunFinishedEvent) TaskID() int       { return 0 }
