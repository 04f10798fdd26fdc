package scheduler

import "fmt"

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending   TaskStatus = iota // Waiting to run
	TaskRunning                     // Simulated work in progress
	TaskCompleted                   // Finished
)

// String returns the display name of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "PENDING"
	case TaskRunning:
		return "RUNNING"
	case TaskCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// Priority bounds. 10 is the highest priority.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Task represents a unit of work in the graph.
// Tasks are owned by a Graph; Subtasks and Dependencies hold task IDs that
// are resolved through the graph, never pointers.
type Task struct {
	ID       int    // Unique, assigned by the graph
	Name     string // Human-readable name
	Deadline int    // Days from now, >= 0
	Cost     int    // Simulated work units, >= 1

	priority     int
	status       TaskStatus
	subtasks     []int
	dependencies []int
}

// Priority returns the task priority (1-10).
func (t *Task) Priority() int { return t.priority }

// Status returns the task status.
func (t *Task) Status() TaskStatus { return t.status }

// Subtasks returns the IDs of the task's direct subtasks in insertion order.
func (t *Task) Subtasks() []int { return append([]int(nil), t.subtasks...) }

// Dependencies returns the IDs of tasks that must complete before this one.
func (t *Task) Dependencies() []int { return append([]int(nil), t.dependencies...) }

// AdjustPriority adds delta to the priority, clamped to 1-10.
func (t *Task) AdjustPriority(delta int) {
	t.priority = clampPriority(t.priority + delta)
}

// IncPriority raises the priority by one unless it is already at the maximum.
func (t *Task) IncPriority() { t.AdjustPriority(1) }

// DecPriority lowers the priority by one unless it is already at the minimum.
func (t *Task) DecPriority() { t.AdjustPriority(-1) }

// WithPriorityDelta returns a detached copy of the task with an adjusted priority.
// The receiver is left untouched.
func (t *Task) WithPriorityDelta(delta int) Task {
	cp := *cloneTask(t)
	cp.priority = clampPriority(t.priority + delta)
	return cp
}

// Compare orders tasks by priority: -1 if t has lower priority than other,
// +1 if higher, 0 if equal.
func (t *Task) Compare(other *Task) int {
	switch {
	case t.priority < other.priority:
		return -1
	case t.priority > other.priority:
		return 1
	default:
		return 0
	}
}

// Equal reports whether both handles refer to the same task identity.
func (t *Task) Equal(other *Task) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// IsReady reports whether every dependency resolves and is completed.
// A dependency that cannot be resolved is never satisfied.
func (t *Task) IsReady(lookup func(id int) (*Task, bool)) bool {
	for _, depID := range t.dependencies {
		dep, ok := lookup(depID)
		if !ok || dep.status != TaskCompleted {
			return false
		}
	}
	return true
}

func (t *Task) String() string {
	return fmt.Sprintf("Task[ID=%d, Name=%q, Priority=%d, Deadline=%dd, Status=%s, Cost=%du]",
		t.ID, t.Name, t.priority, t.Deadline, t.status, t.Cost)
}

// advance moves the status forward. Regressions are ignored.
func (t *Task) advance(to TaskStatus) {
	if to > t.status {
		t.status = to
	}
}

func clampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	}
	if p > MaxPriority {
		return MaxPriority
	}
	return p
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}

	cp := *task
	if task.subtasks != nil {
		cp.subtasks = append([]int(nil), task.subtasks...)
	}
	if task.dependencies != nil {
		cp.dependencies = append([]int(nil), task.dependencies...)
	}
	return &cp
}
