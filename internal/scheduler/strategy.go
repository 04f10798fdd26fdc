package scheduler

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Strategy produces a total order over a task list. Implementations never
// drop or duplicate tasks and never mutate them.
type Strategy interface {
	Schedule(tasks []*Task) []*Task
	Name() string
}

// Kind selects one of the built-in strategies.
type Kind int

const (
	KindPriority Kind = iota
	KindDeadline
	KindHierarchical
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPriority:
		return "priority"
	case KindDeadline:
		return "deadline"
	case KindHierarchical:
		return "hierarchical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Kinds lists the built-in strategies in menu order.
var Kinds = []Kind{KindPriority, KindDeadline, KindHierarchical}

// ParseKind maps a configuration name to a Kind (case-insensitive).
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(strings.TrimSpace(name), k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown scheduler %q (want priority, deadline or hierarchical)", name)
}

// New returns the strategy for kind. Unknown kinds fall back to priority order.
func New(kind Kind) Strategy {
	switch kind {
	case KindDeadline:
		return DeadlineOrder{}
	case KindHierarchical:
		return HierarchicalOrder{}
	default:
		return PriorityOrder{}
	}
}

// PriorityOrder runs the highest priority first. Ties keep input order.
type PriorityOrder struct{}

func (PriorityOrder) Name() string { return "PriorityScheduler" }

func (PriorityOrder) Schedule(tasks []*Task) []*Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *Task) int {
		return cmp.Compare(b.priority, a.priority)
	})
	return out
}

// DeadlineOrder runs the earliest deadline first. Ties keep input order.
type DeadlineOrder struct{}

func (DeadlineOrder) Name() string { return "DeadlineScheduler" }

func (DeadlineOrder) Schedule(tasks []*Task) []*Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *Task) int {
		return cmp.Compare(a.Deadline, b.Deadline)
	})
	return out
}

// HierarchicalOrder walks the composition forest: roots by descending
// priority, each followed by its subtasks in pre-order. Only tasks present in
// the input are emitted, each exactly once.
type HierarchicalOrder struct{}

func (HierarchicalOrder) Name() string { return "HierarchicalScheduler" }

func (HierarchicalOrder) Schedule(tasks []*Task) []*Task {
	byID := make(map[int]*Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	roots := PriorityOrder{}.Schedule(rootsOf(tasks))

	out := make([]*Task, 0, len(tasks))
	visited := make(map[int]bool, len(tasks))

	var collect func(task *Task)
	collect = func(task *Task) {
		if visited[task.ID] {
			return
		}
		visited[task.ID] = true
		out = append(out, task)
		for _, id := range task.subtasks {
			if child, ok := byID[id]; ok {
				collect(child)
			}
		}
	}

	for _, root := range roots {
		collect(root)
	}

	// Members of a composition cycle with no root are unreachable from the
	// roots; append them in input order so nothing is dropped.
	for _, task := range tasks {
		collect(task)
	}
	return out
}
