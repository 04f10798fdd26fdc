package scheduler

import (
	"fmt"
	"slices"

	"github.com/gammazero/toposort"
)

// Graph owns every Task and resolves composition and precedence edges by ID.
// It is not safe for concurrent use; a single goroutine builds and runs it.
type Graph struct {
	tasks  []*Task       // All tasks in creation order
	index  map[int]*Task // All tasks indexed by ID
	nextID int
}

// GraphStats is a read-only summary of the graph.
type GraphStats struct {
	Total     int // All tasks
	Roots     int // Tasks that are nobody's subtask
	Subtasks  int // Sum of recursive subtask counts over the roots
	Completed int
	Pending   int
}

// NewGraph creates an empty graph. IDs start at 1.
func NewGraph() *Graph {
	return &Graph{
		index:  make(map[int]*Task),
		nextID: 1,
	}
}

// CreateTask allocates a task with the next ID and registers it.
// Priority is clamped to 1-10; other domains are the caller's concern.
func (g *Graph) CreateTask(name string, priority, deadline, cost int) *Task {
	task := &Task{
		ID:       g.nextID,
		Name:     name,
		Deadline: deadline,
		Cost:     cost,
		priority: clampPriority(priority),
		status:   TaskPending,
	}
	g.nextID++

	g.tasks = append(g.tasks, task)
	g.index[task.ID] = task
	return task
}

// AddSubtask records childID as a subtask of parentID.
// Composition cycles and multiple parents are not rejected here; every
// traversal of the composition relation guards itself with a visited set.
func (g *Graph) AddSubtask(parentID, childID int) error {
	parent, child, err := g.resolvePair(parentID, childID, "subtask")
	if err != nil {
		return err
	}
	if !slices.Contains(parent.subtasks, child.ID) {
		parent.subtasks = append(parent.subtasks, child.ID)
	}
	return nil
}

// AddDependency records that taskID may only run once dependsOnID is completed.
// Cycles are allowed at this point; callers check with HasCycle.
func (g *Graph) AddDependency(taskID, dependsOnID int) error {
	task, dep, err := g.resolvePair(taskID, dependsOnID, "dependency")
	if err != nil {
		return err
	}
	if !slices.Contains(task.dependencies, dep.ID) {
		task.dependencies = append(task.dependencies, dep.ID)
	}
	return nil
}

func (g *Graph) resolvePair(fromID, toID int, relation string) (*Task, *Task, error) {
	from, ok := g.index[fromID]
	if !ok {
		return nil, nil, unknownRef(fromID)
	}
	to, ok := g.index[toID]
	if !ok {
		return nil, nil, unknownRef(toID)
	}
	if fromID == toID {
		return nil, nil, selfRef(fromID, relation)
	}
	return from, to, nil
}

// FindByID returns the task handle for id.
func (g *Graph) FindByID(id int) (*Task, bool) {
	task, ok := g.index[id]
	return task, ok
}

// Exists reports whether id refers to a task in the graph.
func (g *Graph) Exists(id int) bool {
	_, ok := g.index[id]
	return ok
}

// Len returns the number of tasks.
func (g *Graph) Len() int { return len(g.tasks) }

// Tasks returns all task handles in creation order.
func (g *Graph) Tasks() []*Task {
	return append([]*Task(nil), g.tasks...)
}

// RootTasks returns the tasks that never appear in another task's subtask
// list, in creation order.
func (g *Graph) RootTasks() []*Task {
	return rootsOf(g.tasks)
}

// rootsOf computes roots within the given task set only.
func rootsOf(tasks []*Task) []*Task {
	children := make(map[int]bool)
	for _, task := range tasks {
		for _, id := range task.subtasks {
			children[id] = true
		}
	}

	roots := []*Task{}
	for _, task := range tasks {
		if !children[task.ID] {
			roots = append(roots, task)
		}
	}
	return roots
}

// ForceComplete marks a task completed regardless of its dependencies.
func (g *Graph) ForceComplete(id int) error {
	task, ok := g.index[id]
	if !ok {
		return unknownRef(id)
	}
	task.advance(TaskCompleted)
	return nil
}

// TotalSubtasks counts the distinct tasks reachable below id through the
// composition relation. The task itself is never counted.
func (g *Graph) TotalSubtasks(id int) (int, error) {
	task, ok := g.index[id]
	if !ok {
		return 0, unknownRef(id)
	}
	visited := map[int]bool{task.ID: true}
	return g.countBelow(task, visited), nil
}

func (g *Graph) countBelow(task *Task, visited map[int]bool) int {
	count := 0
	for _, id := range task.subtasks {
		if visited[id] {
			continue
		}
		visited[id] = true
		child, ok := g.index[id]
		if !ok {
			continue
		}
		count += 1 + g.countBelow(child, visited)
	}
	return count
}

// Stats computes aggregate counts over the graph.
func (g *Graph) Stats() GraphStats {
	stats := GraphStats{Total: len(g.tasks)}
	for _, root := range g.RootTasks() {
		stats.Roots++
		n, _ := g.TotalSubtasks(root.ID)
		stats.Subtasks += n
	}
	for _, task := range g.tasks {
		if task.status == TaskCompleted {
			stats.Completed++
		} else {
			stats.Pending++
		}
	}
	return stats
}

// DependencyOrder returns every task ordered so that each one comes after all
// of its dependencies. Returns an error wrapping ErrCycleDetected if the
// precedence relation is cyclic.
func (g *Graph) DependencyOrder() ([]*Task, error) {
	// Build edges for topological sort
	var edges []toposort.Edge
	for _, task := range g.tasks {
		if len(task.dependencies) == 0 {
			// Task with no dependencies - add edge from nil to ensure it's included
			edges = append(edges, toposort.Edge{nil, task.ID})
			continue
		}
		for _, depID := range task.dependencies {
			if _, ok := g.index[depID]; !ok {
				return nil, unknownRef(depID)
			}
			// Edge (depID, taskID) means depID must come before taskID
			edges = append(edges, toposort.Edge{depID, task.ID})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, &GraphError{Kind: ErrCycleDetected, Msg: err.Error()}
	}

	order := make([]*Task, 0, len(g.tasks))
	for _, id := range sorted {
		if id == nil {
			continue
		}
		order = append(order, g.index[id.(int)])
	}

	// Every task must be placed; a cycle with no entry point drops its members
	if len(order) != len(g.tasks) {
		return nil, &GraphError{
			Kind: ErrCycleDetected,
			Msg:  fmt.Sprintf("topological sort placed %d of %d tasks", len(order), len(g.tasks)),
		}
	}

	return order, nil
}
