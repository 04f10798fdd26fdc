package scheduler

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/htse/internal/events"
)

// DefaultPassLimit bounds the number of sweeps over the working list.
const DefaultPassLimit = 10

// Simulator performs the stand-in work for a task. It blocks for the
// duration of the task's cost.
type Simulator interface {
	Simulate(task *Task)
}

// SleepSimulator blocks Cost × UnitDelay. Once Skip is closed the remaining
// work completes without delay.
type SleepSimulator struct {
	UnitDelay time.Duration
	Skip      <-chan struct{}
}

func (s SleepSimulator) Simulate(task *Task) {
	if s.UnitDelay <= 0 || task.Cost <= 0 {
		return
	}
	timer := time.NewTimer(time.Duration(task.Cost) * s.UnitDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.Skip:
	}
}

// NoDelay completes work instantly.
type NoDelay struct{}

func (NoDelay) Simulate(*Task) {}

// Report summarizes one execution run.
type Report struct {
	RunID     string
	Scheduler string
	Executed  int     // Tasks completed by this run, subtasks included
	NotReady  int     // Tasks left pending when the run stopped
	TotalCost int     // Cost accumulated by this run only
	Passes    int     // Passes performed
	Order     []int   // Task IDs in completion order
	Stalled   []*Task // Set only when the run stalled
	Duration  time.Duration

	err error
}

// Err returns a *StallError if the run stopped with tasks not ready, nil otherwise.
func (r *Report) Err() error { return r.err }

// Succeeded reports whether every task in the run completed.
func (r *Report) Succeeded() bool { return r.err == nil }

// Option configures an Executor.
type Option func(*Executor)

// WithPassLimit overrides DefaultPassLimit. Values below 1 are ignored.
func WithPassLimit(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.passLimit = n
		}
	}
}

// WithSimulator sets the work simulator. Default is NoDelay.
func WithSimulator(s Simulator) Option {
	return func(e *Executor) {
		if s != nil {
			e.sim = s
		}
	}
}

// WithEventBus publishes run progress to bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Executor) {
		e.bus = bus
	}
}

// Executor runs an ordered task list to completion, honoring precedence and
// running ready subtasks before their parent. Execution is sequential.
type Executor struct {
	graph     *Graph
	passLimit int
	sim       Simulator
	bus       *events.EventBus
}

// NewExecutor creates an Executor over graph.
func NewExecutor(graph *Graph, opts ...Option) *Executor {
	e := &Executor{
		graph:     graph,
		passLimit: DefaultPassLimit,
		sim:       NoDelay{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute orders every task in the graph with strategy and runs the result.
func (e *Executor) Execute(strategy Strategy) (*Report, error) {
	return e.Run(strategy.Name(), strategy.Schedule(e.graph.Tasks()))
}

// Run executes ordered. It refuses to start, returning an error wrapping
// ErrCycleDetected, if the precedence relation is cyclic. A stalled run is
// not an error here: the report describes the partial completion and
// Report.Err carries the stall.
func (e *Executor) Run(schedulerName string, ordered []*Task) (*Report, error) {
	if err := e.graph.ValidateAcyclic(); err != nil {
		log.Printf("ERROR: refusing to execute: %v", err)
		return nil, err
	}
	return e.runPasses(schedulerName, ordered), nil
}

// run carries per-run state through the passes.
type run struct {
	report    *Report
	total     int
	completed int
}

func (e *Executor) runPasses(schedulerName string, ordered []*Task) *Report {
	start := time.Now()
	r := &run{
		report: &Report{
			RunID:     uuid.NewString(),
			Scheduler: schedulerName,
			Order:     []int{},
		},
		total:     e.graph.Len(),
		completed: e.graph.Stats().Completed,
	}

	remaining := ordered
	stalled := false

	for pass := 1; pass <= e.passLimit && len(remaining) > 0; pass++ {
		r.report.Passes = pass
		var deferred []*Task
		progress := false

		for _, task := range remaining {
			if task.status == TaskCompleted {
				continue
			}
			if !task.IsReady(e.graph.FindByID) {
				deferred = append(deferred, task)
				e.publish(events.TopicTask, events.TaskDeferredEvent{
					ID:        task.ID,
					Name:      task.Name,
					Pass:      pass,
					Timestamp: time.Now(),
				})
				continue
			}

			e.executeWithSubtasks(r, task, 0, make(map[int]bool))
			progress = true
		}

		remaining = pending(deferred)
		e.publish(events.TopicRun, events.PassCompletedEvent{
			RunID:     r.report.RunID,
			Pass:      pass,
			Executed:  r.report.Executed,
			Deferred:  len(remaining),
			Timestamp: time.Now(),
		})

		// No progress possible
		if !progress && len(remaining) > 0 {
			stalled = true
			break
		}
	}

	if len(remaining) > 0 {
		kind := ErrPassLimitExceeded
		if stalled {
			kind = ErrExecutionStall
		}
		e.stall(r, kind, remaining)
	}

	r.report.Duration = time.Since(start)
	e.publish(events.TopicRun, events.RunFinishedEvent{
		RunID:     r.report.RunID,
		Scheduler: schedulerName,
		Executed:  r.report.Executed,
		NotReady:  r.report.NotReady,
		TotalCost: r.report.TotalCost,
		Duration:  r.report.Duration,
		Timestamp: time.Now(),
	})
	return r.report
}

func (e *Executor) stall(r *run, kind error, remaining []*Task) {
	ids := make([]int, len(remaining))
	for i, task := range remaining {
		ids[i] = task.ID
	}

	r.report.Stalled = remaining
	r.report.NotReady = len(remaining)
	r.report.err = &StallError{Kind: kind, TaskIDs: ids}

	log.Printf("WARNING: cannot make further progress after %d pass(es): %v", r.report.Passes, r.report.err)
	e.publish(events.TopicRun, events.RunStalledEvent{
		RunID:     r.report.RunID,
		Pass:      r.report.Passes,
		Stalled:   ids,
		Timestamp: time.Now(),
	})
}

// executeWithSubtasks runs ready subtasks depth-first, then the task itself.
// At most one task is Running at any moment.
// active guards against composition cycles within one top-level execution.
func (e *Executor) executeWithSubtasks(r *run, task *Task, depth int, active map[int]bool) {
	if task.status == TaskCompleted || active[task.ID] {
		return
	}
	active[task.ID] = true

	started := time.Now()
	e.publish(events.TopicTask, events.TaskStartedEvent{
		ID:        task.ID,
		Name:      task.Name,
		Priority:  task.priority,
		Deadline:  task.Deadline,
		Depth:     depth,
		Timestamp: started,
	})

	for _, id := range task.subtasks {
		sub, ok := e.graph.FindByID(id)
		if !ok || sub.status == TaskCompleted || !sub.IsReady(e.graph.FindByID) {
			continue
		}
		e.executeWithSubtasks(r, sub, depth+1, active)
	}

	// Running covers the simulated work only, never the subtask descent
	task.advance(TaskRunning)
	e.sim.Simulate(task)
	task.advance(TaskCompleted)

	r.report.Executed++
	r.report.TotalCost += task.Cost
	r.report.Order = append(r.report.Order, task.ID)
	r.completed++

	e.publish(events.TopicTask, events.TaskCompletedEvent{
		ID:        task.ID,
		Name:      task.Name,
		Cost:      task.Cost,
		Depth:     depth,
		Duration:  time.Since(started),
		Timestamp: time.Now(),
	})
	e.publish(events.TopicRun, events.RunProgressEvent{
		RunID:     r.report.RunID,
		Total:     r.total,
		Completed: r.completed,
		Pending:   r.total - r.completed,
		Timestamp: time.Now(),
	})
}

func (e *Executor) publish(topic string, event events.Event) {
	if e.bus != nil {
		e.bus.Publish(topic, event)
	}
}

// pending drops tasks that were completed later in the same pass.
func pending(tasks []*Task) []*Task {
	out := tasks[:0:0]
	for _, task := range tasks {
		if task.status != TaskCompleted {
			out = append(out, task)
		}
	}
	return out
}
