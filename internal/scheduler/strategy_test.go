package scheduler

import (
	"math"
	"testing"
)

type spec struct {
	priority int
	deadline int
}

func buildGraph(t *testing.T, specs []spec) (*Graph, []*Task) {
	t.Helper()
	g := NewGraph()
	tasks := make([]*Task, len(specs))
	for i, s := range specs {
		tasks[i] = g.CreateTask(string(rune('A'+i)), s.priority, s.deadline, 1)
	}
	return g, tasks
}

func TestPriorityOrder(t *testing.T) {
	tests := []struct {
		name  string
		specs []spec
		want  []int
	}{
		{
			name:  "descending priority",
			specs: []spec{{3, 0}, {9, 0}, {5, 0}},
			want:  []int{2, 3, 1},
		},
		{
			name:  "ties keep input order",
			specs: []spec{{5, 0}, {8, 0}, {5, 0}, {8, 0}, {5, 0}},
			want:  []int{2, 4, 1, 3, 5},
		},
		{
			name:  "all equal",
			specs: []spec{{4, 0}, {4, 0}, {4, 0}},
			want:  []int{1, 2, 3},
		},
		{
			name:  "empty",
			specs: nil,
			want:  []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tasks := buildGraph(t, tt.specs)
			got := PriorityOrder{}.Schedule(tasks)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Schedule() = %v, want %v", ids(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i-1].Priority() < got[i].Priority() {
					t.Errorf("not sorted by descending priority at %d", i)
				}
			}
		})
	}
}

func TestDeadlineOrder(t *testing.T) {
	tests := []struct {
		name  string
		specs []spec
		want  []int
	}{
		{
			name:  "ascending deadline",
			specs: []spec{{5, 7}, {5, 1}, {5, 3}},
			want:  []int{2, 3, 1},
		},
		{
			name:  "ties keep input order",
			specs: []spec{{1, 2}, {9, 0}, {5, 2}, {2, 0}},
			want:  []int{2, 4, 1, 3},
		},
		{
			name:  "extreme deadlines",
			specs: []spec{{5, math.MaxInt}, {5, math.MinInt}, {5, 0}},
			want:  []int{2, 3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, tasks := buildGraph(t, tt.specs)
			got := DeadlineOrder{}.Schedule(tasks)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Schedule() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestScheduleDoesNotMutateInput(t *testing.T) {
	_, tasks := buildGraph(t, []spec{{1, 5}, {9, 1}, {5, 3}})
	before := ids(tasks)

	for _, s := range []Strategy{PriorityOrder{}, DeadlineOrder{}, HierarchicalOrder{}} {
		s.Schedule(tasks)
		if !equalIDs(ids(tasks), before) {
			t.Errorf("%s reordered its input", s.Name())
		}
	}
}

func TestHierarchicalOrder(t *testing.T) {
	tests := []struct {
		name  string
		specs []spec
		subs  [][2]int // parent, child
		want  []int
	}{
		{
			name:  "roots by priority then pre-order",
			specs: []spec{{3, 0}, {9, 0}, {1, 0}, {1, 0}, {1, 0}},
			subs:  [][2]int{{1, 3}, {2, 4}, {4, 5}},
			want:  []int{2, 4, 5, 1, 3},
		},
		{
			name:  "shared child emitted once",
			specs: []spec{{9, 0}, {5, 0}, {1, 0}},
			subs:  [][2]int{{1, 3}, {2, 3}},
			want:  []int{1, 3, 2},
		},
		{
			name:  "composition cycle below a root",
			specs: []spec{{5, 0}, {5, 0}, {5, 0}},
			subs:  [][2]int{{1, 2}, {2, 3}, {3, 2}},
			want:  []int{1, 2, 3},
		},
		{
			name:  "rootless composition cycle is still emitted",
			specs: []spec{{5, 0}, {5, 0}, {7, 0}},
			subs:  [][2]int{{1, 2}, {2, 1}},
			want:  []int{3, 1, 2},
		},
		{
			name:  "equal priority roots keep creation order",
			specs: []spec{{5, 0}, {5, 0}, {5, 0}},
			want:  []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, tasks := buildGraph(t, tt.specs)
			for _, s := range tt.subs {
				mustSubtask(t, g, s[0], s[1])
			}

			got := HierarchicalOrder{}.Schedule(tasks)
			if !equalIDs(ids(got), tt.want) {
				t.Errorf("Schedule() = %v, want %v", ids(got), tt.want)
			}

			seen := make(map[int]int)
			for _, task := range got {
				seen[task.ID]++
			}
			for _, task := range tasks {
				if seen[task.ID] != 1 {
					t.Errorf("task %d emitted %d times", task.ID, seen[task.ID])
				}
			}
		})
	}
}

func TestHierarchicalOrderIgnoresTasksOutsideInput(t *testing.T) {
	g, tasks := buildGraph(t, []spec{{5, 0}, {5, 0}, {5, 0}})
	mustSubtask(t, g, 1, 2)
	mustSubtask(t, g, 1, 3)

	got := HierarchicalOrder{}.Schedule([]*Task{tasks[0], tasks[2]})
	if want := []int{1, 3}; !equalIDs(ids(got), want) {
		t.Errorf("Schedule() = %v, want %v", ids(got), want)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in       string
		want     Kind
		wantName string
		wantErr  bool
	}{
		{in: "priority", want: KindPriority, wantName: "PriorityScheduler"},
		{in: "Deadline", want: KindDeadline, wantName: "DeadlineScheduler"},
		{in: " HIERARCHICAL ", want: KindHierarchical, wantName: "HierarchicalScheduler"},
		{in: "fifo", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if name := New(got).Name(); name != tt.wantName {
				t.Errorf("New(%v).Name() = %q, want %q", got, name, tt.wantName)
			}
		})
	}
}
