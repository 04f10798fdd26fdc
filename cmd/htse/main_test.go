package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/aristath/htse/internal/planfile"
	"github.com/aristath/htse/internal/scheduler"
)

const testPlan = `tasks:
  - key: research
    name: Research
    priority: 4
    deadline: 1
    cost: 2
  - key: design
    name: Design API
    priority: 8
    deadline: 3
    cost: 3
    subtasks: [schema]
    depends_on: [research]
  - key: schema
    name: Write schema
    priority: 6
    deadline: 2
    cost: 1
`

// execute runs the root command against fs with an isolated config.
func execute(t *testing.T, ctx context.Context, fs afero.Fs, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfgPath := filepath.Join(dir, "project.json")
	if err := os.WriteFile(cfgPath, []byte(`{"color": false, "unit_delay_ms": 0}`), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd(fs)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--plan", "/work/htse.yaml", "--config", cfgPath}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func planFs(t *testing.T, doc string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/work/htse.yaml", []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, context.Background(), planFs(t, testPlan), "run", "--scheduler", "priority")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}

	for _, want := range []string{
		"Executing 3 task(s) with PriorityScheduler",
		"[WAIT] Task 2: Design API waits on dependencies",
		"[DONE] Task 1: Research (2u)",
		"[DONE] Task 3: Write schema (1u)",
		"EXECUTION SUMMARY REPORT",
		"Tasks Executed:",
		"6 units",
		"Passes:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommand_RefusesCycle(t *testing.T) {
	doc := `tasks:
  - {key: a, name: A, priority: 5, cost: 1, depends_on: [b]}
  - {key: b, name: B, priority: 5, cost: 1, depends_on: [a]}
`
	out, err := execute(t, context.Background(), planFs(t, doc), "run")
	if !errors.Is(err, scheduler.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}
	if !strings.Contains(out, "Circular dependencies found!") {
		t.Errorf("output missing cycle message:\n%s", out)
	}
	if strings.Contains(out, "[RUNNING]") {
		t.Errorf("tasks ran despite the cycle:\n%s", out)
	}
}

func TestRunCommand_PassLimit(t *testing.T) {
	doc := `tasks:
  - {key: last, name: Last, priority: 9, cost: 1, depends_on: [first]}
  - {key: first, name: First, priority: 1, cost: 1}
`
	out, err := execute(t, context.Background(), planFs(t, doc), "run", "--pass-limit", "1")

	var stall *scheduler.StallError
	if !errors.As(err, &stall) {
		t.Fatalf("expected *StallError, got %v", err)
	}
	if !errors.Is(err, scheduler.ErrPassLimitExceeded) {
		t.Errorf("expected ErrPassLimitExceeded, got %v", err)
	}
	if len(stall.TaskIDs) != 1 || stall.TaskIDs[0] != 1 {
		t.Errorf("stalled = %v, want [1]", stall.TaskIDs)
	}
	if !strings.Contains(out, "EXECUTION STALLED") {
		t.Errorf("output missing stall header:\n%s", out)
	}
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	fs := planFs(t, testPlan)
	if _, err := execute(t, context.Background(), fs, "run", "--scheduler", "random"); err == nil {
		t.Error("expected error for unknown scheduler")
	}
	if _, err := execute(t, context.Background(), fs, "run", "--pass-limit", "0"); err == nil {
		t.Error("expected error for zero pass limit")
	}
}

// A cancelled context must not leave the run sleeping through its delays.
func TestRunCommand_CancelledContextSkipsDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	out, err := execute(t, ctx, planFs(t, testPlan), "run", "--delay", "60000")
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, out)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run took %v with a cancelled context", elapsed)
	}
}

func TestRunCommand_MissingPlan(t *testing.T) {
	if _, err := execute(t, context.Background(), afero.NewMemMapFs(), "run"); err == nil {
		t.Error("expected error for missing plan")
	}
}

func TestOrderCommand(t *testing.T) {
	fs := planFs(t, testPlan)

	out, err := execute(t, context.Background(), fs, "order", "-s", "deadline")
	if err != nil {
		t.Fatal(err)
	}
	research := strings.Index(out, "Research")
	schema := strings.Index(out, "Write schema")
	design := strings.Index(out, "Design API")
	if !(research < schema && schema < design) {
		t.Errorf("deadline order wrong:\n%s", out)
	}

	out, err = execute(t, context.Background(), fs, "order", "--topo")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Dependency order") {
		t.Errorf("missing title:\n%s", out)
	}
	if strings.Index(out, "Research") > strings.Index(out, "Design API") {
		t.Errorf("dependency listed after dependent:\n%s", out)
	}
}

func TestTreeCommand(t *testing.T) {
	out, err := execute(t, context.Background(), planFs(t, testPlan), "tree")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Task 1: Research", "Task 2: Design API", "Task 3: Write schema"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCommand(t *testing.T) {
	out, err := execute(t, context.Background(), planFs(t, testPlan), "stats")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"TASK STATISTICS", "Tasks: 3 (2 root", "High priority (above 7): 1", "Sum: 6u"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, context.Background(), planFs(t, "tasks: []\n"), "stats")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No tasks available.") {
		t.Errorf("unexpected output for empty plan:\n%s", out)
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, context.Background(), planFs(t, testPlan), "check")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "OK: 3 task(s), 2 root(s), no circular dependencies") {
		t.Errorf("unexpected output:\n%s", out)
	}

	doc := "tasks:\n  - {key: a, name: A, priority: 5, cost: 1, depends_on: [b]}\n  - {key: b, name: B, priority: 5, cost: 1, depends_on: [a]}\n"
	if _, err := execute(t, context.Background(), planFs(t, doc), "check"); !errors.Is(err, scheduler.ErrCycleDetected) {
		t.Errorf("expected ErrCycleDetected, got %v", err)
	}
}

func TestListAndCompareCommands(t *testing.T) {
	fs := planFs(t, testPlan)

	out, err := execute(t, context.Background(), fs, "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `Task[ID=2, Name="Design API", Priority=8, Deadline=3d, Status=PENDING, Cost=3u]`) {
		t.Errorf("list output:\n%s", out)
	}

	out, err = execute(t, context.Background(), fs, "compare", "design", "research")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "design has higher priority than research") || !strings.Contains(out, "Same task: false") {
		t.Errorf("compare output:\n%s", out)
	}

	if _, err := execute(t, context.Background(), fs, "compare", "design", "ghost"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestEditCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	steps := [][]string{
		{"add", "--key", "api", "--name", "Build API", "--priority", "7", "--deadline", "4", "--cost", "3"},
		{"add", "--key", "db", "--name", "Set up database", "--priority", "6", "--deadline", "2", "--cost", "2"},
		{"add", "--key", "auth", "--name", "Auth", "--cost", "1", "--subtask-of", "api"},
		{"depend", "api", "db"},
		{"link", "api", "db"},
		{"priority", "auth", "--delta", "9"},
	}
	for _, args := range steps {
		if out, err := execute(t, ctx, fs, args...); err != nil {
			t.Fatalf("%v failed: %v\n%s", args, err, out)
		}
	}

	plan, err := planfile.Load(fs, "/work/htse.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(plan.Tasks))
	}
	api, _ := plan.Find("api")
	if strings.Join(api.Subtasks, ",") != "auth,db" {
		t.Errorf("api subtasks = %v", api.Subtasks)
	}
	if strings.Join(api.DependsOn, ",") != "db" {
		t.Errorf("api depends_on = %v", api.DependsOn)
	}
	auth, _ := plan.Find("auth")
	if auth.Priority != scheduler.MaxPriority {
		t.Errorf("auth priority = %d, want clamped to %d", auth.Priority, scheduler.MaxPriority)
	}
}

func TestEditCommands_Rejected(t *testing.T) {
	fs := planFs(t, testPlan)
	ctx := context.Background()

	tests := [][]string{
		{"add", "--key", "design", "--name", "Duplicate"},
		{"add", "--key", "x", "--name", "X", "--priority", "11"},
		{"link", "design", "ghost"},
		{"depend", "schema", "schema"},
		{"priority", "ghost"},
	}
	for _, args := range tests {
		if _, err := execute(t, ctx, fs, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}

	plan, err := planfile.Load(fs, "/work/htse.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Tasks) != 3 {
		t.Errorf("plan changed after rejected edits: %d tasks", len(plan.Tasks))
	}
}

func TestPriorityCommand_DryRun(t *testing.T) {
	fs := planFs(t, testPlan)

	out, err := execute(t, context.Background(), fs, "priority", "research", "--delta", "-10", "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Priority=1,") {
		t.Errorf("dry run output:\n%s", out)
	}

	plan, _ := planfile.Load(fs, "/work/htse.yaml")
	research, _ := plan.Find("research")
	if research.Priority != 4 {
		t.Errorf("dry run saved priority %d", research.Priority)
	}
}

// TestSignalContextCancellation verifies that signal.NotifyContext produces
// a context that cancels correctly when a signal is received.
func TestSignalContextCancellation(t *testing.T) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Failed to send SIGUSR1: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("Context did not cancel after SIGUSR1")
	}

	if err := ctx.Err(); err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
