package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/dustin/go-humanize"

	"github.com/aristath/htse/internal/scheduler"
	"github.com/aristath/htse/internal/stats"
)

// TaskLine renders one task as "Task 3: Design [P=8, D=3d, PENDING]".
func TaskLine(t *scheduler.Task) string {
	return fmt.Sprintf("Task %d: %s [P=%d, D=%dd, %s]", t.ID, t.Name, t.Priority(), t.Deadline, statusStyle(t.Status()).Render(t.Status().String()))
}

func statusStyle(s scheduler.TaskStatus) lipgloss.Style {
	switch s {
	case scheduler.TaskRunning:
		return StyleStatusRunning
	case scheduler.TaskCompleted:
		return StyleStatusComplete
	default:
		return StyleStatusDeferred
	}
}

// RenderHierarchy draws the composition forest of g. Roots come first in
// creation order. A task reached again through another parent or a
// composition cycle is shown as a reference leaf instead of being expanded.
// Tasks unreachable from any root are drawn as extra trees at the end.
func RenderHierarchy(g *scheduler.Graph) string {
	if g.Len() == 0 {
		return StyleStatusPending.Render("No tasks to display.") + "\n"
	}

	visited := make(map[int]bool)
	forest := tree.New().Enumerator(tree.RoundedEnumerator)

	var build func(t *scheduler.Task) any
	build = func(t *scheduler.Task) any {
		if visited[t.ID] {
			return StyleStatusPending.Render(fmt.Sprintf("Task %d: %s (see above)", t.ID, t.Name))
		}
		visited[t.ID] = true

		subs := t.Subtasks()
		if len(subs) == 0 {
			return TaskLine(t)
		}
		node := tree.Root(TaskLine(t)).Enumerator(tree.RoundedEnumerator)
		for _, id := range subs {
			if sub, ok := g.FindByID(id); ok {
				node.Child(build(sub))
			}
		}
		return node
	}

	for _, root := range g.RootTasks() {
		forest.Child(build(root))
	}
	for _, t := range g.Tasks() {
		if !visited[t.ID] {
			forest.Child(build(t))
		}
	}

	var b strings.Builder
	b.WriteString(StyleBox.Render(StyleHeader.Render("TASK HIERARCHY VIEW")))
	b.WriteString("\nLegend: [P=Priority, D=Deadline(days)]\n\n")
	b.WriteString(forest.String())
	b.WriteString("\n")
	return b.String()
}

// RenderOrder renders tasks as a numbered list.
func RenderOrder(title string, tasks []*scheduler.Task) string {
	items := make([]any, len(tasks))
	for i, t := range tasks {
		items[i] = TaskLine(t)
	}

	var b strings.Builder
	b.WriteString(StyleHeader.Render(title))
	b.WriteString("\n")
	if len(tasks) == 0 {
		b.WriteString(StyleStatusPending.Render("(no tasks)"))
	} else {
		b.WriteString(list.New(items...).Enumerator(list.Arabic).String())
	}
	b.WriteString("\n")
	return b.String()
}

// RenderReport renders the summary of a run over g.
func RenderReport(r *scheduler.Report, g *scheduler.Graph) string {
	gs := g.Stats()

	rows := [][2]string{
		{"Run", r.RunID},
		{"Scheduler Used", StyleStatusRunning.Render(r.Scheduler)},
		{"Total Root Tasks", fmt.Sprint(gs.Roots)},
		{"Total Subtasks (nested)", fmt.Sprint(gs.Subtasks)},
		{"Tasks Executed", fmt.Sprint(r.Executed)},
		{"Completed", fmt.Sprintf("%s / %d", StyleStatusComplete.Render(fmt.Sprint(gs.Completed)), gs.Total)},
		{"Simulated Execution Time", humanize.Comma(int64(r.TotalCost)) + " units"},
		{"Passes", fmt.Sprint(r.Passes)},
		{"Wall Time", r.Duration.Round(time.Millisecond).String()},
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "  >> %-26s %s\n", row[0]+":", row[1])
	}

	if len(r.Stalled) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleStatusFailed.Render(fmt.Sprintf("  %d task(s) could not run: %v", r.NotReady, r.Err())))
		b.WriteString("\n")
		for _, t := range r.Stalled {
			fmt.Fprintf(&b, "     - %s\n", TaskLine(t))
		}
	}

	header := StyleHeader.Render("EXECUTION SUMMARY REPORT")
	if !r.Succeeded() {
		header = StyleStatusFailed.Render("EXECUTION STALLED")
	}
	return StyleBox.Render(header) + "\n" + b.String()
}

// RenderStats renders graph statistics.
func RenderStats(s stats.GraphSummary) string {
	var b strings.Builder
	b.WriteString(StyleBox.Render(StyleHeader.Render("TASK STATISTICS")))
	b.WriteString("\n")

	fmt.Fprintf(&b, "  Tasks: %d (%d root, %d nested subtasks, %d completed, %d pending)\n",
		s.Graph.Total, s.Graph.Roots, s.Graph.Subtasks, s.Graph.Completed, s.Graph.Pending)
	fmt.Fprintf(&b, "  High priority (above 7): %d\n", s.HighPriority)

	section := func(title, unit string, sum stats.Summary) {
		b.WriteString("\n")
		b.WriteString(StyleStatusRunning.Render("--- " + title + " ---"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "  Sum: %d%s  Average: %.2f%s  Median: %.1f%s\n", sum.Sum, unit, sum.Mean, unit, sum.Median, unit)
		fmt.Fprintf(&b, "  Min: %d%s  Max: %d%s  Range: %d%s\n", sum.Min, unit, sum.Max, unit, sum.Range(), unit)
	}
	section("Priority", "", s.Priority)
	section("Deadline", "d", s.Deadline)
	section("Execution Cost", "u", s.Cost)
	return b.String()
}
