package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/aristath/htse/internal/events"
)

// ProgressPaneModel shows run counters, the current pass and the outcome.
type ProgressPaneModel struct {
	total     int
	completed int
	running   int
	pending   int
	pass      int
	passLimit int
	deferred  int
	stalled   []int
	finished  *events.RunFinishedEvent
	width     int
	height    int
	focused   bool
}

// NewProgressPaneModel creates a progress pane. passLimit is shown next to
// the pass counter.
func NewProgressPaneModel(passLimit int) ProgressPaneModel {
	return ProgressPaneModel{passLimit: passLimit}
}

// Update handles messages for the progress pane.
func (m ProgressPaneModel) Update(msg tea.Msg) (ProgressPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.RunProgressEvent:
		m.total = msg.Total
		m.completed = msg.Completed
		m.running = msg.Running
		m.pending = msg.Pending

	case events.PassCompletedEvent:
		m.pass = msg.Pass
		m.deferred = msg.Deferred

	case events.RunStalledEvent:
		m.stalled = msg.Stalled

	case events.RunFinishedEvent:
		m.finished = &msg
	}

	return m, nil
}

// View renders the progress pane.
func (m ProgressPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Run Progress")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Total:     %d\n", m.total))
	b.WriteString(fmt.Sprintf("Completed: %s\n", StyleStatusComplete.Render(fmt.Sprintf("%d", m.completed))))
	b.WriteString(fmt.Sprintf("Running:   %s\n", StyleStatusRunning.Render(fmt.Sprintf("%d", m.running))))
	b.WriteString(fmt.Sprintf("Pending:   %s\n", StyleStatusPending.Render(fmt.Sprintf("%d", m.pending))))
	if m.pass > 0 {
		b.WriteString(fmt.Sprintf("Pass:      %s of %d (%d deferred)\n", humanize.Ordinal(m.pass), m.passLimit, m.deferred))
	}

	b.WriteString("\n")

	if m.total > 0 {
		barWidth := min(m.width-4, 40)
		completedWidth := (m.completed * barWidth) / m.total
		runningWidth := (m.running * barWidth) / m.total
		pendingWidth := barWidth - completedWidth - runningWidth

		bar := StyleStatusComplete.Render(strings.Repeat("=", max(0, completedWidth)))
		bar += StyleStatusRunning.Render(strings.Repeat("-", max(0, runningWidth)))
		bar += StyleStatusPending.Render(strings.Repeat(".", max(0, pendingWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %d/%d\n", bar, m.completed, m.total))
	}

	if len(m.stalled) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleStatusFailed.Render(fmt.Sprintf("Stalled: %d task(s) not ready %v", len(m.stalled), m.stalled)))
		b.WriteString("\n")
	}
	if m.finished != nil {
		b.WriteString("\n")
		b.WriteString(StyleStatusComplete.Render(fmt.Sprintf("Finished: %d executed, cost %s units in %v",
			m.finished.Executed, humanize.Comma(int64(m.finished.TotalCost)), m.finished.Duration)))
		b.WriteString("\n")
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// Done reports whether the run has finished.
func (m ProgressPaneModel) Done() bool { return m.finished != nil }

// SetSize updates the pane dimensions.
func (m *ProgressPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *ProgressPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
