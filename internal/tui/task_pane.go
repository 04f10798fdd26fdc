package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/htse/internal/events"
)

// Task display states.
const (
	stateRunning   = "running"
	stateCompleted = "completed"
	stateDeferred  = "deferred"
)

// TaskState is the pane's view of one task.
type TaskState struct {
	ID       int
	Name     string
	Priority int
	Deadline int
	Depth    int
	Status   string
	Log      []string
	Duration time.Duration
}

// TaskPaneModel lists tasks as the engine touches them, with a scrollable
// log for the selected task.
type TaskPaneModel struct {
	tasks       map[int]*TaskState
	order       []int // first-seen order
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
	updateTag   int // for debouncing
}

// NewTaskPaneModel creates a new task pane model.
func NewTaskPaneModel() TaskPaneModel {
	return TaskPaneModel{
		tasks:    make(map[int]*TaskState),
		viewport: viewport.New(0, 0),
	}
}

// tickMsg is used for debouncing viewport updates.
type tickMsg struct {
	tag int
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if !m.focused {
			break
		}

		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.order)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskStartedEvent:
		task := m.track(msg.ID, msg.Name)
		task.Priority = msg.Priority
		task.Deadline = msg.Deadline
		task.Depth = msg.Depth
		task.Status = stateRunning
		line := fmt.Sprintf("started (priority %d, due in %dd)", msg.Priority, msg.Deadline)
		if msg.Depth > 0 {
			line += fmt.Sprintf(" as subtask, depth %d", msg.Depth)
		}
		return m.appendLog(task, line)

	case events.TaskDeferredEvent:
		task := m.track(msg.ID, msg.Name)
		task.Status = stateDeferred
		return m.appendLog(task, fmt.Sprintf("pass %d: waiting on dependencies", msg.Pass))

	case events.TaskCompletedEvent:
		task := m.track(msg.ID, msg.Name)
		task.Status = stateCompleted
		task.Duration = msg.Duration
		task.Log = append(task.Log, fmt.Sprintf("[Completed %d unit(s) in %v]", msg.Cost, msg.Duration.Round(time.Millisecond)))
		if m.selectedTaskID() == msg.ID {
			m.updateViewportContent()
		}

	case tickMsg:
		// Only the latest tick refreshes
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

// track returns the state for id, adding it on first sight.
func (m *TaskPaneModel) track(id int, name string) *TaskState {
	task, exists := m.tasks[id]
	if !exists {
		task = &TaskState{ID: id, Name: name}
		m.tasks[id] = task
		m.order = append(m.order, id)
		if len(m.order) == 1 {
			m.selectedIdx = 0
			m.updateViewportContent()
		}
	}
	return task
}

func (m TaskPaneModel) appendLog(task *TaskState, line string) (TaskPaneModel, tea.Cmd) {
	task.Log = append(task.Log, line)
	if m.selectedTaskID() != task.ID {
		return m, nil
	}
	m.updateTag++
	tag := m.updateTag
	return m, tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{tag: tag}
	})
}

// View renders the task pane.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	listWidth := 28
	viewportWidth := m.width - listWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTaskList(listWidth),
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m TaskPaneModel) renderTaskList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.order) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	} else {
		for i, id := range m.order {
			task := m.tasks[id]
			name := strings.Repeat(" ", min(task.Depth, 4)) + task.Name
			if len(name) > width-6 {
				name = name[:width-9] + "..."
			}

			line := fmt.Sprintf("%s %s", StatusIcon(task.Status), name)
			if i == m.selectedIdx {
				line = StyleSelected.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	switch status {
	case stateRunning:
		return StyleStatusRunning.Render("●")
	case stateCompleted:
		return StyleStatusComplete.Render("✓")
	case stateDeferred:
		return StyleStatusDeferred.Render("…")
	default:
		return StyleStatusPending.Render("○")
	}
}

func (m TaskPaneModel) selectedTaskID() int {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.order) {
		return m.order[m.selectedIdx]
	}
	return 0
}

func (m *TaskPaneModel) updateViewportContent() {
	task, exists := m.tasks[m.selectedTaskID()]
	if !exists {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}

	m.viewport.SetContent(strings.Join(task.Log, "\n"))
	m.viewport.GotoBottom()
}

func (m *TaskPaneModel) resizeViewport() {
	m.viewport.Width = max(m.width-28-4, 10)
	m.viewport.Height = max(m.height-4, 5)
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
