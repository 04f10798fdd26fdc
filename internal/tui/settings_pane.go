package tui

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/htse/internal/config"
	"github.com/aristath/htse/internal/scheduler"
)

// SettingsPaneModel manages the settings form overlay.
type SettingsPaneModel struct {
	form        *huh.Form
	config      *config.Config
	globalPath  string
	projectPath string
	width       int
	height      int
	visible     bool
	saved       bool
	err         error

	// Form field bindings
	saveTarget  string
	schedulerID string
	passLimit   string
	unitDelay   string
	color       bool
}

// NewSettingsPaneModel creates a new settings pane.
func NewSettingsPaneModel(cfg *config.Config, globalPath, projectPath string) SettingsPaneModel {
	m := SettingsPaneModel{
		config:      cfg,
		globalPath:  globalPath,
		projectPath: projectPath,
	}
	m.buildForm()
	return m
}

// buildForm loads the field bindings from the config and constructs the form.
func (m *SettingsPaneModel) buildForm() {
	m.saveTarget = "global"
	m.schedulerID = m.config.Scheduler
	m.passLimit = strconv.Itoa(m.config.PassLimit)
	m.unitDelay = strconv.Itoa(m.config.UnitDelayMS)
	m.color = m.config.Color

	schedulers := make([]huh.Option[string], 0, len(scheduler.Kinds))
	for _, k := range scheduler.Kinds {
		schedulers = append(schedulers, huh.NewOption(scheduler.New(k).Name(), k.String()))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("saveTarget").
				Title("Save To").
				Options(
					huh.NewOption("Global ("+m.globalPath+")", "global"),
					huh.NewOption("Project ("+m.projectPath+")", "project"),
				).
				Value(&m.saveTarget),
		).Title("Save Target"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Key("scheduler").
				Title("Scheduling Strategy").
				Options(schedulers...).
				Value(&m.schedulerID),

			huh.NewInput().
				Key("passLimit").
				Title("Pass Limit").
				Value(&m.passLimit).
				Placeholder(strconv.Itoa(scheduler.DefaultPassLimit)).
				Validate(positiveInt),

			huh.NewInput().
				Key("unitDelay").
				Title("Delay per Cost Unit (ms)").
				Value(&m.unitDelay).
				Placeholder("500").
				Validate(nonNegativeInt),

			huh.NewConfirm().
				Key("color").
				Title("Colored Output").
				Value(&m.color),
		).Title("Execution Settings"),
	)
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of at least 1")
	}
	return nil
}

func nonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("enter a whole number of at least 0")
	}
	return nil
}

// Init initializes the settings pane.
func (m SettingsPaneModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the settings pane.
func (m SettingsPaneModel) Update(msg tea.Msg) (SettingsPaneModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == KeyEsc {
		// Cancel without saving
		m.visible = false
		m.saved = false
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.err = m.save()
		m.saved = m.err == nil
		if m.saved {
			m.visible = false
		}
	}

	return m, cmd
}

// save copies the form values into the config and writes it to the chosen target.
func (m *SettingsPaneModel) save() error {
	updated := *m.config
	updated.Scheduler = m.schedulerID
	updated.PassLimit, _ = strconv.Atoi(m.passLimit)
	updated.UnitDelayMS, _ = strconv.Atoi(m.unitDelay)
	updated.Color = m.color
	if err := updated.Validate(); err != nil {
		return err
	}

	targetPath := m.globalPath
	if m.saveTarget == "project" {
		targetPath = m.projectPath
	}
	if err := config.Save(&updated, targetPath); err != nil {
		return err
	}

	*m.config = updated
	return nil
}

// View renders the settings pane.
func (m SettingsPaneModel) View() string {
	if !m.visible {
		return ""
	}

	var content string
	if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Error saving: %v", m.err))
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0))

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("⚙ Settings")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the settings pane.
func (m *SettingsPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil && w > 8 && h > 8 {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the settings pane. Showing it rebuilds the form
// from the current config.
func (m *SettingsPaneModel) SetVisible(v bool) {
	m.visible = v
	m.saved = false
	m.err = nil

	if v {
		m.buildForm()
		if m.width > 8 && m.height > 8 {
			m.form.WithWidth(m.width - 8).WithHeight(m.height - 8)
		}
	}
}

// IsVisible returns whether the settings pane is currently visible.
func (m SettingsPaneModel) IsVisible() bool {
	return m.visible
}

// Saved reports whether the last form submission was written.
func (m SettingsPaneModel) Saved() bool {
	return m.saved
}
