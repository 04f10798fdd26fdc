package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aristath/htse/internal/config"
	"github.com/aristath/htse/internal/planfile"
	"github.com/aristath/htse/internal/scheduler"
	"github.com/aristath/htse/internal/tui"
)

// defaultPlanPath is used when --plan is not given.
const defaultPlanPath = "htse.yaml"

// app carries state shared by every command.
type app struct {
	fs          afero.Fs
	planPath    string
	configPath  string
	cfg         *config.Config
	globalPath  string
	projectPath string
}

func newRootCmd(fs afero.Fs) *cobra.Command {
	a := &app{fs: fs}

	root := &cobra.Command{
		Use:   "htse",
		Short: "Hierarchical task scheduling engine",
		Long: `htse orders and executes a plan of tasks with priorities, deadlines,
subtasks and dependencies. Tasks are read from a YAML or JSON plan file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&a.planPath, "plan", "p", defaultPlanPath, "plan file (YAML or JSON)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "project config file (default .htse/config.json)")

	root.AddCommand(
		newRunCmd(a),
		newOrderCmd(a),
		newTreeCmd(a),
		newStatsCmd(a),
		newCheckCmd(a),
		newListCmd(a),
		newCompareCmd(a),
		newAddCmd(a),
		newLinkCmd(a),
		newDependCmd(a),
		newPriorityCmd(a),
	)
	return root
}

// loadConfig merges global and project config and applies the color setting.
func (a *app) loadConfig() error {
	a.projectPath = a.configPath
	if a.projectPath == "" {
		a.projectPath = config.ProjectPath()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARNING: no home directory, skipping global config: %v", err)
	} else {
		a.globalPath = config.GlobalPath(homeDir)
	}

	cfg, err := config.Load(a.globalPath, a.projectPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg
	tui.SetColor(cfg.Color)
	return nil
}

// loadGraph reads the plan and builds its graph.
func (a *app) loadGraph() (*planfile.Plan, *scheduler.Graph, map[string]int, error) {
	plan, err := planfile.Load(a.fs, a.planPath)
	if err != nil {
		return nil, nil, nil, err
	}
	g, ids, err := plan.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s: %w", a.planPath, err)
	}
	return plan, g, ids, nil
}

// loadOrCreatePlan returns the plan at planPath, or an empty plan if the file
// does not exist yet.
func (a *app) loadOrCreatePlan() (*planfile.Plan, error) {
	exists, err := afero.Exists(a.fs, a.planPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &planfile.Plan{}, nil
	}
	return planfile.Load(a.fs, a.planPath)
}

// strategy resolves name, falling back to the configured scheduler.
func (a *app) strategy(name string) (scheduler.Strategy, error) {
	if name == "" {
		name = a.cfg.Scheduler
	}
	kind, err := scheduler.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return scheduler.New(kind), nil
}

// taskByKey resolves a plan key to its task.
func taskByKey(g *scheduler.Graph, ids map[string]int, key string) (*scheduler.Task, error) {
	id, ok := ids[key]
	if !ok {
		return nil, fmt.Errorf("unknown task %q", key)
	}
	task, _ := g.FindByID(id)
	return task, nil
}
