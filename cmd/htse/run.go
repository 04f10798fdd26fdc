package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/htse/internal/events"
	"github.com/aristath/htse/internal/scheduler"
	"github.com/aristath/htse/internal/tui"
)

type runOptions struct {
	scheduler string
	delayMS   int
	passLimit int
	useTUI    bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute every task in the plan",
		Long: `Run orders the plan with the selected scheduler and executes it in passes.
A task runs once all of its dependencies are completed; ready subtasks run
before their parent. The run is refused if dependencies form a cycle, and
exits non-zero if tasks are left that can never become ready.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("scheduler") {
				a.cfg.Scheduler = opts.scheduler
			}
			if cmd.Flags().Changed("delay") {
				a.cfg.UnitDelayMS = opts.delayMS
			}
			if cmd.Flags().Changed("pass-limit") {
				a.cfg.PassLimit = opts.passLimit
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), opts.useTUI)
		},
	}

	cmd.Flags().StringVarP(&opts.scheduler, "scheduler", "s", "", "ordering strategy: priority, deadline or hierarchical")
	cmd.Flags().IntVar(&opts.delayMS, "delay", 0, "simulated milliseconds per cost unit")
	cmd.Flags().IntVar(&opts.passLimit, "pass-limit", scheduler.DefaultPassLimit, "maximum passes over the task list")
	cmd.Flags().BoolVar(&opts.useTUI, "tui", false, "show progress in an interactive terminal UI")
	return cmd
}

func (a *app) run(ctx context.Context, out io.Writer, useTUI bool) error {
	_, g, _, err := a.loadGraph()
	if err != nil {
		return err
	}
	strategy, err := a.strategy("")
	if err != nil {
		return err
	}

	// Refuse before any renderer starts
	if err := g.ValidateAcyclic(); err != nil {
		fmt.Fprintln(out, tui.StyleStatusFailed.Render("Circular dependencies found! Please review and fix task dependencies."))
		return err
	}

	bus := events.NewEventBus()
	defer bus.Close()

	var report *scheduler.Report
	if useTUI {
		report, err = a.runWithTUI(ctx, g, strategy, bus)
	} else {
		report, err = a.runStreaming(ctx, out, g, strategy, bus)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, tui.RenderReport(report, g))
	return report.Err()
}

// runStreaming executes while printing one line per event.
func (a *app) runStreaming(ctx context.Context, out io.Writer, g *scheduler.Graph, strategy scheduler.Strategy, bus *events.EventBus) (*scheduler.Report, error) {
	sub := bus.SubscribeAll(0)
	fmt.Fprintf(out, "Executing %d task(s) with %s\n", g.Len(), strategy.Name())

	var report *scheduler.Report
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return tui.Stream(out, sub)
	})
	eg.Go(func() error {
		// Closing the bus ends the stream even if the final event was dropped
		defer bus.Close()
		var err error
		report, err = a.executor(ctx, g, bus).Execute(strategy)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// runWithTUI executes while the Bubble Tea program renders progress. Quitting
// the UI early lets the remaining tasks finish without simulated delay.
func (a *app) runWithTUI(ctx context.Context, g *scheduler.Graph, strategy scheduler.Strategy, bus *events.EventBus) (*scheduler.Report, error) {
	model := tui.New(bus, a.cfg, a.globalPath, a.projectPath)

	uiCtx, cancelUI := context.WithCancel(ctx)
	defer cancelUI()
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(uiCtx))

	var report *scheduler.Report
	eg := new(errgroup.Group)
	eg.Go(func() error {
		defer cancelUI()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		defer bus.Close()
		var err error
		report, err = a.executor(uiCtx, g, bus).Execute(strategy)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		log.Println("Shutdown signal received, run finished without delays")
	}
	return report, nil
}

// executor builds an executor from the effective config. Simulated delays
// are skipped once ctx is done.
func (a *app) executor(ctx context.Context, g *scheduler.Graph, bus *events.EventBus) *scheduler.Executor {
	return scheduler.NewExecutor(g,
		scheduler.WithPassLimit(a.cfg.PassLimit),
		scheduler.WithSimulator(scheduler.SleepSimulator{UnitDelay: a.cfg.UnitDelay(), Skip: ctx.Done()}),
		scheduler.WithEventBus(bus),
	)
}
