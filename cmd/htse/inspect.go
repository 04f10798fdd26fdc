package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/htse/internal/stats"
	"github.com/aristath/htse/internal/tui"
)

func newOrderCmd(a *app) *cobra.Command {
	var (
		name string
		topo bool
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print the order a scheduler produces",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, _, err := a.loadGraph()
			if err != nil {
				return err
			}

			if topo {
				order, err := g.DependencyOrder()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderOrder("Dependency order", order))
				return nil
			}

			strategy, err := a.strategy(name)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderOrder(strategy.Name(), strategy.Schedule(g.Tasks())))
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "scheduler", "s", "", "ordering strategy: priority, deadline or hierarchical")
	cmd.Flags().BoolVar(&topo, "topo", false, "print a dependency-respecting order instead")
	return cmd
}

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the task hierarchy",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, _, err := a.loadGraph()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHierarchy(g))
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print priority, deadline and cost statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, _, err := a.loadGraph()
			if err != nil {
				return err
			}
			summary, err := stats.SummarizeGraph(g)
			if errors.Is(err, stats.ErrEmpty) {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks available.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderStats(summary))
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the plan and look for circular dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, _, err := a.loadGraph()
			if err != nil {
				return err
			}
			if err := g.ValidateAcyclic(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), tui.StyleStatusFailed.Render("Circular dependencies found!"))
				return err
			}
			// Cross-check with the topological sort
			if _, err := g.DependencyOrder(); err != nil {
				return err
			}
			gs := g.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d task(s), %d root(s), no circular dependencies\n",
				tui.StyleStatusComplete.Render("OK:"), gs.Total, gs.Roots)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every task",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, g, _, err := a.loadGraph()
			if err != nil {
				return err
			}
			for i, task := range g.Tasks() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", plan.Tasks[i].Key, task)
			}
			return nil
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare KEY1 KEY2",
		Short: "Compare two tasks by priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, ids, err := a.loadGraph()
			if err != nil {
				return err
			}
			first, err := taskByKey(g, ids, args[0])
			if err != nil {
				return err
			}
			second, err := taskByKey(g, ids, args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task 1: %s\nTask 2: %s\n\n", first, second)
			switch first.Compare(second) {
			case 1:
				fmt.Fprintf(out, "%s has higher priority than %s\n", args[0], args[1])
			case -1:
				fmt.Fprintf(out, "%s has lower priority than %s\n", args[0], args[1])
			default:
				fmt.Fprintf(out, "%s and %s have equal priority\n", args[0], args[1])
			}
			fmt.Fprintf(out, "Same task: %t\n", first.Equal(second))
			return nil
		},
	}
}
