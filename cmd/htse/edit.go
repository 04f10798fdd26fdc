package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/htse/internal/planfile"
)

func newAddCmd(a *app) *cobra.Command {
	var spec planfile.TaskSpec
	var parent string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task to the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.loadOrCreatePlan()
			if err != nil {
				return err
			}
			if err := plan.Add(spec); err != nil {
				return err
			}
			if parent != "" {
				if err := plan.Link(parent, spec.Key); err != nil {
					return err
				}
			}
			if err := planfile.Save(a.fs, a.planPath, plan); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %q (%d task(s) in %s)\n", spec.Key, len(plan.Tasks), a.planPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec.Key, "key", "", "unique key used to reference the task")
	cmd.Flags().StringVar(&spec.Name, "name", "", "task name")
	cmd.Flags().IntVar(&spec.Priority, "priority", 5, "priority, 1-10 (10 is highest)")
	cmd.Flags().IntVar(&spec.Deadline, "deadline", 0, "deadline in days")
	cmd.Flags().IntVar(&spec.Cost, "cost", 1, "simulated work units")
	cmd.Flags().StringVar(&parent, "subtask-of", "", "key of the parent task")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link PARENT CHILD",
		Short: "Make CHILD a subtask of PARENT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editPlan(cmd, func(plan *planfile.Plan) error {
				return plan.Link(args[0], args[1])
			}, "%s is now a subtask of %s", args[1], args[0])
		},
	}
}

func newDependCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "depend TASK ON",
		Short: "Make TASK wait for ON to complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editPlan(cmd, func(plan *planfile.Plan) error {
				return plan.Depend(args[0], args[1])
			}, "%s now depends on %s", args[0], args[1])
		},
	}
}

func newPriorityCmd(a *app) *cobra.Command {
	var (
		delta  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "priority KEY",
		Short: "Raise or lower a task's priority, clamped to 1-10",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, g, ids, err := a.loadGraph()
			if err != nil {
				return err
			}
			task, err := taskByKey(g, ids, args[0])
			if err != nil {
				return err
			}

			if dryRun {
				preview := task.WithPriorityDelta(delta)
				fmt.Fprintf(cmd.OutOrStdout(), "Before: %s\nAfter:  %s\n", task, &preview)
				return nil
			}

			before := task.Priority()
			task.AdjustPriority(delta)
			spec, _ := plan.Find(args[0])
			spec.Priority = task.Priority()
			if err := planfile.Save(a.fs, a.planPath, plan); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Priority of %s: %d -> %d\n", args[0], before, task.Priority())
			return nil
		},
	}

	cmd.Flags().IntVarP(&delta, "delta", "d", 1, "amount to add (negative lowers)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the result without saving")
	return cmd
}

// editPlan loads the plan, applies fn and saves it.
func (a *app) editPlan(cmd *cobra.Command, fn func(*planfile.Plan) error, format string, args ...any) error {
	plan, err := planfile.Load(a.fs, a.planPath)
	if err != nil {
		return err
	}
	if err := fn(plan); err != nil {
		return err
	}
	// Edges must still build into a graph
	if _, _, err := plan.Build(); err != nil {
		return err
	}
	if err := planfile.Save(a.fs, a.planPath, plan); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return nil
}
