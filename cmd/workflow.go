package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/ticktick"
)

// batchPreviewLimit is how many matches batch-complete lists before asking.
const batchPreviewLimit = 10

var sectionTitles = map[query.Bucket]string{
	query.BucketOverdue:  "Overdue",
	query.BucketToday:    "Today",
	query.BucketTomorrow: "Tomorrow",
}

func newDailyPlanCmd() *cobra.Command {
	var (
		includeTomorrow bool
		output          string
		exportObsidian  bool
	)

	cmd := &cobra.Command{
		Use:   "daily-plan",
		Short: "Show today's plan",
		Long: `Show overdue and today's open tasks, highest priority first, then earliest
due. Which sections appear is set under workflows.daily_plan in the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(ctx context.Context, a *app, args []string) error {
				f, err := format.ParseFormat(output)
				if err != nil {
					return err
				}
				opts := tasks.PlanOptions{
					IncludeOverdue:  a.cfg.Workflows.DailyPlan.IncludeOverdue,
					IncludeToday:    a.cfg.Workflows.DailyPlan.IncludeToday,
					IncludeTomorrow: a.cfg.Workflows.DailyPlan.IncludeTomorrow,
				}
				if cmd.Flags().Changed("include-tomorrow") {
					opts.IncludeTomorrow = includeTomorrow
				}

				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				plan, err := m.DailyPlan(ctx, opts)
				if err != nil {
					return err
				}
				projects, err := m.ListProjects(ctx)
				if err != nil {
					return err
				}

				fopts := a.formatOptions(projects)
				if f == format.JSON {
					if err := format.TasksJSON(a.out, plan); err != nil {
						return err
					}
				} else if err := writePlanSections(a.out, f, plan, opts.Buckets(), m, fopts); err != nil {
					return err
				}

				if exportObsidian {
					return exportDailyLog(ctx, a, m, projects)
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&includeTomorrow, "include-tomorrow", false, "Also show tomorrow's tasks")
	cmd.Flags().StringVarP(&output, "format", "f", "table", "Output format: table, json or markdown")
	cmd.Flags().BoolVar(&exportObsidian, "export-obsidian", false, "Also write the daily log into the Obsidian vault")
	return cmd
}

// writePlanSections prints one section per bucket, keeping the plan order.
func writePlanSections(w io.Writer, f format.Format, plan []ticktick.Task, buckets []query.Bucket, m *tasks.Manager, opts format.Options) error {
	now := m.Now()
	fmt.Fprintln(w, format.Heading("Daily plan for "+now.Format("Monday, January 2")))
	if len(plan) == 0 {
		fmt.Fprintln(w, format.Muted("Nothing due. Enjoy your day."))
		return nil
	}

	for _, b := range buckets {
		section := query.FilterDue(plan, b, now)
		if len(section) == 0 {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, format.Heading(fmt.Sprintf("%s (%d)", sectionTitles[b], len(section))))
		if err := format.Tasks(w, f, section, opts); err != nil {
			return err
		}
	}
	return nil
}

func newBatchCompleteCmd() *cobra.Command {
	var (
		project string
		pattern string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "batch-complete",
		Short: "Complete all open tasks matching a pattern",
		Long: `Complete every open task whose title contains --pattern (case-insensitive).
The matches are listed and confirmed before anything changes.`,
		Example: `  ticktask batch-complete --pattern "standup notes" --project Work`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(ctx context.Context, a *app, args []string) error {
				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				matched, err := m.FindOpenTasks(ctx, project, pattern)
				if err != nil {
					return err
				}
				if len(matched) == 0 {
					fmt.Fprintln(a.out, "No matching tasks found.")
					return nil
				}

				fmt.Fprintf(a.out, "Found %d matching tasks:\n", len(matched))
				for _, t := range matched[:min(len(matched), batchPreviewLimit)] {
					fmt.Fprintf(a.out, "  - %s\n", t.Title)
				}
				if extra := len(matched) - batchPreviewLimit; extra > 0 {
					fmt.Fprintln(a.out, format.Muted(fmt.Sprintf("  ... and %d more", extra)))
				}

				if !yes && !confirm(cmd, fmt.Sprintf("Complete %d tasks?", len(matched))) {
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}

				completed, err := m.BatchComplete(ctx, tasks.Refs(matched))
				msg := fmt.Sprintf("Completed %d/%d tasks.", completed, len(matched))
				if err != nil {
					fmt.Fprintln(a.out, format.Warning(msg))
					return err
				}
				fmt.Fprintln(a.out, format.Success(msg))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name (default: all open projects)")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Title substring to match")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("pattern")
	return cmd
}

// exportDailyLog writes the daily log and reports the note path.
func exportDailyLog(ctx context.Context, a *app, m *tasks.Manager, projects []ticktick.Project) error {
	logTasks, err := m.DailyLogTasks(ctx)
	if err != nil {
		return err
	}
	exporter := a.exporter()
	exporter.Now = m.Now
	path, err := exporter.ExportDailyLog(logTasks, projects)
	if err != nil {
		return fmt.Errorf("obsidian export failed: %w", err)
	}
	fmt.Fprintln(a.out, format.Success("Exported daily log to "+path))
	return nil
}
