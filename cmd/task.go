package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/ticktick"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Create, list and modify tasks",
	}
	cmd.AddCommand(
		newTaskCreateCmd(),
		newTaskListCmd(),
		newTaskShowCmd(),
		newTaskUpdateCmd(),
		newTaskCompleteCmd(),
		newTaskDeleteCmd(),
	)
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var (
		project  string
		content  string
		due      string
		priority string
		subtasks []string
		reminder string
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Long: `Create a task. --due accepts today, tomorrow, yesterday, next week,
next month, in N days/weeks/months, next <weekday> or a date such as 2024-03-15.
Without --project the task goes to the configured default project or the inbox.`,
		Example: `  ticktask task create "Write report" --due "next friday" --priority high
  ticktask task create "Trip" --project Personal --subtasks passport,tickets`,
		Args: cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			in := tasks.CreateTaskInput{
				Title:    args[0],
				Project:  project,
				Content:  content,
				Due:      due,
				Subtasks: subtasks,
				Reminder: reminder,
			}
			p, err := priorityFlag(a, priority)
			if err != nil {
				return err
			}
			in.Priority = p

			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			task, err := m.CreateTask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, format.Success(fmt.Sprintf("Created task %q (%s)", task.Title, task.ID)))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Task notes")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date phrase")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: none, low, medium or high (default from config)")
	cmd.Flags().StringSliceVar(&subtasks, "subtasks", nil, "Checklist items, comma-separated")
	cmd.Flags().StringVar(&reminder, "reminder", "", "Reminder: 9:00 (morning of the due day) or now (at due time)")
	return cmd
}

// priorityFlag parses --priority, falling back to the configured default.
func priorityFlag(a *app, value string) (*ticktick.Priority, error) {
	if value == "" {
		if a.cfg.Defaults.Priority == "" {
			return nil, nil
		}
		return ticktick.Ptr(a.cfg.DefaultPriority()), nil
	}
	p, err := ticktick.ParsePriority(value)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func newTaskListCmd() *cobra.Command {
	var (
		project  string
		due      string
		priority string
		status   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Example: `  ticktask task list --due today
  ticktask task list --project Work --priority high --format markdown`,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			f, err := format.ParseFormat(output)
			if err != nil {
				return err
			}
			opts := tasks.ListOptions{Project: project}
			if due != "" {
				if opts.Due, err = query.ParseBucket(due); err != nil {
					return err
				}
			}
			if priority != "" {
				p, err := ticktick.ParsePriority(priority)
				if err != nil {
					return err
				}
				opts.Priority = &p
			}
			if status != "" {
				s, err := ticktick.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				opts.Status = &s
			}

			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			list, err := m.ListTasks(ctx, opts)
			if err != nil {
				return err
			}
			projects, err := m.ListProjects(ctx)
			if err != nil {
				return err
			}
			return format.Tasks(a.out, f, list, a.formatOptions(projects))
		}),
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name (default: all open projects)")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due bucket: today, tomorrow, week or overdue")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: none, low, medium or high")
	cmd.Flags().StringVar(&status, "status", "", "Status: open or completed")
	cmd.Flags().StringVarP(&output, "format", "f", "table", "Output format: table, json or markdown")
	return cmd
}

func newTaskShowCmd() *cobra.Command {
	var (
		project string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			f, err := format.ParseFormat(output)
			if err != nil {
				return err
			}
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			task, err := m.GetTask(ctx, project, args[0])
			if err != nil {
				return err
			}
			if f == format.JSON {
				return format.WriteJSON(a.out, task)
			}
			projects, err := m.ListProjects(ctx)
			if err != nil {
				return err
			}
			return format.Tasks(a.out, f, []ticktick.Task{*task}, a.formatOptions(projects))
		}),
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name")
	cmd.Flags().StringVarP(&output, "format", "f", "table", "Output format: table, json or markdown")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var (
		project  string
		title    string
		content  string
		due      string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task",
		Long:  "Update a task. Only the flags that are given change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := tasks.UpdateTaskInput{TaskID: args[0], Project: project}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = &title
			}
			if flags.Changed("content") {
				in.Content = &content
			}
			if flags.Changed("due") {
				in.Due = &due
			}
			if flags.Changed("priority") {
				p, err := ticktick.ParsePriority(priority)
				if err != nil {
					return err
				}
				in.Priority = &p
			}

			return runWithApp(func(ctx context.Context, a *app, _ []string) error {
				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				task, err := m.UpdateTask(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, format.Success(fmt.Sprintf("Updated task %q", task.Title)))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name")
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New notes")
	cmd.Flags().StringVarP(&due, "due", "d", "", "New due date phrase")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority: none, low, medium or high")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskCompleteCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			if err := m.CompleteTask(ctx, project, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, format.Success("Task completed."))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	var (
		project string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(ctx context.Context, a *app, args []string) error {
				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				task, err := m.GetTask(ctx, project, args[0])
				if err != nil {
					return err
				}
				if !yes && !confirm(cmd, fmt.Sprintf("Delete task %q?", task.Title)) {
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}
				if err := m.DeleteTask(ctx, project, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(a.out, format.Success("Task deleted."))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project ID or name")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
