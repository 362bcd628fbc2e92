package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/ticktick"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectListCmd(),
		newProjectShowCmd(),
		newProjectCreateCmd(),
		newProjectUpdateCmd(),
		newProjectDeleteCmd(),
	)
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			f, err := format.ParseFormat(output)
			if err != nil {
				return err
			}
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			projects, err := m.ListProjects(ctx)
			if err != nil {
				return err
			}
			if f == format.JSON {
				return format.WriteJSON(a.out, projects)
			}
			return format.ProjectsTable(a.out, projects)
		}),
	}

	cmd.Flags().StringVarP(&output, "format", "f", "table", "Output format: table or json")
	return cmd
}

func newProjectShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <project>",
		Short: "Show a project and its open tasks",
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
			data, err := m.ProjectData(ctx, args[0])
			if err != nil {
				return err
			}
			if f == format.JSON {
				return format.WriteJSON(a.out, data)
			}

			fmt.Fprintln(a.out, format.Heading(data.Project.Name))
			fmt.Fprintln(a.out, format.Muted(fmt.Sprintf("%s · %d open tasks", data.Project.ID, len(data.Tasks))))
			fmt.Fprintln(a.out)
			return format.Tasks(a.out, f, data.Tasks, a.formatOptions([]ticktick.Project{data.Project}))
		}),
	}

	cmd.Flags().StringVarP(&output, "format", "f", "table", "Output format: table, json or markdown")
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			p, err := m.CreateProject(ctx, args[0], color)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, format.Success(fmt.Sprintf("Created project %q (%s)", p.Name, p.ID)))
			return nil
		}),
	}

	cmd.Flags().StringVar(&color, "color", "", "Hex color, e.g. #4772FA")
	return cmd
}

func newProjectUpdateCmd() *cobra.Command {
	var (
		name     string
		color    string
		viewMode string
	)

	cmd := &cobra.Command{
		Use:   "update <project>",
		Short: "Rename or recolor a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in ticktick.ProjectUpdate
			if cmd.Flags().Changed("name") {
				in.Name = &name
			}
			if cmd.Flags().Changed("color") {
				in.Color = &color
			}
			if cmd.Flags().Changed("view-mode") {
				in.ViewMode = &viewMode
			}

			return runWithApp(func(ctx context.Context, a *app, args []string) error {
				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				p, err := m.UpdateProject(ctx, args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, format.Success(fmt.Sprintf("Updated project %q", p.Name)))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&color, "color", "", "New hex color")
	cmd.Flags().StringVar(&viewMode, "view-mode", "", "View mode: list, kanban or timeline")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project and all of its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(ctx context.Context, a *app, args []string) error {
				m, err := a.manager(ctx)
				if err != nil {
					return err
				}
				data, err := m.ProjectData(ctx, args[0])
				if err != nil {
					return err
				}
				question := fmt.Sprintf("Delete project %q with %d open tasks?", data.Project.Name, len(data.Tasks))
				if !yes && !confirm(cmd, question) {
					fmt.Fprintln(a.out, "Cancelled.")
					return nil
				}
				if err := m.DeleteProject(ctx, data.Project.ID); err != nil {
					return err
				}
				fmt.Fprintln(a.out, format.Success(fmt.Sprintf("Deleted project %q", data.Project.Name)))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
