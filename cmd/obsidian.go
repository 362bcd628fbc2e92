package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/format"
)

func newObsidianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obsidian",
		Short: "Obsidian vault integration",
	}
	cmd.AddCommand(newObsidianDailyLogCmd())
	return cmd
}

func newObsidianDailyLogCmd() *cobra.Command {
	var (
		preview bool
		vault   string
	)

	cmd := &cobra.Command{
		Use:   "daily-log",
		Short: "Write today's task log into the daily note",
		Long: `Collect completed, overdue, today's and upcoming tasks and write them as the
"TickTick Task Log" section of today's daily note. An existing section is
replaced, the rest of the note is kept.`,
		RunE: runWithApp(func(ctx context.Context, a *app, args []string) error {
			if vault != "" {
				a.cfg.Obsidian.VaultPath = vault
			}
			m, err := a.manager(ctx)
			if err != nil {
				return err
			}
			if !preview {
				projects, err := m.ListProjects(ctx)
				if err != nil {
					return err
				}
				return exportDailyLog(ctx, a, m, projects)
			}

			logTasks, err := m.DailyLogTasks(ctx)
			if err != nil {
				return err
			}
			projects, err := m.ListProjects(ctx)
			if err != nil {
				return err
			}
			exporter := a.exporter()
			exporter.Now = m.Now
			fmt.Fprintln(a.out, format.RenderMarkdown(exporter.Render(logTasks, projects)))
			fmt.Fprintln(a.out, format.Muted("Would write to "+exporter.NotePath(m.Now())))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&preview, "preview", false, "Render the section in the terminal instead of writing it")
	cmd.Flags().StringVar(&vault, "vault", "", "Vault path (overrides obsidian.vault_path)")
	return cmd
}
