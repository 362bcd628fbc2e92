package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debugMode  bool
)

// rootCmd represents the base command for the ticktask application
var rootCmd = &cobra.Command{
	Use:   "ticktask",
	Short: "Manage TickTick tasks from the terminal",
	Long: `ticktask manages TickTick tasks and projects from the command line.

It can run as:
  - A CLI for tasks, projects and daily workflows (default)
  - An MCP (Model Context Protocol) server for AI assistants

Run 'ticktask auth login' once to authorize access to your TickTick account.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "ticktask version %s\n" .Version}}`)

	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM, which aborts a pending
// browser login or API call.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./ticktask_config.yaml, then ~/.ticktask/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newProjectCmd())
	rootCmd.AddCommand(newDailyPlanCmd())
	rootCmd.AddCommand(newBatchCompleteCmd())
	rootCmd.AddCommand(newObsidianCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
