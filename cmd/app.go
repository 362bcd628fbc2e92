package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/config"
	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/obsidian"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/ticktick"
)

// app bundles what every command needs: config, logger, telemetry and the
// OAuth flow.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	store    *auth.FileTokenStore
	flow     *auth.Flow
	loc      *time.Location
	out      io.Writer
}

// newApp loads the configuration and sets up telemetry and the OAuth flow.
// The flow is nil when client credentials are missing; commands that need
// it call requireFlow.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	level := "info"
	if debugMode {
		level = "debug"
	}
	logger := logging.New(cmd.ErrOrStderr(), level)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	provider, err := instrumentation.NewProvider(ctx, cfg.Instrumentation(version))
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	dir, err := cfg.StoreDir()
	if err != nil {
		return nil, err
	}
	store := auth.NewFileTokenStore(dir, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		store:    store,
		loc:      loc,
		out:      cmd.OutOrStdout(),
	}

	if cfg.ValidateCredentials() == nil {
		out := cmd.ErrOrStderr()
		a.flow, err = auth.NewFlow(auth.FlowConfig{
			ClientID:     cfg.API.ClientID,
			ClientSecret: cfg.API.ClientSecret,
			RedirectURI:  cfg.API.RedirectURI,
			BaseURL:      cfg.API.BaseURL,
			LoginTimeout: cfg.API.LoginTimeout,
			Store:        store,
			Logger:       logger,
			Metrics:      provider.Metrics(),
			OnAuthorizationURL: func(u string) {
				fmt.Fprintf(out, "Opening browser for TickTick authorization.\nIf it does not open, visit:\n\n  %s\n\n", u)
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// close flushes telemetry.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}

func (a *app) requireFlow() (*auth.Flow, error) {
	if a.flow != nil {
		return a.flow, nil
	}
	err := a.cfg.ValidateCredentials()
	if err == nil {
		err = errors.New("oauth flow is not configured")
	}
	return nil, fmt.Errorf("%w (set TICKTICK_CLIENT_ID and TICKTICK_CLIENT_SECRET, or api.client_id and api.client_secret in %s)", err, a.cfg.Path())
}

// client builds an API client whose token is refreshed as needed.
func (a *app) client(ctx context.Context) (*ticktick.Client, error) {
	flow, err := a.requireFlow()
	if err != nil {
		return nil, err
	}
	return ticktick.NewClient(ctx, flow.TokenSource(ctx),
		ticktick.WithBaseURL(a.cfg.API.APIBaseURL),
		ticktick.WithLogger(a.logger),
		ticktick.WithMetrics(a.provider.Metrics()),
	), nil
}

// now is the current time in the configured zone. Due phrases and buckets
// are evaluated against it.
func (a *app) now() time.Time {
	return time.Now().In(a.loc)
}

func (a *app) managerOptions() []tasks.Option {
	return []tasks.Option{
		tasks.WithClock(a.now),
		tasks.WithLogger(a.logger),
		tasks.WithMetrics(a.provider.Metrics()),
		tasks.WithDefaultProject(a.cfg.Defaults.Project),
		tasks.WithDefaultReminder(a.cfg.Defaults.Reminder),
	}
}

// manager returns a task manager for interactive use. Without a usable token
// it runs the browser login first.
func (a *app) manager(ctx context.Context) (*tasks.Manager, error) {
	flow, err := a.requireFlow()
	if err != nil {
		return nil, err
	}
	if _, err := flow.EnsureAccessToken(ctx); err != nil {
		return nil, err
	}
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.NewManager(client, a.managerOptions()...), nil
}

// serverManager returns a task manager that never starts a login. It fails
// with auth.ErrLoginRequired when no usable token is stored.
func (a *app) serverManager(ctx context.Context) (*tasks.Manager, error) {
	flow, err := a.requireFlow()
	if err != nil {
		return nil, err
	}
	if _, ok := flow.AccessToken(ctx); !ok {
		return nil, auth.ErrLoginRequired
	}
	client, err := a.client(ctx)
	if err != nil {
		return nil, err
	}
	return tasks.NewManager(client, a.managerOptions()...), nil
}

// formatOptions returns display options using the configured layouts and zone.
func (a *app) formatOptions(projects []ticktick.Project) format.Options {
	return format.Options{
		DateFormat: a.cfg.Formatting.DateFormat,
		TimeFormat: a.cfg.Formatting.TimeFormat,
		Location:   a.loc,
		Projects:   tasks.ProjectNames(projects),
	}
}

func (a *app) exporter() *obsidian.Exporter {
	return &obsidian.Exporter{
		VaultPath:      a.cfg.Obsidian.VaultPath,
		DailyNotesPath: a.cfg.Obsidian.DailyNotesPath,
		DateFormat:     a.cfg.Formatting.DateFormat,
		TimeFormat:     a.cfg.Formatting.TimeFormat,
		Now:            a.now,
		Logger:         a.logger,
	}
}

// runWithApp adapts a command body that needs an app.
func runWithApp(fn func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, a, args)
	}
}

// confirm asks a yes/no question on the command's streams. Anything but
// y or yes is a no.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
