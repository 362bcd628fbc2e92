package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/resources"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tools/tasks_tools"
)

const (
	transportStdio = "stdio"
	transportHTTP  = "streamable-http"
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	transport        string
	httpAddr         string
	yolo             bool
	disableStreaming bool
	allowRemote      bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server to provide TickTick tools for
AI assistants.

The server uses the token stored by 'ticktask auth login' and refreshes it as
needed. It never opens a browser; tools report when a login is required.

Supports two transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP on a loopback address

By default only read tools are registered. Use --yolo to enable tools that
create, modify or delete tasks and projects.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "127.0.0.1:8081", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (create, complete, delete). Default is read-only mode.")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.allowRemote, "allow-remote", false, "WARNING: Allow a non-loopback --http-addr. The HTTP transport has no authentication of its own.")

	return cmd
}

func runServe(cmd *cobra.Command, opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, cmd)
	if err != nil {
		return err
	}
	defer a.close()
	logger := logging.WithOperation(a.logger, "serve")

	if _, err := a.requireFlow(); err != nil {
		return err
	}
	if !hasUsableToken(a.store) {
		logger.Warn("no usable TickTick token, tools will fail until 'ticktask auth login' is run")
	}

	scOpts := []server.Option{
		server.WithLogger(a.logger),
		server.WithMetrics(a.provider.Metrics()),
	}
	if a.cfg.Obsidian.VaultPath != "" {
		scOpts = append(scOpts, server.WithExporter(a.exporter()))
	}
	serverContext := server.NewServerContext(shutdownCtx, a.serverManager, scOpts...)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("ticktask", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// readOnly is the inverse of yolo
	readOnly := !opts.yolo
	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	switch opts.transport {
	case transportHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, a, opts)
	default:
		return runStdioServer(mcpSrv)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "TickTick",
			register: func() error {
				return tasks_tools.RegisterTasksTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "TickTick Resources",
			register: func() error {
				return resources.RegisterTickTickResources(mcpSrv, ctx)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, a *app, opts serveOptions) error {
	logger := logging.WithOperation(a.logger, "serve")

	health := server.NewHealthChecker(sc)
	health.SetAuthCheck(func() bool { return hasUsableToken(a.store) })

	httpSrv, err := server.NewHTTPServer(mcpSrv, health, server.HTTPConfig{
		Addr:             opts.httpAddr,
		DisableStreaming: opts.disableStreaming,
		AllowRemote:      opts.allowRemote,
		MetricsHandler:   a.provider.MetricsHandler(),
	})
	if err != nil {
		return err
	}
	if opts.allowRemote {
		logger.Warn("remote access enabled, anyone who can reach the address can use your TickTick account", "addr", opts.httpAddr)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Start(); err != nil {
			serverDone <- err
		}
	}()
	logger.Info("MCP server listening", "addr", opts.httpAddr, "endpoint", server.MCPEndpoint)

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("error during server shutdown: %w", err)
	}
	return nil
}

// hasUsableToken reports whether the store holds a fresh or refreshable token.
func hasUsableToken(store auth.TokenStore) bool {
	rec, ok := store.Load()
	if !ok {
		return false
	}
	return rec.RefreshToken != "" || time.Since(rec.SavedAt) < auth.TokenTTL
}
