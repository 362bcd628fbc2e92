package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// MCPEndpoint is the path of the streamable HTTP endpoint.
	MCPEndpoint = "/mcp"
	// MetricsEndpoint serves Prometheus metrics when a handler is configured.
	MetricsEndpoint = "/metrics"
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Addr             string
	DisableStreaming bool
	// AllowRemote permits non-loopback listen addresses.
	AllowRemote bool
	// MetricsHandler is mounted on /metrics when set.
	MetricsHandler http.Handler
}

// HTTPServer serves MCP over streamable HTTP plus health endpoints.
type HTTPServer struct {
	mcpServer *mcpserver.MCPServer
	health    *HealthChecker
	config    HTTPConfig
	server    *http.Server
}

// NewHTTPServer validates cfg and creates the server.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, health *HealthChecker, cfg HTTPConfig) (*HTTPServer, error) {
	if mcpServer == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if !cfg.AllowRemote {
		if err := validateLoopbackAddr(cfg.Addr); err != nil {
			return nil, err
		}
	}
	s := &HTTPServer{mcpServer: mcpServer, health: health, config: cfg}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler with the MCP, health and metrics routes.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}
	if s.config.MetricsHandler != nil {
		mux.Handle(MetricsEndpoint, s.config.MetricsHandler)
	}

	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpoint)}
	if s.config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	mux.Handle(MCPEndpoint, mcpserver.NewStreamableHTTPServer(s.mcpServer, opts...))
	return mux
}

// Start listens and serves until Shutdown. It returns nil after a clean shutdown.
func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetReady(false)
	}
	return s.server.Shutdown(ctx)
}

// validateLoopbackAddr rejects listen addresses reachable from other hosts.
// The HTTP transport carries the user's TickTick access without further auth.
func validateLoopbackAddr(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("refusing to listen on non-loopback address %q without --allow-remote", addr)
}
