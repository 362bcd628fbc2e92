package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/obsidian"
	"github.com/teemow/ticktask/internal/tasks"
)

// ManagerFactory builds a task manager. It is called lazily and again after a
// failure, so a login that happens after the server started is picked up.
type ManagerFactory func(ctx context.Context) (*tasks.Manager, error)

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx        context.Context
	cancel     context.CancelFunc
	newManager ManagerFactory
	manager    *tasks.Manager
	exporter   *obsidian.Exporter
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
	mu         sync.RWMutex
	shutdown   bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics sets the metrics used by instrumented tool handlers.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logging.OrDiscard(l) }
}

// WithExporter enables the Obsidian export tool.
func WithExporter(e *obsidian.Exporter) Option {
	return func(sc *ServerContext) { sc.exporter = e }
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, newManager ManagerFactory, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:        shutdownCtx,
		cancel:     cancel,
		newManager: newManager,
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Manager returns the cached task manager, creating it if needed.
func (sc *ServerContext) Manager() (*tasks.Manager, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if sc.manager != nil {
		return sc.manager, nil
	}
	if sc.newManager == nil {
		return nil, fmt.Errorf("no task manager configured")
	}

	m, err := sc.newManager(sc.ctx)
	if err != nil {
		sc.logger.Warn("failed to create task manager", logging.Err(err))
		return nil, err
	}
	sc.manager = m
	return m, nil
}

// SetManager replaces the task manager.
func (sc *ServerContext) SetManager(m *tasks.Manager) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.manager = m
}

// Exporter returns the Obsidian exporter, or nil if export is not configured.
func (sc *ServerContext) Exporter() *obsidian.Exporter {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.exporter
}

// Metrics returns the metrics recorder (may be nil).
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
