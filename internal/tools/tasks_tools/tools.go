package tasks_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/tools/common"
)

// RegisterTasksTools registers all TickTick tools. Write tools are skipped
// when readOnly is set.
func RegisterTasksTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerProjectTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register project tools: %w", err)
	}
	if err := registerTaskTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register task tools: %w", err)
	}
	if err := registerWorkflowTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register workflow tools: %w", err)
	}
	return nil
}

// addTool registers an instrumented handler.
func addTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, handler common.ToolHandler) {
	s.AddTool(tool, mcpserver.ToolHandlerFunc(common.InstrumentedToolHandler(tool.Name, sc, handler)))
}

// getManager returns the task manager or a tool error explaining how to log in.
func getManager(sc *server.ServerContext) (*tasks.Manager, *mcp.CallToolResult) {
	m, err := sc.Manager()
	if err == nil {
		return m, nil
	}
	if errors.Is(err, auth.ErrLoginRequired) {
		return nil, mcp.NewToolResultError("TickTick is not authorized. Run `ticktask auth login` in a terminal, then retry.")
	}
	return nil, mcp.NewToolResultError(fmt.Sprintf("TickTick client unavailable: %v", err))
}

func jsonResult(prefix string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	if prefix != "" {
		return mcp.NewToolResultText(prefix + "\n" + string(data)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolError(action string, err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err)), nil
}

// splitList splits a comma or newline separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// handlerContext derives a context that also ends when the server shuts down.
func handlerContext(ctx context.Context, sc *server.ServerContext) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sc.Context(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
