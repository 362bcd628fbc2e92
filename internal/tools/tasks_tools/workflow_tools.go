package tasks_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tasks"
)

func registerWorkflowTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	dailyPlanTool := mcp.NewTool("ticktick_daily_plan",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Daily plan: overdue and today's tasks, highest priority first, then earliest due"),
		mcp.WithBoolean("includeTomorrow", mcp.Description("Also include tomorrow's tasks (default: false)")),
		mcp.WithString("format", mcp.Description("Output format (default: json)"), mcp.Enum("json", "markdown")),
	)
	addTool(s, sc, dailyPlanTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		opts := tasks.DefaultPlanOptions()
		opts.IncludeTomorrow = request.GetBool("includeTomorrow", false)
		plan, err := m.DailyPlan(ctx, opts)
		if err != nil {
			return toolError("build daily plan", err)
		}
		return tasksResult(ctx, m, request.GetString("format", "json"), plan)
	})

	parseDateTool := mcp.NewTool("ticktick_parse_date",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Resolve a due date phrase to the timestamp a task would get"),
		mcp.WithString("phrase", mcp.Required(), mcp.Description("e.g. 'today', 'in 2 weeks', 'next monday', '2024-03-15'")),
	)
	addTool(s, sc, parseDateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		phrase, err := request.RequireString("phrase")
		if err != nil {
			return mcp.NewToolResultError("phrase is required"), nil
		}
		now := time.Now()
		if m, err := sc.Manager(); err == nil {
			now = m.Now()
		}
		due, err := query.ResolveDate(phrase, now)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(due.Format(time.RFC3339)), nil
	})

	if readOnly {
		return nil
	}

	batchCompleteTool := mcp.NewTool("ticktick_batch_complete",
		mcp.WithDescription("Complete all open tasks whose title contains pattern (case-insensitive)"),
		mcp.WithString("pattern", mcp.Required(), mcp.Description("Title substring")),
		mcp.WithString("project", mcp.Description("Project ID or name (default: all open projects)")),
	)
	addTool(s, sc, batchCompleteTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		pattern, err := request.RequireString("pattern")
		if err != nil || pattern == "" {
			return mcp.NewToolResultError("pattern is required"), nil
		}
		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		matched, err := m.FindOpenTasks(ctx, request.GetString("project", ""), pattern)
		if err != nil {
			return toolError("find tasks", err)
		}
		if len(matched) == 0 {
			return mcp.NewToolResultText("No matching tasks found"), nil
		}
		completed, err := m.BatchComplete(ctx, tasks.Refs(matched))
		msg := fmt.Sprintf("Completed %d/%d tasks", completed, len(matched))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s. Failures: %v", msg, err)), nil
		}
		return mcp.NewToolResultText(msg), nil
	})

	if sc.Exporter() != nil {
		exportTool := mcp.NewTool("ticktick_export_daily_log",
			mcp.WithDescription("Write today's TickTick task log into the Obsidian daily note"),
		)
		addTool(s, sc, exportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ctx, cancel := handlerContext(ctx, sc)
			defer cancel()

			m, errResult := getManager(sc)
			if errResult != nil {
				return errResult, nil
			}
			logTasks, err := m.DailyLogTasks(ctx)
			if err != nil {
				return toolError("collect tasks", err)
			}
			projects, err := m.ListProjects(ctx)
			if err != nil {
				return toolError("list projects", err)
			}
			path, err := sc.Exporter().ExportDailyLog(logTasks, projects)
			if err != nil {
				return toolError("export daily log", err)
			}
			return mcp.NewToolResultText("Exported to: " + path), nil
		})
	}

	return nil
}
