package tasks_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/server"
)

func registerProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listProjectsTool := mcp.NewTool("ticktick_list_projects",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List all TickTick projects"),
	)
	addTool(s, sc, listProjectsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		projects, err := m.ListProjects(ctx)
		if err != nil {
			return toolError("list projects", err)
		}
		return jsonResult("", projects)
	})

	getProjectTool := mcp.NewTool("ticktick_get_project",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Get a project with its tasks and kanban columns"),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project ID or name"),
		),
	)
	addTool(s, sc, getProjectTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		project, err := request.RequireString("project")
		if err != nil || project == "" {
			return mcp.NewToolResultError("project is required"), nil
		}
		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		data, err := m.ProjectData(ctx, project)
		if err != nil {
			return toolError("get project", err)
		}
		return jsonResult("", data)
	})

	if readOnly {
		return nil
	}

	createProjectTool := mcp.NewTool("ticktick_create_project",
		mcp.WithDescription("Create a new project"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("color",
			mcp.Description("Hex color, e.g. #FF0000"),
		),
	)
	addTool(s, sc, createProjectTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		name, err := request.RequireString("name")
		if err != nil || name == "" {
			return mcp.NewToolResultError("name is required"), nil
		}
		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		p, err := m.CreateProject(ctx, name, request.GetString("color", ""))
		if err != nil {
			return toolError("create project", err)
		}
		return jsonResult(fmt.Sprintf("Project %q created successfully:", p.Name), p)
	})

	return nil
}
