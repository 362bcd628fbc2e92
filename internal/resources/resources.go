package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tasks"
)

const (
	ProjectsURI      = "ticktick://projects"
	projectURIPrefix = "ticktick://projects/"
	TodayPlanURI     = "ticktick://plan/today"
)

// RegisterTickTickResources registers the TickTick resources.
func RegisterTickTickResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	projectsResource := mcp.NewResource(
		ProjectsURI,
		"TickTick Projects",
		mcp.WithResourceDescription("All projects of the authenticated TickTick account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(projectsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProjects(ctx, request, sc)
	})

	projectTemplate := mcp.NewResourceTemplate(
		projectURIPrefix+"{projectId}",
		"TickTick Project",
		mcp.WithTemplateDescription("A project with its open tasks and columns"),
		mcp.WithTemplateMIMEType("application/json"),
	)
	s.AddResourceTemplate(projectTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProject(ctx, request, sc)
	})

	planResource := mcp.NewResource(
		TodayPlanURI,
		"Today's Plan",
		mcp.WithResourceDescription("Overdue and today's open tasks in priority order, as a markdown checklist"),
		mcp.WithMIMEType("text/markdown"),
	)
	s.AddResource(planResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleTodayPlan(ctx, request, sc)
	})

	return nil
}

func manager(sc *server.ServerContext) (*tasks.Manager, error) {
	m, err := sc.Manager()
	if err != nil {
		return nil, fmt.Errorf("TickTick client unavailable: %w", err)
	}
	return m, nil
}

func handleProjects(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	m, err := manager(sc)
	if err != nil {
		return nil, err
	}
	projects, err := m.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return jsonContents(request.Params.URI, projects)
}

func handleProject(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	id := strings.TrimPrefix(request.Params.URI, projectURIPrefix)
	if id == "" || id == request.Params.URI {
		return nil, fmt.Errorf("invalid project URI: %s", request.Params.URI)
	}

	m, err := manager(sc)
	if err != nil {
		return nil, err
	}
	data, err := m.ProjectData(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return jsonContents(request.Params.URI, data)
}

func handleTodayPlan(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	m, err := manager(sc)
	if err != nil {
		return nil, err
	}
	plan, err := m.DailyPlan(ctx, tasks.DefaultPlanOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build daily plan: %w", err)
	}
	projects, err := m.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Today's Plan\n\n")
	if len(plan) == 0 {
		b.WriteString("Nothing due.\n")
	} else if err := format.TasksMarkdown(&b, plan, format.Options{Projects: tasks.ProjectNames(projects)}); err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     b.String(),
		},
	}, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
