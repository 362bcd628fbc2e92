package tasks_tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktask/internal/format"
	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/ticktick"
	"github.com/teemow/ticktask/internal/tools/batch"
)

func registerTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listTasksTool := mcp.NewTool("ticktick_list_tasks",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List tasks, optionally filtered. Filters combine with AND."),
		mcp.WithString("project",
			mcp.Description("Project ID or name (default: all open projects)"),
		),
		mcp.WithString("due",
			mcp.Description("Due bucket"),
			mcp.Enum("today", "tomorrow", "week", "overdue"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority"),
			mcp.Enum("none", "low", "medium", "high"),
		),
		mcp.WithString("status",
			mcp.Description("Task status"),
			mcp.Enum("open", "completed"),
		),
		mcp.WithString("format",
			mcp.Description("Output format (default: json)"),
			mcp.Enum("json", "markdown"),
		),
	)
	addTool(s, sc, listTasksTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		opts, err := listOptions(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		list, err := m.ListTasks(ctx, opts)
		if err != nil {
			return toolError("list tasks", err)
		}
		return tasksResult(ctx, m, request.GetString("format", "json"), list)
	})

	getTaskTool := mcp.NewTool("ticktick_get_task",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Get a single task"),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project ID or name")),
		mcp.WithString("taskId", mcp.Required(), mcp.Description("Task ID")),
	)
	addTool(s, sc, getTaskTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		project, taskID, errResult := taskRef(request)
		if errResult != nil {
			return errResult, nil
		}
		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		task, err := m.GetTask(ctx, project, taskID)
		if err != nil {
			return toolError("get task", err)
		}
		return jsonResult("", task)
	})

	if readOnly {
		return nil
	}

	createTaskTool := mcp.NewTool("ticktick_create_task",
		mcp.WithDescription("Create a task. Due accepts phrases like 'tomorrow', 'in 3 days', 'next friday' or a date."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("project", mcp.Description("Project ID or name (default: inbox)")),
		mcp.WithString("content", mcp.Description("Task notes")),
		mcp.WithString("due", mcp.Description("Due date phrase")),
		mcp.WithString("priority", mcp.Description("Priority"), mcp.Enum("none", "low", "medium", "high")),
		mcp.WithString("subtasks", mcp.Description("Comma-separated checklist items")),
		mcp.WithString("reminder", mcp.Description("Reminder: '9:00' (day of due date) or 'now' (at due time)")),
	)
	addTool(s, sc, createTaskTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		title, err := request.RequireString("title")
		if err != nil || strings.TrimSpace(title) == "" {
			return mcp.NewToolResultError("title is required"), nil
		}
		in := tasks.CreateTaskInput{
			Title:    title,
			Project:  request.GetString("project", ""),
			Content:  request.GetString("content", ""),
			Due:      request.GetString("due", ""),
			Subtasks: splitList(request.GetString("subtasks", "")),
			Reminder: request.GetString("reminder", ""),
		}
		if p := request.GetString("priority", ""); p != "" {
			priority, err := ticktick.ParsePriority(p)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in.Priority = &priority
		}

		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		task, err := m.CreateTask(ctx, in)
		if err != nil {
			return toolError("create task", err)
		}
		return jsonResult("Task created successfully:", task)
	})

	updateTaskTool := mcp.NewTool("ticktick_update_task",
		mcp.WithDescription("Update a task. Only the given fields change."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project ID or name")),
		mcp.WithString("taskId", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New notes")),
		mcp.WithString("due", mcp.Description("New due date phrase")),
		mcp.WithString("priority", mcp.Description("New priority"), mcp.Enum("none", "low", "medium", "high")),
	)
	addTool(s, sc, updateTaskTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, cancel := handlerContext(ctx, sc)
		defer cancel()

		project, taskID, errResult := taskRef(request)
		if errResult != nil {
			return errResult, nil
		}
		in := tasks.UpdateTaskInput{
			TaskID:  taskID,
			Project: project,
			Title:   optionalString(request, "title"),
			Content: optionalString(request, "content"),
			Due:     optionalString(request, "due"),
		}
		if p := optionalString(request, "priority"); p != nil {
			priority, err := ticktick.ParsePriority(*p)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			in.Priority = &priority
		}

		m, errResult := getManager(sc)
		if errResult != nil {
			return errResult, nil
		}
		task, err := m.UpdateTask(ctx, in)
		if err != nil {
			return toolError("update task", err)
		}
		return jsonResult("Task updated successfully:", task)
	})

	completeTaskTool := mcp.NewTool("ticktick_complete_task",
		mcp.WithDescription("Mark one or more tasks of a project as completed"),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project ID or name")),
		mcp.WithString("taskIds", mcp.Required(), mcp.Description("Task ID (string), comma-separated IDs or array of task IDs")),
	)
	addTool(s, sc, completeTaskTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return runTaskBatch(ctx, sc, request, "completed", (*tasks.Manager).CompleteTask)
	})

	deleteTaskTool := mcp.NewTool("ticktick_delete_task",
		mcp.WithDescription("Delete one or more tasks of a project"),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project ID or name")),
		mcp.WithString("taskIds", mcp.Required(), mcp.Description("Task ID (string), comma-separated IDs or array of task IDs")),
	)
	addTool(s, sc, deleteTaskTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return runTaskBatch(ctx, sc, request, "deleted", (*tasks.Manager).DeleteTask)
	})

	return nil
}

// runTaskBatch applies op to every task in taskIds and reports one result per ID.
func runTaskBatch(ctx context.Context, sc *server.ServerContext, request mcp.CallToolRequest, verb string, op func(*tasks.Manager, context.Context, string, string) error) (*mcp.CallToolResult, error) {
	ctx, cancel := handlerContext(ctx, sc)
	defer cancel()

	project := request.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("project is required"), nil
	}
	ids, err := batch.ParseIDs(request.GetArguments()["taskIds"], "taskIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m, errResult := getManager(sc)
	if errResult != nil {
		return errResult, nil
	}
	projectID, err := m.ResolveProjectID(ctx, project)
	if err != nil {
		return toolError("resolve project", err)
	}

	summary := batch.Run(ctx, ids, func(ctx context.Context, id string) (string, error) {
		if err := op(m, ctx, projectID, id); err != nil {
			return "", err
		}
		return "task " + verb, nil
	})
	if summary.Succeeded == 0 {
		return mcp.NewToolResultError(summary.JSON()), nil
	}
	return mcp.NewToolResultText(summary.JSON()), nil
}

func listOptions(request mcp.CallToolRequest) (tasks.ListOptions, error) {
	opts := tasks.ListOptions{Project: request.GetString("project", "")}
	if due := request.GetString("due", ""); due != "" {
		b, err := query.ParseBucket(due)
		if err != nil {
			return opts, err
		}
		opts.Due = b
	}
	if p := request.GetString("priority", ""); p != "" {
		priority, err := ticktick.ParsePriority(p)
		if err != nil {
			return opts, err
		}
		opts.Priority = &priority
	}
	if st := request.GetString("status", ""); st != "" {
		status, err := ticktick.ParseTaskStatus(st)
		if err != nil {
			return opts, err
		}
		opts.Status = &status
	}
	return opts, nil
}

func taskRef(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	project := request.GetString("project", "")
	if project == "" {
		return "", "", mcp.NewToolResultError("project is required")
	}
	taskID := request.GetString("taskId", "")
	if taskID == "" {
		return "", "", mcp.NewToolResultError("taskId is required")
	}
	return project, taskID, nil
}

// optionalString returns nil when the argument is absent.
func optionalString(request mcp.CallToolRequest, key string) *string {
	if _, ok := request.GetArguments()[key]; !ok {
		return nil
	}
	v := request.GetString(key, "")
	return &v
}

// tasksResult renders tasks as JSON or as a markdown checklist with project names.
func tasksResult(ctx context.Context, m *tasks.Manager, outputFormat string, list []ticktick.Task) (*mcp.CallToolResult, error) {
	if outputFormat != string(format.Markdown) {
		if list == nil {
			list = []ticktick.Task{}
		}
		return jsonResult("", list)
	}

	opts := format.Options{}
	if projects, err := m.ListProjects(ctx); err == nil {
		opts.Projects = tasks.ProjectNames(projects)
	}
	var b strings.Builder
	if err := format.TasksMarkdown(&b, list, opts); err != nil {
		return toolError("render tasks", err)
	}
	if b.Len() == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}
