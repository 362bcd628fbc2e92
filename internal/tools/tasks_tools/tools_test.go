package tasks_tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktask/internal/auth"
	"github.com/teemow/ticktask/internal/obsidian"
	"github.com/teemow/ticktask/internal/server"
	"github.com/teemow/ticktask/internal/tasks"
	"github.com/teemow/ticktask/internal/ticktick"
	"github.com/teemow/ticktask/internal/tools/batch"
)

var testNow = time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

// fakeTickTick serves the subset of the open API used by the tools.
type fakeTickTick struct {
	mu        sync.Mutex
	projects  []ticktick.Project
	tasks     map[string][]ticktick.Task
	created   []ticktick.TaskCreate
	completed []string
}

func (f *fakeTickTick) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && len(parts) == 1 && parts[0] == "project":
		writeJSON(w, f.projects)
	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "data":
		for _, p := range f.projects {
			if p.ID == parts[1] {
				writeJSON(w, ticktick.ProjectData{Project: p, Tasks: f.tasks[p.ID]})
				return
			}
		}
		http.NotFound(w, r)
	case r.Method == http.MethodPost && len(parts) == 1 && parts[0] == "task":
		var in ticktick.TaskCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.created = append(f.created, in)
		writeJSON(w, ticktick.Task{ID: "new", ProjectID: in.ProjectID, Title: in.Title})
	case r.Method == http.MethodPost && len(parts) == 5 && parts[4] == "complete":
		f.completed = append(f.completed, parts[3])
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "unexpected request "+r.Method+" "+r.URL.Path, http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newFake() *fakeTickTick {
	due := func(d time.Time) *ticktick.Time { return ticktick.NewTime(d) }
	return &fakeTickTick{
		projects: []ticktick.Project{
			{ID: "inbox1", Name: "Inbox"},
			{ID: "work", Name: "Work"},
		},
		tasks: map[string][]ticktick.Task{
			"inbox1": {
				{ID: "t1", ProjectID: "inbox1", Title: "Review PR", Priority: ticktick.PriorityHigh, DueDate: due(testNow.Add(2 * time.Hour))},
				{ID: "t2", ProjectID: "inbox1", Title: "Buy milk", DueDate: due(testNow.AddDate(0, 0, -2))},
			},
			"work": {
				{ID: "t3", ProjectID: "work", Title: "Review design doc", Priority: ticktick.PriorityLow},
			},
		},
	}
}

type fixture struct {
	api   *fakeTickTick
	vault string
	ctx   context.Context
	tools map[string]*mcpserver.ServerTool
}

func newFixture(t *testing.T, readOnly bool) *fixture {
	t.Helper()
	api := newFake()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	vault := t.TempDir()
	exporter := &obsidian.Exporter{VaultPath: vault, Now: func() time.Time { return testNow }}

	factory := func(ctx context.Context) (*tasks.Manager, error) {
		client := ticktick.NewClientWithToken(ctx, "tok", ticktick.WithBaseURL(ts.URL))
		return tasks.NewManager(client, tasks.WithClock(func() time.Time { return testNow })), nil
	}
	sc := server.NewServerContext(context.Background(), factory, server.WithExporter(exporter))
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterTasksTools(s, sc, readOnly))

	return &fixture{api: api, vault: vault, ctx: context.Background(), tools: s.ListTools()}
}

func (fx *fixture) call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool, ok := fx.tools[name]
	require.True(t, ok, "tool %s not registered", name)
	res, err := tool.Handler(fx.ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func toolNames(tools map[string]*mcpserver.ServerTool) []string {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestRegisterTasksTools_ReadOnly(t *testing.T) {
	fx := newFixture(t, true)
	assert.Equal(t, []string{
		"ticktick_daily_plan",
		"ticktick_get_project",
		"ticktick_get_task",
		"ticktick_list_projects",
		"ticktick_list_tasks",
		"ticktick_parse_date",
	}, toolNames(fx.tools))

	for name, tool := range fx.tools {
		hint := tool.Tool.Annotations.ReadOnlyHint
		require.NotNil(t, hint, name)
		assert.True(t, *hint, name)
	}
}

func TestRegisterTasksTools_Yolo(t *testing.T) {
	fx := newFixture(t, false)
	names := toolNames(fx.tools)
	for _, want := range []string{
		"ticktick_create_task",
		"ticktick_update_task",
		"ticktick_complete_task",
		"ticktick_delete_task",
		"ticktick_batch_complete",
		"ticktick_create_project",
		"ticktick_export_daily_log",
	} {
		assert.Contains(t, names, want)
	}
	assert.Len(t, names, 13)
}

func TestRegisterTasksTools_NoExporter(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil)
	defer func() { _ = sc.Shutdown() }()
	s := mcpserver.NewMCPServer("test", "0.0.0")
	require.NoError(t, RegisterTasksTools(s, sc, false))
	assert.NotContains(t, toolNames(s.ListTools()), "ticktick_export_daily_log")
}

func TestListProjects(t *testing.T) {
	fx := newFixture(t, true)
	res := fx.call(t, "ticktick_list_projects", nil)
	require.False(t, res.IsError, resultText(t, res))

	var projects []ticktick.Project
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &projects))
	assert.Len(t, projects, 2)
}

func TestListTasks_Filters(t *testing.T) {
	fx := newFixture(t, true)

	res := fx.call(t, "ticktick_list_tasks", map[string]any{"due": "overdue"})
	require.False(t, res.IsError, resultText(t, res))
	var list []ticktick.Task
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "t2", list[0].ID)

	res = fx.call(t, "ticktick_list_tasks", map[string]any{"project": "work", "format": "markdown"})
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "- [ ] Review design doc (Work)")

	res = fx.call(t, "ticktick_list_tasks", map[string]any{"due": "someday"})
	assert.True(t, res.IsError)
}

func TestListTasks_EmptyIsArray(t *testing.T) {
	fx := newFixture(t, true)
	res := fx.call(t, "ticktick_list_tasks", map[string]any{"due": "tomorrow"})
	require.False(t, res.IsError)
	assert.Equal(t, "[]", resultText(t, res))
}

func TestDailyPlan_Order(t *testing.T) {
	fx := newFixture(t, true)
	res := fx.call(t, "ticktick_daily_plan", nil)
	require.False(t, res.IsError, resultText(t, res))

	var plan []ticktick.Task
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &plan))
	require.Len(t, plan, 2)
	assert.Equal(t, "t1", plan[0].ID)
	assert.Equal(t, "t2", plan[1].ID)
}

func TestParseDate(t *testing.T) {
	fx := newFixture(t, true)
	res := fx.call(t, "ticktick_parse_date", map[string]any{"phrase": "tomorrow"})
	require.False(t, res.IsError)
	assert.Equal(t, "2024-03-05T23:59:59Z", resultText(t, res))

	res = fx.call(t, "ticktick_parse_date", map[string]any{"phrase": "whenever"})
	assert.True(t, res.IsError)
}

func TestCreateTask(t *testing.T) {
	fx := newFixture(t, false)
	res := fx.call(t, "ticktick_create_task", map[string]any{
		"title":    "Write report",
		"due":      "tomorrow",
		"priority": "high",
		"subtasks": "outline, draft,",
	})
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "Task created successfully")

	require.Len(t, fx.api.created, 1)
	in := fx.api.created[0]
	assert.Equal(t, "inbox1", in.ProjectID)
	assert.Equal(t, ticktick.PriorityHigh, *in.Priority)
	require.Len(t, in.Items, 2)
	assert.Equal(t, "draft", in.Items[1].Title)
}

func TestCreateTask_Validation(t *testing.T) {
	fx := newFixture(t, false)
	assert.True(t, fx.call(t, "ticktick_create_task", map[string]any{"title": "  "}).IsError)
	assert.True(t, fx.call(t, "ticktick_create_task", map[string]any{"title": "x", "priority": "urgent"}).IsError)
	assert.Empty(t, fx.api.created)
}

func TestCompleteTask_MultipleIDs(t *testing.T) {
	fx := newFixture(t, false)
	res := fx.call(t, "ticktick_complete_task", map[string]any{
		"project": "Inbox",
		"taskIds": []any{"t1", "t2"},
	})
	require.False(t, res.IsError, resultText(t, res))

	var summary batch.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &summary))
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, []string{"t1", "t2"}, fx.api.completed)
}

func TestCompleteTask_UnknownProject(t *testing.T) {
	fx := newFixture(t, false)
	res := fx.call(t, "ticktick_complete_task", map[string]any{"project": "Garden", "taskIds": "t1"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Failed to resolve project")
	assert.Empty(t, fx.api.completed)
}

func TestBatchComplete(t *testing.T) {
	fx := newFixture(t, false)
	res := fx.call(t, "ticktick_batch_complete", map[string]any{"pattern": "review"})
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, "Completed 2/2 tasks", resultText(t, res))
	assert.ElementsMatch(t, []string{"t1", "t3"}, fx.api.completed)

	res = fx.call(t, "ticktick_batch_complete", map[string]any{"pattern": "nothing like this"})
	assert.Equal(t, "No matching tasks found", resultText(t, res))
}

func TestExportDailyLog(t *testing.T) {
	fx := newFixture(t, false)
	res := fx.call(t, "ticktick_export_daily_log", nil)
	require.False(t, res.IsError, resultText(t, res))

	path := filepath.Join(fx.vault, obsidian.DefaultDailyNotesPath, "2024-03-04.md")
	assert.Equal(t, "Exported to: "+path, resultText(t, res))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), obsidian.SectionHeading)
	assert.Contains(t, string(data), "Buy milk")
}

func TestManagerUnavailable(t *testing.T) {
	sc := server.NewServerContext(context.Background(), func(context.Context) (*tasks.Manager, error) {
		return nil, auth.ErrLoginRequired
	})
	defer func() { _ = sc.Shutdown() }()
	s := mcpserver.NewMCPServer("test", "0.0.0")
	require.NoError(t, RegisterTasksTools(s, sc, true))

	tool := s.ListTools()["ticktick_list_projects"]
	require.NotNil(t, tool)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	text, _ := mcp.AsTextContent(res.Content[0])
	assert.Contains(t, text.Text, "ticktask auth login")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, splitList(" a ,b c\n\nd,"))
	assert.Nil(t, splitList(" , "))
}
