package ticktick

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &rec.Body))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		}
		requests = append(requests, rec)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClientWithToken(context.Background(), "test-token", WithBaseURL(srv.URL)), &requests
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListProjects(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": "p1", "name": "Inbox", "closed": false},
			{"id": "p2", "name": "Work", "closed": true, "viewMode": "kanban"},
		})
	})

	projects, err := client.ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Inbox", projects[0].Name)
	assert.True(t, projects[1].Closed)
	assert.Equal(t, "/project", (*reqs)[0].Path)
}

func TestClient_GetProjectData(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"project": map[string]any{"id": "p1", "name": "Inbox"},
			"tasks": []map[string]any{
				{"id": "t1", "projectId": "p1", "title": "A", "priority": 5, "dueDate": "2024-03-04T15:00:00+0000"},
				{"id": "t2", "projectId": "p1", "title": "B"},
			},
			"columns": []map[string]any{},
		})
	})

	data, err := client.GetProjectData(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "/project/p1/data", (*reqs)[0].Path)
	require.Len(t, data.Tasks, 2)
	assert.Equal(t, PriorityHigh, data.Tasks[0].Priority)
	_, hasDue := data.Tasks[0].Due()
	assert.True(t, hasDue)
	_, hasDue = data.Tasks[1].Due()
	assert.False(t, hasDue)
}

func TestClient_CreateTask(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "t1", "projectId": "p1", "title": "Write report", "priority": 3})
	})

	task, err := client.CreateTask(context.Background(), TaskCreate{
		Title:     "Write report",
		ProjectID: "p1",
		Content:   Ptr("details"),
		Priority:  Ptr(PriorityMedium),
		Reminders: []string{"TRIGGER:PT0S"},
		Items:     []ChecklistItem{{Title: "outline"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/task", req.Path)
	assert.Equal(t, "Write report", req.Body["title"])
	assert.Equal(t, "details", req.Body["content"])
	assert.Equal(t, float64(3), req.Body["priority"])
	assert.NotContains(t, req.Body, "dueDate")
	assert.NotContains(t, req.Body, "desc")
}

func TestClient_CreateTaskValidation(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.CreateTask(context.Background(), TaskCreate{ProjectID: "p1"})
	assert.Error(t, err)
	_, err = client.CreateTask(context.Background(), TaskCreate{Title: "x"})
	assert.Error(t, err)
	assert.Empty(t, *reqs)
}

func TestClient_UpdateTask(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "t1", "projectId": "p1", "title": "Renamed"})
	})

	_, err := client.UpdateTask(context.Background(), TaskUpdate{ID: "t1", ProjectID: "p1", Title: Ptr("Renamed")})
	require.NoError(t, err)

	req := (*reqs)[0]
	assert.Equal(t, "/task/t1", req.Path)
	assert.Equal(t, map[string]any{"id": "t1", "projectId": "p1", "title": "Renamed"}, req.Body)
}

func TestClient_CompleteAndDeleteTask(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.CompleteTask(context.Background(), "p1", "t1"))
	require.NoError(t, client.DeleteTask(context.Background(), "p1", "t1"))

	require.Len(t, *reqs, 2)
	assert.Equal(t, recordedRequest{Method: http.MethodPost, Path: "/project/p1/task/t1/complete"}, (*reqs)[0])
	assert.Equal(t, recordedRequest{Method: http.MethodDelete, Path: "/project/p1/task/t1"}, (*reqs)[1])
}

func TestClient_CreateProjectDefaults(t *testing.T) {
	client, reqs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": "p9", "name": "Errands"})
	})

	project, err := client.CreateProject(context.Background(), ProjectCreate{Name: "Errands"})
	require.NoError(t, err)
	assert.Equal(t, "p9", project.ID)
	assert.Equal(t, map[string]any{"name": "Errands", "viewMode": "list", "kind": "TASK"}, (*reqs)[0].Body)
}

func TestClient_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such task", http.StatusNotFound)
	})

	_, err := client.GetTask(context.Background(), "p1", "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "/project/p1/task/missing", apiErr.Path)
	assert.Equal(t, "no such task", apiErr.Body)
}
