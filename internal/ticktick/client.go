package ticktick

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/logging"
)

// DefaultBaseURL is the Open API root.
const DefaultBaseURL = "https://api.ticktick.com/open/v1"

const defaultTimeout = 30 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("ticktick API %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("ticktick API %s %s returned %d", e.Method, e.Path, e.StatusCode)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the TickTick Open API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	timeout    time.Duration
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) ClientOption {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithHTTPClient sets the base client whose transport carries the bearer token.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ClientOption {
	return func(o *clientOptions) { o.metrics = m }
}

// WithTimeout sets the per-request timeout (default 30s).
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// NewClient creates a client that authenticates every request with a bearer
// token from ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...ClientOption) *Client {
	o := clientOptions{
		baseURL: DefaultBaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = o.timeout

	return &Client{
		baseURL:    strings.TrimRight(o.baseURL, "/"),
		httpClient: hc,
		logger:     logging.OrDiscard(o.logger),
		metrics:    o.metrics,
	}
}

// NewClientWithToken is a shorthand for a static access token.
func NewClientWithToken(ctx context.Context, accessToken string, opts ...ClientOption) *Client {
	return NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}), opts...)
}

// ListProjects returns all projects of the user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/project", "/project", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodGet, "/project/{id}", "/project/"+url.PathEscape(projectID), nil, &project); err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", projectID, err)
	}
	return &project, nil
}

// GetProjectData retrieves a project with its undone tasks and columns.
func (c *Client) GetProjectData(ctx context.Context, projectID string) (*ProjectData, error) {
	var data ProjectData
	path := "/project/" + url.PathEscape(projectID) + "/data"
	if err := c.do(ctx, http.MethodGet, "/project/{id}/data", path, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to get project data %s: %w", projectID, err)
	}
	return &data, nil
}

// CreateProject creates a project. Empty ViewMode and Kind default to "list" and "TASK".
func (c *Client) CreateProject(ctx context.Context, in ProjectCreate) (*Project, error) {
	if in.ViewMode == "" {
		in.ViewMode = "list"
	}
	if in.Kind == "" {
		in.Kind = "TASK"
	}
	var project Project
	if err := c.do(ctx, http.MethodPost, "/project", "/project", in, &project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

// UpdateProject updates the set fields of a project.
func (c *Client) UpdateProject(ctx context.Context, projectID string, in ProjectUpdate) (*Project, error) {
	var project Project
	if err := c.do(ctx, http.MethodPost, "/project/{id}", "/project/"+url.PathEscape(projectID), in, &project); err != nil {
		return nil, fmt.Errorf("failed to update project %s: %w", projectID, err)
	}
	return &project, nil
}

// DeleteProject deletes a project.
func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	if err := c.do(ctx, http.MethodDelete, "/project/{id}", "/project/"+url.PathEscape(projectID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete project %s: %w", projectID, err)
	}
	return nil
}

func taskPath(projectID, taskID string) string {
	return "/project/" + url.PathEscape(projectID) + "/task/" + url.PathEscape(taskID)
}

// GetTask retrieves a task.
func (c *Client) GetTask(ctx context.Context, projectID, taskID string) (*Task, error) {
	var task Task
	if err := c.do(ctx, http.MethodGet, "/project/{pid}/task/{tid}", taskPath(projectID, taskID), nil, &task); err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return &task, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, in TaskCreate) (*Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}
	if in.ProjectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/task", "/task", in, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// UpdateTask updates the set fields of a task.
func (c *Client) UpdateTask(ctx context.Context, in TaskUpdate) (*Task, error) {
	if in.ID == "" || in.ProjectID == "" {
		return nil, fmt.Errorf("task ID and project ID are required")
	}
	var task Task
	if err := c.do(ctx, http.MethodPost, "/task/{id}", "/task/"+url.PathEscape(in.ID), in, &task); err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", in.ID, err)
	}
	return &task, nil
}

// CompleteTask marks a task as completed.
func (c *Client) CompleteTask(ctx context.Context, projectID, taskID string) error {
	path := taskPath(projectID, taskID) + "/complete"
	if err := c.do(ctx, http.MethodPost, "/project/{pid}/task/{tid}/complete", path, nil, nil); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}
	return nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, projectID, taskID string) error {
	if err := c.do(ctx, http.MethodDelete, "/project/{pid}/task/{tid}", taskPath(projectID, taskID), nil, nil); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

// do performs one request. endpoint is the route template used for telemetry,
// path the concrete path below the base URL.
func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out any) (err error) {
	ctx, span := instrumentation.StartAPISpan(ctx, method, endpoint)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		c.metrics.RecordAPIRequest(ctx, method, endpoint, status, time.Since(start))
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrStatus, status))
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("ticktick api call",
		"method", method,
		"endpoint", endpoint,
		"status_code", status,
		logging.Status(statusLabel(status)),
		"duration", time.Since(start))

	if status < 200 || status > 299 {
		return &APIError{Method: method, Path: path, StatusCode: status, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusLabel(code int) string {
	if code >= 200 && code <= 299 {
		return logging.StatusSuccess
	}
	return logging.StatusError
}
