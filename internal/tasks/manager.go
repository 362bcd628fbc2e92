package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/ticktask/internal/instrumentation"
	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/ticktick"
)

// fetchConcurrency bounds parallel project data requests.
const fetchConcurrency = 4

// API is the subset of the TickTick client used by Manager.
type API interface {
	ListProjects(ctx context.Context) ([]ticktick.Project, error)
	GetProjectData(ctx context.Context, projectID string) (*ticktick.ProjectData, error)
	CreateProject(ctx context.Context, in ticktick.ProjectCreate) (*ticktick.Project, error)
	UpdateProject(ctx context.Context, projectID string, in ticktick.ProjectUpdate) (*ticktick.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	GetTask(ctx context.Context, projectID, taskID string) (*ticktick.Task, error)
	CreateTask(ctx context.Context, in ticktick.TaskCreate) (*ticktick.Task, error)
	UpdateTask(ctx context.Context, in ticktick.TaskUpdate) (*ticktick.Task, error)
	CompleteTask(ctx context.Context, projectID, taskID string) error
	DeleteTask(ctx context.Context, projectID, taskID string) error
}

// Manager runs task workflows against the API.
type Manager struct {
	api            API
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
	now            func() time.Time
	defaultProject string
	reminder       string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrDiscard(l) }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock overrides time.Now. The clock's location is used for due dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithDefaultProject sets the project (ID or name) used when a task is
// created without one.
func WithDefaultProject(project string) Option {
	return func(m *Manager) { m.defaultProject = project }
}

// WithDefaultReminder sets the reminder applied to new tasks that have a due
// date but no explicit reminder.
func WithDefaultReminder(reminder string) Option {
	return func(m *Manager) { m.reminder = reminder }
}

// NewManager creates a Manager.
func NewManager(api API, opts ...Option) *Manager {
	m := &Manager{
		api:    api,
		logger: logging.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateTaskInput describes a new task. Project may be an ID or a name.
type CreateTaskInput struct {
	Title    string
	Project  string
	Content  string
	Due      string
	Priority *ticktick.Priority
	Subtasks []string
	Reminder string
}

// CreateTask resolves the project and due phrase and creates the task.
func (m *Manager) CreateTask(ctx context.Context, in CreateTaskInput) (*ticktick.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.New("task title is required")
	}

	projectID, err := m.projectForCreate(ctx, in.Project)
	if err != nil {
		return nil, err
	}

	priority := ticktick.PriorityNone
	if in.Priority != nil {
		priority = *in.Priority
	}

	req := ticktick.TaskCreate{
		Title:     title,
		ProjectID: projectID,
		Priority:  &priority,
	}
	if in.Content != "" {
		req.Content = ticktick.Ptr(in.Content)
	}

	if in.Due != "" {
		due, err := query.ResolveDate(in.Due, m.now())
		if err != nil {
			return nil, err
		}
		req.DueDate = ticktick.NewTime(due)
		req.TimeZone = zoneName(due)
	}

	for _, s := range in.Subtasks {
		if s = strings.TrimSpace(s); s != "" {
			req.Items = append(req.Items, ticktick.ChecklistItem{Title: s})
		}
	}

	reminder := in.Reminder
	if reminder == "" && in.Due != "" {
		reminder = m.reminder
	}
	if reminder != "" {
		req.Reminders = []string{ParseReminder(reminder)}
	}

	task, err := m.api.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}

	m.logger.Info("created task", logging.TaskID(task.ID), logging.Project(projectID))
	return task, nil
}

func (m *Manager) projectForCreate(ctx context.Context, project string) (string, error) {
	if project == "" {
		project = m.defaultProject
	}
	if project != "" {
		return m.ResolveProjectID(ctx, project)
	}

	projects, err := m.api.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	return defaultProjectID(projects)
}

// defaultProjectID picks the project named "inbox", else the first project.
func defaultProjectID(projects []ticktick.Project) (string, error) {
	for _, p := range projects {
		if strings.EqualFold(p.Name, "inbox") {
			return p.ID, nil
		}
	}
	if len(projects) > 0 {
		return projects[0].ID, nil
	}
	return "", errors.New("no projects found")
}

// zoneName returns the IANA name of t's location for the timeZone field, or
// nil when the location is the unnamed host zone.
func zoneName(t time.Time) *string {
	name := t.Location().String()
	if name == "Local" || name == "" {
		return nil
	}
	return &name
}

// ListOptions filters ListTasks. Zero values mean "any".
type ListOptions struct {
	Project  string
	Due      query.Bucket
	Priority *ticktick.Priority
	Status   *ticktick.TaskStatus
}

// ListTasks fetches tasks of one project, or of all open projects, and applies
// the filters.
func (m *Manager) ListTasks(ctx context.Context, opts ListOptions) ([]ticktick.Task, error) {
	all, err := m.FetchTasks(ctx, opts.Project)
	if err != nil {
		return nil, err
	}

	filtered := query.Filter(all, query.Predicate{
		Due:      opts.Due,
		Priority: opts.Priority,
		Status:   opts.Status,
	}, m.now())

	if opts.Due != "" {
		m.metrics.RecordQueryMatches(ctx, string(opts.Due), len(filtered))
	}
	return filtered, nil
}

// FetchTasks returns the unfiltered tasks of a project (ID or name), or of
// every open project when project is empty. Order follows the project list.
func (m *Manager) FetchTasks(ctx context.Context, project string) ([]ticktick.Task, error) {
	if project != "" {
		id, err := m.ResolveProjectID(ctx, project)
		if err != nil {
			return nil, err
		}
		data, err := m.api.GetProjectData(ctx, id)
		if err != nil {
			return nil, err
		}
		return data.Tasks, nil
	}

	projects, err := m.api.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var open []ticktick.Project
	for _, p := range projects {
		if !p.Closed {
			open = append(open, p)
		}
	}

	results := make([][]ticktick.Task, len(open))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, p := range open {
		g.Go(func() error {
			data, err := m.api.GetProjectData(gctx, p.ID)
			if err != nil {
				return err
			}
			results[i] = data.Tasks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ticktick.Task
	for _, tasks := range results {
		all = append(all, tasks...)
	}
	m.logger.Debug("fetched tasks", "projects", len(open), "tasks", len(all))
	return all, nil
}

// GetTask fetches a single task.
func (m *Manager) GetTask(ctx context.Context, project, taskID string) (*ticktick.Task, error) {
	projectID, err := m.ResolveProjectID(ctx, project)
	if err != nil {
		return nil, err
	}
	return m.api.GetTask(ctx, projectID, taskID)
}

// UpdateTaskInput describes a partial update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	TaskID   string
	Project  string
	Title    *string
	Content  *string
	Due      *string
	Priority *ticktick.Priority
}

// UpdateTask applies the set fields. Due is parsed like in CreateTask.
func (m *Manager) UpdateTask(ctx context.Context, in UpdateTaskInput) (*ticktick.Task, error) {
	projectID, err := m.ResolveProjectID(ctx, in.Project)
	if err != nil {
		return nil, err
	}

	req := ticktick.TaskUpdate{
		ID:        in.TaskID,
		ProjectID: projectID,
		Title:     in.Title,
		Content:   in.Content,
		Priority:  in.Priority,
	}
	if in.Due != nil {
		due, err := query.ResolveDate(*in.Due, m.now())
		if err != nil {
			return nil, err
		}
		req.DueDate = ticktick.NewTime(due)
		req.TimeZone = zoneName(due)
	}
	if req.IsEmpty() {
		return nil, errors.New("nothing to update")
	}

	task, err := m.api.UpdateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	m.logger.Info("updated task", logging.TaskID(in.TaskID), logging.Project(projectID))
	return task, nil
}

// CompleteTask marks a task done.
func (m *Manager) CompleteTask(ctx context.Context, project, taskID string) error {
	projectID, err := m.ResolveProjectID(ctx, project)
	if err != nil {
		return err
	}
	if err := m.api.CompleteTask(ctx, projectID, taskID); err != nil {
		return err
	}
	m.logger.Info("completed task", logging.TaskID(taskID), logging.Project(projectID))
	return nil
}

// DeleteTask removes a task.
func (m *Manager) DeleteTask(ctx context.Context, project, taskID string) error {
	projectID, err := m.ResolveProjectID(ctx, project)
	if err != nil {
		return err
	}
	if err := m.api.DeleteTask(ctx, projectID, taskID); err != nil {
		return err
	}
	m.logger.Info("deleted task", logging.TaskID(taskID), logging.Project(projectID))
	return nil
}

// TaskRef identifies a task.
type TaskRef struct {
	ProjectID string
	TaskID    string
}

// BatchComplete completes every referenced task. It keeps going after a
// failure and returns the number completed together with the joined errors.
func (m *Manager) BatchComplete(ctx context.Context, refs []TaskRef) (int, error) {
	var errs []error
	completed := 0
	for _, ref := range refs {
		if err := m.api.CompleteTask(ctx, ref.ProjectID, ref.TaskID); err != nil {
			m.logger.Warn("failed to complete task", logging.TaskID(ref.TaskID), logging.Err(err))
			errs = append(errs, fmt.Errorf("task %s: %w", ref.TaskID, err))
			continue
		}
		completed++
	}
	return completed, errors.Join(errs...)
}

// FindOpenTasks returns open tasks whose title contains pattern
// (case-insensitive). An empty pattern matches every open task.
func (m *Manager) FindOpenTasks(ctx context.Context, project, pattern string) ([]ticktick.Task, error) {
	open := ticktick.StatusOpen
	tasks, err := m.ListTasks(ctx, ListOptions{Project: project, Status: &open})
	if err != nil {
		return nil, err
	}
	if pattern == "" {
		return tasks, nil
	}

	needle := strings.ToLower(pattern)
	var out []ticktick.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Refs returns the TaskRefs of tasks.
func Refs(tasks []ticktick.Task) []TaskRef {
	refs := make([]TaskRef, 0, len(tasks))
	for _, t := range tasks {
		refs = append(refs, TaskRef{ProjectID: t.ProjectID, TaskID: t.ID})
	}
	return refs
}

// PlanOptions selects the buckets of the daily plan.
type PlanOptions struct {
	IncludeOverdue  bool
	IncludeToday    bool
	IncludeTomorrow bool
}

// DefaultPlanOptions includes overdue and today.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{IncludeOverdue: true, IncludeToday: true}
}

// Buckets returns the selected buckets in plan order.
func (o PlanOptions) Buckets() []query.Bucket {
	var b []query.Bucket
	if o.IncludeOverdue {
		b = append(b, query.BucketOverdue)
	}
	if o.IncludeToday {
		b = append(b, query.BucketToday)
	}
	if o.IncludeTomorrow {
		b = append(b, query.BucketTomorrow)
	}
	return b
}

// DailyPlan fetches all tasks once and returns the deduplicated, sorted union
// of the selected buckets.
func (m *Manager) DailyPlan(ctx context.Context, opts PlanOptions) ([]ticktick.Task, error) {
	all, err := m.FetchTasks(ctx, "")
	if err != nil {
		return nil, err
	}
	plan := query.Plan(all, opts.Buckets(), m.now())
	m.metrics.RecordQueryMatches(ctx, "daily_plan", len(plan))
	return plan, nil
}

// DailyLogTasks returns the tasks for a daily log: overdue, today, this week
// and those completed today, deduplicated by ID.
func (m *Manager) DailyLogTasks(ctx context.Context) ([]ticktick.Task, error) {
	all, err := m.FetchTasks(ctx, "")
	if err != nil {
		return nil, err
	}

	now := m.now()
	var collected []ticktick.Task
	for _, b := range []query.Bucket{query.BucketOverdue, query.BucketToday, query.BucketWeek} {
		collected = append(collected, query.FilterDue(all, b, now)...)
	}
	collected = append(collected, query.CompletedOn(all, now)...)
	return query.Dedup(collected), nil
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}
