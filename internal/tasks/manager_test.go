package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktask/internal/query"
	"github.com/teemow/ticktask/internal/ticktick"
)

// Monday 2024-03-04 10:30 UTC.
var testNow = time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func dueTask(id string, due time.Time, p ticktick.Priority) ticktick.Task {
	return ticktick.Task{ID: id, Title: "task " + id, DueDate: ticktick.NewTime(due), Priority: p}
}

func taskIDs(tasks []ticktick.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func newTestManager(api API, opts ...Option) *Manager {
	return NewManager(api, append([]Option{WithClock(clock)}, opts...)...)
}

func TestCreateTask_DefaultsToInbox(t *testing.T) {
	api := newFakeAPI(
		ticktick.Project{ID: "work", Name: "Work"},
		ticktick.Project{ID: "inbox123", Name: "Inbox"},
	)
	m := newTestManager(api)

	task, err := m.CreateTask(context.Background(), CreateTaskInput{
		Title:    "  Write report ",
		Due:      "tomorrow",
		Subtasks: []string{"outline", " ", "draft"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-task", task.ID)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "Write report", req.Title)
	assert.Equal(t, "inbox123", req.ProjectID)
	require.NotNil(t, req.Priority)
	assert.Equal(t, ticktick.PriorityNone, *req.Priority)
	require.NotNil(t, req.DueDate)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC), req.DueDate.Time)
	assert.Equal(t, "UTC", *req.TimeZone)
	assert.Equal(t, []ticktick.ChecklistItem{{Title: "outline"}, {Title: "draft"}}, req.Items)
	assert.Nil(t, req.Reminders)
}

func TestCreateTask_FallsBackToFirstProject(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "a", Name: "Alpha"}, ticktick.Project{ID: "b", Name: "Beta"})
	m := newTestManager(api)

	_, err := m.CreateTask(context.Background(), CreateTaskInput{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "a", api.created[0].ProjectID)
	assert.Nil(t, api.created[0].DueDate)
}

func TestCreateTask_Errors(t *testing.T) {
	m := newTestManager(newFakeAPI())

	_, err := m.CreateTask(context.Background(), CreateTaskInput{Title: "  "})
	assert.Error(t, err)

	_, err = m.CreateTask(context.Background(), CreateTaskInput{Title: "x"})
	assert.ErrorContains(t, err, "no projects found")

	m = newTestManager(newFakeAPI(ticktick.Project{ID: "a", Name: "Alpha"}))
	_, err = m.CreateTask(context.Background(), CreateTaskInput{Title: "x", Due: "someday maybe"})
	var perr *query.DateParseError
	assert.ErrorAs(t, err, &perr)

	_, err = m.CreateTask(context.Background(), CreateTaskInput{Title: "x", Project: "Nope"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateTask_ProjectPriorityAndReminder(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "w1", Name: "Work"})
	m := newTestManager(api, WithDefaultReminder("9am"))
	high := ticktick.PriorityHigh

	_, err := m.CreateTask(context.Background(), CreateTaskInput{
		Title:    "Ship",
		Project:  "work",
		Priority: &high,
		Content:  "notes",
		Due:      "in 2 days",
	})
	require.NoError(t, err)

	req := api.created[0]
	assert.Equal(t, "w1", req.ProjectID)
	assert.Equal(t, ticktick.PriorityHigh, *req.Priority)
	assert.Equal(t, "notes", *req.Content)
	assert.Equal(t, []string{"TRIGGER:P0DT9H0M0S"}, req.Reminders)

	_, err = m.CreateTask(context.Background(), CreateTaskInput{Title: "Now", Project: "w1", Due: "today", Reminder: "now"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TRIGGER:PT0S"}, api.created[1].Reminders)
}

func TestCreateTask_DefaultProjectOption(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "inbox1", Name: "Inbox"}, ticktick.Project{ID: "h1", Name: "Home"})
	m := newTestManager(api, WithDefaultProject("Home"))

	_, err := m.CreateTask(context.Background(), CreateTaskInput{Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "h1", api.created[0].ProjectID)
}

func TestListTasks_AllOpenProjectsInOrder(t *testing.T) {
	api := newFakeAPI(
		ticktick.Project{ID: "a", Name: "A"},
		ticktick.Project{ID: "closed", Name: "Archive", Closed: true},
		ticktick.Project{ID: "b", Name: "B"},
	)
	api.addTasks("a", dueTask("a1", testNow, ticktick.PriorityHigh), ticktick.Task{ID: "a2"})
	api.addTasks("closed", dueTask("c1", testNow, ticktick.PriorityHigh))
	api.addTasks("b", dueTask("b1", testNow.AddDate(0, 0, 1), ticktick.PriorityLow))

	m := newTestManager(api)

	all, err := m.ListTasks(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, taskIDs(all))

	today, err := m.ListTasks(context.Background(), ListOptions{Due: query.BucketToday})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, taskIDs(today))

	low := ticktick.PriorityLow
	lowOnly, err := m.ListTasks(context.Background(), ListOptions{Priority: &low})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, taskIDs(lowOnly))
}

func TestListTasks_SingleProjectByName(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "a", Name: "Alpha"}, ticktick.Project{ID: "b", Name: "Beta"})
	api.addTasks("a", ticktick.Task{ID: "a1"})
	api.addTasks("b", ticktick.Task{ID: "b1"})

	tasks, err := newTestManager(api).ListTasks(context.Background(), ListOptions{Project: "BETA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, taskIDs(tasks))
}

func TestListTasks_FetchErrorPropagates(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "a"}, ticktick.Project{ID: "b"})
	boom := errors.New("boom")
	api.failDataFor["b"] = boom

	_, err := newTestManager(api).ListTasks(context.Background(), ListOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestUpdateTask(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Work"})
	m := newTestManager(api)

	_, err := m.UpdateTask(context.Background(), UpdateTaskInput{TaskID: "t1", Project: "Work"})
	assert.ErrorContains(t, err, "nothing to update")

	due := "next friday"
	_, err = m.UpdateTask(context.Background(), UpdateTaskInput{
		TaskID:  "t1",
		Project: "Work",
		Title:   ticktick.Ptr("renamed"),
		Due:     &due,
	})
	require.NoError(t, err)
	require.Len(t, api.updated, 1)
	assert.Equal(t, "p1", api.updated[0].ProjectID)
	assert.Equal(t, "renamed", *api.updated[0].Title)
	assert.Equal(t, time.Date(2024, 3, 8, 23, 59, 59, 0, time.UTC), api.updated[0].DueDate.Time)
	require.NotNil(t, api.updated[0].TimeZone)
	assert.Equal(t, "UTC", *api.updated[0].TimeZone)
}

func TestDueDatesFollowClockZone(t *testing.T) {
	kiritimati, err := time.LoadLocation("Pacific/Kiritimati")
	require.NoError(t, err)

	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Inbox"})
	// 2024-03-04 10:30 UTC is already 2024-03-05 00:30 at UTC+14.
	m := NewManager(api, WithClock(func() time.Time { return testNow.In(kiritimati) }))

	_, err = m.CreateTask(context.Background(), CreateTaskInput{Title: "x", Due: "today"})
	require.NoError(t, err)
	due := "tomorrow"
	_, err = m.UpdateTask(context.Background(), UpdateTaskInput{TaskID: "t1", Project: "p1", Due: &due})
	require.NoError(t, err)

	created := api.created[0]
	assert.True(t, time.Date(2024, 3, 5, 23, 59, 59, 0, kiritimati).Equal(created.DueDate.Time))
	require.NotNil(t, created.TimeZone)
	assert.Equal(t, "Pacific/Kiritimati", *created.TimeZone)

	updated := api.updated[0]
	assert.True(t, time.Date(2024, 3, 6, 23, 59, 59, 0, kiritimati).Equal(updated.DueDate.Time))
	require.NotNil(t, updated.TimeZone)
	assert.Equal(t, "Pacific/Kiritimati", *updated.TimeZone)
}

func TestCreateTask_UnnamedZoneOmitsTimeZone(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Inbox"})
	m := NewManager(api, WithClock(func() time.Time { return testNow.In(time.Local) }))

	_, err := m.CreateTask(context.Background(), CreateTaskInput{Title: "x", Due: "today"})
	require.NoError(t, err)
	require.NotNil(t, api.created[0].DueDate)
	assert.Nil(t, api.created[0].TimeZone)
}

func TestCompleteAndDeleteTask(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Work"})
	m := newTestManager(api)

	require.NoError(t, m.CompleteTask(context.Background(), "work", "t1"))
	require.NoError(t, m.DeleteTask(context.Background(), "p1", "t2"))
	assert.Equal(t, []TaskRef{{ProjectID: "p1", TaskID: "t1"}}, api.completed)
	assert.Equal(t, []TaskRef{{ProjectID: "p1", TaskID: "t2"}}, api.deleted)

	assert.ErrorIs(t, m.CompleteTask(context.Background(), "missing", "t1"), ErrProjectNotFound)
}

func TestBatchComplete_ContinuesAfterFailure(t *testing.T) {
	api := newFakeAPI()
	api.failDone["t2"] = errors.New("rate limited")
	m := newTestManager(api)

	n, err := m.BatchComplete(context.Background(), []TaskRef{
		{ProjectID: "p", TaskID: "t1"},
		{ProjectID: "p", TaskID: "t2"},
		{ProjectID: "p", TaskID: "t3"},
	})
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task t2")
	assert.Len(t, api.completed, 2)
}

func TestFindOpenTasks(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p", Name: "P"})
	api.addTasks("p",
		ticktick.Task{ID: "1", Title: "Review PR"},
		ticktick.Task{ID: "2", Title: "review docs", Status: ticktick.StatusCompleted},
		ticktick.Task{ID: "3", Title: "Buy milk"},
	)
	m := newTestManager(api)

	matched, err := m.FindOpenTasks(context.Background(), "", "REVIEW")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, taskIDs(matched))

	open, err := m.FindOpenTasks(context.Background(), "P", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, taskIDs(open))
	assert.Equal(t, []TaskRef{{ProjectID: "p", TaskID: "1"}, {ProjectID: "p", TaskID: "3"}}, Refs(open))
}

func TestDailyPlan(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p"})
	api.addTasks("p",
		dueTask("today-low", testNow, ticktick.PriorityLow),
		dueTask("overdue-high", testNow.AddDate(0, 0, -2), ticktick.PriorityHigh),
		dueTask("tomorrow", testNow.AddDate(0, 0, 1), ticktick.PriorityHigh),
		ticktick.Task{ID: "undated"},
	)
	m := newTestManager(api)

	plan, err := m.DailyPlan(context.Background(), DefaultPlanOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue-high", "today-low"}, taskIDs(plan))

	withTomorrow := DefaultPlanOptions()
	withTomorrow.IncludeTomorrow = true
	plan, err = m.DailyPlan(context.Background(), withTomorrow)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"overdue-high", "today-low", "tomorrow"}, taskIDs(plan))
}

func TestPlanOptions_Buckets(t *testing.T) {
	assert.Equal(t, []query.Bucket{query.BucketOverdue, query.BucketToday}, DefaultPlanOptions().Buckets())
	assert.Empty(t, PlanOptions{}.Buckets())
	assert.Equal(t, []query.Bucket{query.BucketTomorrow}, PlanOptions{IncludeTomorrow: true}.Buckets())
}

func TestDailyLogTasks(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p"})
	doneToday := ticktick.Task{
		ID:            "done",
		Status:        ticktick.StatusCompleted,
		CompletedTime: ticktick.NewTime(testNow.Add(-time.Hour)),
	}
	doneYesterday := ticktick.Task{
		ID:            "old",
		Status:        ticktick.StatusCompleted,
		CompletedTime: ticktick.NewTime(testNow.AddDate(0, 0, -1)),
	}
	api.addTasks("p",
		dueTask("overdue", testNow.AddDate(0, 0, -3), ticktick.PriorityNone),
		dueTask("soon", testNow.AddDate(0, 0, 5), ticktick.PriorityNone),
		dueTask("far", testNow.AddDate(0, 0, 30), ticktick.PriorityNone),
		doneToday,
		doneYesterday,
	)

	tasks, err := newTestManager(api).DailyLogTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"overdue", "soon", "done"}, taskIDs(tasks))
}

func TestGetTask(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Work"})
	api.addTasks("p1", ticktick.Task{ID: "t1", Title: "hello"})

	task, err := newTestManager(api).GetTask(context.Background(), "Work", "t1")
	require.NoError(t, err)
	assert.Equal(t, "hello", task.Title)
}
