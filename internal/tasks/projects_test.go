package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ticktask/internal/ticktick"
)

func TestFindProject(t *testing.T) {
	projects := []ticktick.Project{
		{ID: "abc", Name: "Work"},
		{ID: "work", Name: "Personal"},
	}

	p, ok := FindProject(projects, "work")
	require.True(t, ok)
	assert.Equal(t, "Personal", p.Name, "exact ID wins over name")

	p, ok = FindProject(projects, "WORK")
	require.True(t, ok)
	assert.Equal(t, "abc", p.ID)

	_, ok = FindProject(projects, "missing")
	assert.False(t, ok)
}

func TestGetOrCreateProject(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "h", Name: "Home"})
	m := newTestManager(api)

	p, err := m.GetOrCreateProject(context.Background(), "home")
	require.NoError(t, err)
	assert.Equal(t, "h", p.ID)

	p, err = m.GetOrCreateProject(context.Background(), "Errands")
	require.NoError(t, err)
	assert.Equal(t, "p-Errands", p.ID)
	assert.Len(t, api.projects, 2)
}

func TestCreateAndDeleteProject(t *testing.T) {
	api := newFakeAPI()
	m := newTestManager(api)

	_, err := m.CreateProject(context.Background(), " ", "")
	assert.Error(t, err)

	p, err := m.CreateProject(context.Background(), "Garden", "#00ff00")
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", p.Color)

	require.NoError(t, m.DeleteProject(context.Background(), "garden"))
	assert.Equal(t, []string{"p-Garden"}, api.deletedProj)
}

func TestProjectNames(t *testing.T) {
	names := ProjectNames([]ticktick.Project{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Beta"}})
	assert.Equal(t, map[string]string{"a": "Alpha", "b": "Beta"}, names)
}

func TestParseReminder(t *testing.T) {
	tests := map[string]string{
		"9:00":               "TRIGGER:P0DT9H0M0S",
		"9am":                "TRIGGER:P0DT9H0M0S",
		"0":                  "TRIGGER:PT0S",
		" NOW ":              "TRIGGER:PT0S",
		"whenever":           "TRIGGER:P0DT9H0M0S",
		"trigger:-pt30m":     "TRIGGER:-PT30M",
		"TRIGGER:P0DT8H0M0S": "TRIGGER:P0DT8H0M0S",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseReminder(in))
		})
	}
}

func TestUpdateProjectAndData(t *testing.T) {
	api := newFakeAPI(ticktick.Project{ID: "p1", Name: "Work"})
	api.addTasks("p1", ticktick.Task{ID: "t1"})
	m := newTestManager(api)

	_, err := m.UpdateProject(context.Background(), "work", ticktick.ProjectUpdate{})
	assert.Error(t, err)

	p, err := m.UpdateProject(context.Background(), "work", ticktick.ProjectUpdate{ViewMode: ticktick.Ptr("kanban")})
	require.NoError(t, err)
	assert.Equal(t, "kanban", p.ViewMode)

	data, err := m.ProjectData(context.Background(), "Work")
	require.NoError(t, err)
	assert.Len(t, data.Tasks, 1)
}
