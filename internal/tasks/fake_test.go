package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/ticktask/internal/ticktick"
)

// fakeAPI is an in-memory API. Methods are safe for concurrent use.
type fakeAPI struct {
	mu          sync.Mutex
	projects    []ticktick.Project
	tasks       map[string][]ticktick.Task
	created     []ticktick.TaskCreate
	updated     []ticktick.TaskUpdate
	completed   []TaskRef
	deleted     []TaskRef
	deletedProj []string
	failDataFor map[string]error
	failDone    map[string]error
}

func newFakeAPI(projects ...ticktick.Project) *fakeAPI {
	return &fakeAPI{
		projects:    projects,
		tasks:       map[string][]ticktick.Task{},
		failDataFor: map[string]error{},
		failDone:    map[string]error{},
	}
}

func (f *fakeAPI) addTasks(projectID string, tasks ...ticktick.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range tasks {
		tasks[i].ProjectID = projectID
	}
	f.tasks[projectID] = append(f.tasks[projectID], tasks...)
}

func (f *fakeAPI) ListProjects(context.Context) ([]ticktick.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ticktick.Project(nil), f.projects...), nil
}

func (f *fakeAPI) GetProjectData(_ context.Context, projectID string) (*ticktick.ProjectData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDataFor[projectID]; err != nil {
		return nil, err
	}
	return &ticktick.ProjectData{Tasks: append([]ticktick.Task(nil), f.tasks[projectID]...)}, nil
}

func (f *fakeAPI) CreateProject(_ context.Context, in ticktick.ProjectCreate) (*ticktick.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := ticktick.Project{ID: "p-" + in.Name, Name: in.Name}
	if in.Color != nil {
		p.Color = *in.Color
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeAPI) UpdateProject(_ context.Context, projectID string, in ticktick.ProjectUpdate) (*ticktick.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.projects {
		if f.projects[i].ID != projectID {
			continue
		}
		if in.Name != nil {
			f.projects[i].Name = *in.Name
		}
		if in.Color != nil {
			f.projects[i].Color = *in.Color
		}
		if in.ViewMode != nil {
			f.projects[i].ViewMode = *in.ViewMode
		}
		p := f.projects[i]
		return &p, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) DeleteProject(_ context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedProj = append(f.deletedProj, projectID)
	return nil
}

func (f *fakeAPI) GetTask(_ context.Context, projectID, taskID string) (*ticktick.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tasks[projectID] {
		if t.ID == taskID {
			return &t, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) CreateTask(_ context.Context, in ticktick.TaskCreate) (*ticktick.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return &ticktick.Task{ID: "new-task", ProjectID: in.ProjectID, Title: in.Title}, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, in ticktick.TaskUpdate) (*ticktick.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, in)
	return &ticktick.Task{ID: in.ID, ProjectID: in.ProjectID}, nil
}

func (f *fakeAPI) CompleteTask(_ context.Context, projectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failDone[taskID]; err != nil {
		return err
	}
	f.completed = append(f.completed, TaskRef{ProjectID: projectID, TaskID: taskID})
	return nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, projectID, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, TaskRef{ProjectID: projectID, TaskID: taskID})
	return nil
}
