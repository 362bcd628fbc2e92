package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/ticktick"
)

// ErrProjectNotFound is returned when a project reference matches neither an
// ID nor a name.
var ErrProjectNotFound = errors.New("project not found")

// ListProjects returns all projects.
func (m *Manager) ListProjects(ctx context.Context) ([]ticktick.Project, error) {
	return m.api.ListProjects(ctx)
}

// FindProject looks a project up by exact ID or case-insensitive name.
// IDs win over names.
func FindProject(projects []ticktick.Project, ref string) (ticktick.Project, bool) {
	for _, p := range projects {
		if p.ID == ref {
			return p, true
		}
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	return ticktick.Project{}, false
}

// ResolveProjectID turns an ID or name into a project ID.
func (m *Manager) ResolveProjectID(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("project is required")
	}

	projects, err := m.api.ListProjects(ctx)
	if err != nil {
		return "", err
	}
	if p, ok := FindProject(projects, ref); ok {
		return p.ID, nil
	}
	return "", fmt.Errorf("%w: %s", ErrProjectNotFound, ref)
}

// CreateProject creates a project.
func (m *Manager) CreateProject(ctx context.Context, name, color string) (*ticktick.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project name is required")
	}
	in := ticktick.ProjectCreate{Name: name}
	if color != "" {
		in.Color = ticktick.Ptr(color)
	}
	p, err := m.api.CreateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	m.logger.Info("created project", logging.Project(p.ID), "name", p.Name)
	return p, nil
}

// ProjectData returns a project with its tasks and columns.
func (m *Manager) ProjectData(ctx context.Context, ref string) (*ticktick.ProjectData, error) {
	id, err := m.ResolveProjectID(ctx, ref)
	if err != nil {
		return nil, err
	}
	return m.api.GetProjectData(ctx, id)
}

// UpdateProject applies a partial update to a project referenced by ID or name.
func (m *Manager) UpdateProject(ctx context.Context, ref string, in ticktick.ProjectUpdate) (*ticktick.Project, error) {
	if in.Name == nil && in.Color == nil && in.ViewMode == nil && in.Kind == nil {
		return nil, errors.New("nothing to update")
	}
	id, err := m.ResolveProjectID(ctx, ref)
	if err != nil {
		return nil, err
	}
	p, err := m.api.UpdateProject(ctx, id, in)
	if err != nil {
		return nil, err
	}
	m.logger.Info("updated project", logging.Project(id))
	return p, nil
}

// GetOrCreateProject returns the project with the given name, creating it if needed.
func (m *Manager) GetOrCreateProject(ctx context.Context, name string) (*ticktick.Project, error) {
	projects, err := m.api.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return m.CreateProject(ctx, name, "")
}

// DeleteProject deletes a project by ID or name.
func (m *Manager) DeleteProject(ctx context.Context, ref string) error {
	id, err := m.ResolveProjectID(ctx, ref)
	if err != nil {
		return err
	}
	if err := m.api.DeleteProject(ctx, id); err != nil {
		return err
	}
	m.logger.Info("deleted project", logging.Project(id))
	return nil
}

// ProjectNames maps project IDs to names.
func ProjectNames(projects []ticktick.Project) map[string]string {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names
}
