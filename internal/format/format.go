package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/teemow/ticktask/internal/ticktick"
)

// Format is an output format for task lists.
type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	Markdown Format = "markdown"
)

// ParseFormat validates a format name. Empty means Table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Table, nil
	case Table, JSON, Markdown:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q, must be one of: table, json, markdown", s)
}

// Options controls how dates are shown.
type Options struct {
	// DateFormat and TimeFormat are Go time layouts.
	DateFormat string
	TimeFormat string
	// Location converts due dates before formatting. Nil keeps the wire zone.
	Location *time.Location
	// Projects maps project IDs to names.
	Projects map[string]string
}

func (o Options) dateFormat() string {
	if o.DateFormat == "" {
		return "2006-01-02"
	}
	return o.DateFormat
}

func (o Options) timeFormat() string {
	if o.TimeFormat == "" {
		return "15:04"
	}
	return o.TimeFormat
}

// Due formats a task's due date; all-day tasks omit the time.
func (o Options) Due(t ticktick.Task) string {
	due, ok := t.Due()
	if !ok {
		return ""
	}
	if o.Location != nil {
		due = due.In(o.Location)
	}
	if t.IsAllDay {
		return due.Format(o.dateFormat())
	}
	return due.Format(o.dateFormat() + " " + o.timeFormat())
}

func (o Options) project(id string) string {
	if name, ok := o.Projects[id]; ok {
		return name
	}
	return id
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	priorityStyles = map[ticktick.Priority]lipgloss.Style{
		ticktick.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		ticktick.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		ticktick.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// PriorityLabel returns the coloured priority name.
func PriorityLabel(p ticktick.Priority) string {
	if s, ok := priorityStyles[p]; ok {
		return s.Render(p.String())
	}
	return mutedStyle.Render(p.String())
}

// StatusLabel returns the coloured status name.
func StatusLabel(s ticktick.TaskStatus) string {
	if s == ticktick.StatusCompleted {
		return doneStyle.Render("✓ " + s.String())
	}
	return s.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// TasksTable writes tasks as a table.
func TasksTable(w io.Writer, tasks []ticktick.Task, opts Options) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No tasks found."))
		return err
	}

	t := newTable("ID", "Title", "Project", "Due", "Priority", "Status")
	for _, task := range tasks {
		t.Row(
			task.ID,
			task.Title,
			opts.project(task.ProjectID),
			opts.Due(task),
			PriorityLabel(task.Priority),
			StatusLabel(task.Status),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// ProjectsTable writes projects as a table.
func ProjectsTable(w io.Writer, projects []ticktick.Project) error {
	if len(projects) == 0 {
		_, err := fmt.Fprintln(w, mutedStyle.Render("No projects found."))
		return err
	}

	t := newTable("ID", "Name", "Color", "View", "Closed")
	for _, p := range projects {
		closed := ""
		if p.Closed {
			closed = "yes"
		}
		t.Row(p.ID, p.Name, p.Color, p.ViewMode, closed)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// TasksMarkdown writes tasks as a markdown checklist.
func TasksMarkdown(w io.Writer, tasks []ticktick.Task, opts Options) error {
	var b strings.Builder
	for _, task := range tasks {
		check := "[ ]"
		if task.IsCompleted() {
			check = "[x]"
		}
		fmt.Fprintf(&b, "- %s %s", check, task.Title)
		if name := opts.project(task.ProjectID); name != "" {
			fmt.Fprintf(&b, " (%s)", name)
		}
		if due := opts.Due(task); due != "" {
			fmt.Fprintf(&b, " 📅 %s", due)
		}
		if task.Priority != ticktick.PriorityNone {
			fmt.Fprintf(&b, " !%s", task.Priority)
		}
		b.WriteString("\n")
		for _, item := range task.Items {
			sub := "[ ]"
			if item.Status == ticktick.ChecklistCompleted {
				sub = "[x]"
			}
			fmt.Fprintf(&b, "  - %s %s\n", sub, item.Title)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// TasksJSON writes tasks as an indented JSON array.
func TasksJSON(w io.Writer, tasks []ticktick.Task) error {
	if tasks == nil {
		tasks = []ticktick.Task{}
	}
	return WriteJSON(w, tasks)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Tasks writes tasks in the given format.
func Tasks(w io.Writer, f Format, tasks []ticktick.Task, opts Options) error {
	switch f {
	case JSON:
		return TasksJSON(w, tasks)
	case Markdown:
		return TasksMarkdown(w, tasks, opts)
	default:
		return TasksTable(w, tasks, opts)
	}
}

// Heading renders a section title.
func Heading(s string) string {
	return headerStyle.Render(s)
}

// Success, Failure and Warning colour status messages.
func Success(s string) string { return doneStyle.Render(s) }
func Failure(s string) string { return errorStyle.Render(s) }
func Warning(s string) string { return warnStyle.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// RenderMarkdown renders md for the terminal. It returns md unchanged if
// rendering fails.
func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
