package obsidian

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/teemow/ticktask/internal/logging"
	"github.com/teemow/ticktask/internal/ticktick"
)

const (
	// SectionHeading starts the generated section in a daily note.
	SectionHeading = "## TickTick Task Log"

	DefaultDailyNotesPath = "Daily Notes"
	DefaultDateFormat     = "2006-01-02"
	DefaultTimeFormat     = "15:04"

	maxUpcoming = 5
)

// Exporter writes daily logs into a vault.
type Exporter struct {
	VaultPath      string
	DailyNotesPath string
	// DateFormat and TimeFormat are Go time layouts.
	DateFormat string
	TimeFormat string
	Now        func() time.Time
	Logger     *slog.Logger
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) dateFormat() string {
	if e.DateFormat == "" {
		return DefaultDateFormat
	}
	return e.DateFormat
}

func (e *Exporter) timeFormat() string {
	if e.TimeFormat == "" {
		return DefaultTimeFormat
	}
	return e.TimeFormat
}

// NotePath returns the daily note path for the given day.
func (e *Exporter) NotePath(day time.Time) string {
	dir := e.DailyNotesPath
	if dir == "" {
		dir = DefaultDailyNotesPath
	}
	return filepath.Join(e.VaultPath, dir, day.Format(e.dateFormat())+".md")
}

// ExportDailyLog renders tasks into today's daily note and returns its path.
// A missing note is created with a heading; an existing note gets the
// section appended, or replaced if it is already there.
func (e *Exporter) ExportDailyLog(tasks []ticktick.Task, projects []ticktick.Project) (string, error) {
	if e.VaultPath == "" {
		return "", errors.New("obsidian vault path is not configured")
	}

	now := e.now()
	path := e.NotePath(now)
	section := e.Render(tasks, projects)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create daily notes directory: %w", err)
	}

	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		body := fmt.Sprintf("# Daily Note - %s\n\n%s", now.Format(e.dateFormat()), section)
		err = os.WriteFile(path, []byte(body), 0o644)
	case err != nil:
		return "", fmt.Errorf("failed to read daily note: %w", err)
	default:
		err = os.WriteFile(path, []byte(MergeSection(string(existing), section)), 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write daily note: %w", err)
	}

	logging.OrDiscard(e.Logger).Info("exported daily log", "path", path, "tasks", len(tasks))
	return path, nil
}

// Render returns today's task log section without writing it.
func (e *Exporter) Render(tasks []ticktick.Task, projects []ticktick.Project) string {
	now := e.now()
	return RenderDailyLog(Group(tasks, now), projectNames(projects), now, e.dateFormat(), e.timeFormat())
}

// MergeSection inserts section into note. An existing task log section is
// replaced up to the next level-two heading; otherwise section is appended.
func MergeSection(note, section string) string {
	start := strings.Index(note, SectionHeading)
	if start < 0 {
		return note + "\n\n" + section
	}
	end := len(note)
	if i := strings.Index(note[start+len(SectionHeading):], "\n## "); i >= 0 {
		end = start + len(SectionHeading) + i
	}
	return note[:start] + section + note[end:]
}

// Groups splits tasks for the daily log.
type Groups struct {
	Completed []ticktick.Task
	Overdue   []ticktick.Task
	Today     []ticktick.Task
	Upcoming  []ticktick.Task
}

// Group sorts tasks into the log sections relative to now's calendar day.
// Open tasks without a due date are left out.
func Group(tasks []ticktick.Task, now time.Time) Groups {
	var g Groups
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	for _, t := range tasks {
		if t.IsCompleted() {
			g.Completed = append(g.Completed, t)
			continue
		}
		due, ok := t.Due()
		if !ok {
			continue
		}
		due = due.In(now.Location())
		switch {
		case due.Before(today):
			g.Overdue = append(g.Overdue, t)
		case due.Before(tomorrow):
			g.Today = append(g.Today, t)
		default:
			g.Upcoming = append(g.Upcoming, t)
		}
	}
	return g
}

// RenderDailyLog renders the markdown section.
func RenderDailyLog(g Groups, projects map[string]string, now time.Time, dateFormat, timeFormat string) string {
	var b strings.Builder
	b.WriteString(SectionHeading + "\n")
	fmt.Fprintf(&b, "\n*Generated at: %s*\n", now.Format(timeFormat))

	project := func(t ticktick.Task) string {
		if name, ok := projects[t.ProjectID]; ok {
			return name
		}
		return "Unknown"
	}
	dueLabel := func(t ticktick.Task) string {
		due, _ := t.Due()
		return due.In(now.Location()).Format(dateFormat)
	}

	if len(g.Completed) > 0 {
		b.WriteString("\n### ✅ Completed Tasks\n")
		for _, t := range g.Completed {
			fmt.Fprintf(&b, "- [x] %s (%s)%s\n", t.Title, project(t), priorityMarker(t.Priority))
			writeContent(&b, t)
		}
	}

	if len(g.Overdue) > 0 {
		b.WriteString("\n### ⚠️ Overdue Tasks\n")
		for _, t := range g.Overdue {
			fmt.Fprintf(&b, "- [ ] %s (%s) 📅 %s%s\n", t.Title, project(t), dueLabel(t), priorityMarker(t.Priority))
			writeContent(&b, t)
		}
	}

	if len(g.Today) > 0 {
		b.WriteString("\n### 📅 Today's Tasks\n")
		for _, t := range g.Today {
			fmt.Fprintf(&b, "- [ ] %s (%s)%s\n", t.Title, project(t), priorityMarker(t.Priority))
			writeContent(&b, t)
			for _, item := range t.Items {
				check := "[ ]"
				if item.Status == ticktick.ChecklistCompleted {
					check = "[x]"
				}
				fmt.Fprintf(&b, "  - %s %s\n", check, item.Title)
			}
		}
	}

	if len(g.Upcoming) > 0 {
		b.WriteString("\n### 📆 Upcoming Tasks\n")
		for i, t := range g.Upcoming {
			if i == maxUpcoming {
				break
			}
			fmt.Fprintf(&b, "- [ ] %s (%s) 📅 %s%s\n", t.Title, project(t), dueLabel(t), priorityMarker(t.Priority))
		}
	}

	b.WriteString("\n### 📊 Summary\n")
	fmt.Fprintf(&b, "- Total completed: %d\n", len(g.Completed))
	fmt.Fprintf(&b, "- Overdue: %d\n", len(g.Overdue))
	fmt.Fprintf(&b, "- Due today: %d\n", len(g.Today))
	fmt.Fprintf(&b, "- Upcoming: %d", len(g.Upcoming))
	return b.String()
}

func writeContent(b *strings.Builder, t ticktick.Task) {
	if t.Content != "" {
		fmt.Fprintf(b, "  - %s\n", t.Content)
	}
}

func priorityMarker(p ticktick.Priority) string {
	switch p {
	case ticktick.PriorityHigh:
		return " 🔴"
	case ticktick.PriorityMedium:
		return " 🟡"
	case ticktick.PriorityLow:
		return " 🔵"
	}
	return ""
}

func projectNames(projects []ticktick.Project) map[string]string {
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names
}
