package ticktick

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority is the TickTick task priority.
type Priority int

const (
	PriorityNone   Priority = 0
	PriorityLow    Priority = 1
	PriorityMedium Priority = 3
	PriorityHigh   Priority = 5
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return strconv.Itoa(int(p))
	}
}

// ParsePriority accepts none/low/medium/high or the numeric values 0/1/3/5.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0":
		return PriorityNone, nil
	case "low", "1":
		return PriorityLow, nil
	case "medium", "3":
		return PriorityMedium, nil
	case "high", "5":
		return PriorityHigh, nil
	}
	return PriorityNone, fmt.Errorf("invalid priority %q, must be one of: none, low, medium, high", s)
}

// TaskStatus is the completion state of a task.
type TaskStatus int

const (
	StatusOpen      TaskStatus = 0
	StatusCompleted TaskStatus = 2
)

func (s TaskStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusCompleted:
		return "completed"
	default:
		return strconv.Itoa(int(s))
	}
}

// ParseTaskStatus accepts open/completed.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open", "normal", "0":
		return StatusOpen, nil
	case "completed", "done", "2":
		return StatusCompleted, nil
	}
	return StatusOpen, fmt.Errorf("invalid status %q, must be open or completed", s)
}

// ChecklistStatus is the state of a checklist item (subtask).
type ChecklistStatus int

const (
	ChecklistOpen      ChecklistStatus = 0
	ChecklistCompleted ChecklistStatus = 1
)

// WireTimeLayout is the date layout used by the API.
const WireTimeLayout = "2006-01-02T15:04:05-0700"

var parseLayouts = []string{
	WireTimeLayout,
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
}

// Time is a timestamp in the API wire format.
type Time struct {
	time.Time
}

// NewTime wraps t for use in a request payload.
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(WireTimeLayout))), nil
}

// UnmarshalJSON implements json.Unmarshaler. null and "" decode to the zero time.
func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid time %s: %w", data, err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range parseLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid time %q", s)
}

// ChecklistItem is a subtask.
type ChecklistItem struct {
	ID            string          `json:"id,omitempty"`
	Title         string          `json:"title"`
	Status        ChecklistStatus `json:"status"`
	CompletedTime *Time           `json:"completedTime,omitempty"`
	IsAllDay      bool            `json:"isAllDay,omitempty"`
	SortOrder     int64           `json:"sortOrder,omitempty"`
	StartDate     *Time           `json:"startDate,omitempty"`
	TimeZone      string          `json:"timeZone,omitempty"`
}

// Task is a TickTick task.
type Task struct {
	ID            string          `json:"id,omitempty"`
	ProjectID     string          `json:"projectId"`
	Title         string          `json:"title"`
	Content       string          `json:"content,omitempty"`
	Desc          string          `json:"desc,omitempty"`
	IsAllDay      bool            `json:"isAllDay"`
	StartDate     *Time           `json:"startDate,omitempty"`
	DueDate       *Time           `json:"dueDate,omitempty"`
	TimeZone      string          `json:"timeZone,omitempty"`
	Reminders     []string        `json:"reminders,omitempty"`
	RepeatFlag    string          `json:"repeatFlag,omitempty"`
	Priority      Priority        `json:"priority"`
	Status        TaskStatus      `json:"status"`
	CompletedTime *Time           `json:"completedTime,omitempty"`
	SortOrder     int64           `json:"sortOrder"`
	Items         []ChecklistItem `json:"items,omitempty"`
}

// Due returns the due date and whether the task has one.
func (t Task) Due() (time.Time, bool) {
	if t.DueDate == nil || t.DueDate.IsZero() {
		return time.Time{}, false
	}
	return t.DueDate.Time, true
}

// Completed returns the completion time and whether it is set.
func (t Task) Completed() (time.Time, bool) {
	if t.CompletedTime == nil || t.CompletedTime.IsZero() {
		return time.Time{}, false
	}
	return t.CompletedTime.Time, true
}

// IsCompleted reports whether the task is done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Project is a TickTick list.
type Project struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	SortOrder  int64  `json:"sortOrder"`
	Closed     bool   `json:"closed"`
	GroupID    string `json:"groupId,omitempty"`
	ViewMode   string `json:"viewMode,omitempty"`
	Permission string `json:"permission,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// Column is a kanban column of a project.
type Column struct {
	ID        string `json:"id,omitempty"`
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	SortOrder int64  `json:"sortOrder"`
}

// ProjectData is a project together with its undone tasks and columns.
type ProjectData struct {
	Project Project  `json:"project"`
	Tasks   []Task   `json:"tasks"`
	Columns []Column `json:"columns"`
}
