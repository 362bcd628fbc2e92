package ticktick

// Ptr returns a pointer to v. It is a convenience for the optional fields of
// request payloads.
func Ptr[T any](v T) *T {
	return &v
}

// TaskCreate is the payload for creating a task. Nil fields are omitted.
type TaskCreate struct {
	Title      string          `json:"title"`
	ProjectID  string          `json:"projectId"`
	Content    *string         `json:"content,omitempty"`
	Desc       *string         `json:"desc,omitempty"`
	IsAllDay   *bool           `json:"isAllDay,omitempty"`
	StartDate  *Time           `json:"startDate,omitempty"`
	DueDate    *Time           `json:"dueDate,omitempty"`
	TimeZone   *string         `json:"timeZone,omitempty"`
	Reminders  []string        `json:"reminders,omitempty"`
	RepeatFlag *string         `json:"repeatFlag,omitempty"`
	Priority   *Priority       `json:"priority,omitempty"`
	SortOrder  *int64          `json:"sortOrder,omitempty"`
	Items      []ChecklistItem `json:"items,omitempty"`
}

// TaskUpdate is the payload for updating a task. ID and ProjectID are
// required; every other nil field is left unchanged.
type TaskUpdate struct {
	ID         string          `json:"id"`
	ProjectID  string          `json:"projectId"`
	Title      *string         `json:"title,omitempty"`
	Content    *string         `json:"content,omitempty"`
	Desc       *string         `json:"desc,omitempty"`
	IsAllDay   *bool           `json:"isAllDay,omitempty"`
	StartDate  *Time           `json:"startDate,omitempty"`
	DueDate    *Time           `json:"dueDate,omitempty"`
	TimeZone   *string         `json:"timeZone,omitempty"`
	Reminders  []string        `json:"reminders,omitempty"`
	RepeatFlag *string         `json:"repeatFlag,omitempty"`
	Priority   *Priority       `json:"priority,omitempty"`
	SortOrder  *int64          `json:"sortOrder,omitempty"`
	Items      []ChecklistItem `json:"items,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Content == nil && u.Desc == nil && u.IsAllDay == nil &&
		u.StartDate == nil && u.DueDate == nil && u.TimeZone == nil && u.Reminders == nil &&
		u.RepeatFlag == nil && u.Priority == nil && u.SortOrder == nil && u.Items == nil
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	Name     string  `json:"name"`
	Color    *string `json:"color,omitempty"`
	ViewMode string  `json:"viewMode"`
	Kind     string  `json:"kind"`
}

// ProjectUpdate is the payload for updating a project. Nil fields are left unchanged.
type ProjectUpdate struct {
	Name     *string `json:"name,omitempty"`
	Color    *string `json:"color,omitempty"`
	ViewMode *string `json:"viewMode,omitempty"`
	Kind     *string `json:"kind,omitempty"`
}
