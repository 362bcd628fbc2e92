package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/ticktask/internal/ticktick"
)

// Bucket is a named due-date window.
type Bucket string

const (
	BucketToday    Bucket = "today"
	BucketTomorrow Bucket = "tomorrow"
	BucketWeek     Bucket = "week"
	BucketOverdue  Bucket = "overdue"
)

// Buckets lists the valid bucket names.
var Buckets = []Bucket{BucketToday, BucketTomorrow, BucketWeek, BucketOverdue}

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Buckets {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("invalid due filter %q, must be one of: today, tomorrow, week, overdue", s)
}

// Contains reports whether due falls in the bucket relative to now.
// Days are compared in now's location.
func (b Bucket) Contains(due, now time.Time) bool {
	dueDay := civilDay(due.In(now.Location()))
	today := civilDay(now)

	switch b {
	case BucketToday:
		return dueDay == today
	case BucketTomorrow:
		return dueDay == today+1
	case BucketWeek:
		return dueDay <= today+7
	case BucketOverdue:
		return dueDay < today
	}
	return false
}

// civilDay numbers calendar days so that consecutive dates differ by one.
func civilDay(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// Predicate combines the optional filters with AND semantics.
// A zero Predicate matches every task.
type Predicate struct {
	Due      Bucket
	Priority *ticktick.Priority
	Status   *ticktick.TaskStatus
}

// Match reports whether task satisfies every set filter. Tasks without a due
// date never match a due bucket.
func (p Predicate) Match(task ticktick.Task, now time.Time) bool {
	if p.Due != "" {
		due, ok := task.Due()
		if !ok || !p.Due.Contains(due, now) {
			return false
		}
	}
	if p.Priority != nil && task.Priority != *p.Priority {
		return false
	}
	if p.Status != nil && task.Status != *p.Status {
		return false
	}
	return true
}

// Filter returns the tasks matching p, preserving order. It does not dedup.
func Filter(tasks []ticktick.Task, p Predicate, now time.Time) []ticktick.Task {
	out := make([]ticktick.Task, 0, len(tasks))
	for _, t := range tasks {
		if p.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// FilterDue is Filter with only a due bucket.
func FilterDue(tasks []ticktick.Task, b Bucket, now time.Time) []ticktick.Task {
	return Filter(tasks, Predicate{Due: b}, now)
}

// CompletedOn returns the completed tasks whose completion time falls on
// now's calendar day.
func CompletedOn(tasks []ticktick.Task, now time.Time) []ticktick.Task {
	today := civilDay(now)
	var out []ticktick.Task
	for _, t := range tasks {
		if !t.IsCompleted() {
			continue
		}
		if done, ok := t.Completed(); ok && civilDay(done.In(now.Location())) == today {
			out = append(out, t)
		}
	}
	return out
}
