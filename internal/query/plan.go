package query

import (
	"slices"
	"time"

	"github.com/teemow/ticktask/internal/ticktick"
)

// Dedup drops repeated task IDs, keeping the first occurrence and the order
// of the rest. Tasks without an ID are kept.
func Dedup(tasks []ticktick.Task) []ticktick.Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]ticktick.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != "" {
			if _, dup := seen[t.ID]; dup {
				continue
			}
			seen[t.ID] = struct{}{}
		}
		out = append(out, t)
	}
	return out
}

// SortForPlan orders tasks in place: higher priority first, then earlier due
// date, with undated tasks after all dated ones. Ties keep their input order.
func SortForPlan(tasks []ticktick.Task) {
	slices.SortStableFunc(tasks, comparePlan)
}

func comparePlan(a, b ticktick.Task) int {
	if a.Priority != b.Priority {
		if a.Priority > b.Priority {
			return -1
		}
		return 1
	}

	aDue, aOK := a.Due()
	bDue, bOK := b.Due()
	switch {
	case aOK && !bOK:
		return -1
	case !aOK && bOK:
		return 1
	case !aOK && !bOK:
		return 0
	}
	return aDue.Compare(bDue)
}

// Plan collects the tasks of each bucket in order, dedups them by ID and
// sorts the result for a daily plan.
func Plan(tasks []ticktick.Task, buckets []Bucket, now time.Time) []ticktick.Task {
	var collected []ticktick.Task
	for _, b := range buckets {
		collected = append(collected, FilterDue(tasks, b, now)...)
	}
	planned := Dedup(collected)
	SortForPlan(planned)
	return planned
}
