package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for one ID.
type Result struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Results   []Result `json:"results"`
}

// ParseIDs reads a tool argument that is either a string or an array of
// strings. A string may hold several comma-separated IDs. Duplicates are
// dropped, keeping the first occurrence.
func ParseIDs(arg any, name string) ([]string, error) {
	var raw []string
	switch v := arg.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", name)
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or an array of strings", name)
	}

	seen := make(map[string]bool, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", name)
	}
	return ids, nil
}

// Run calls fn for each ID in order. Once ctx is done the remaining IDs are
// recorded as failed without calling fn.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) Summary {
	s := Summary{Total: len(ids), Results: make([]Result, 0, len(ids))}
	for _, id := range ids {
		var (
			msg string
			err = ctx.Err()
		)
		if err == nil {
			msg, err = fn(ctx, id)
		}

		if err != nil {
			s.Failed++
			s.Results = append(s.Results, Result{ID: id, Status: StatusError, Error: err.Error()})
			continue
		}
		s.Succeeded++
		s.Results = append(s.Results, Result{ID: id, Status: StatusSuccess, Message: msg})
	}
	return s
}

// Err joins the failures, or returns nil if every ID succeeded.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Status == StatusError {
			errs = append(errs, fmt.Errorf("%s: %s", r.ID, r.Error))
		}
	}
	return errors.Join(errs...)
}

// JSON renders the summary for a tool result.
func (s Summary) JSON() string {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
