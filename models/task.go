package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task describes one entry of the static task catalog. Completion state is
// never stored on the task itself; it is derived from the user record at
// render time.
type Task struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Icon   string `json:"icon,omitempty"`
	Points int    `json:"points"`
	URL    string `json:"url,omitempty"`
}

// Actionable reports whether the task can ever be clicked. Tasks without a
// target URL, or with the placeholder "#", are rendered but permanently inert.
func (t Task) Actionable() bool {
	u := strings.TrimSpace(t.URL)
	return u != "" && u != "#"
}

// AssignTaskIDs fills in missing identifiers. IDs are generated client-side
// and stay stable for the lifetime of the session.
func AssignTaskIDs(tasks []Task) {
	for i := range tasks {
		if strings.TrimSpace(tasks[i].ID) == "" {
			tasks[i].ID = "task_" + uuid.NewString()
		}
	}
}

// CompletedToday reports whether the record's completion timestamp for the
// task has a date prefix equal to the current UTC date (YYYY-MM-DD). Absent
// timestamps are never completed.
func CompletedToday(record *UserRecord, taskID string, now time.Time) bool {
	if record == nil {
		return false
	}
	ts, ok := record.LastTasksCompletion[taskID]
	if !ok {
		return false
	}
	today := now.UTC().Format("2006-01-02")
	return strings.HasPrefix(ts, today)
}

// FindTask returns the catalog entry with the given identifier.
func FindTask(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
