package tasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/didagoals/internal/host"
)

// Task status values.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// toContainer converts a task list.
func toContainer(tl *tasks.TaskList) host.Container {
	if tl == nil {
		return host.Container{}
	}
	return host.Container{ID: tl.Id, Name: tl.Title}
}

// toItem converts a task of list listID.
func toItem(t *tasks.Task, listID string, loc *time.Location) host.Item {
	if t == nil {
		return host.Item{}
	}

	item := host.Item{
		ID:          t.Id,
		ContainerID: listID,
		Title:       t.Title,
		Content:     t.Notes,
		Completed:   t.Status == StatusCompleted,
		DueDate:     parseDue(t.Due, loc),
		ModifiedAt:  parseTimestamp(t.Updated),
	}
	item.CreatedAt = item.ModifiedAt
	if t.Completed != nil {
		item.CompletedAt = parseTimestamp(*t.Completed)
	}
	return item
}

// formatDue encodes the calendar date of due. The API ignores the time part.
func formatDue(due time.Time) string {
	y, m, d := due.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

func parseDue(s string, loc *time.Location) *time.Time {
	t := parseTimestamp(s)
	if t == nil {
		return nil
	}
	y, m, d := t.UTC().Date()
	due := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return &due
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
