package dida

import (
	"strings"
	"time"

	"github.com/teemow/didagoals/internal/host"
)

// DateLayout is the wire format of every Dida365 timestamp.
const DateLayout = "2006-01-02T15:04:05.000-0700"

const (
	statusOpen      = 0
	statusCompleted = 2
)

type project struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Closed bool   `json:"closed,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

type projectData struct {
	Project project `json:"project"`
	Tasks   []task  `json:"tasks"`
}

type task struct {
	ID            string `json:"id"`
	ProjectID     string `json:"projectId"`
	Title         string `json:"title"`
	Content       string `json:"content,omitempty"`
	DueDate       string `json:"dueDate,omitempty"`
	IsAllDay      bool   `json:"isAllDay,omitempty"`
	TimeZone      string `json:"timeZone,omitempty"`
	Priority      int    `json:"priority"`
	Status        int    `json:"status"`
	CompletedTime string `json:"completedTime,omitempty"`
	CreatedTime   string `json:"createdTime,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
}

type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func (p project) container() host.Container {
	return host.Container{ID: p.ID, Name: p.Name, Closed: p.Closed}
}

func (t task) item() host.Item {
	return host.Item{
		ID:          t.ID,
		ContainerID: t.ProjectID,
		Title:       t.Title,
		Content:     t.Content,
		DueDate:     parseTime(t.DueDate),
		Completed:   t.Status == statusCompleted,
		Priority:    t.Priority,
		CreatedAt:   parseTime(t.CreatedTime),
		ModifiedAt:  parseTime(t.ModifiedTime),
		CompletedAt: parseTime(t.CompletedTime),
	}
}

// parseTime accepts the wire layout plus RFC 3339, which some endpoints
// return. Unparseable values are dropped.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{DateLayout, "2006-01-02T15:04:05-0700", time.RFC3339Nano} {
		if t, err := time.Parse(layout, strings.Replace(s, "Z", "+0000", 1)); err == nil {
			return &t
		}
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
