package goals

import (
	"fmt"
	"time"

	"github.com/teemow/didagoals/internal/dates"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/relevance"
)

// Type is the kind of goal.
type Type string

const (
	TypePhase     Type = "phase"
	TypePermanent Type = "permanent"
	TypeHabit     Type = "habit"
	// TypeProjectBased marks goals derived from whole host containers. They
	// are never stored by the repository.
	TypeProjectBased Type = "project_based"
)

// Valid reports whether t can be stored on a goal.
func (t Type) Valid() bool {
	switch t {
	case TypePhase, TypePermanent, TypeHabit:
		return true
	}
	return false
}

// Status is derived from the host completion flag, or from the container
// state for project-based goals.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// DefaultPriority is the host priority given to new goals.
const DefaultPriority = 3

// Goal is a tracked objective backed by a host task.
type Goal struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Type           Type              `json:"type"`
	Status         Status            `json:"status"`
	Keywords       string            `json:"keywords"`
	StartDate      string            `json:"start_date,omitempty"`
	DueDate        string            `json:"due_date,omitempty"`
	Frequency      string            `json:"frequency,omitempty"`
	NextOccurrence string            `json:"next_occurrence,omitempty"`
	Progress       int               `json:"progress"`
	Priority       int               `json:"priority"`
	ContainerID    string            `json:"container_id"`
	CreatedTime    *time.Time        `json:"created_time,omitempty"`
	ModifiedTime   *time.Time        `json:"modified_time,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// KeywordList returns the goal keywords as a slice.
func (g *Goal) KeywordList() []string {
	return relevance.NormalizeKeywords(g.Keywords)
}

// metadata returns the fields stored in the content block.
func (g *Goal) metadata() map[string]string {
	fields := make(map[string]string, len(g.Extra)+len(knownKeys))
	for k, v := range g.Extra {
		fields[k] = v
	}
	fields[KeyType] = string(g.Type)
	fields[KeyKeywords] = g.Keywords
	fields[KeyStartDate] = g.StartDate
	fields[KeyFrequency] = g.Frequency
	return fields
}

// content renders the full host task content for g.
func (g *Goal) content() (string, error) {
	block, err := EncodeMetadata(g.metadata())
	if err != nil {
		return "", err
	}
	return ComposeContent(g.Description, block), nil
}

// FromItem decodes a host item into a Goal. Dates are rendered in loc and
// today anchors the next occurrence of habit goals.
func FromItem(item host.Item, loc *time.Location, today time.Time) (*Goal, error) {
	desc, block := SplitContent(item.Content)
	fields := DecodeMetadata(block)

	g := &Goal{
		ID:           item.ID,
		Title:        item.Title,
		Description:  desc,
		Type:         TypePermanent,
		Status:       StatusActive,
		Keywords:     relevance.JoinKeywords(relevance.NormalizeKeywords(fields[KeyKeywords])),
		StartDate:    fields[KeyStartDate],
		Frequency:    fields[KeyFrequency],
		Priority:     item.Priority,
		ContainerID:  item.ContainerID,
		CreatedTime:  item.CreatedAt,
		ModifiedTime: item.ModifiedAt,
	}
	if item.Completed {
		g.Status = StatusCompleted
	}
	if t := fields[KeyType]; t != "" {
		g.Type = Type(t)
		if !g.Type.Valid() {
			return nil, fmt.Errorf("unknown goal type %q", t)
		}
	}
	if g.StartDate != "" {
		if _, err := dates.Parse(g.StartDate, loc); err != nil {
			return nil, fmt.Errorf("bad start date: %w", err)
		}
	}
	if item.DueDate != nil {
		g.DueDate = dates.Format(item.DueDate.In(loc))
	}
	if g.Frequency != "" {
		freq, err := dates.ParseFrequency(g.Frequency)
		if err != nil {
			return nil, fmt.Errorf("bad frequency: %w", err)
		}
		if g.Type == TypeHabit && g.Status == StatusActive {
			if next, ok := freq.Next(today.In(loc)); ok {
				g.NextOccurrence = dates.Format(next)
			}
		}
	}

	for k, v := range fields {
		if !isKnownKey(k) {
			if g.Extra == nil {
				g.Extra = make(map[string]string)
			}
			g.Extra[k] = v
		}
	}
	return g, nil
}
