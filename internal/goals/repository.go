package goals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/didagoals/internal/dates"
	"github.com/teemow/didagoals/internal/events"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/progress"
	"github.com/teemow/didagoals/internal/relevance"
)

// DefaultContainerName is the host container that holds goal tasks.
const DefaultContainerName = "🎯 目标管理"

// CreateRequest holds the fields of a new goal. Dates are calendar date
// strings; keywords are comma separated.
type CreateRequest struct {
	Title       string
	Type        Type
	Keywords    string
	Description string
	DueDate     string
	StartDate   string
	Frequency   string
}

// Patch is a partial goal update. Nil fields keep their current value; an
// empty DueDate clears it.
type Patch struct {
	Title       *string
	Type        *Type
	Status      *Status
	Keywords    *string
	Description *string
	DueDate     *string
	StartDate   *string
	Frequency   *string
	Progress    *int
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	Type     Type
	Status   Status
	Keywords string
}

// SkippedItem describes a container item that could not be read as a goal.
type SkippedItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// ListResult is the outcome of List: the goals read plus the items that
// were skipped.
type ListResult struct {
	Goals   []Goal        `json:"goals"`
	Skipped []SkippedItem `json:"skipped,omitempty"`
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLocation sets the time zone used for calendar dates.
func WithLocation(loc *time.Location) Option {
	return func(r *Repository) { r.loc = loc }
}

// WithContainerName overrides DefaultContainerName.
func WithContainerName(name string) Option {
	return func(r *Repository) { r.containerName = name }
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(r *Repository) { r.events = p }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// WithSkipHook registers a callback invoked for every skipped item.
func WithSkipHook(fn func(ctx context.Context, item SkippedItem)) Option {
	return func(r *Repository) { r.onSkip = fn }
}

// Repository provides CRUD over goals stored as host tasks.
type Repository struct {
	source        host.Source
	store         progress.Store
	events        events.Publisher
	logger        logging.Logger
	now           func() time.Time
	loc           *time.Location
	containerName string
	onSkip        func(context.Context, SkippedItem)
}

// NewRepository returns a Repository over source, keeping progress in store.
func NewRepository(source host.Source, store progress.Store, opts ...Option) *Repository {
	r := &Repository{
		source:        source,
		store:         store,
		events:        events.Nop{},
		logger:        logging.DefaultLogger(),
		now:           time.Now,
		loc:           time.Local,
		containerName: DefaultContainerName,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the time zone used for calendar dates.
func (r *Repository) Location() *time.Location { return r.loc }

// Today returns the current calendar day.
func (r *Repository) Today() time.Time { return dates.Day(r.now().In(r.loc)) }

// ContainerName returns the configured goal container name.
func (r *Repository) ContainerName() string { return r.containerName }

// FindContainer locates the goal container without creating it. It returns
// nil when none exists.
//
// Lookup order: exact name, then a name containing both "目标" and "🎯",
// then any name containing "目标".
func (r *Repository) FindContainer(ctx context.Context) (*host.Container, error) {
	containers, err := r.source.ListContainers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}
	return pickGoalContainer(containers, r.containerName), nil
}

func pickGoalContainer(containers []host.Container, name string) *host.Container {
	matchers := []func(string) bool{
		func(n string) bool { return n == name },
		func(n string) bool { return strings.Contains(n, "目标") && strings.Contains(n, "🎯") },
		func(n string) bool { return strings.Contains(n, "目标") },
	}
	for _, match := range matchers {
		for i := range containers {
			if match(containers[i].Name) {
				c := containers[i]
				return &c
			}
		}
	}
	return nil
}

func (r *Repository) ensureContainer(ctx context.Context) (*host.Container, error) {
	c, err := r.FindContainer(ctx)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	r.logger.Info("creating goal container", "name", r.containerName)
	c, err = r.source.CreateContainer(ctx, r.containerName)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal container: %w", err)
	}
	return c, nil
}

// Create validates req and stores a new goal.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Goal, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("title", "title is required")
	}
	due, err := r.validate(req.Type, req.DueDate, req.StartDate, req.Frequency)
	if err != nil {
		return nil, err
	}

	g := &Goal{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Keywords:    relevance.JoinKeywords(relevance.NormalizeKeywords(req.Keywords)),
		StartDate:   normalizeDate(req.StartDate),
		Frequency:   normalizeFrequency(req.Frequency),
	}
	content, err := g.content()
	if err != nil {
		return nil, err
	}

	c, err := r.ensureContainer(ctx)
	if err != nil {
		return nil, err
	}

	item, err := r.source.CreateItem(ctx, c.ID, host.ItemInput{
		Title:    req.Title,
		Content:  content,
		DueDate:  due,
		Priority: DefaultPriority,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create goal task: %w", err)
	}
	if item.ContainerID == "" {
		item.ContainerID = c.ID
	}

	created, err := FromItem(*item, r.loc, r.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to read created goal: %w", err)
	}
	r.publish(ctx, events.GoalCreated, created)
	return created, nil
}

// List returns the goals matching f. Items that cannot be decoded are
// skipped and reported in the result.
func (r *Repository) List(ctx context.Context, f Filter) (*ListResult, error) {
	result := &ListResult{Goals: []Goal{}}

	c, err := r.FindContainer(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return result, nil
	}

	items, err := r.source.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal tasks: %w", err)
	}

	terms := relevance.NormalizeKeywords(f.Keywords)
	today := r.Today()

	for _, item := range items {
		g, err := FromItem(item, r.loc, today)
		if err != nil {
			skipped := SkippedItem{ID: item.ID, Title: item.Title, Reason: err.Error()}
			r.logger.Warn("skipping malformed goal task",
				logging.KeyGoalID, item.ID, logging.KeyError, err.Error())
			result.Skipped = append(result.Skipped, skipped)
			if r.onSkip != nil {
				r.onSkip(ctx, skipped)
			}
			continue
		}
		if g.ContainerID == "" {
			g.ContainerID = c.ID
		}
		if f.Type != "" && g.Type != f.Type {
			continue
		}
		if f.Status != "" && g.Status != f.Status {
			continue
		}
		if len(terms) > 0 && !matchesTerms(g, terms) {
			continue
		}
		r.fillProgress(ctx, g)
		result.Goals = append(result.Goals, *g)
	}

	return result, nil
}

func matchesTerms(g *Goal, terms []string) bool {
	title := relevance.Fold(g.Title)
	own := make(map[string]bool)
	for _, k := range g.KeywordList() {
		own[k] = true
	}
	for _, t := range terms {
		if strings.Contains(title, relevance.Fold(t)) || own[t] {
			return true
		}
	}
	return false
}

// Get returns the goal with the given ID. Tasks outside the goal container
// are reported as not found.
func (r *Repository) Get(ctx context.Context, id string) (*Goal, error) {
	g, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	r.fillProgress(ctx, g)
	return g, nil
}

func (r *Repository) find(ctx context.Context, id string) (*Goal, error) {
	if id == "" {
		return nil, invalid("goal_id", "goal id is required")
	}
	c, err := r.FindContainer(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{ID: id}
	}

	items, err := r.source.ListItems(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goal tasks: %w", err)
	}
	for _, item := range items {
		if item.ID != id {
			continue
		}
		if item.ContainerID == "" {
			item.ContainerID = c.ID
		}
		if item.ContainerID != c.ID {
			break
		}
		g, err := FromItem(item, r.loc, r.Today())
		if err != nil {
			return nil, fmt.Errorf("failed to read goal %s: %w", id, err)
		}
		return g, nil
	}
	return nil, &NotFoundError{ID: id}
}

// Update applies p to the goal with the given ID.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (*Goal, error) {
	current, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	if p.Title != nil {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, invalid("title", "title must not be empty")
		}
		next.Title = *p.Title
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.Keywords != nil {
		next.Keywords = relevance.JoinKeywords(relevance.NormalizeKeywords(*p.Keywords))
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.DueDate != nil {
		next.DueDate = *p.DueDate
	}
	if p.StartDate != nil {
		next.StartDate = normalizeDate(*p.StartDate)
	}
	if p.Frequency != nil {
		next.Frequency = normalizeFrequency(*p.Frequency)
	}
	if p.Status != nil && *p.Status != StatusActive && *p.Status != StatusCompleted {
		return nil, invalid("status", "must be active or completed, got %q", *p.Status)
	}
	if p.Progress != nil && (*p.Progress < 0 || *p.Progress > 100) {
		return nil, invalid("progress", "must be between 0 and 100, got %d", *p.Progress)
	}

	due, err := r.validate(next.Type, next.DueDate, next.StartDate, next.Frequency)
	if err != nil {
		return nil, err
	}
	content, err := next.content()
	if err != nil {
		return nil, err
	}

	patch := host.ItemPatch{Title: &next.Title, Content: &content}
	if p.DueDate != nil {
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}
	if p.Status != nil && *p.Status == StatusActive && current.Status != StatusActive {
		completed := false
		patch.Completed = &completed
	}

	item, err := r.source.UpdateItem(ctx, current.ContainerID, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal task: %w", err)
	}
	completed := current.Status == StatusCompleted
	if p.Status != nil {
		completed = *p.Status == StatusCompleted
	}
	if completed && current.Status != StatusCompleted {
		if err := r.source.MarkComplete(ctx, current.ContainerID, id); err != nil {
			return nil, fmt.Errorf("failed to complete goal task: %w", err)
		}
	}
	if p.Progress != nil {
		if err := r.recordProgress(ctx, id, *p.Progress, ""); err != nil {
			return nil, err
		}
	}

	// Hosts may stop listing completed tasks, so the result is built from
	// the written state rather than read back.
	merged := host.Item{ID: id, Priority: current.Priority, CreatedAt: current.CreatedTime}
	if item != nil {
		merged = *item
		merged.ID = id
	}
	if merged.ContainerID == "" {
		merged.ContainerID = current.ContainerID
	}
	merged.Title = next.Title
	merged.Content = content
	merged.Completed = completed
	merged.DueDate = due

	updated, err := FromItem(merged, r.loc, r.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to read goal %s: %w", id, err)
	}
	r.fillProgress(ctx, updated)
	r.publish(ctx, events.GoalUpdated, updated)
	return updated, nil
}

// Delete removes the goal and its progress history.
func (r *Repository) Delete(ctx context.Context, id string) error {
	g, err := r.find(ctx, id)
	if err != nil {
		return err
	}
	if err := r.source.DeleteItem(ctx, g.ContainerID, id); err != nil {
		return fmt.Errorf("failed to delete goal task: %w", err)
	}
	if err := r.store.Forget(ctx, id); err != nil {
		r.logger.Warn("failed to forget goal progress", logging.KeyGoalID, id, logging.KeyError, err.Error())
	}
	r.publish(ctx, events.GoalDeleted, g)
	return nil
}

// RecordProgress appends a progress observation for the goal.
func (r *Repository) RecordProgress(ctx context.Context, id string, pct int, note string) (*Goal, error) {
	if pct < 0 || pct > 100 {
		return nil, invalid("progress", "must be between 0 and 100, got %d", pct)
	}
	g, err := r.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.recordProgress(ctx, id, pct, note); err != nil {
		return nil, err
	}
	g.Progress = pct
	r.publish(ctx, events.GoalProgress, g)
	return g, nil
}

// ProgressHistory returns the recorded progress of a goal, oldest first.
func (r *Repository) ProgressHistory(ctx context.Context, id string) ([]progress.Record, error) {
	return r.store.History(ctx, id)
}

func (r *Repository) recordProgress(ctx context.Context, id string, pct int, note string) error {
	err := r.store.Record(ctx, progress.Record{
		GoalID:     id,
		Progress:   pct,
		Note:       note,
		RecordedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to record progress: %w", err)
	}
	return nil
}

func (r *Repository) fillProgress(ctx context.Context, g *Goal) {
	rec, err := r.store.Latest(ctx, g.ID)
	if err != nil {
		r.logger.Warn("failed to read goal progress", logging.KeyGoalID, g.ID, logging.KeyError, err.Error())
		return
	}
	if rec != nil {
		g.Progress = rec.Progress
	}
}

// validate checks the type-dependent fields and returns the parsed due date.
func (r *Repository) validate(t Type, due, start, frequency string) (*time.Time, error) {
	if !t.Valid() {
		return nil, invalid("type", "must be one of phase, permanent, habit, got %q", t)
	}

	var dueDate *time.Time
	if due != "" {
		d, err := dates.Parse(due, r.loc)
		if err != nil {
			return nil, invalid("due_date", "%v", err)
		}
		dueDate = &d
	}
	if start != "" {
		if _, err := dates.Parse(start, r.loc); err != nil {
			return nil, invalid("start_date", "%v", err)
		}
	}
	if frequency != "" {
		if _, err := dates.ParseFrequency(frequency); err != nil {
			return nil, invalid("frequency", "%v", err)
		}
	}

	switch t {
	case TypePhase:
		if dueDate == nil {
			return nil, invalid("due_date", "phase goals require a due date")
		}
	case TypeHabit:
		if frequency == "" {
			return nil, invalid("frequency", "habit goals require a frequency")
		}
	}
	return dueDate, nil
}

func (r *Repository) publish(ctx context.Context, t events.Type, g *Goal) {
	evt := events.New(t, g.ID, r.now())
	evt.Title = g.Title
	evt.Status = string(g.Status)
	evt.Progress = g.Progress
	if err := r.events.Publish(ctx, evt); err != nil {
		r.logger.Warn("failed to publish goal event",
			logging.KeyGoalID, g.ID, "event", string(t), logging.KeyError, err.Error())
	}
}

func normalizeDate(s string) string {
	if n, err := dates.Normalize(s); err == nil {
		return n
	}
	return strings.TrimSpace(s)
}

func normalizeFrequency(s string) string {
	if f, err := dates.ParseFrequency(s); err == nil {
		return f.String()
	}
	return strings.TrimSpace(s)
}
