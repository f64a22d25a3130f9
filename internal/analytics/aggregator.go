// Package analytics computes statistics over goals and tasks.
//
// Analytics are advisory: when the host cannot be reached every operation
// degrades to zero-valued results and logs a warning instead of failing.
package analytics

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/teemow/didagoals/internal/dates"
	"github.com/teemow/didagoals/internal/goals"
	"github.com/teemow/didagoals/internal/host"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/prediction"
	"github.com/teemow/didagoals/internal/progress"
	"github.com/teemow/didagoals/internal/relevance"
)

// Defaults for operations called with non-positive sizes.
const (
	DefaultTaskWindowDays = 30
	DefaultKeywordLimit   = 20
	MaxRelatedTasks       = 50
)

// GoalStore is the part of the goal repository analytics read from.
type GoalStore interface {
	List(ctx context.Context, f goals.Filter) (*goals.ListResult, error)
	FindContainer(ctx context.Context) (*host.Container, error)
	ProgressHistory(ctx context.Context, goalID string) ([]progress.Record, error)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

// WithLocation sets the time zone used to bucket timestamps into days.
func WithLocation(loc *time.Location) Option { return func(a *Aggregator) { a.loc = loc } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(a *Aggregator) { a.logger = l } }

// WithAnalyzer sets the text analyzer used for keywords.
func WithAnalyzer(an *relevance.Analyzer) Option { return func(a *Aggregator) { a.analyzer = an } }

// Aggregator computes goal and task statistics.
type Aggregator struct {
	repo     GoalStore
	source   host.Source
	analyzer *relevance.Analyzer
	logger   logging.Logger
	now      func() time.Time
	loc      *time.Location
	cache    *Cache
}

// NewAggregator returns an Aggregator reading goals from repo and tasks from
// source.
func NewAggregator(repo GoalStore, source host.Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		repo:     repo,
		source:   source,
		analyzer: relevance.Default(),
		logger:   logging.DefaultLogger(),
		now:      time.Now,
		loc:      time.Local,
		cache:    &Cache{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache exposes the aggregator's cache.
func (a *Aggregator) Cache() *Cache { return a.cache }

// Invalidate clears all cached collections.
func (a *Aggregator) Invalidate() { a.cache.Invalidate() }

func (a *Aggregator) today() time.Time { return dates.Day(a.now().In(a.loc)) }

// GoalStatistics summarizes all goals.
type GoalStatistics struct {
	Total          int            `json:"total"`
	ByType         map[string]int `json:"by_type"`
	ByStatus       map[string]int `json:"by_status"`
	CompletionRate float64        `json:"completion_rate"`
	AvgProgress    float64        `json:"avg_progress"`
}

// GoalStatistics counts goals by type and status. Completed and archived
// goals both count towards the completion rate.
func (a *Aggregator) GoalStatistics(ctx context.Context, force bool) GoalStatistics {
	gs := a.loadGoals(ctx, force)
	stats := GoalStatistics{
		Total:    len(gs),
		ByType:   map[string]int{},
		ByStatus: map[string]int{},
	}
	if len(gs) == 0 {
		return stats
	}

	done, sum := 0, 0
	for _, g := range gs {
		stats.ByType[string(g.Type)]++
		stats.ByStatus[string(g.Status)]++
		if g.Status == goals.StatusCompleted || g.Status == goals.StatusArchived {
			done++
		}
		sum += g.Progress
	}
	stats.CompletionRate = round2(float64(done) / float64(len(gs)) * 100)
	stats.AvgProgress = round2(float64(sum) / float64(len(gs)))
	return stats
}

// ProgressPoint is one entry of a goal's progress history.
type ProgressPoint struct {
	Date     string `json:"date"`
	Progress int    `json:"progress"`
	Note     string `json:"note,omitempty"`
}

// GoalProgress returns the goal's progress history, oldest first.
func (a *Aggregator) GoalProgress(ctx context.Context, goalID string) []ProgressPoint {
	records, err := a.repo.ProgressHistory(ctx, goalID)
	if err != nil {
		a.logger.Warn("failed to load progress history", logging.KeyGoalID, goalID, logging.KeyError, err.Error())
		return []ProgressPoint{}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.Before(records[j].RecordedAt)
	})
	out := make([]ProgressPoint, 0, len(records))
	for _, r := range records {
		out = append(out, ProgressPoint{
			Date:     r.RecordedAt.In(a.loc).Format(time.RFC3339),
			Progress: r.Progress,
			Note:     r.Note,
		})
	}
	return out
}

// DayCount is a per-day task histogram bucket.
type DayCount struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// TaskStatistics summarizes tasks created in a rolling window.
type TaskStatistics struct {
	Total             int                 `json:"total"`
	Completed         int                 `json:"completed"`
	CompletionRate    float64             `json:"completion_rate"`
	AvgCompletionTime float64             `json:"avg_completion_time"`
	ByDay             map[string]DayCount `json:"by_day"`
}

// TaskStatistics covers tasks created during the last days days, today
// included. The average completion time is in hours.
func (a *Aggregator) TaskStatistics(ctx context.Context, days int, force bool) TaskStatistics {
	if days <= 0 {
		days = DefaultTaskWindowDays
	}
	today := a.today()
	start := dates.AddDays(today, -(days - 1))

	stats := TaskStatistics{ByDay: make(map[string]DayCount, days)}
	for i := 0; i < days; i++ {
		stats.ByDay[dates.Format(dates.AddDays(start, i))] = DayCount{}
	}

	var hours []float64
	for _, t := range a.loadTasks(ctx, force) {
		if t.CreatedAt == nil {
			continue
		}
		created := t.CreatedAt.In(a.loc)
		if !dates.InRange(created, start, today) {
			continue
		}
		stats.Total++
		if t.Completed {
			stats.Completed++
			if t.CompletedAt != nil {
				hours = append(hours, t.CompletedAt.Sub(*t.CreatedAt).Hours())
			}
		}
		key := dates.Format(created)
		if bucket, ok := stats.ByDay[key]; ok {
			bucket.Total++
			if t.Completed {
				bucket.Completed++
			}
			stats.ByDay[key] = bucket
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = round2(float64(stats.Completed) / float64(stats.Total) * 100)
	}
	if len(hours) > 0 {
		var sum float64
		for _, h := range hours {
			sum += h
		}
		stats.AvgCompletionTime = round2(sum / float64(len(hours)))
	}
	return stats
}

// ExtractTaskKeywords returns the most frequent terms across all task
// titles and descriptions. Goal metadata blocks are ignored.
func (a *Aggregator) ExtractTaskKeywords(ctx context.Context, limit int, force bool) []relevance.TermCount {
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}
	tasks := a.loadTasks(ctx, force)
	texts := make([]string, 0, len(tasks))
	for _, t := range tasks {
		desc, _ := goals.SplitContent(t.Content)
		texts = append(texts, t.Title+" "+desc)
	}
	return a.analyzer.TopTerms(texts, limit)
}

// PredictGoalCompletion predicts the completion of a goal.
func (a *Aggregator) PredictGoalCompletion(ctx context.Context, goalID string, force bool) prediction.Result {
	g := a.findGoal(ctx, goalID, force)
	if g == nil {
		return prediction.StatusOnly(prediction.StatusNotFound)
	}
	return prediction.ForGoal(g, a.today())
}

// RelatedTask is a task listed in a goal report.
type RelatedTask struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ContainerID string     `json:"container_id"`
	Completed   bool       `json:"completed"`
	CreatedTime *time.Time `json:"created_time,omitempty"`
}

// Report statuses.
const (
	ReportSuccess = "success"
	ReportError   = "error"
)

// GoalReport bundles everything known about a goal.
type GoalReport struct {
	Status          string             `json:"status"`
	Message         string             `json:"message,omitempty"`
	Goal            *goals.Goal        `json:"goal,omitempty"`
	ProgressHistory []ProgressPoint    `json:"progress_history"`
	Prediction      *prediction.Result `json:"prediction,omitempty"`
	RelatedTasks    []RelatedTask      `json:"related_tasks"`
}

// GoalReport builds a report for a goal. Related tasks are the tasks of the
// goal's container for project-based goals, otherwise tasks mentioning one
// of the goal's keywords (or title words when it has none).
func (a *Aggregator) GoalReport(ctx context.Context, goalID string, force bool) GoalReport {
	g := a.findGoal(ctx, goalID, force)
	if g == nil {
		return GoalReport{Status: ReportError, Message: "目标不存在"}
	}

	pred := prediction.ForGoal(g, a.today())
	report := GoalReport{
		Status:          ReportSuccess,
		Goal:            g,
		ProgressHistory: a.GoalProgress(ctx, goalID),
		Prediction:      &pred,
		RelatedTasks:    []RelatedTask{},
	}

	var match func(t host.Item) bool
	if g.Type == goals.TypeProjectBased {
		match = func(t host.Item) bool { return t.ContainerID == g.ID }
	} else {
		kws := relatedKeywords(g)
		if len(kws) == 0 {
			return report
		}
		match = func(t host.Item) bool {
			return t.ID != g.ID && relevance.ContainsAny(t.Title+" "+t.Content, kws)
		}
	}

	for _, t := range a.loadTasks(ctx, force) {
		if len(report.RelatedTasks) >= MaxRelatedTasks {
			break
		}
		if match(t) {
			report.RelatedTasks = append(report.RelatedTasks, RelatedTask{
				ID:          t.ID,
				Title:       t.Title,
				ContainerID: t.ContainerID,
				Completed:   t.Completed,
				CreatedTime: t.CreatedAt,
			})
		}
	}
	return report
}

func relatedKeywords(g *goals.Goal) []string {
	candidates := g.KeywordList()
	if len(candidates) == 0 {
		candidates = strings.Fields(g.Title)
	}
	var out []string
	for _, k := range candidates {
		if utf8.RuneCountInString(k) > 1 {
			out = append(out, k)
		}
	}
	return out
}

// Period is an inclusive date range.
type Period struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// WeeklyGoals summarizes goals touched during the week.
type WeeklyGoals struct {
	TotalUpdated int     `json:"total_updated"`
	Completed    int     `json:"completed"`
	Active       int     `json:"active"`
	AvgProgress  float64 `json:"avg_progress"`
}

// WeeklyTasks summarizes tasks created during the week.
type WeeklyTasks struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completion_rate"`
}

// WeeklySummary reports on the current Monday to Sunday week.
type WeeklySummary struct {
	Period Period      `json:"period"`
	Goals  WeeklyGoals `json:"goals"`
	Tasks  WeeklyTasks `json:"tasks"`
}

// WeeklySummary counts goals modified and tasks created in the current week.
func (a *Aggregator) WeeklySummary(ctx context.Context, force bool) WeeklySummary {
	start, end, _ := dates.Range(dates.PeriodWeek, a.today())
	summary := WeeklySummary{Period: Period{StartDate: dates.Format(start), EndDate: dates.Format(end)}}

	sum := 0
	for _, g := range a.loadGoals(ctx, force) {
		if g.ModifiedTime == nil || !dates.InRange(g.ModifiedTime.In(a.loc), start, end) {
			continue
		}
		summary.Goals.TotalUpdated++
		sum += g.Progress
		switch g.Status {
		case goals.StatusCompleted, goals.StatusArchived:
			summary.Goals.Completed++
		case goals.StatusActive:
			summary.Goals.Active++
		}
	}
	if summary.Goals.TotalUpdated > 0 {
		summary.Goals.AvgProgress = round2(float64(sum) / float64(summary.Goals.TotalUpdated))
	}

	for _, t := range a.loadTasks(ctx, force) {
		if t.CreatedAt == nil || !dates.InRange(t.CreatedAt.In(a.loc), start, end) {
			continue
		}
		summary.Tasks.Total++
		if t.Completed {
			summary.Tasks.Completed++
		}
	}
	if summary.Tasks.Total > 0 {
		summary.Tasks.CompletionRate = round2(float64(summary.Tasks.Completed) / float64(summary.Tasks.Total) * 100)
	}
	return summary
}

func (a *Aggregator) findGoal(ctx context.Context, id string, force bool) *goals.Goal {
	for _, g := range a.loadGoals(ctx, force) {
		if g.ID == id {
			g := g
			return &g
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
