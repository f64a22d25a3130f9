// Package prediction projects goal completion from partial progress.
//
// Predict compares actual progress with the linear expectation between a
// start and due date, classifies the trend and extrapolates a completion
// date from the average daily rate so far.
package prediction

import (
	"math"
	"time"

	"github.com/teemow/didagoals/internal/dates"
	"github.com/teemow/didagoals/internal/goals"
)

// Status classifies a prediction.
type Status string

const (
	StatusAhead        Status = "ahead"
	StatusOnTrack      Status = "on_track"
	StatusBehind       Status = "behind"
	StatusOverdue      Status = "overdue"
	StatusMissingDates Status = "missing_dates"
	StatusInvalidDates Status = "invalid_dates"
	StatusNotFound     Status = "not_found"
)

var messages = map[Status]string{
	StatusAhead:        "进度超前",
	StatusOnTrack:      "进度正常",
	StatusBehind:       "进度滞后",
	StatusOverdue:      "目标已逾期",
	StatusMissingDates: "目标缺少开始日期或截止日期，无法预测",
	StatusInvalidDates: "目标日期格式无效",
	StatusNotFound:     "目标不存在",
}

// Trend thresholds in percentage points of actual minus expected progress.
const (
	aheadThreshold  = 10
	behindThreshold = -20
)

// Input holds what a prediction needs. Dates are calendar days; Today must
// be in the same location as Start and Due.
type Input struct {
	Start    *time.Time
	Due      *time.Time
	Progress int
	Today    time.Time
}

// Result is the outcome of a prediction.
type Result struct {
	Status           Status  `json:"status"`
	Message          string  `json:"message"`
	CurrentProgress  int     `json:"current_progress"`
	ExpectedProgress int     `json:"expected_progress"`
	TotalDays        int     `json:"total_days"`
	ElapsedDays      int     `json:"elapsed_days"`
	RemainingDays    int     `json:"remaining_days"`
	CompletionDate   *string `json:"completion_date"`
}

// StatusOnly returns a Result carrying just a status and its message.
func StatusOnly(s Status) Result {
	return Result{Status: s, Message: messages[s]}
}

// Predict computes expected progress, trend and projected completion.
func Predict(in Input) Result {
	if in.Start == nil || in.Due == nil {
		return StatusOnly(StatusMissingDates)
	}

	p := clamp(in.Progress, 0, 100)
	today := dates.Day(in.Today)
	start := dates.Day(*in.Start)
	due := dates.Day(*in.Due)

	r := Result{
		CurrentProgress: p,
		TotalDays:       max(0, dates.DaysBetween(start, due)),
		ElapsedDays:     max(0, dates.DaysBetween(start, today)),
		RemainingDays:   max(0, dates.DaysBetween(today, due)),
	}

	if dates.DaysBetween(due, today) > 0 {
		r.Status = StatusOverdue
		r.Message = messages[StatusOverdue]
		r.ExpectedProgress = 100
		return r
	}

	if r.TotalDays > 0 {
		r.ExpectedProgress = min(100, int(math.Round(100*float64(r.ElapsedDays)/float64(r.TotalDays))))
	} else {
		r.ExpectedProgress = 100
	}

	switch diff := p - r.ExpectedProgress; {
	case diff >= aheadThreshold:
		r.Status = StatusAhead
	case diff <= behindThreshold:
		r.Status = StatusBehind
	default:
		r.Status = StatusOnTrack
	}
	r.Message = messages[r.Status]

	switch {
	case p >= 100:
		d := dates.Format(today)
		r.CompletionDate = &d
	case p > 0 && r.ElapsedDays > 0:
		rate := float64(p) / float64(r.ElapsedDays)
		days := int(math.Round(float64(100-p) / rate))
		d := dates.Format(dates.AddDays(today, max(0, days)))
		r.CompletionDate = &d
	}

	return r
}

// ForGoal predicts a goal's completion. Goals without both a start and a due
// date report missing_dates; unparsable dates report invalid_dates.
func ForGoal(g *goals.Goal, today time.Time) Result {
	if g.StartDate == "" || g.DueDate == "" {
		return StatusOnly(StatusMissingDates)
	}
	loc := today.Location()
	start, err := dates.Parse(g.StartDate, loc)
	if err != nil {
		return StatusOnly(StatusInvalidDates)
	}
	due, err := dates.Parse(g.DueDate, loc)
	if err != nil {
		return StatusOnly(StatusInvalidDates)
	}
	return Predict(Input{Start: &start, Due: &due, Progress: g.Progress, Today: today})
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
