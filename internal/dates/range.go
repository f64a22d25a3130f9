package dates

import (
	"fmt"
	"time"
)

// Period names accepted by Range.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Range returns the first and last calendar day of the period containing ref.
// Weeks start on Monday.
func Range(period string, ref time.Time) (time.Time, time.Time, error) {
	ref = Day(ref)
	loc := ref.Location()

	switch period {
	case PeriodDay:
		return ref, ref, nil
	case PeriodWeek:
		offset := (int(ref.Weekday()) + 6) % 7
		start := AddDays(ref, -offset)
		return start, AddDays(start, 6), nil
	case PeriodMonth:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, -1), nil
	case PeriodYear:
		return time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, loc),
			time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
}

// InRange reports whether the calendar day of t falls within [start, end].
func InRange(t, start, end time.Time) bool {
	return DaysBetween(start, t) >= 0 && DaysBetween(t, end) >= 0
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
