package dates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FrequencyKind is the recurrence unit of a habit.
type FrequencyKind string

const (
	Daily   FrequencyKind = "daily"
	Weekly  FrequencyKind = "weekly"
	Monthly FrequencyKind = "monthly"
)

// Frequency is a parsed recurrence expression.
//
// Days holds ISO weekdays (1 = Monday, 7 = Sunday) for weekly frequencies
// and days of the month for monthly ones. It is sorted and deduplicated.
type Frequency struct {
	Kind FrequencyKind
	Days []int
}

// ParseFrequency parses "daily", "weekly:1,3,5" or "monthly:1,15".
func ParseFrequency(expr string) (Frequency, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		return Frequency{}, fmt.Errorf("empty frequency")
	}
	if expr == string(Daily) {
		return Frequency{Kind: Daily}, nil
	}

	kind, list, ok := strings.Cut(expr, ":")
	if !ok {
		return Frequency{}, fmt.Errorf("invalid frequency %q", expr)
	}

	var max int
	switch FrequencyKind(kind) {
	case Weekly:
		max = 7
	case Monthly:
		max = 31
	default:
		return Frequency{}, fmt.Errorf("invalid frequency %q", expr)
	}

	seen := make(map[int]bool)
	var days []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Frequency{}, fmt.Errorf("invalid frequency %q: %w", expr, err)
		}
		if n < 1 || n > max {
			return Frequency{}, fmt.Errorf("invalid frequency %q: day %d out of range 1-%d", expr, n, max)
		}
		if !seen[n] {
			seen[n] = true
			days = append(days, n)
		}
	}
	sort.Ints(days)

	return Frequency{Kind: FrequencyKind(kind), Days: days}, nil
}

// String renders the frequency in its expression form.
func (f Frequency) String() string {
	if f.Kind == Daily || len(f.Days) == 0 {
		return string(f.Kind)
	}
	parts := make([]string, len(f.Days))
	for i, d := range f.Days {
		parts[i] = strconv.Itoa(d)
	}
	return string(f.Kind) + ":" + strings.Join(parts, ",")
}

// Matches reports whether day is an occurrence of the frequency.
func (f Frequency) Matches(day time.Time) bool {
	switch f.Kind {
	case Daily:
		return true
	case Weekly:
		return contains(f.Days, isoWeekday(day))
	case Monthly:
		return contains(f.Days, day.Day())
	}
	return false
}

// Next returns the first occurrence strictly after ref. Monthly days beyond
// the end of a month are clamped to its last day.
func (f Frequency) Next(ref time.Time) (time.Time, bool) {
	ref = Day(ref)

	switch f.Kind {
	case Daily:
		return AddDays(ref, 1), true

	case Weekly:
		if len(f.Days) == 0 {
			return time.Time{}, false
		}
		cur := isoWeekday(ref)
		for _, d := range f.Days {
			if d > cur {
				return AddDays(ref, d-cur), true
			}
		}
		return AddDays(ref, 7-cur+f.Days[0]), true

	case Monthly:
		if len(f.Days) == 0 {
			return time.Time{}, false
		}
		last := DaysInMonth(ref.Year(), ref.Month())
		for _, d := range f.Days {
			if d > ref.Day() {
				if d > last {
					d = last
				}
				if d > ref.Day() {
					return time.Date(ref.Year(), ref.Month(), d, 0, 0, 0, 0, ref.Location()), true
				}
			}
		}
		first := time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, ref.Location())
		d := f.Days[0]
		if max := DaysInMonth(first.Year(), first.Month()); d > max {
			d = max
		}
		return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, ref.Location()), true
	}

	return time.Time{}, false
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func contains(days []int, n int) bool {
	for _, d := range days {
		if d == n {
			return true
		}
	}
	return false
}
