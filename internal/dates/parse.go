package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical wire format for calendar dates.
const Layout = "2006-01-02"

// accepted lists the date layouts Parse tries, in order. Day-first layouts
// win over month-first ones when both would match.
var accepted = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"01-02-2006",
	"01/02/2006",
	"01.02.2006",
}

// Parse parses s as a calendar date in loc. A nil loc means time.Local.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range accepted {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// Valid reports whether s parses as a calendar date.
func Valid(s string) bool {
	_, err := Parse(s, time.UTC)
	return err == nil
}

// Normalize parses s and re-renders it in Layout.
func Normalize(s string) (string, error) {
	t, err := Parse(s, time.UTC)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// Format renders t as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of calendar days from a to b (b - a).
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays moves t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
