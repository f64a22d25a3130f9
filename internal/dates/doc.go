// Package dates provides calendar-date helpers shared by the goal and
// analytics packages: lenient date parsing, period ranges, day arithmetic
// and habit frequency expressions such as "weekly:1,3,5".
//
// All values are calendar dates represented as time.Time at midnight in the
// caller's location. Day differences are computed on the calendar, so they
// are not affected by daylight saving transitions.
package dates
