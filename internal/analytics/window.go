// Package analytics is the aggregation engine behind the dashboard
// views. Every function here is pure: it folds rows that the caller has
// already fetched and scope-filtered, and takes the reference time as an
// explicit argument so tests can pin it.
package analytics

import (
	"time"
)

// Period names a reporting window.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod maps a query value to a known period, defaulting to month.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s)
	}
	return PeriodMonth
}

// Window is a concrete [Start, End] timestamp range derived from a
// named period.
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ResolveWindow turns a named period into a concrete window ending now.
//
//	week:  the last 7 calendar days including today, from start of day
//	month: day 1 of the current month, start of day
//	year:  day 1 of the month 11 months back (a trailing 12-month
//	       window, not calendar year to date)
func ResolveWindow(p Period, now time.Time) Window {
	switch p {
	case PeriodWeek:
		return Window{Start: startOfDay(now.AddDate(0, 0, -6)), End: now}
	case PeriodYear:
		y, m := now.Year(), int(now.Month())-11
		return Window{Start: time.Date(y, time.Month(m), 1, 0, 0, 0, 0, now.Location()), End: now}
	default:
		return Window{Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), End: now}
	}
}

// PreviousWindow returns the equal-length window immediately preceding
// w: it ends one millisecond before w starts and is not calendar
// aligned.
func PreviousWindow(w Window) Window {
	end := w.Start.Add(-time.Millisecond)
	return Window{Start: end.Add(-w.Duration()), End: end}
}
