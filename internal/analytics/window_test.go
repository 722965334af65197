package analytics

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
	}{
		{"week", PeriodWeek},
		{"month", PeriodMonth},
		{"year", PeriodYear},
		{"", PeriodMonth},
		{"quarter", PeriodMonth},
	}
	for _, tt := range tests {
		if got := ParsePeriod(tt.in); got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    Period
		wantStart time.Time
	}{
		{
			name:      "week covers the last 7 calendar days",
			period:    PeriodWeek,
			wantStart: time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "month starts on day 1",
			period:    PeriodMonth,
			wantStart: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "year is a trailing 12-month window",
			period:    PeriodYear,
			wantStart: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveWindow(tt.period, now)
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(now) {
				t.Errorf("End = %v, want %v", w.End, now)
			}
		})
	}
}

func TestPreviousWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	w := ResolveWindow(PeriodMonth, now)
	prev := PreviousWindow(w)

	wantEnd := w.Start.Add(-time.Millisecond)
	if !prev.End.Equal(wantEnd) {
		t.Errorf("End = %v, want %v", prev.End, wantEnd)
	}
	if prev.Duration() != w.Duration() {
		t.Errorf("Duration = %v, want %v", prev.Duration(), w.Duration())
	}
	if !prev.End.Before(w.Start) {
		t.Error("previous window must end before the current one starts")
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	if !w.Contains(w.Start) || !w.Contains(w.End) {
		t.Error("window bounds are inclusive")
	}
	if w.Contains(w.Start.Add(-time.Nanosecond)) {
		t.Error("before start must be outside")
	}
	if w.Contains(w.End.Add(time.Nanosecond)) {
		t.Error("after end must be outside")
	}
}
