package analytics

import (
	"sort"
	"testing"
	"time"

	"ledger-service/internal/model"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestBuildChartWeek(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(PeriodWeek, now)

	entries := []model.FinancialLog{
		{Type: model.LogTypeIncome, TotalAmount: 100, CreatedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		{Type: model.LogTypeIncome, TotalAmount: 50, CreatedAt: time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)},
		{Type: model.LogTypeExpense, TotalAmount: 30, CreatedAt: time.Date(2025, 6, 12, 8, 0, 0, 0, time.UTC)},
	}

	points := BuildChart(entries, PeriodWeek, w)
	if len(points) != 7 {
		t.Fatalf("got %d buckets, want 7", len(points))
	}

	byLabel := map[string]ChartPoint{}
	for _, p := range points {
		byLabel[p.Period] = p
	}
	if got := byLabel["10"]; got.Income != 150 || got.Expense != 0 {
		t.Errorf("day 10: income %.2f expense %.2f, want 150/0", got.Income, got.Expense)
	}
	if got := byLabel["12"]; got.Expense != 30 || got.Net != -30 {
		t.Errorf("day 12: expense %.2f net %.2f, want 30/-30", got.Expense, got.Net)
	}
	// Empty days stay at zero rather than being dropped.
	if got := byLabel["11"]; got.Income != 0 || got.Expense != 0 {
		t.Errorf("day 11 should be a zero bucket, got %+v", got)
	}
}

func TestBuildChartUsesTransactionDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(PeriodMonth, now)

	entries := []model.FinancialLog{
		{
			Type:            model.LogTypeIncome,
			TotalAmount:     200,
			TransactionDate: datePtr(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)),
			CreatedAt:       time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
		},
	}

	points := BuildChart(entries, PeriodMonth, w)
	for _, p := range points {
		switch p.Period {
		case "03":
			if p.Income != 200 {
				t.Errorf("bucket 03 income = %.2f, want 200", p.Income)
			}
		case "14":
			if p.Income != 0 {
				t.Errorf("bucket 14 should be empty, creation date must not win")
			}
		}
	}
}

func TestBuildChartYear(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(PeriodYear, now)

	entries := []model.FinancialLog{
		{Type: model.LogTypeIncome, TotalAmount: 500, CreatedAt: time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)},
		{Type: model.LogTypeExpense, TotalAmount: 120, CreatedAt: time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)},
		// Before the window start, must be silently skipped.
		{Type: model.LogTypeIncome, TotalAmount: 999, CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	points := BuildChart(entries, PeriodYear, w)
	if len(points) != 12 {
		t.Fatalf("got %d buckets, want 12", len(points))
	}
	if points[0].Period != "2024-07" || points[len(points)-1].Period != "2025-06" {
		t.Errorf("bucket range %s..%s, want 2024-07..2025-06", points[0].Period, points[len(points)-1].Period)
	}

	if !sort.SliceIsSorted(points, func(i, j int) bool { return points[i].Period < points[j].Period }) {
		t.Error("buckets must be sorted by label")
	}

	var total float64
	for _, p := range points {
		total += p.Income
	}
	if total != 500 {
		t.Errorf("out-of-window entries leaked in: total income %.2f, want 500", total)
	}
}

func TestBuildChartYearBucketCap(t *testing.T) {
	// A degenerate window far wider than a year must still stop at the cap.
	w := Window{
		Start: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	points := BuildChart(nil, PeriodYear, w)
	if len(points) > maxYearBuckets {
		t.Errorf("got %d buckets, cap is %d", len(points), maxYearBuckets)
	}
}

func TestBuildChartEmpty(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	w := ResolveWindow(PeriodWeek, now)
	points := BuildChart(nil, PeriodWeek, w)
	if len(points) != 7 {
		t.Fatalf("got %d buckets, want 7", len(points))
	}
	for _, p := range points {
		if p.Income != 0 || p.Expense != 0 || p.Net != 0 {
			t.Errorf("bucket %s not zero: %+v", p.Period, p)
		}
	}
}
