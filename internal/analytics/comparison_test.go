package analytics

import (
	"testing"
	"time"

	"ledger-service/internal/model"
)

func TestClampDays(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 30},
		{-5, 30},
		{7, 7},
		{365, 365},
		{1000, 365},
	}
	for _, tt := range tests {
		if got := ClampDays(tt.in); got != tt.want {
			t.Errorf("ClampDays(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompareOrganizations(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	orgs := []model.Organization{
		{ID: 1, Name: "Pusat", Slug: "pusat", IsCenter: true},
		{ID: 2, Name: "Cabang", Slug: "cabang"},
		{ID: 3, Name: "Tidur", Slug: "tidur"},
	}
	counts := map[uint]int{1: 3, 2: 10}
	lastActivity := map[uint]time.Time{
		1: now.AddDate(0, 0, -2),
		2: now.Add(-3 * time.Hour),
	}

	rows, summary := CompareOrganizations(orgs, counts, lastActivity, now)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	// Sorted by log count, busiest first.
	if rows[0].OrganizationID != 2 || rows[1].OrganizationID != 1 || rows[2].OrganizationID != 3 {
		t.Fatalf("wrong order: %d, %d, %d", rows[0].OrganizationID, rows[1].OrganizationID, rows[2].OrganizationID)
	}

	if rows[0].Status != "ACTIVE" || rows[2].Status != "INACTIVE" {
		t.Errorf("statuses wrong: %q / %q", rows[0].Status, rows[2].Status)
	}
	if rows[1].DaysSinceLastActivity == nil || *rows[1].DaysSinceLastActivity != 2 {
		t.Errorf("days since for org 1 wrong: %v", rows[1].DaysSinceLastActivity)
	}
	if rows[0].DaysSinceLastActivity == nil || *rows[0].DaysSinceLastActivity != 0 {
		t.Errorf("same-day activity must floor to 0 days: %v", rows[0].DaysSinceLastActivity)
	}
	if rows[2].LastActivity != nil || rows[2].DaysSinceLastActivity != nil {
		t.Error("org with no activity must have nil last-activity fields")
	}

	if summary.TotalOrganizations != 3 || summary.ActiveOrganizations != 2 || summary.InactiveOrganizations != 1 {
		t.Errorf("summary wrong: %+v", summary)
	}
}

func TestCompareOrganizationsEmpty(t *testing.T) {
	rows, summary := CompareOrganizations(nil, nil, nil, time.Now())
	if len(rows) != 0 {
		t.Errorf("no orgs must yield no rows, got %d", len(rows))
	}
	if summary != (ComparisonSummary{}) {
		t.Errorf("summary must be zero, got %+v", summary)
	}
}
