package analytics

import (
	"sort"
	"time"

	"ledger-service/internal/model"
)

const (
	defaultComparisonDays = 30
	maxComparisonDays     = 365
)

// ClampDays normalizes the comparison lookback, defaulting to 30 days
// and capping at a year.
func ClampDays(days int) int {
	if days <= 0 {
		return defaultComparisonDays
	}
	if days > maxComparisonDays {
		return maxComparisonDays
	}
	return days
}

// OrgActivity is one organization's recent-activity row.
type OrgActivity struct {
	OrganizationID        uint       `json:"organization_id"`
	Name                  string     `json:"organization_name"`
	Slug                  string     `json:"organization_slug"`
	IsCenter              bool       `json:"is_center"`
	LogCount              int        `json:"log_count"`
	LastActivity          *time.Time `json:"last_activity"`
	Status                string     `json:"status"`
	DaysSinceLastActivity *int       `json:"days_since_last_activity"`
}

// ComparisonSummary counts organizations by activity status.
type ComparisonSummary struct {
	TotalOrganizations    int `json:"total_organizations"`
	ActiveOrganizations   int `json:"active_organizations"`
	InactiveOrganizations int `json:"inactive_organizations"`
}

// CompareOrganizations builds the per-organization activity view: every
// organization appears, with the count of entries created inside the
// lookback window and the time of the most recent one. An organization
// with no entries in the window is INACTIVE and has a nil
// days-since-last-activity.
func CompareOrganizations(orgs []model.Organization, counts map[uint]int, lastActivity map[uint]time.Time, now time.Time) ([]OrgActivity, ComparisonSummary) {
	rows := make([]OrgActivity, 0, len(orgs))
	var summary ComparisonSummary
	for i := range orgs {
		row := OrgActivity{
			OrganizationID: orgs[i].ID,
			Name:           orgs[i].Name,
			Slug:           orgs[i].Slug,
			IsCenter:       orgs[i].IsCenter,
			LogCount:       counts[orgs[i].ID],
			Status:         "INACTIVE",
		}
		if last, ok := lastActivity[orgs[i].ID]; ok {
			t := last
			row.LastActivity = &t
			days := int(now.Sub(last).Hours() / 24)
			row.DaysSinceLastActivity = &days
		}
		if row.LogCount > 0 {
			row.Status = "ACTIVE"
			summary.ActiveOrganizations++
		} else {
			summary.InactiveOrganizations++
		}
		summary.TotalOrganizations++
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].LogCount > rows[j].LogCount
	})
	return rows, summary
}
