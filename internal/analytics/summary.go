package analytics

import (
	"math"
	"sort"

	"ledger-service/internal/model"
)

// Totals are the headline sums for one window.
type Totals struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetBalance   float64 `json:"net_balance"`
	ProfitMargin float64 `json:"profit_margin"`
	TotalLogs    int     `json:"total_logs"`
}

// Summarize computes the totals for a set of entries. An empty set
// yields all zeros; a zero income yields a zero profit margin rather
// than a division error.
func Summarize(entries []model.FinancialLog) Totals {
	var t Totals
	for i := range entries {
		if entries[i].Type == model.LogTypeIncome {
			t.TotalIncome += entries[i].TotalAmount
		} else {
			t.TotalExpense += entries[i].TotalAmount
		}
		t.TotalLogs++
	}
	t.NetBalance = t.TotalIncome - t.TotalExpense
	if t.TotalIncome > 0 {
		t.ProfitMargin = (t.TotalIncome - t.TotalExpense) / t.TotalIncome * 100
	}
	return t
}

// Growth is the percentage change of a metric between a window and the
// immediately preceding one. A zero previous value maps to 100 when the
// metric appeared and 0 when it stayed absent; otherwise the delta is
// taken against the previous magnitude.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / math.Abs(previous) * 100
}

// GrowthRates are the per-metric growth percentages of a summary.
type GrowthRates struct {
	Income     float64 `json:"income"`
	Expense    float64 `json:"expense"`
	NetBalance float64 `json:"net_balance"`
}

// GrowthBetween derives growth rates from the current and previous
// window totals.
func GrowthBetween(current, previous Totals) GrowthRates {
	return GrowthRates{
		Income:     Growth(current.TotalIncome, previous.TotalIncome),
		Expense:    Growth(current.TotalExpense, previous.TotalExpense),
		NetBalance: Growth(current.NetBalance, previous.NetBalance),
	}
}

// OrgTotals is one row of the per-organization breakdown.
type OrgTotals struct {
	OrganizationID uint    `json:"id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	TotalIncome    float64 `json:"total_income"`
	TotalExpense   float64 `json:"total_expense"`
	NetBalance     float64 `json:"net_balance"`
	LogCount       int     `json:"log_count"`
}

// BreakdownByOrganization groups entry totals per owning organization.
// Only organizations with at least one entry in scope get a row, so a
// single-tenant scope yields at most one.
func BreakdownByOrganization(entries []model.FinancialLog, orgs map[uint]model.Organization) []OrgTotals {
	byOrg := map[uint]*OrgTotals{}
	for i := range entries {
		row, ok := byOrg[entries[i].OrganizationID]
		if !ok {
			row = &OrgTotals{OrganizationID: entries[i].OrganizationID}
			if org, found := orgs[entries[i].OrganizationID]; found {
				row.Name = org.Name
				row.Slug = org.Slug
			}
			byOrg[entries[i].OrganizationID] = row
		}
		if entries[i].Type == model.LogTypeIncome {
			row.TotalIncome += entries[i].TotalAmount
		} else {
			row.TotalExpense += entries[i].TotalAmount
		}
		row.LogCount++
	}

	rows := make([]OrgTotals, 0, len(byOrg))
	for _, row := range byOrg {
		row.NetBalance = row.TotalIncome - row.TotalExpense
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].OrganizationID < rows[j].OrganizationID
	})
	return rows
}
