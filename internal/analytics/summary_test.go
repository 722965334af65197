package analytics

import (
	"math"
	"testing"

	"ledger-service/internal/model"
)

func TestSummarize(t *testing.T) {
	entries := []model.FinancialLog{
		{Type: model.LogTypeIncome, TotalAmount: 1000},
		{Type: model.LogTypeIncome, TotalAmount: 500},
		{Type: model.LogTypeExpense, TotalAmount: 600},
	}
	got := Summarize(entries)
	if got.TotalIncome != 1500 || got.TotalExpense != 600 {
		t.Errorf("totals = %.2f/%.2f, want 1500/600", got.TotalIncome, got.TotalExpense)
	}
	if got.NetBalance != 900 {
		t.Errorf("net = %.2f, want 900", got.NetBalance)
	}
	if math.Abs(got.ProfitMargin-60) > 1e-9 {
		t.Errorf("margin = %.4f, want 60", got.ProfitMargin)
	}
	if got.TotalLogs != 3 {
		t.Errorf("count = %d, want 3", got.TotalLogs)
	}
}

func TestSummarizeZeroIncome(t *testing.T) {
	entries := []model.FinancialLog{
		{Type: model.LogTypeExpense, TotalAmount: 300},
	}
	got := Summarize(entries)
	if got.ProfitMargin != 0 {
		t.Errorf("margin with zero income = %.2f, want 0", got.ProfitMargin)
	}
	if got.NetBalance != -300 {
		t.Errorf("net = %.2f, want -300", got.NetBalance)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got != (Totals{}) {
		t.Errorf("empty input must yield zero totals, got %+v", got)
	}
}

func TestGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		want     float64
	}{
		{"both zero", 0, 0, 0},
		{"appeared from nothing", 500, 0, 100},
		{"doubled", 200, 100, 100},
		{"halved", 50, 100, -50},
		{"unchanged", 100, 100, 0},
		{"negative previous uses its magnitude", -50, -100, 50},
		{"recovered from loss", 100, -100, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Growth(tt.current, tt.previous)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Growth(%.2f, %.2f) = %.4f, want %.4f", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestGrowthBetween(t *testing.T) {
	current := Totals{TotalIncome: 2000, TotalExpense: 500, NetBalance: 1500}
	previous := Totals{TotalIncome: 1000, TotalExpense: 1000, NetBalance: 0}
	got := GrowthBetween(current, previous)
	if got.Income != 100 {
		t.Errorf("income growth = %.2f, want 100", got.Income)
	}
	if got.Expense != -50 {
		t.Errorf("expense growth = %.2f, want -50", got.Expense)
	}
	if got.NetBalance != 100 {
		t.Errorf("net growth from zero = %.2f, want 100", got.NetBalance)
	}
}

func TestBreakdownByOrganization(t *testing.T) {
	orgs := map[uint]model.Organization{
		1: {ID: 1, Name: "Pusat", Slug: "pusat"},
		2: {ID: 2, Name: "Cabang Timur", Slug: "cabang-timur"},
	}
	entries := []model.FinancialLog{
		{OrganizationID: 2, Type: model.LogTypeIncome, TotalAmount: 700},
		{OrganizationID: 1, Type: model.LogTypeIncome, TotalAmount: 1000},
		{OrganizationID: 1, Type: model.LogTypeExpense, TotalAmount: 400},
	}

	rows := BreakdownByOrganization(entries, orgs)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].OrganizationID != 1 || rows[1].OrganizationID != 2 {
		t.Errorf("rows must be ordered by organization id: %+v", rows)
	}
	if rows[0].NetBalance != 600 || rows[0].LogCount != 2 {
		t.Errorf("org 1: net %.2f count %d, want 600/2", rows[0].NetBalance, rows[0].LogCount)
	}
	if rows[1].Name != "Cabang Timur" || rows[1].TotalIncome != 700 {
		t.Errorf("org 2 row wrong: %+v", rows[1])
	}
}

func TestBreakdownSkipsQuietOrganizations(t *testing.T) {
	orgs := map[uint]model.Organization{
		1: {ID: 1, Name: "Pusat", Slug: "pusat"},
		2: {ID: 2, Name: "Quiet", Slug: "quiet"},
	}
	entries := []model.FinancialLog{
		{OrganizationID: 1, Type: model.LogTypeIncome, TotalAmount: 10},
	}
	rows := BreakdownByOrganization(entries, orgs)
	if len(rows) != 1 {
		t.Fatalf("organizations without entries must not get a row, got %d", len(rows))
	}
}
