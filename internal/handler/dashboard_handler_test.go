package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	gormtests "gorm.io/gorm/utils/tests"

	"ledger-service/internal/analytics"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
)

func identityContext(t *testing.T, id *policy.Identity) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != nil {
		c.Set("identity", *id)
	}
	return c, rec
}

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormtests.DummyDialector{}, &gorm.Config{DryRun: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestDashboardComparisonRequiresSuperAdmin(t *testing.T) {
	tests := []struct {
		name     string
		identity *policy.Identity
		wantCode int
	}{
		{
			name:     "staff is forbidden",
			identity: &policy.Identity{UserID: 1, OrganizationID: 1, Role: model.RoleStaff},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin is forbidden",
			identity: &policy.Identity{UserID: 2, OrganizationID: 1, Role: model.RoleAdminLini},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "missing identity is unauthorized",
			identity: nil,
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := identityContext(t, tt.identity)
			if err := DashboardComparison(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusForbidden &&
				!strings.Contains(rec.Body.String(), string(model.RoleSuperAdmin)) {
				t.Errorf("forbidden body should name the required role: %s", rec.Body.String())
			}
		})
	}
}

func TestExportRowsCarrySlug(t *testing.T) {
	logs := []model.FinancialLog{
		{
			Type:         model.LogTypeIncome,
			TotalAmount:  15000,
			Description:  "Penjualan pagi",
			CreatedAt:    time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC),
			User:         &model.User{Name: "Budi"},
			Organization: &model.Organization{Name: "Pusat Jakarta", Slug: "pusat"},
		},
	}

	rows := exportRows(logs)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Organization != "pusat" {
		t.Errorf("organization column = %q, want the slug %q", rows[0].Organization, "pusat")
	}
	if rows[0].Staff != "Budi" {
		t.Errorf("staff column = %q, want %q", rows[0].Staff, "Budi")
	}

	csv := analytics.BuildCSV(rows)
	if !strings.HasSuffix(csv, ",pusat") {
		t.Errorf("last CSV field must be the slug: %q", csv)
	}
}

func TestExportRowsWithoutRelations(t *testing.T) {
	rows := exportRows([]model.FinancialLog{{Type: model.LogTypeExpense, TotalAmount: 100}})
	if rows[0].Staff != "" || rows[0].Organization != "" {
		t.Errorf("missing relations must leave empty fields, got %+v", rows[0])
	}
}

func TestRankingKind(t *testing.T) {
	tests := []struct {
		in   string
		want model.LogType
	}{
		{"", model.LogTypeExpense},
		{"INCOME", model.LogTypeIncome},
		{"EXPENSE", model.LogTypeExpense},
		{"TRANSFER", model.LogTypeExpense},
	}
	for _, tt := range tests {
		if got := rankingKind(tt.in); got != tt.want {
			t.Errorf("rankingKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSummaryPayloadBreakdownFollowsScope(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	window := analytics.ResolveWindow(analytics.PeriodMonth, now)
	orgs := []model.Organization{
		{ID: 1, Name: "Pusat", Slug: "pusat"},
		{ID: 2, Name: "Cabang", Slug: "cabang"},
	}

	t.Run("single-tenant entries yield one row", func(t *testing.T) {
		current := []model.FinancialLog{
			{OrganizationID: 2, Type: model.LogTypeIncome, TotalAmount: 500, CreatedAt: now},
			{OrganizationID: 2, Type: model.LogTypeExpense, TotalAmount: 200, CreatedAt: now},
		}
		payload := summaryPayload(analytics.PeriodMonth, window, current, nil, orgs)
		breakdown, ok := payload["breakdown"].([]analytics.OrgTotals)
		if !ok {
			t.Fatal("payload must always carry a breakdown")
		}
		if len(breakdown) != 1 || breakdown[0].OrganizationID != 2 {
			t.Errorf("scoped entries must yield exactly one row, got %+v", breakdown)
		}
		if breakdown[0].Slug != "cabang" {
			t.Errorf("row slug = %q, want cabang", breakdown[0].Slug)
		}
	})

	t.Run("global entries yield one row per org", func(t *testing.T) {
		current := []model.FinancialLog{
			{OrganizationID: 1, Type: model.LogTypeIncome, TotalAmount: 100, CreatedAt: now},
			{OrganizationID: 2, Type: model.LogTypeIncome, TotalAmount: 200, CreatedAt: now},
		}
		payload := summaryPayload(analytics.PeriodMonth, window, current, nil, orgs)
		breakdown := payload["breakdown"].([]analytics.OrgTotals)
		if len(breakdown) != 2 {
			t.Errorf("got %d rows, want 2", len(breakdown))
		}
	})
}

func TestExportRangeFiltersEffectiveDate(t *testing.T) {
	db := dryRunDB(t)
	var logs []model.FinancialLog
	stmt := exportRange(db.Model(&model.FinancialLog{}), "2025-06-01", "2025-06-30").
		Find(&logs).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "transaction_date >=") || !strings.Contains(sql, "transaction_date <") {
		t.Errorf("bounds must cut on the transaction date when present: %q", sql)
	}
	if !strings.Contains(sql, "transaction_date IS NULL AND created_at") {
		t.Errorf("entries without a transaction date must fall back to creation time: %q", sql)
	}
}

func TestTodaysLogsFilterByCreation(t *testing.T) {
	db := dryRunDB(t)
	start := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	var logs []model.FinancialLog
	stmt := todaysLogs(db, nil, start).Find(&logs).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "created_at >=") {
		t.Errorf("today's activity counts by creation time: %q", sql)
	}
	if strings.Contains(sql, "transaction_date") {
		t.Errorf("a backdated entry created today must still count: %q", sql)
	}
}
