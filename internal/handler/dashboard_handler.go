package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"ledger-service/internal/analytics"
	"ledger-service/internal/cache"
	"ledger-service/internal/httputil"
	"ledger-service/internal/model"
	"ledger-service/internal/policy"
	"ledger-service/pkg/database"
	"ledger-service/pkg/logger"
	"ledger-service/prometheus"
)

// dashboardScope resolves the caller's effective organization filter
// from the request.
func dashboardScope(c echo.Context, identity policy.Identity) *uint {
	requested := parseOptionalUint(c.QueryParam("organization_id"))
	return policy.EffectiveOrganizationFilter(identity, requested)
}

// scopedLogs builds an active-logs query narrowed to the scope.
func scopedLogs(db *gorm.DB, scope *uint) *gorm.DB {
	query := model.Scoped(db.Model(&model.FinancialLog{}), model.ScopeActive)
	if scope != nil {
		query = query.Where("organization_id = ?", *scope)
	}
	return query
}

// windowCondition narrows a query to entries whose effective date falls
// inside the window. The effective date is the transaction date when
// recorded, otherwise the creation time, matching the fold in the
// analytics package.
func windowCondition(query *gorm.DB, w analytics.Window) *gorm.DB {
	return query.Where(
		"(transaction_date IS NOT NULL AND transaction_date >= ? AND transaction_date <= ?)"+
			" OR (transaction_date IS NULL AND created_at >= ? AND created_at <= ?)",
		w.Start, w.End, w.Start, w.End)
}

// effectiveFrom narrows a query to entries whose effective date is on or
// after t.
func effectiveFrom(query *gorm.DB, t time.Time) *gorm.DB {
	return query.Where(
		"(transaction_date IS NOT NULL AND transaction_date >= ?)"+
			" OR (transaction_date IS NULL AND created_at >= ?)", t, t)
}

// effectiveBefore narrows a query to entries whose effective date is
// strictly before t.
func effectiveBefore(query *gorm.DB, t time.Time) *gorm.DB {
	return query.Where(
		"(transaction_date IS NOT NULL AND transaction_date < ?)"+
			" OR (transaction_date IS NULL AND created_at < ?)", t, t)
}

// todaysLogs returns the active entries recorded since start of day.
// Today's activity counts by creation time: a backdated entry created
// today still shows up here.
func todaysLogs(db *gorm.DB, scope *uint, startOfDay time.Time) *gorm.DB {
	return scopedLogs(db, scope).Where("created_at >= ?", startOfDay)
}

// DashboardStats returns the headline counters: organizations, users,
// active logs and today's totals.
func DashboardStats(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("stats").Inc()
	defer prometheus.TrackAggregation("stats")()

	scope := dashboardScope(c, identity)
	db := database.GetDB()
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var (
		orgCount, userCount, logCount int64
		todayEntries                  []model.FinancialLog
	)

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		query := db.WithContext(ctx).Model(&model.Organization{})
		if scope != nil {
			query = query.Where("id = ?", *scope)
		}
		return query.Count(&orgCount).Error
	})
	g.Go(func() error {
		query := db.WithContext(ctx).Model(&model.User{})
		if scope != nil {
			query = query.Where("organization_id = ?", *scope)
		}
		return query.Count(&userCount).Error
	})
	g.Go(func() error {
		return scopedLogs(db.WithContext(ctx), scope).Count(&logCount).Error
	})
	g.Go(func() error {
		return todaysLogs(db.WithContext(ctx), scope, startOfToday).Find(&todayEntries).Error
	})
	if err := g.Wait(); err != nil {
		logger.FromContext(c).Error("Failed to compute dashboard stats", zap.Error(err))
		return httputil.Internal(c, "failed to compute stats")
	}

	return httputil.OK(c, echo.Map{
		"organizations": orgCount,
		"users":         userCount,
		"logs":          logCount,
		"today":         analytics.Summarize(todayEntries),
	}, "")
}

// DashboardFeed returns the newest active entries in scope.
func DashboardFeed(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("feed").Inc()

	scope := dashboardScope(c, identity)
	page, limit, offset := httputil.ParsePagination(c)

	query := scopedLogs(database.GetDB(), scope)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve feed")
	}
	var logs []model.FinancialLog
	if err := query.Preload("User").Preload("Organization").
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return httputil.Internal(c, "failed to retrieve feed")
	}

	return httputil.Paginated(c, logs, total, page, limit)
}

// DashboardChart returns the income/expense trend bucketed over the
// requested period.
func DashboardChart(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("chart").Inc()
	defer prometheus.TrackAggregation("chart")()

	scope := dashboardScope(c, identity)
	period := analytics.ParsePeriod(c.QueryParam("period"))
	ctx := c.Request().Context()

	key := cache.Key("chart", scope, string(period))
	var cached []analytics.ChartPoint
	if reportCache.Get(ctx, key, &cached) {
		return httputil.OK(c, cached, "")
	}

	window := analytics.ResolveWindow(period, time.Now())
	var entries []model.FinancialLog
	if err := windowCondition(scopedLogs(database.GetDB(), scope), window).Find(&entries).Error; err != nil {
		return httputil.Internal(c, "failed to build chart")
	}

	points := analytics.BuildChart(entries, period, window)
	reportCache.Set(ctx, key, points)
	return httputil.OK(c, points, "")
}

// DashboardSummary returns window totals, growth against the previous
// window and a per-organization breakdown of the entries in scope.
func DashboardSummary(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("summary").Inc()
	defer prometheus.TrackAggregation("summary")()

	scope := dashboardScope(c, identity)
	period := analytics.ParsePeriod(c.QueryParam("period"))
	ctx := c.Request().Context()

	key := cache.Key("summary", scope, string(period))
	var cached echo.Map
	if reportCache.Get(ctx, key, &cached) {
		return httputil.OK(c, cached, "")
	}

	window := analytics.ResolveWindow(period, time.Now())
	previous := analytics.PreviousWindow(window)
	db := database.GetDB()

	var current, prior []model.FinancialLog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return windowCondition(scopedLogs(db.WithContext(gctx), scope), window).Find(&current).Error
	})
	g.Go(func() error {
		return windowCondition(scopedLogs(db.WithContext(gctx), scope), previous).Find(&prior).Error
	})
	if err := g.Wait(); err != nil {
		logger.FromContext(c).Error("Failed to compute summary", zap.Error(err))
		return httputil.Internal(c, "failed to compute summary")
	}

	orgQuery := db.Model(&model.Organization{})
	if scope != nil {
		orgQuery = orgQuery.Where("id = ?", *scope)
	}
	var orgs []model.Organization
	if err := orgQuery.Find(&orgs).Error; err != nil {
		return httputil.Internal(c, "failed to compute summary")
	}

	payload := summaryPayload(period, window, current, prior, orgs)
	reportCache.Set(ctx, key, payload)
	return httputil.OK(c, payload, "")
}

// summaryPayload assembles the summary view: window totals, growth
// against the previous window and the per-organization breakdown. The
// breakdown folds the already scope-filtered entries, so a single-tenant
// scope yields at most one row.
func summaryPayload(period analytics.Period, window analytics.Window, current, prior []model.FinancialLog, orgs []model.Organization) echo.Map {
	orgMap := make(map[uint]model.Organization, len(orgs))
	for _, o := range orgs {
		orgMap[o.ID] = o
	}

	totals := analytics.Summarize(current)
	return echo.Map{
		"period":    period,
		"totals":    totals,
		"growth":    analytics.GrowthBetween(totals, analytics.Summarize(prior)),
		"window":    echo.Map{"start": window.Start, "end": window.End},
		"breakdown": analytics.BreakdownByOrganization(current, orgMap),
	}
}

// rankingKind resolves the requested log type for the rankings view,
// defaulting to EXPENSE.
func rankingKind(raw string) model.LogType {
	if t := model.LogType(raw); t.Valid() {
		return t
	}
	return model.LogTypeExpense
}

// DashboardRankings returns the top line items by summed subtotal.
func DashboardRankings(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("rankings").Inc()
	defer prometheus.TrackAggregation("rankings")()

	scope := dashboardScope(c, identity)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	logType := rankingKind(c.QueryParam("type"))

	query := database.GetDB().Model(&model.LogItem{}).
		Select("log_items.item_name AS name, log_items.quantity, log_items.unit_price, log_items.sub_total").
		Joins("JOIN financial_logs ON financial_logs.id = log_items.log_id").
		Where("financial_logs.deleted_at IS NULL").
		Where("financial_logs.type = ?", logType)
	if scope != nil {
		query = query.Where("financial_logs.organization_id = ?", *scope)
	}

	var lines []analytics.RankedLine
	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Scan(&lines).Error; err != nil {
		return httputil.Internal(c, "failed to compute rankings")
	}

	return httputil.OK(c, analytics.RankItems(lines, limit), "")
}

// DashboardComparison returns per-organization activity over a lookback
// window. SUPER_ADMIN only.
func DashboardComparison(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	if !identity.IsGlobalAdmin() {
		return httputil.Forbidden(c, string(model.RoleSuperAdmin))
	}
	prometheus.DashboardViewCounter.WithLabelValues("comparison").Inc()
	defer prometheus.TrackAggregation("comparison")()

	rawDays, _ := strconv.Atoi(c.QueryParam("days"))
	days := analytics.ClampDays(rawDays)
	now := time.Now()
	since := now.AddDate(0, 0, -days)

	db := database.GetDB()
	var orgs []model.Organization
	if err := db.Order("name ASC").Find(&orgs).Error; err != nil {
		return httputil.Internal(c, "failed to compute comparison")
	}

	type activityRow struct {
		OrganizationID uint
		Total          int
		Last           time.Time
	}
	var rows []activityRow
	err := model.Scoped(db.Model(&model.FinancialLog{}), model.ScopeActive).
		Select("organization_id, COUNT(*) AS total, MAX(created_at) AS last").
		Where("created_at >= ?", since).
		Group("organization_id").
		Scan(&rows).Error
	if err != nil {
		return httputil.Internal(c, "failed to compute comparison")
	}

	counts := make(map[uint]int, len(rows))
	lastActivity := make(map[uint]time.Time, len(rows))
	for _, r := range rows {
		counts[r.OrganizationID] = r.Total
		lastActivity[r.OrganizationID] = r.Last
	}

	activity, summary := analytics.CompareOrganizations(orgs, counts, lastActivity, now)
	return httputil.OK(c, echo.Map{
		"days":          days,
		"organizations": activity,
		"summary":       summary,
	}, "")
}

// DashboardInsights returns time patterns and ticket-size statistics
// over active income entries in scope.
func DashboardInsights(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("insights").Inc()
	defer prometheus.TrackAggregation("insights")()

	scope := dashboardScope(c, identity)
	var entries []model.FinancialLog
	err := scopedLogs(database.GetDB(), scope).
		Where("type = ?", model.LogTypeIncome).
		Find(&entries).Error
	if err != nil {
		return httputil.Internal(c, "failed to compute insights")
	}

	return httputil.OK(c, analytics.BuildInsights(entries), "")
}

// DashboardExport streams active entries in scope as a CSV download.
func DashboardExport(c echo.Context) error {
	identity, ok := requireIdentity(c)
	if !ok {
		return httputil.Unauthorized(c)
	}
	prometheus.DashboardViewCounter.WithLabelValues("export").Inc()

	scope := dashboardScope(c, identity)
	query := exportRange(scopedLogs(database.GetDB(), scope),
		c.QueryParam("startDate"), c.QueryParam("endDate"))

	var logs []model.FinancialLog
	if err := query.Preload("User").Preload("Organization").
		Order("created_at ASC").Find(&logs).Error; err != nil {
		return httputil.Internal(c, "failed to export logs")
	}

	filename := "financial-report-" + time.Now().Format("2006-01-02") + ".csv"
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(analytics.BuildCSV(exportRows(logs))))
}

// exportRange applies the optional inclusive date bounds to an export
// query. Bounds cut on the effective date, the same date the CSV's Date
// column carries, so a backdated entry never lands outside the
// requested range.
func exportRange(query *gorm.DB, startRaw, endRaw string) *gorm.DB {
	if start, err := time.Parse("2006-01-02", startRaw); err == nil {
		query = effectiveFrom(query, start)
	}
	if end, err := time.Parse("2006-01-02", endRaw); err == nil {
		query = effectiveBefore(query, end.AddDate(0, 0, 1))
	}
	return query
}

// exportRows flattens logs for CSV rendering. The organization column
// carries the slug, not the display name.
func exportRows(logs []model.FinancialLog) []analytics.ExportRow {
	rows := make([]analytics.ExportRow, 0, len(logs))
	for i := range logs {
		row := analytics.ExportRow{
			Date:        logs[i].EffectiveDate(),
			Type:        logs[i].Type,
			Amount:      logs[i].TotalAmount,
			Description: logs[i].Description,
		}
		if logs[i].User != nil {
			row.Staff = logs[i].User.Name
		}
		if logs[i].Organization != nil {
			row.Organization = logs[i].Organization.Slug
		}
		rows = append(rows, row)
	}
	return rows
}
