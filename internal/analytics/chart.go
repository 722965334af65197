package analytics

import (
	"fmt"
	"sort"
	"time"

	"ledger-service/internal/model"
)

// ChartPoint is one bucket of the trend chart.
type ChartPoint struct {
	Period  string  `json:"period"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// maxYearBuckets bounds the number of monthly buckets a year chart can
// produce, whatever the window looks like.
const maxYearBuckets = 24

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

type chartBucket struct {
	income  float64
	expense float64
}

// BuildChart folds entries into pre-seeded time buckets for the window.
// Week and month windows bucket per calendar day, labeled by zero-padded
// day of month; year windows bucket per calendar month, labeled
// "YYYY-MM". Buckets with no entries stay at zero rather than being
// omitted. Entries land in the bucket of their transaction date when
// recorded, otherwise their creation time.
func BuildChart(entries []model.FinancialLog, p Period, w Window) []ChartPoint {
	layout := dayKeyLayout
	if p == PeriodYear {
		layout = monthKeyLayout
	}

	buckets := map[string]*chartBucket{}
	var keys []time.Time

	if p == PeriodYear {
		endKey := w.End.Format(monthKeyLayout)
		cur := time.Date(w.Start.Year(), w.Start.Month(), 1, 0, 0, 0, 0, w.Start.Location())
		for i := 0; i < maxYearBuckets; i++ {
			key := cur.Format(monthKeyLayout)
			buckets[key] = &chartBucket{}
			keys = append(keys, cur)
			if key == endKey {
				break
			}
			cur = cur.AddDate(0, 1, 0)
		}
	} else {
		for d := startOfDay(w.Start); !d.After(w.End); d = d.AddDate(0, 0, 1) {
			buckets[d.Format(dayKeyLayout)] = &chartBucket{}
			keys = append(keys, d)
		}
	}

	for i := range entries {
		key := entries[i].EffectiveDate().Format(layout)
		b, ok := buckets[key]
		if !ok {
			// Outside the seeded window, e.g. a backdated transaction.
			continue
		}
		if entries[i].Type == model.LogTypeIncome {
			b.income += entries[i].TotalAmount
		} else {
			b.expense += entries[i].TotalAmount
		}
	}

	points := make([]ChartPoint, 0, len(keys))
	for _, k := range keys {
		b := buckets[k.Format(layout)]
		label := k.Format(monthKeyLayout)
		if p != PeriodYear {
			// Zero-padded so "02" sorts before "10".
			label = fmt.Sprintf("%02d", k.Day())
		}
		points = append(points, ChartPoint{
			Period:  label,
			Income:  b.income,
			Expense: b.expense,
			Net:     b.income - b.expense,
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Period < points[j].Period
	})

	return points
}
