package analytics

import (
	"fmt"
	"sort"

	"ledger-service/internal/model"
)

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// TimePatterns is the transaction heatmap: how activity distributes
// over hours of the day and days of the week.
type TimePatterns struct {
	BusiestDay  string  `json:"busiest_day"`
	BusiestHour string  `json:"busiest_hour"`
	DayCounts   [7]int  `json:"days"`
	HourCounts  [24]int `json:"hours"`
}

// TicketStats describe the distribution of income entry amounts.
type TicketStats struct {
	Average float64 `json:"average"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Small   int     `json:"small"`
	Medium  int     `json:"medium"`
	Large   int     `json:"large"`
}

// Insights combines the heatmap and ticket distribution with generated
// recommendations.
type Insights struct {
	TimePatterns   TimePatterns `json:"time_patterns"`
	TicketSize     TicketStats  `json:"ticket_size"`
	Recommendation []string     `json:"recommendation"`
}

// argmax returns the index of the first maximum value, so ties resolve
// to the earliest bucket.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}

// BuildInsights computes time patterns and ticket-size statistics over
// active income entries, bucketed by creation timestamp. An empty input
// yields all-zero statistics, never an error. The median is the value
// at index n/2 of the ascending list (the upper median for even-length
// input).
func BuildInsights(entries []model.FinancialLog) Insights {
	var tp TimePatterns
	values := make([]float64, 0, len(entries))
	for i := range entries {
		created := entries[i].CreatedAt
		tp.DayCounts[int(created.Weekday())]++
		tp.HourCounts[created.Hour()]++
		values = append(values, entries[i].TotalAmount)
	}

	busiestDay := argmax(tp.DayCounts[:])
	busiestHour := argmax(tp.HourCounts[:])
	tp.BusiestDay = dayNames[busiestDay]
	tp.BusiestHour = fmt.Sprintf("%d:00 - %d:00", busiestHour, busiestHour+1)

	sort.Float64s(values)
	var ts TicketStats
	if n := len(values); n > 0 {
		var sum float64
		for _, v := range values {
			sum += v
		}
		ts.Average = sum / float64(n)
		ts.Median = values[n/2]
		ts.Min = values[0]
		ts.Max = values[n-1]
		for _, v := range values {
			switch {
			case v < ts.Average*0.5:
				ts.Small++
			case v < ts.Average*1.5:
				ts.Medium++
			default:
				ts.Large++
			}
		}
	}

	return Insights{
		TimePatterns:   tp,
		TicketSize:     ts,
		Recommendation: recommendations(ts.Average, tp.BusiestDay),
	}
}

func recommendations(avgTicket float64, busiestDay string) []string {
	return []string{
		fmt.Sprintf("Optimal staffing needed on %ss due to high volume.", busiestDay),
		fmt.Sprintf("Average transaction value is %.2f - consider bundling items to increase this.", avgTicket),
	}
}
