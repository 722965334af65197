package analytics

import (
	"sort"
)

const (
	defaultRankLimit = 5
	maxRankLimit     = 20
)

// RankedLine is one line item joined to its parent log, the unit the
// ranking aggregates over.
type RankedLine struct {
	Name      string
	Quantity  float64
	UnitPrice float64
	SubTotal  float64
}

// ItemRank is one row of the top-items ranking.
type ItemRank struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Count    float64 `json:"count"`
	AvgPrice float64 `json:"avg_price"`
}

// RankItems groups line items by name, sums their subtotals and
// quantities, averages their unit prices and returns the top rows by
// summed subtotal. The limit defaults to 5 and is capped at 20.
func RankItems(lines []RankedLine, limit int) []ItemRank {
	if limit <= 0 {
		limit = defaultRankLimit
	}
	if limit > maxRankLimit {
		limit = maxRankLimit
	}

	type acc struct {
		value    float64
		count    float64
		priceSum float64
		rows     int
	}
	groups := map[string]*acc{}
	for _, l := range lines {
		g, ok := groups[l.Name]
		if !ok {
			g = &acc{}
			groups[l.Name] = g
		}
		g.value += l.SubTotal
		g.count += l.Quantity
		g.priceSum += l.UnitPrice
		g.rows++
	}

	ranks := make([]ItemRank, 0, len(groups))
	for name, g := range groups {
		ranks = append(ranks, ItemRank{
			Name:     name,
			Value:    g.value,
			Count:    g.count,
			AvgPrice: g.priceSum / float64(g.rows),
		})
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Value != ranks[j].Value {
			return ranks[i].Value > ranks[j].Value
		}
		return ranks[i].Name < ranks[j].Name
	})

	if len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}
