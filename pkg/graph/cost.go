package graph

import (
	"math"
	"sort"

	"github.com/cartograph/cartograph/pkg/canvas"
)

/*
CostRank is one entry in the cost efficiency ranking: monthly cost divided
by capacity, lower is better. Links with missing or zero capacity rank last
with an infinite-cost marker replaced by a finite sentinel so JSON encoding
never sees a non-finite value.
*/
type CostRank struct {
	LinkID      string  `json:"link_id"`
	CostPerGbps float64 `json:"cost_per_gbps"`
	Unranked    bool    `json:"unranked,omitempty"`
}

/*
RankCostEfficiency sorts links by monetary cost divided by capacity,
ascending. Links without a usable capacity cannot be ranked and are appended
after all ranked entries in their original order, flagged Unranked with a
zero ratio rather than an infinity.
*/
func RankCostEfficiency(links []canvas.Link) []CostRank {
	ranked := make([]CostRank, 0, len(links))
	unranked := make([]CostRank, 0)

	for _, link := range links {
		capacity := link.Capacity()
		ratio := link.Cost() / capacity
		if capacity <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			unranked = append(unranked, CostRank{LinkID: link.ID, Unranked: true})
			continue
		}
		ranked = append(ranked, CostRank{LinkID: link.ID, CostPerGbps: ratio})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CostPerGbps < ranked[j].CostPerGbps
	})

	return append(ranked, unranked...)
}
