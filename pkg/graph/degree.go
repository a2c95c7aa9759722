package graph

/*
Redundancy is a coarse classification of topology resilience derived from
the minimum node degree among non-isolated nodes. It is a heuristic, not a
formal resilience guarantee: "good" means every connected node has at least
two incident links, "partial" means at least one connected node hangs off a
single link, "none" means there are no connected nodes at all.
*/
type Redundancy string

const (
	RedundancyGood    Redundancy = "good"
	RedundancyPartial Redundancy = "partial"
	RedundancyNone    Redundancy = "none"
)

// DegreeStats aggregates per-node degree information for a snapshot.
type DegreeStats struct {
	PerNode    map[string]int `json:"per_node"`
	Min        int            `json:"min"`
	Max        int            `json:"max"`
	Average    float64        `json:"average"`
	Leaves     int            `json:"leaves"`
	Isolates   int            `json:"isolates"`
	Redundancy Redundancy     `json:"redundancy"`
}

/*
Degrees computes per-node degree, min/max/average, leaf and isolate counts,
and the redundancy classification. Self-loops contribute two to a node's
degree. Isolated nodes are counted but excluded from the minimum-degree
population that drives the redundancy classification; an empty graph yields
zeroed, finite statistics.
*/
func (g *Graph) Degrees() DegreeStats {
	stats := DegreeStats{
		PerNode:    make(map[string]int, g.Order()),
		Redundancy: RedundancyNone,
	}

	if g.Order() == 0 {
		return stats
	}

	degree := make([]int, g.Order())
	for _, e := range g.edges {
		degree[e.u]++
		degree[e.v]++
	}

	total := 0
	minConnected := -1
	stats.Min = degree[0]
	for v, d := range degree {
		stats.PerNode[g.nodeIDs[v]] = d
		total += d

		if d > stats.Max {
			stats.Max = d
		}
		if d < stats.Min {
			stats.Min = d
		}
		switch d {
		case 0:
			stats.Isolates++
		case 1:
			stats.Leaves++
		}
		if d > 0 && (minConnected == -1 || d < minConnected) {
			minConnected = d
		}
	}

	stats.Average = float64(total) / float64(g.Order())

	switch {
	case minConnected >= 2:
		stats.Redundancy = RedundancyGood
	case minConnected == 1:
		stats.Redundancy = RedundancyPartial
	}

	return stats
}
