package graph

/*
PathReport is the outcome of the link-disjoint path search between two
nodes. Count is the number of paths found; Paths lists them as node ID
sequences, shortest first.
*/
type PathReport struct {
	Count int        `json:"count"`
	Paths [][]string `json:"paths"`
}

/*
DisjointPaths approximates the number of link-disjoint paths between src and
dst: it repeatedly finds a shortest path by breadth-first search, removes
that path's edges from further consideration, and tries again, up to
maxAttempts rounds.

This yields a count of link-disjoint paths, not a capacity-weighted flow
value. Greedy shortest-path removal can undercount versus a true max-flow
computation, so the result is an approximation and is documented as such to
callers (the tool result labels it "approximate").
*/
func (g *Graph) DisjointPaths(src, dst string, maxAttempts int) (PathReport, bool) {
	report := PathReport{Paths: make([][]string, 0)}

	s, okS := g.Lookup(src)
	t, okT := g.Lookup(dst)
	if !okS || !okT || s == t {
		return report, okS && okT
	}

	removed := make([]bool, g.Size())

	for attempt := 0; attempt < maxAttempts; attempt++ {
		via := g.shortestPath(s, t, removed)
		if via == nil {
			break
		}

		path := make([]string, 0, len(via)+1)
		path = append(path, g.nodeIDs[s])
		v := s
		for _, e := range via {
			removed[e] = true
			v = g.other(e, v)
			path = append(path, g.nodeIDs[v])
		}

		report.Count++
		report.Paths = append(report.Paths, path)
	}

	return report, true
}

// shortestPath returns the edge sequence of a shortest s→t path avoiding
// removed edges, or nil when t is unreachable.
func (g *Graph) shortestPath(s, t int, removed []bool) []int {
	prevEdge := make([]int, g.Order())
	prevNode := make([]int, g.Order())
	seen := make([]bool, g.Order())
	for i := range prevEdge {
		prevEdge[i] = -1
	}

	seen[s] = true
	queue := []int{s}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		if v == t {
			break
		}

		for _, e := range g.adj[v] {
			if removed[e] {
				continue
			}
			w := g.other(e, v)
			if seen[w] {
				continue
			}
			seen[w] = true
			prevEdge[w] = e
			prevNode[w] = v
			queue = append(queue, w)
		}
	}

	if !seen[t] {
		return nil
	}

	var via []int
	for v := t; v != s; v = prevNode[v] {
		via = append(via, prevEdge[v])
	}
	for i, j := 0, len(via)-1; i < j; i, j = i+1, j-1 {
		via[i], via[j] = via[j], via[i]
	}
	return via
}
