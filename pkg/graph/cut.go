package graph

import "sort"

/*
CutSet holds the single points of failure of the topology: nodes whose
removal disconnects the graph (articulation points) and links whose removal
does (bridges).
*/
type CutSet struct {
	ArticulationPoints []string `json:"articulation_points"`
	Bridges            []string `json:"bridges"`
}

/*
Cut computes articulation points and bridges in one depth-first traversal
using discovery order and low-link values (Tarjan's technique). A non-root
node is an articulation point if some DFS child's low-link is >= its own
discovery order; the root is one only when it has more than one DFS-tree
child. An edge is a bridge when the child's low-link strictly exceeds the
parent's discovery order.

The traversal is iterative with an explicit frame stack so arbitrarily deep
topologies cannot overflow the goroutine stack. Parallel edges are handled
by skipping only the exact tree edge used to reach a node, so a redundant
parallel link correctly prevents its twin from being reported as a bridge.
*/
func (g *Graph) Cut() CutSet {
	n := g.Order()
	disc := make([]int, n) // 0 means unvisited
	low := make([]int, n)
	isCut := make([]bool, n)
	bridgeEdges := make([]int, 0)

	type frame struct {
		v          int
		parentEdge int
		next       int // cursor into adj[v]
	}

	clock := 0

	for root := 0; root < n; root++ {
		if disc[root] != 0 {
			continue
		}

		clock++
		disc[root] = clock
		low[root] = clock
		rootChildren := 0
		stack := []frame{{v: root, parentEdge: -1}}

		for len(stack) > 0 {
			f := &stack[len(stack)-1]

			if f.next < len(g.adj[f.v]) {
				e := g.adj[f.v][f.next]
				f.next++

				if e == f.parentEdge {
					continue
				}

				w := g.other(e, f.v)
				if disc[w] == 0 {
					clock++
					disc[w] = clock
					low[w] = clock
					stack = append(stack, frame{v: w, parentEdge: e})
				} else if disc[w] < low[f.v] {
					low[f.v] = disc[w]
				}
				continue
			}

			child := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if len(stack) == 0 {
				continue
			}

			parent := &stack[len(stack)-1]
			if low[child.v] < low[parent.v] {
				low[parent.v] = low[child.v]
			}
			if parent.v == root && len(stack) == 1 {
				rootChildren++
			} else if low[child.v] >= disc[parent.v] {
				isCut[parent.v] = true
			}
			if low[child.v] > disc[parent.v] {
				bridgeEdges = append(bridgeEdges, child.parentEdge)
			}
		}

		if rootChildren > 1 {
			isCut[root] = true
		}
	}

	cut := CutSet{
		ArticulationPoints: make([]string, 0),
		Bridges:            make([]string, 0, len(bridgeEdges)),
	}

	for v := 0; v < n; v++ {
		if isCut[v] {
			cut.ArticulationPoints = append(cut.ArticulationPoints, g.nodeIDs[v])
		}
	}

	sort.Ints(bridgeEdges)
	for _, e := range bridgeEdges {
		cut.Bridges = append(cut.Bridges, g.edges[e].id)
	}

	return cut
}
