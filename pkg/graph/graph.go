/*
Package graph implements the analysis library behind the server-resolved
canvas tools: connectivity, articulation points and bridges, degree
statistics, link-disjoint path counting, cost efficiency ranking and
geographic latency estimation.

All functions are pure: they operate on an immutable adjacency structure
built once per request from a canvas snapshot and never touch external
state, which is what allows the orchestration loop to resolve a whole batch
of them concurrently.
*/
package graph

import "github.com/cartograph/cartograph/pkg/canvas"

/*
Graph is an undirected adjacency structure over a snapshot. Parallel edges
and isolated nodes are both permitted; isolated nodes occupy an index with
an empty adjacency list.
*/
type Graph struct {
	nodeIDs []string
	index   map[string]int
	edges   []edge
	// adj[v] lists indices into edges for every edge incident to v.
	adj [][]int
}

type edge struct {
	id   string
	u, v int
}

// New builds an adjacency structure from the snapshot. Links that reference
// unknown node IDs are skipped rather than invented.
func New(snap *canvas.Snapshot) *Graph {
	g := &Graph{
		nodeIDs: make([]string, 0, len(snap.Nodes)),
		index:   make(map[string]int, len(snap.Nodes)),
	}

	for _, node := range snap.Nodes {
		if _, dup := g.index[node.ID]; dup {
			continue
		}
		g.index[node.ID] = len(g.nodeIDs)
		g.nodeIDs = append(g.nodeIDs, node.ID)
	}

	g.adj = make([][]int, len(g.nodeIDs))

	for _, link := range snap.Links {
		u, okU := g.index[link.Source]
		v, okV := g.index[link.Target]
		if !okU || !okV {
			continue
		}

		idx := len(g.edges)
		g.edges = append(g.edges, edge{id: link.ID, u: u, v: v})
		g.adj[u] = append(g.adj[u], idx)
		if v != u {
			g.adj[v] = append(g.adj[v], idx)
		}
	}

	return g
}

// Order returns the number of nodes.
func (g *Graph) Order() int { return len(g.nodeIDs) }

// Size returns the number of edges.
func (g *Graph) Size() int { return len(g.edges) }

// NodeID returns the external identifier for a node index.
func (g *Graph) NodeID(i int) string { return g.nodeIDs[i] }

// Lookup resolves an external node identifier to its index.
func (g *Graph) Lookup(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// other returns the endpoint of edges[e] opposite to node v.
func (g *Graph) other(e, v int) int {
	if g.edges[e].u == v {
		return g.edges[e].v
	}
	return g.edges[e].u
}
