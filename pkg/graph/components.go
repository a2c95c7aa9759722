package graph

/*
Components returns the connected components of the graph as lists of node
IDs. Each component preserves insertion order of its members relative to the
snapshot node list, and isolated nodes form singleton components. Runs in
O(V+E) via breadth-first traversal.
*/
func (g *Graph) Components() [][]string {
	seen := make([]bool, g.Order())
	var components [][]string

	for start := range g.nodeIDs {
		if seen[start] {
			continue
		}

		seen[start] = true
		queue := []int{start}
		component := []string{g.nodeIDs[start]}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]

			for _, e := range g.adj[v] {
				w := g.other(e, v)
				if seen[w] {
					continue
				}
				seen[w] = true
				queue = append(queue, w)
				component = append(component, g.nodeIDs[w])
			}
		}

		components = append(components, component)
	}

	return components
}
