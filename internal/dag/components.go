package dag

// ConnectedComponents partitions the nodes into groups joined by at least one
// path when edge direction is ignored. Components are discovered in declaration
// order; nodes inside a component are listed in breadth-first enqueue order.
// Isolated nodes form singleton components.
func (g *Graph) ConnectedComponents() [][]NodeID {
	// The undirected view is rebuilt on every call.
	neighbors := make(map[NodeID][]NodeID, len(g.nodes))
	for _, e := range g.edges {
		neighbors[e.Source] = append(neighbors[e.Source], e.Target)
		neighbors[e.Target] = append(neighbors[e.Target], e.Source)
	}

	visited := make(map[NodeID]bool, len(g.nodes))
	var components [][]NodeID

	for _, start := range g.nodes {
		if visited[start] {
			continue
		}

		visited[start] = true
		component := []NodeID{start}
		for i := 0; i < len(component); i++ {
			for _, next := range neighbors[component[i]] {
				if !visited[next] {
					visited[next] = true
					component = append(component, next)
				}
			}
		}
		components = append(components, component)
	}

	return components
}
