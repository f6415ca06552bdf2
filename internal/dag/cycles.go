package dag

// Cycles enumerates the dependency cycles in the graph. Each cycle is a
// closed walk: consecutive elements are real forward edges and the first
// element equals the last. A self-referencing row yields [id, id].
//
// Traversal starts from every unvisited node in id order, so repeated calls
// on the same graph return the same cycles in the same order. Distinct
// cycles reachable from distinct starting points are all found; an empty
// result means the graph is acyclic.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var visit func(id string)
	visit = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, dep := range g.Dependencies(id) {
			if !visited[dep] {
				visit(dep)
			} else if onStack[dep] {
				// The suffix of the current path from dep closes the loop.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				cycle = append(cycle, path[start:]...)
				cycle = append(cycle, dep)
				cycles = append(cycles, cycle)
			}
		}

		path = path[:len(path)-1]
		delete(onStack, id)
	}

	for _, id := range g.IDs() {
		if !visited[id] {
			visit(id)
		}
	}
	return cycles
}
