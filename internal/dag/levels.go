package dag

import "sort"

// Levels computes a leveled topological order for the given targets plus
// their full ancestor closure, restricted to ids present in the graph and,
// when keep is non-nil, to ids it accepts. Each level is a maximal batch of
// nodes with no remaining dependency inside the induced subgraph; nodes
// within a level are sorted by id so the output is deterministic.
//
// complete is false when a cycle inside the induced subgraph left nodes
// unassignable. Callers must not interpret a short level list as "no work
// remaining" without running Cycles first: the two conditions are
// indistinguishable from the levels alone.
func (g *Graph) Levels(targets []string, keep func(id string) bool) (levels [][]string, complete bool) {
	induced := make(map[string]bool)
	for _, t := range targets {
		if !g.Has(t) {
			continue
		}
		induced[t] = true
		for _, dep := range g.TransitiveDeps(t) {
			induced[dep] = true
		}
	}
	if keep != nil {
		for id := range induced {
			if !keep(id) {
				delete(induced, id)
			}
		}
	}

	inDegree := make(map[string]int, len(induced))
	for id := range induced {
		for dep := range g.forward[id] {
			if induced[dep] {
				inDegree[id]++
			}
		}
	}

	remaining := len(induced)
	for remaining > 0 {
		var level []string
		for id := range induced {
			if inDegree[id] == 0 {
				level = append(level, id)
			}
		}
		if len(level) == 0 {
			// Cycle: nothing eligible, nodes left over.
			return levels, false
		}
		sort.Strings(level)
		levels = append(levels, level)

		for _, id := range level {
			delete(induced, id)
			remaining--
			for dependent := range g.reverse[id] {
				if induced[dependent] {
					inDegree[dependent]--
				}
			}
		}
	}
	return levels, true
}
