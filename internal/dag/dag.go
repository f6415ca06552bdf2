package dag

import (
	"sort"

	"github.com/topdownlabs/topdown/internal/row"
)

// Graph holds forward and reverse adjacency derived from one row snapshot.
// Edges exist only between ids present in the snapshot; references to unknown
// ids are omitted here and surfaced by the validator instead.
type Graph struct {
	// forward maps an id to the set of ids it depends on.
	forward map[string]map[string]bool
	// reverse maps an id to the set of ids depending on it.
	reverse map[string]map[string]bool
}

// Build constructs the adjacency for a snapshot. A self-referencing depends
// entry produces a real edge; it shows up later as a length-1 cycle rather
// than being rejected at build time.
func Build(s *row.Store) *Graph {
	g := &Graph{
		forward: make(map[string]map[string]bool, s.Len()),
		reverse: make(map[string]map[string]bool, s.Len()),
	}
	for _, r := range s.Rows() {
		g.forward[r.ID] = make(map[string]bool)
		if g.reverse[r.ID] == nil {
			g.reverse[r.ID] = make(map[string]bool)
		}
		for _, dep := range r.Depends {
			if !s.Has(dep) {
				continue
			}
			g.forward[r.ID][dep] = true
			if g.reverse[dep] == nil {
				g.reverse[dep] = make(map[string]bool)
			}
			g.reverse[dep][r.ID] = true
		}
	}
	return g
}

// Has reports whether id is a node in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.forward[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.forward)
}

// IDs returns every node id in lexicographic order.
func (g *Graph) IDs() []string {
	return sortedKeys(g.forward)
}

// Dependencies returns the direct dependency ids of id, sorted.
func (g *Graph) Dependencies(id string) []string {
	return sortedKeys(g.forward[id])
}

// Dependents returns the ids directly depending on id, sorted.
func (g *Graph) Dependents(id string) []string {
	return sortedKeys(g.reverse[id])
}

// TransitiveDeps returns the ancestor closure of id: every id reachable by
// following dependency edges forward. The result excludes id itself unless
// the graph loops back to it.
func (g *Graph) TransitiveDeps(id string) []string {
	return g.closure(id, g.forward)
}

// Affected returns the descendant closure of id: every id that directly or
// transitively depends on it. This is the change-propagation primitive.
func (g *Graph) Affected(id string) []string {
	return g.closure(id, g.reverse)
}

// closure is a breadth-first expansion over one adjacency direction,
// visiting each node at most once, starting from id's direct neighbors.
func (g *Graph) closure(id string, adj map[string]map[string]bool) []string {
	seen := make(map[string]bool)
	queue := sortedKeys(adj[id])
	var out []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		out = append(out, current)
		queue = append(queue, sortedKeys(adj[current])...)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
