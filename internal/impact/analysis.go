package impact

import "sort"

// Analysis is the structured result of one change-impact computation,
// intended for rendering by callers.
type Analysis struct {
	ChangedFiles []string
	// FileMapping maps each matched file path to its directly affected rows.
	FileMapping map[string][]string
	// Direct holds rows matched by at least one changed file, sorted.
	Direct []string
	// All is Direct plus the descendant closure of every direct row, sorted.
	All []string
	// ByScope groups All by row scope; unscoped rows group under "config".
	ByScope map[string][]string
	// Levels are BFS propagation waves over reverse edges starting from
	// Direct, excluding the direct set itself.
	Levels [][]string
}

// Summary condenses an analysis into the counts CI reports on.
type Summary struct {
	FilesChanged  int
	FilesMapped   int
	DirectTargets int
	TotalTargets  int
}

// Summary returns the headline counts.
func (a *Analysis) Summary() Summary {
	return Summary{
		FilesChanged:  len(a.ChangedFiles),
		FilesMapped:   len(a.FileMapping),
		DirectTargets: len(a.Direct),
		TotalTargets:  len(a.All),
	}
}

// ExceedsThreshold implements the CI gate: true when the total affected row
// count is strictly greater than limit. Negative limits never trip.
func (a *Analysis) ExceedsThreshold(limit int) bool {
	if limit < 0 {
		return false
	}
	return len(a.All) > limit
}

// Analyze maps the changed files and expands the full blast radius.
func (m *Mapper) Analyze(changed []string) *Analysis {
	a := &Analysis{
		ChangedFiles: changed,
		FileMapping:  m.MapFiles(changed),
		ByScope:      make(map[string][]string),
	}

	direct := make(map[string]bool)
	for _, ids := range a.FileMapping {
		for _, id := range ids {
			direct[id] = true
		}
	}
	all := make(map[string]bool, len(direct))
	for id := range direct {
		a.Direct = append(a.Direct, id)
		all[id] = true
		for _, affected := range m.graph.Affected(id) {
			all[affected] = true
		}
	}
	sort.Strings(a.Direct)
	for id := range all {
		a.All = append(a.All, id)
	}
	sort.Strings(a.All)

	for _, id := range a.All {
		scope := "config"
		if r, err := m.store.Get(id); err == nil && r.Scope != "" {
			scope = r.Scope
		}
		a.ByScope[scope] = append(a.ByScope[scope], id)
	}

	a.Levels = m.propagationLevels(direct)
	return a
}

// propagationLevels computes BFS waves over reverse edges: wave N+1 is every
// unvisited dependent of wave N.
func (m *Mapper) propagationLevels(start map[string]bool) [][]string {
	visited := make(map[string]bool, len(start))
	current := make([]string, 0, len(start))
	for id := range start {
		visited[id] = true
		current = append(current, id)
	}

	var levels [][]string
	for len(current) > 0 {
		var next []string
		for _, id := range current {
			for _, dependent := range m.graph.Dependents(id) {
				if !visited[dependent] {
					visited[dependent] = true
					next = append(next, dependent)
				}
			}
		}
		if len(next) > 0 {
			sort.Strings(next)
			levels = append(levels, next)
		}
		current = next
	}
	return levels
}
