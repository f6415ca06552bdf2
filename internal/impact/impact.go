// Package impact maps changed external file paths to the rows they feed and
// expands the result into the full blast radius over the dependency graph.
// It is the CI-facing entry point: pure reads over an immutable snapshot,
// safe to call repeatedly and concurrently.
package impact

import (
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/topdownlabs/topdown/internal/dag"
	"github.com/topdownlabs/topdown/internal/row"
)

// sourceSuffixes are file suffixes that make an args token look like a
// source-file reference even without a wildcard or path separator.
var sourceSuffixes = []string{".c", ".h", ".py", ".ts", ".js", ".go", ".rs"}

// Mapper resolves file paths to rows via glob patterns.
type Mapper struct {
	store *row.Store
	graph *dag.Graph
	// patterns maps row id to its effective file patterns: the sources
	// field plus file-like tokens pulled from args.
	patterns map[string][]string
}

// NewMapper builds a mapper for one snapshot.
func NewMapper(s *row.Store, g *dag.Graph) *Mapper {
	m := &Mapper{
		store:    s,
		graph:    g,
		patterns: make(map[string][]string, s.Len()),
	}
	for _, r := range s.Rows() {
		pats := append([]string(nil), r.Sources...)
		pats = append(pats, extractPatterns(r.ArgsList())...)
		if len(pats) > 0 {
			m.patterns[r.ID] = pats
		}
	}
	return m
}

// extractPatterns keeps args tokens that plausibly name source files: a
// wildcard, a path separator, or a known source suffix.
func extractPatterns(tokens []string) []string {
	var pats []string
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "*/") || hasSourceSuffix(tok) {
			pats = append(pats, tok)
		}
	}
	return pats
}

func hasSourceSuffix(tok string) bool {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(tok, suffix) {
			return true
		}
	}
	return false
}

// Patterns returns the effective patterns for a row id, or nil.
func (m *Mapper) Patterns(id string) []string {
	return m.patterns[id]
}

// MapFiles maps each changed path to the row ids whose patterns match it.
// Paths are normalized to forward slashes before matching; a pattern whose
// last segment is a pure wildcard also matches anything under its
// directory. Files matching no pattern are absent from the result.
func (m *Mapper) MapFiles(changed []string) map[string][]string {
	out := make(map[string][]string)
	for _, path := range changed {
		normalized := strings.ReplaceAll(path, "\\", "/")
		var ids []string
		for _, id := range sortedIDs(m.patterns) {
			if matchesAny(normalized, m.patterns[id]) {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			out[path] = ids
		}
	}
	return out
}

func matchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
		// Directory-prefix form: "src/*" and friends cover the whole tree
		// below src, not just one level.
		if i := strings.LastIndex(pattern, "/"); i > 0 && strings.Contains(pattern[i+1:], "*") {
			if strings.HasPrefix(path, pattern[:i]+"/") {
				return true
			}
		}
	}
	return false
}

func sortedIDs(m map[string][]string) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
