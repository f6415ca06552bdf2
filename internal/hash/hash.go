// Package hash computes deterministic content digests for rows and their
// external source files. A row digest covers the row's own inputs plus the
// recursively computed digests of its dependencies, so any upstream edit
// changes every downstream digest. Digests are sha256 truncated to 16 hex
// characters to match the cache file format.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/topdownlabs/topdown/internal/row"
)

// DigestLen is the length of every digest in hex characters.
const DigestLen = 16

// Engine derives row digests over one immutable snapshot. Engines are cheap;
// create one per snapshot and per set of context tokens.
type Engine struct {
	store *row.Store
	// tokens are externally supplied context inputs (e.g. active profile
	// flags), sorted once so declaration order never leaks into digests.
	tokens []string
}

// NewEngine returns an engine for the snapshot. Context tokens are mixed
// into every row digest.
func NewEngine(s *row.Store, tokens ...string) *Engine {
	sorted := make([]string, len(tokens))
	copy(sorted, tokens)
	sort.Strings(sorted)
	return &Engine{store: s, tokens: sorted}
}

// RowHash returns the digest for id, or "" when the id is not in the
// snapshot. Each call uses a fresh memo table, so shared dependencies in
// diamond-shaped graphs are computed exactly once per call.
func (e *Engine) RowHash(id string) string {
	return e.rowHash(id, make(map[string]string))
}

// Snapshot computes digests for every row in the store, sharing one memo
// table across the whole pass.
func (e *Engine) Snapshot() map[string]string {
	memo := make(map[string]string, e.store.Len())
	for _, id := range e.store.IDs() {
		e.rowHash(id, memo)
	}
	return memo
}

func (e *Engine) rowHash(id string, memo map[string]string) string {
	if h, ok := memo[id]; ok {
		return h
	}
	r, err := e.store.Get(id)
	if err != nil {
		return ""
	}
	// Mark before recursing so a cyclic depends chain terminates instead of
	// recursing forever. The placeholder is replaced below.
	memo[id] = ""

	deps := make([]string, len(r.Depends))
	copy(deps, r.Depends)
	sort.Strings(deps)

	var depParts []string
	for _, dep := range deps {
		if !e.store.Has(dep) {
			continue
		}
		depParts = append(depParts, dep+":"+e.rowHash(dep, memo))
	}

	parts := []string{
		r.Args,
		r.Expr,
		strings.Join(depParts, "|"),
		strings.Join(e.tokens, "|"),
	}
	h := Digest(strings.Join(parts, "|"))
	memo[id] = h
	return h
}

// Digest returns the truncated sha256 hex digest of s.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:DigestLen]
}
