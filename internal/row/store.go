package row

import (
	"fmt"
	"sort"
	"strings"
)

// Raw is one record as it arrives from a row source, before normalization.
// All fields except "id" are optional; unknown or mistyped values degrade to
// their zero form instead of failing the load.
type Raw map[string]any

// Store holds the normalized rows of one loaded snapshot. It is immutable
// after New returns and safe for concurrent readers.
type Store struct {
	rows map[string]Row
	// duplicates records ids that appeared more than once in the raw input,
	// in input order. Only the first occurrence is kept.
	duplicates []string
}

// New normalizes a sequence of raw records into a Store. Records without a
// usable id are dropped silently; a repeated id keeps the first record and
// remembers the repeat for the validator.
func New(raws []Raw) *Store {
	s := &Store{rows: make(map[string]Row, len(raws))}
	for _, r := range raws {
		id := strings.TrimSpace(stringField(r, "id"))
		if id == "" {
			continue
		}
		if _, exists := s.rows[id]; exists {
			s.duplicates = append(s.duplicates, id)
			continue
		}
		s.rows[id] = Row{
			ID:      id,
			Name:    stringField(r, "name"),
			Args:    stringField(r, "args"),
			Expr:    stringField(r, "expr"),
			Scope:   stringField(r, "scope"),
			Locked:  boolField(r, "locked"),
			Depends: listField(r, "depends"),
			Sources: listField(r, "sources"),
		}
	}
	return s
}

// FromRows builds a Store directly from normalized rows. Intended for tests
// and for callers that construct rows programmatically.
func FromRows(rows []Row) *Store {
	s := &Store{rows: make(map[string]Row, len(rows))}
	for _, r := range rows {
		if r.ID == "" {
			continue
		}
		if _, exists := s.rows[r.ID]; exists {
			s.duplicates = append(s.duplicates, r.ID)
			continue
		}
		s.rows[r.ID] = r
	}
	return s
}

// Get returns the row for id, or ErrNotFound.
func (s *Store) Get(id string) (Row, error) {
	r, ok := s.rows[id]
	if !ok {
		return Row{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, nil
}

// Has reports whether id exists in the snapshot.
func (s *Store) Has(id string) bool {
	_, ok := s.rows[id]
	return ok
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	return len(s.rows)
}

// IDs returns all row ids in lexicographic order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rows returns all rows, ordered by id.
func (s *Store) Rows() []Row {
	rows := make([]Row, 0, len(s.rows))
	for _, id := range s.IDs() {
		rows = append(rows, s.rows[id])
	}
	return rows
}

// Duplicates returns the ids that appeared more than once in the raw input,
// one entry per extra occurrence.
func (s *Store) Duplicates() []string {
	return s.duplicates
}

func stringField(r Raw, key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func boolField(r Raw, key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

// listField normalizes a collection field that may arrive as a list of
// strings, a single comma-separated string, or anything else (empty).
// Duplicates collapse; order of first appearance is preserved.
func listField(r Raw, key string) []string {
	var items []string
	switch v := r[key].(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
	case []string:
		for _, part := range v {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
	case []any:
		for _, part := range v {
			if str, ok := part.(string); ok {
				if p := strings.TrimSpace(str); p != "" {
					items = append(items, p)
				}
			}
		}
	}
	if len(items) < 2 {
		return items
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			out = append(out, it)
		}
	}
	return out
}
