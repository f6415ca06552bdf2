// Package row defines the configuration row model and the immutable store
// holding one loaded snapshot of rows.
package row

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a row id does not exist in a store.
var ErrNotFound = errors.New("row id not found")

// Row is one named configuration entry. Rows are immutable once stored;
// mutation means loading a new snapshot.
type Row struct {
	// ID is the unique identifier within a snapshot.
	ID string
	// Name is a display string and may be empty.
	Name string
	// Args is a free-form, shell-token-splittable string used as executor
	// input and as hash input.
	Args string
	// Expr is a free-form value or expression string, also hashed.
	Expr string
	// Scope is an open classification tag such as "library" or "pipeline".
	// Empty means unscoped.
	Scope string
	// Locked rows require confirmation before a non-dry-run execution.
	Locked bool
	// Depends lists the ids of rows this row depends on.
	Depends []string
	// Sources lists glob patterns for external files considered inputs to
	// this row. Only the impact mapper consumes these.
	Sources []string
}

// ArgsList splits Args like a shell command line: whitespace separates
// tokens, single and double quotes group them. There is no variable
// expansion and no escape handling beyond quote removal.
func (r Row) ArgsList() []string {
	return SplitTokens(r.Args)
}

// SplitTokens is the quote-aware splitter behind Row.ArgsList.
func SplitTokens(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		inToken bool
	)
	for _, c := range s {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteRune(c)
			}
		case c == '\'' || c == '"':
			quote = c
			inToken = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			if inToken {
				tokens = append(tokens, current.String())
				current.Reset()
				inToken = false
			}
		default:
			current.WriteRune(c)
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, current.String())
	}
	return tokens
}
