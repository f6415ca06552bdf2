// Package validate inspects a row snapshot and its graph for structural
// defects. The pass is purely diagnostic: nothing is repaired or mutated,
// and the caller decides which issues block downstream use.
package validate

import (
	"fmt"
	"strings"

	"github.com/topdownlabs/topdown/internal/dag"
	"github.com/topdownlabs/topdown/internal/row"
)

// Severity classifies an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeDuplicateID        = "DUPLICATE_ID"
	CodeMissingDependency  = "MISSING_DEPENDENCY"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeUnusedLocked       = "UNUSED_LOCKED"
)

// Issue is one structural defect found in a snapshot.
type Issue struct {
	Severity Severity
	Code     string
	Message  string
	// RowID names the row the issue is attached to. For cycles it is the
	// first id on the cycle path.
	RowID string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] [%s] %s", strings.ToUpper(string(i.Severity)), i.Code, i.Message)
}

// Report is the ordered issue list of one validation pass.
type Report []Issue

// Errors returns only error-severity issues.
func (r Report) Errors() Report {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity issues.
func (r Report) Warnings() Report {
	return r.filter(SeverityWarning)
}

// HasErrors reports whether any error-severity issue is present.
func (r Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Has reports whether any issue carries the given code.
func (r Report) Has(code string) bool {
	for _, i := range r {
		if i.Code == code {
			return true
		}
	}
	return false
}

func (r Report) filter(sev Severity) Report {
	var out Report
	for _, i := range r {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Run performs one validation pass over the snapshot and its graph.
//
// Checks, in order: ids repeated in the raw input, depends entries naming
// absent rows, dependency cycles (one issue per distinct cycle, message
// carrying the full path), and locked rows nothing depends on (warning:
// such a row can never be gated from upstream).
func Run(s *row.Store, g *dag.Graph) Report {
	var report Report

	for _, id := range s.Duplicates() {
		report = append(report, Issue{
			Severity: SeverityError,
			Code:     CodeDuplicateID,
			Message:  fmt.Sprintf("duplicate id: %s", id),
			RowID:    id,
		})
	}

	for _, r := range s.Rows() {
		for _, dep := range r.Depends {
			if !s.Has(dep) {
				report = append(report, Issue{
					Severity: SeverityError,
					Code:     CodeMissingDependency,
					Message:  fmt.Sprintf("row %q depends on missing %q", r.ID, dep),
					RowID:    r.ID,
				})
			}
		}
	}

	for _, cycle := range g.Cycles() {
		report = append(report, Issue{
			Severity: SeverityError,
			Code:     CodeCircularDependency,
			Message:  "cycle: " + strings.Join(cycle, " -> "),
			RowID:    cycle[0],
		})
	}

	for _, r := range s.Rows() {
		if r.Locked && len(g.Dependents(r.ID)) == 0 {
			report = append(report, Issue{
				Severity: SeverityWarning,
				Code:     CodeUnusedLocked,
				Message:  fmt.Sprintf("locked row %q has no dependents", r.ID),
				RowID:    r.ID,
			})
		}
	}

	return report
}
