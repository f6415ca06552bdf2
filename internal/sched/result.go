package sched

import (
	"time"
)

// Result is the terminal outcome of one row.
type Result struct {
	RowID    string
	Status   Status
	Duration time.Duration
	// Output is the executor's output, the stored output digest for cache
	// hits, or a short reason for skipped/blocked rows.
	Output string
	// Err carries the failure reason for failed rows.
	Err error
	// Cached is true when the result came from the result cache.
	Cached bool
}

// Summary is the inspectable record of one run. Results keep level order,
// then id order within a level.
type Summary struct {
	Results  []Result
	Levels   [][]string
	Started  time.Time
	Duration time.Duration
}

// OK reports the run verdict: true when no row ended failed.
func (s *Summary) OK() bool {
	return len(s.FailedIDs()) == 0
}

// Count returns how many rows ended in the given status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// FailedIDs returns the ids of failed rows, in result order.
func (s *Summary) FailedIDs() []string {
	var ids []string
	for _, r := range s.Results {
		if r.Status == Failed {
			ids = append(ids, r.RowID)
		}
	}
	return ids
}

// Result returns the recorded outcome for a row id.
func (s *Summary) Result(id string) (Result, bool) {
	for _, r := range s.Results {
		if r.RowID == id {
			return r, true
		}
	}
	return Result{}, false
}

// CacheHitRate returns cached successes over all successes, 0 when nothing
// succeeded.
func (s *Summary) CacheHitRate() float64 {
	var hits, total int
	for _, r := range s.Results {
		if r.Status == Success {
			total++
			if r.Cached {
				hits++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
