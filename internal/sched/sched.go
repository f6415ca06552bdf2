// Package sched drives level-by-level execution of a target subset of the
// row graph. The scheduler owns ordering, cache consultation, confirmation
// gating and failure propagation; what "executing a row" means is supplied
// by the caller as an executor callback.
//
// A single failure never aborts the run: every row whose dependencies all
// succeeded still executes, and the final verdict is simply "no row failed".
// The only hard ordering guarantee is between levels; rows inside one level
// share no edges and run concurrently up to the configured worker limit.
package sched

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/topdownlabs/topdown/internal/cache"
	"github.com/topdownlabs/topdown/internal/ctxlog"
	"github.com/topdownlabs/topdown/internal/dag"
	"github.com/topdownlabs/topdown/internal/hash"
	"github.com/topdownlabs/topdown/internal/row"
)

// ErrCycle is returned when the target subgraph still contains a dependency
// cycle. The scheduler refuses to run rather than silently truncating the
// level list.
var ErrCycle = errors.New("dependency cycle in target subgraph")

// Executor performs the actual work for one row. It is invoked once per
// non-cached, non-skipped row and must honor ctx cancellation.
type Executor interface {
	Execute(ctx context.Context, r row.Row) (output string, err error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, r row.Row) (string, error)

func (f ExecutorFunc) Execute(ctx context.Context, r row.Row) (string, error) {
	return f(ctx, r)
}

// Options configures one scheduler.
type Options struct {
	// DryRun reports what would run without invoking the executor or
	// touching the cache.
	DryRun bool
	// AutoApprove lifts the confirmation requirement on locked rows.
	AutoApprove bool
	// Force bypasses result-cache lookups, rebuilding everything.
	Force bool
	// Workers bounds same-level parallelism. Values below 1 mean 1
	// (sequential, the deterministic default).
	Workers int
	// ContextTokens are mixed into every row hash (e.g. profile flags).
	ContextTokens []string
	// Keep optionally restricts scheduling to accepted row ids, applied to
	// the induced subgraph before leveling.
	Keep func(id string) bool
	// Confirm is the yes/no oracle for locked rows outside dry-run and
	// auto-approve mode. When nil, locked rows end in waiting_approval.
	Confirm func(r row.Row) bool
	// AfterLevel, when set, runs after each level fully resolves; returning
	// false aborts the run before the next level starts. Remaining rows end
	// blocked.
	AfterLevel func(level int, results []Result) bool
}

// Scheduler executes target subsets over one immutable snapshot.
type Scheduler struct {
	store  *row.Store
	graph  *dag.Graph
	hasher *hash.Engine
	cache  *cache.ResultCache
	exec   Executor
	opts   Options
}

// New builds a scheduler. cache may be shared across runs; store and graph
// must not be rebuilt while a run is in flight.
func New(s *row.Store, g *dag.Graph, c *cache.ResultCache, exec Executor, opts Options) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scheduler{
		store:  s,
		graph:  g,
		hasher: hash.NewEngine(s, opts.ContextTokens...),
		cache:  c,
		exec:   exec,
		opts:   opts,
	}
}

// Plan returns the levels the given targets would execute in, without
// running anything. The same cycle policy as Run applies.
func (s *Scheduler) Plan(targets ...string) ([][]string, error) {
	levels, complete := s.graph.Levels(targets, s.opts.Keep)
	if !complete {
		return nil, s.cycleError()
	}
	return levels, nil
}

// Run executes the targets plus their ancestor closure, level by level.
// The returned summary is complete even when rows failed; err is non-nil
// only for structural refusals (cycle in the target subgraph).
func (s *Scheduler) Run(ctx context.Context, targets ...string) (*Summary, error) {
	logger := ctxlog.FromContext(ctx)

	levels, err := s.Plan(targets...)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Levels: levels, Started: time.Now()}
	digests := s.hasher.Snapshot()
	unmet := make(map[string]bool)
	aborted := false

	for levelIdx, level := range levels {
		if aborted || ctx.Err() != nil {
			for _, id := range level {
				summary.Results = append(summary.Results, Result{
					RowID: id, Status: Blocked, Output: "run aborted",
				})
			}
			continue
		}

		logger.Debug("starting level",
			"level", levelIdx+1, "levels", len(levels), "rows", len(level))

		results := make([]Result, len(level))
		g := new(errgroup.Group)
		g.SetLimit(s.opts.Workers)

		for i, id := range level {
			i := i
			r, err := s.store.Get(id)
			if err != nil {
				results[i] = Result{RowID: id, Status: Failed, Err: err}
				continue
			}

			// Dependencies live in strictly earlier levels, so the unmet
			// set is stable while this level runs and the skip decision can
			// be made before launching.
			if dep := s.unmetDep(id, unmet); dep != "" {
				logger.Debug("skipping row, dependency unmet", "row", id, "dependency", dep)
				results[i] = Result{
					RowID:  id,
					Status: Skipped,
					Output: fmt.Sprintf("dependency failed: %s", dep),
				}
				continue
			}

			g.Go(func() error {
				results[i] = s.runRow(ctx, r, digests[r.ID])
				return nil
			})
		}
		g.Wait()

		// Anything short of success leaves dependents without their input:
		// a skipped or unapproved row poisons its downstream the same way a
		// failure does.
		for _, res := range results {
			if res.Status != Success {
				unmet[res.RowID] = true
			}
		}
		summary.Results = append(summary.Results, results...)

		if s.opts.AfterLevel != nil && !s.opts.AfterLevel(levelIdx, results) {
			logger.Debug("caller aborted run after level", "level", levelIdx+1)
			aborted = true
		}
	}

	summary.Duration = time.Since(summary.Started)
	logger.Debug("run finished",
		"rows", len(summary.Results),
		"failed", summary.Count(Failed),
		"skipped", summary.Count(Skipped),
		"ok", summary.OK())
	return summary, nil
}

// runRow takes one row through the pre-flight gates and, when they pass,
// the executor. Terminal statuses only; the transient running state is
// visible to the executor, not recorded.
func (s *Scheduler) runRow(ctx context.Context, r row.Row, digest string) Result {
	logger := ctxlog.FromContext(ctx)

	if r.Locked && !s.opts.DryRun && !s.opts.AutoApprove {
		if s.opts.Confirm == nil {
			return Result{RowID: r.ID, Status: WaitingApproval, Output: "requires manual approval"}
		}
		if !s.opts.Confirm(r) {
			logger.Debug("locked row declined", "row", r.ID)
			return Result{RowID: r.ID, Status: Skipped, Output: "not confirmed"}
		}
	}

	if !s.opts.Force {
		if out, ok := s.cache.Get(r.ID, digest); ok {
			logger.Debug("cache hit", "row", r.ID, "hash", digest)
			return Result{RowID: r.ID, Status: Success, Output: out, Cached: true}
		}
	}

	if s.opts.DryRun {
		return Result{RowID: r.ID, Status: Success, Output: "would execute " + r.ID}
	}

	start := time.Now()
	output, err := s.exec.Execute(ctx, r)
	duration := time.Since(start)

	if err != nil {
		logger.Error("row execution failed", "row", r.ID, "error", err)
		return Result{RowID: r.ID, Status: Failed, Duration: duration, Err: err}
	}

	s.cache.Put(r.ID, digest, hash.Digest(r.ID+"|"+output))
	return Result{RowID: r.ID, Status: Success, Duration: duration, Output: output}
}

// unmetDep returns the first direct dependency of id that did not end in
// success, or "".
func (s *Scheduler) unmetDep(id string, unmet map[string]bool) string {
	for _, dep := range s.graph.Dependencies(id) {
		if unmet[dep] {
			return dep
		}
	}
	return ""
}

func (s *Scheduler) cycleError() error {
	cycles := s.graph.Cycles()
	if len(cycles) == 0 {
		// Levels were incomplete but no cycle was found from any start:
		// should not happen, keep the dedicated error anyway.
		return ErrCycle
	}
	paths := make([]string, len(cycles))
	for i, c := range cycles {
		paths[i] = strings.Join(c, " -> ")
	}
	return fmt.Errorf("%w: %s", ErrCycle, strings.Join(paths, "; "))
}
