// Package app wires the engine together for the command-line front end and
// for embedding: root discovery, snapshot loading, validation, scheduling
// and impact analysis behind one object with an isolated logger.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/topdownlabs/topdown/internal/cache"
	"github.com/topdownlabs/topdown/internal/ctxlog"
	"github.com/topdownlabs/topdown/internal/dag"
	"github.com/topdownlabs/topdown/internal/impact"
	"github.com/topdownlabs/topdown/internal/row"
	"github.com/topdownlabs/topdown/internal/sched"
	"github.com/topdownlabs/topdown/internal/store"
	"github.com/topdownlabs/topdown/internal/validate"
)

// Config holds everything an App needs to run.
type Config struct {
	// Root is the explicit project root. Empty means discover it from
	// TOPDOWN_ROOT or the working directory.
	Root string
	// CachePath overrides the result cache location. Empty means
	// <root>/.topdown/cache.json.
	CachePath string

	LogFormat string
	LogLevel  string

	Workers     int
	DryRun      bool
	AutoApprove bool
	Force       bool
	// Profile tokens are mixed into every row hash.
	Profile []string
	// Strict treats validation warnings as failures.
	Strict bool
}

// App encapsulates one resolved project and its caches.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	cfg       Config
	root      string
	snapshots *store.Cache
	results   *cache.ResultCache
}

// New resolves the project root and loads the persisted result cache.
func New(outW io.Writer, cfg Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)

	root, err := store.FindRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	logger.Debug("project root resolved", "root", root)

	a := &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		root:      root,
		snapshots: store.NewCache(),
		results:   cache.New(),
	}
	if err := a.results.Load(a.cachePath()); err != nil {
		return nil, fmt.Errorf("failed to load result cache: %w", err)
	}
	return a, nil
}

// Logger returns the app's isolated logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Root returns the resolved project root.
func (a *App) Root() string {
	return a.root
}

// Snapshot loads the current row document (re-reading only when it changed)
// and builds its graph.
func (a *App) Snapshot() (*row.Store, *dag.Graph, error) {
	s, err := a.snapshots.ReloadIfChanged(store.ConfigPath(a.root))
	if err != nil {
		return nil, nil, err
	}
	return s, dag.Build(s), nil
}

// Validate runs the diagnostic pass over the current snapshot. The error
// reflects load problems only; structural issues live in the report.
func (a *App) Validate(ctx context.Context) (validate.Report, error) {
	s, g, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	report := validate.Run(s, g)
	ctxlog.FromContext(ctx).Debug("validation finished",
		"rows", s.Len(), "errors", len(report.Errors()), "warnings", len(report.Warnings()))
	return report, nil
}

// Run schedules the targets with the given executor and persists the result
// cache afterwards (except in dry-run mode).
func (a *App) Run(ctx context.Context, exec sched.Executor, targets ...string) (*sched.Summary, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	s, g, err := a.Snapshot()
	if err != nil {
		return nil, err
	}

	scheduler := sched.New(s, g, a.results, exec, sched.Options{
		DryRun:        a.cfg.DryRun,
		AutoApprove:   a.cfg.AutoApprove,
		Force:         a.cfg.Force,
		Workers:       a.cfg.Workers,
		ContextTokens: a.cfg.Profile,
		Confirm:       a.confirm(),
	})
	summary, err := scheduler.Run(ctx, targets...)
	if err != nil {
		return nil, err
	}

	if !a.cfg.DryRun {
		if err := a.results.Save(a.cachePath()); err != nil {
			a.logger.Warn("failed to persist result cache", "error", err)
		}
	}
	return summary, nil
}

// Analyze maps changed file paths to affected rows over the current
// snapshot.
func (a *App) Analyze(ctx context.Context, changed []string) (*impact.Analysis, error) {
	s, g, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	analysis := impact.NewMapper(s, g).Analyze(changed)
	ctxlog.FromContext(ctx).Debug("impact analysis finished",
		"files", len(changed), "direct", len(analysis.Direct), "total", len(analysis.All))
	return analysis, nil
}

// confirm returns the interactive locked-row prompt, reading a "yes" line
// from stdin. Dry runs and auto-approve never reach it.
func (a *App) confirm() func(r row.Row) bool {
	return func(r row.Row) bool {
		fmt.Fprintf(a.outW, "Row %q is locked. Type 'yes' to proceed: ", r.ID)
		var answer string
		if _, err := fmt.Scanln(&answer); err != nil {
			return false
		}
		return answer == "yes"
	}
}

func (a *App) cachePath() string {
	if a.cfg.CachePath != "" {
		return a.cfg.CachePath
	}
	return filepath.Join(a.root, store.Dir, "cache.json")
}
