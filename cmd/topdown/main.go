package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/topdownlabs/topdown/internal/app"
	"github.com/topdownlabs/topdown/internal/cli"
	"github.com/topdownlabs/topdown/internal/row"
	"github.com/topdownlabs/topdown/internal/sched"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run holds the real program logic so tests can drive it with an arbitrary
// writer and argument list.
func run(outW io.Writer, args []string) error {
	inv, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	a, err := app.New(outW, inv.App)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if inv.Validate {
		report, err := a.Validate(ctx)
		if err != nil {
			return err
		}
		for _, issue := range report {
			fmt.Fprintln(outW, issue)
		}
		fmt.Fprintf(outW, "%d errors, %d warnings\n", len(report.Errors()), len(report.Warnings()))
		if report.HasErrors() || (inv.App.Strict && len(report) > 0) {
			return &cli.ExitError{Code: 1, Message: "validation failed"}
		}
		return nil
	}

	if len(inv.Changed) > 0 {
		analysis, err := a.Analyze(ctx, inv.Changed)
		if err != nil {
			return err
		}
		summary := analysis.Summary()
		fmt.Fprintf(outW, "%d files changed, %d direct targets, %d total affected\n",
			summary.FilesChanged, summary.DirectTargets, summary.TotalTargets)
		for _, id := range analysis.All {
			fmt.Fprintf(outW, "  %s\n", id)
		}
		if analysis.ExceedsThreshold(inv.FailOnImpact) {
			return &cli.ExitError{
				Code:    1,
				Message: fmt.Sprintf("impact threshold exceeded (%d > %d)", summary.TotalTargets, inv.FailOnImpact),
			}
		}
		return nil
	}

	summary, err := a.Run(ctx, echoExecutor(), inv.Targets...)
	if err != nil {
		return err
	}
	for _, res := range summary.Results {
		fmt.Fprintf(outW, "  %-8s %s (%s)\n", res.Status, res.RowID, res.Duration)
	}
	fmt.Fprintf(outW, "%d rows, %d failed, %d skipped, cache hit rate %.0f%%\n",
		len(summary.Results), summary.Count(sched.Failed), summary.Count(sched.Skipped),
		summary.CacheHitRate()*100)
	if !summary.OK() {
		return &cli.ExitError{Code: 1, Message: "run failed"}
	}
	return nil
}

// echoExecutor is the built-in executor: it performs no real work, it just
// reports the row's resolved inputs. Real build or pipeline tools embed the
// engine with their own executor.
func echoExecutor() sched.Executor {
	return sched.ExecutorFunc(func(ctx context.Context, r row.Row) (string, error) {
		if r.Expr != "" {
			return r.Expr, nil
		}
		return r.ID, nil
	})
}
