// Package cli turns command-line flags into an app configuration. The
// surface is deliberately small: one flag set, no subcommand machinery.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/topdownlabs/topdown/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Invocation is one parsed command line.
type Invocation struct {
	App app.Config

	// Validate runs the diagnostic pass and exits.
	Validate bool
	// Changed, when non-empty, runs impact analysis over these paths
	// instead of scheduling.
	Changed []string
	// FailOnImpact is the CI gate threshold; negative disables the gate.
	FailOnImpact int
	// Targets are the row ids to schedule.
	Targets []string
}

// Parse processes args. The bool result is true when the program should
// exit cleanly without doing anything (help requested, nothing to do).
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	flagSet := flag.NewFlagSet("topdown", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
topdown - dependency-graph engine for parametric configuration rows.

Usage:
  topdown [options] [TARGET ...]

Options:
`)
		flagSet.PrintDefaults()
	}

	rootFlag := flagSet.String("root", "", "Project root. Defaults to TOPDOWN_ROOT or an upward search from the working directory.")
	validateFlag := flagSet.Bool("validate", false, "Validate the row document and exit.")
	changedFlag := flagSet.String("changed-files", "", "Comma-separated changed file paths; runs impact analysis instead of scheduling.")
	failOnImpactFlag := flagSet.Int("fail-on-impact", -1, "Exit non-zero when more than N rows are affected (with -changed-files).")
	dryRunFlag := flagSet.Bool("dry-run", false, "Report what would run without executing.")
	autoApproveFlag := flagSet.Bool("auto-approve", false, "Skip confirmation prompts for locked rows.")
	forceFlag := flagSet.Bool("force", false, "Ignore the result cache.")
	strictFlag := flagSet.Bool("strict", false, "Treat validation warnings as failures.")
	workersFlag := flagSet.Int("workers", 1, "Concurrent executions per level.")
	profileFlag := flagSet.String("profile", "", "Comma-separated context tokens mixed into row hashes.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Log level: 'debug', 'info', 'warn' or 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	inv := &Invocation{
		App: app.Config{
			Root:        *rootFlag,
			LogFormat:   logFormat,
			LogLevel:    logLevel,
			Workers:     *workersFlag,
			DryRun:      *dryRunFlag,
			AutoApprove: *autoApproveFlag,
			Force:       *forceFlag,
			Strict:      *strictFlag,
			Profile:     splitList(*profileFlag),
		},
		Validate:     *validateFlag,
		Changed:      splitList(*changedFlag),
		FailOnImpact: *failOnImpactFlag,
		Targets:      flagSet.Args(),
	}

	if !inv.Validate && len(inv.Changed) == 0 && len(inv.Targets) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	return inv, false, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
