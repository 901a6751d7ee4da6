package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/report"
	"github.com/roach88/nomina/internal/store"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Database string
}

// DiffOutput is the JSON payload of the diff command.
type DiffOutput struct {
	Baseline string `json:"baseline"`
	Current  string `json:"current"`
	report.Delta
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <baseline> <current>",
		Short: "Compare the findings of two runs",
		Long: `Compare the findings of two validation runs. Each side is a run ID (or
unique prefix) in the --db database, or a report archive path ending in
` + report.ArchiveExt + `.

Timings, run IDs and plans are ignored. Findings are compared by validator,
field, severity, kind, affected rows and message.

Exit codes:
  0 - Both runs report the same findings
  1 - Findings were added or removed
  2 - Command error (unknown run, unreadable archive, etc.)

Examples:
  nomina diff 0192f3 0193a1 --db history.db
  nomina diff before.json.zst after.json.zst`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run history database (needed for run IDs)")

	return cmd
}

func runDiff(opts *DiffOptions, baseline, current string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var st *store.Store
	if !isArchive(baseline) || !isArchive(current) {
		var err error
		st, err = openHistory(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		defer st.Close()
	}

	a, err := loadSide(cmd.Context(), st, baseline)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	b, err := loadSide(cmd.Context(), st, current)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	out := DiffOutput{Baseline: a.RunID, Current: b.RunID, Delta: report.Diff(a.Results, b.Results)}
	if formatter.JSON() {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		writeDiff(cmd.OutOrStdout(), out)
	}

	if !out.Empty() {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d finding(s) added, %d removed", ErrCodeRunsDiffer, len(out.Added), len(out.Removed)))
	}
	return nil
}

func isArchive(ref string) bool {
	return strings.HasSuffix(ref, report.ArchiveExt)
}

// loadSide reads one side of a diff from an archive or the run history.
func loadSide(ctx context.Context, st *store.Store, ref string) (*engine.Report, error) {
	if isArchive(ref) {
		if err := mustExist(ref); err != nil {
			return nil, err
		}
		rep, err := report.LoadArchive(ref)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDataset, Message: fmt.Sprintf("failed to read archive %s", ref), Err: err}
		}
		return rep, nil
	}
	run, err := st.ResolveRun(ctx, ref)
	if err != nil {
		return nil, runLookupError(ref, err)
	}
	rep, err := st.LoadReport(ctx, run.ID)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to load run %s", run.ID), Err: err}
	}
	return rep, nil
}

func writeDiff(w io.Writer, d DiffOutput) {
	fmt.Fprintf(w, "%s → %s\n", d.Baseline, d.Current)
	if d.Empty() {
		fmt.Fprintf(w, "✓ No differences (%d unchanged finding(s))\n", d.Unchanged)
		return
	}
	for _, r := range d.Removed {
		fmt.Fprintf(w, "- %s\n", describe(r))
	}
	for _, r := range d.Added {
		fmt.Fprintf(w, "+ %s\n", describe(r))
	}
	fmt.Fprintf(w, "\n%d added, %d removed, %d unchanged\n", len(d.Added), len(d.Removed), d.Unchanged)
}

func describe(r ir.ValidationResult) string {
	s := fmt.Sprintf("%s %s %s: %s", r.Severity, r.Agent, r.Field, r.Message)
	if len(r.AffectedRows) > 0 {
		s += fmt.Sprintf(" [%s rows %s]", r.Collection, formatRows(r.AffectedRows, report.DefaultMaxRows))
	}
	return s
}
