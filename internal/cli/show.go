package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/report"
	"github.com/roach88/nomina/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database   string
	Agents     []string
	Severities []string
	Kinds      []string
	Collection string
	ShowInfo   bool
	MaxRows    int
}

// ShowOutput is the JSON payload of a filtered show.
type ShowOutput struct {
	Run     store.Run             `json:"run"`
	Results []ir.ValidationResult `json:"results"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded validation run",
		Long: `Show a run recorded with validate --db. A unique prefix of the run ID
is enough.

Without filters the full report is rebuilt and its results digest checked.
Filters narrow the listing to matching results.

Examples:
  nomina show 0192f3 --db history.db
  nomina show 0192f3 --db history.db --severity critical
  nomina show 0192f3 --db history.db --agent salary-validator --collection terminations`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run history database (required)")
	cmd.Flags().StringSliceVar(&opts.Agents, "agent", nil, "only results from these validators")
	cmd.Flags().StringSliceVar(&opts.Severities, "severity", nil, "only these severities (critical|warning|info)")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only these error kinds (e.g. FORMAT_INVALID)")
	cmd.Flags().StringVar(&opts.Collection, "collection", "", "only results about this collection (active|terminations)")
	cmd.Flags().BoolVar(&opts.ShowInfo, "show-info", false, "list info results in text output")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", report.DefaultMaxRows, "affected rows listed per finding")

	return cmd
}

func runShow(opts *ShowOptions, ref string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	filter, err := opts.filter()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	st, err := openHistory(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.ResolveRun(ctx, ref)
	if err != nil {
		return formatter.Fail(ExitCommandError, runLookupError(ref, err))
	}
	formatter.VerboseLog("Resolved %s to run %s", ref, run.ID)

	if filter == nil {
		rep, err := st.LoadReport(ctx, run.ID)
		if err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to load run %s", run.ID), Err: err})
		}
		if formatter.JSON() {
			doc, err := report.NewDocument(rep)
			if err != nil {
				return formatter.Fail(ExitCommandError, err)
			}
			return formatter.Respond(CLIResponse{Status: "ok", RunID: run.ID, Data: doc})
		}
		return report.Render(cmd.OutOrStdout(), rep, report.RenderOptions{ShowInfo: opts.ShowInfo, MaxRows: opts.MaxRows})
	}

	results, err := st.ReadResults(ctx, run.ID, *filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to read results of run %s", run.ID), Err: err})
	}
	if results == nil {
		results = []ir.ValidationResult{}
	}
	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", RunID: run.ID, Data: ShowOutput{Run: run, Results: results}})
	}
	writeResults(cmd.OutOrStdout(), run, results, opts.MaxRows)
	return nil
}

// filter builds the store filter from the flags, or nil when no flag
// narrows the listing.
func (o *ShowOptions) filter() (*store.ResultFilter, error) {
	if len(o.Agents) == 0 && len(o.Severities) == 0 && len(o.Kinds) == 0 && o.Collection == "" {
		return nil, nil
	}
	f := &store.ResultFilter{Agents: o.Agents}
	for _, s := range o.Severities {
		sev := ir.Severity(strings.ToLower(s))
		switch sev {
		case ir.SeverityCritical, ir.SeverityWarning, ir.SeverityInfo:
			f.Severities = append(f.Severities, sev)
		default:
			return nil, &LoadError{Code: ErrCodeUsage, Message: fmt.Sprintf("unknown severity %q: must be critical, warning or info", s)}
		}
	}
	for _, k := range o.Kinds {
		f.Kinds = append(f.Kinds, ir.Kind(strings.ToUpper(k)))
	}
	switch c := ir.Collection(strings.ToLower(o.Collection)); c {
	case "", ir.CollectionActive, ir.CollectionTerminations:
		f.Collection = c
	default:
		return nil, &LoadError{Code: ErrCodeUsage, Message: fmt.Sprintf("unknown collection %q: must be active or terminations", o.Collection)}
	}
	return f, nil
}

func writeResults(w io.Writer, run store.Run, results []ir.ValidationResult, maxRows int) {
	fmt.Fprintf(w, "run %s (%s, as of %s)\n", run.ID, run.State, run.AsOf.Format(time.DateOnly))
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching results.")
		return
	}
	for _, r := range results {
		fmt.Fprintf(w, "  %-8s %s %s: %s\n", r.Severity, r.Agent, r.Field, r.Message)
		if len(r.AffectedRows) > 0 {
			fmt.Fprintf(w, "           %s rows %s\n", r.Collection, formatRows(r.AffectedRows, maxRows))
		}
	}
	fmt.Fprintf(w, "\n%d matching result(s)\n", len(results))
}

func formatRows(rows []int, limit int) string {
	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	parts := make([]string, len(shown))
	for i, r := range shown {
		parts[i] = fmt.Sprint(r)
	}
	out := strings.Join(parts, ", ")
	if len(shown) < len(rows) {
		out += fmt.Sprintf(" (+%d more)", len(rows)-len(shown))
	}
	return out
}
