package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nomina/internal/store"
)

// DefaultHistoryLimit is the number of runs history lists by default.
const DefaultHistoryLimit = 20

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// HistoryOutput is the JSON payload of the history command.
type HistoryOutput struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded validation runs",
		Long: `List the runs recorded with validate --db, most recent first.

Examples:
  nomina history --db history.db
  nomina history --db history.db --limit 5 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "run history database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", DefaultHistoryLimit, "maximum runs to list (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeUsage, Message: "--limit must not be negative"})
	}
	st, err := openHistory(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeStore, Message: "failed to list runs", Err: err})
	}
	if runs == nil {
		runs = []store.Run{}
	}

	if formatter.JSON() {
		return formatter.Success(HistoryOutput{Runs: runs})
	}
	writeHistory(cmd.OutOrStdout(), runs)
	return nil
}

func writeHistory(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tAS OF\tSTATE\tROWS\tCRITICAL\tWARNING\tINFO")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.AsOf.Format(time.DateOnly),
			r.State,
			r.ActiveCount+r.TerminationCount,
			r.Critical, r.Warning, r.Info,
		)
	}
	tw.Flush()
}
