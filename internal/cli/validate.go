package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/nomina/internal/dataset"
	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/metrics"
	"github.com/roach88/nomina/internal/report"
	"github.com/roach88/nomina/internal/store"
	"github.com/roach88/nomina/internal/suite"
)

// Thresholds accepted by --fail-on.
const (
	FailOnCritical = "critical"
	FailOnWarning  = "warning"
	FailOnNone     = "none"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Config       string
	AsOf         string
	Only         []string
	Active       string
	Terminations string
	Database     string
	Archive      string
	MetricsOut   string
	FailOn       string
	ShowInfo     bool
	MaxRows      int

	// RunIDs and Clock override the engine defaults (for testing).
	RunIDs engine.RunIDGenerator
	Clock  engine.Clock
}

// ValidateOutput is the JSON payload of the validate command.
type ValidateOutput struct {
	report.Document
	Warnings []dataset.ParseWarning `json:"warnings,omitempty"`
	Recorded bool                   `json:"recorded"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return newValidateCommand(&ValidateOptions{RootOptions: rootOpts})
}

func newValidateCommand(opts *ValidateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dataset.json|activos.csv]",
		Short: "Validate a payroll census",
		Long: `Run every validator over a payroll census and report the findings.

The dataset is a JSON document with active_personnel and terminations
collections, or CSV files given with --active and --terminations. Header
spellings are matched in Spanish and English.

Exit codes:
  0 - No findings at or above --fail-on
  1 - Findings at or above --fail-on (critical by default)
  2 - Command error (unreadable dataset, bad config, etc.)

Examples:
  nomina validate census.json
  nomina validate --active activos.csv --terminations bajas.csv
  nomina validate census.json --as-of 2024-12-31 --db history.db
  nomina validate census.json --only rfc-validator,curp-validator --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "assumptions YAML file (default $"+EnvConfig+")")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "evaluation date YYYY-MM-DD (default $"+EnvAsOf+" or today)")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "run only these validators")
	cmd.Flags().StringVar(&opts.Active, "active", "", "active personnel CSV")
	cmd.Flags().StringVar(&opts.Terminations, "terminations", "", "terminations CSV")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Archive, "archive", "", "write a compressed report archive (.json.zst)")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus text metrics to this file")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", FailOnCritical, "exit 1 on findings at or above: critical|warning|none")
	cmd.Flags().BoolVar(&opts.ShowInfo, "show-info", false, "list info results in text output")
	cmd.Flags().IntVar(&opts.MaxRows, "max-rows", report.DefaultMaxRows, "affected rows listed per finding")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	switch opts.FailOn {
	case FailOnCritical, FailOnWarning, FailOnNone:
	default:
		return formatter.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeUsage,
			Message: fmt.Sprintf("invalid --fail-on %q: must be critical, warning or none", opts.FailOn),
		})
	}

	cfg, err := loadAssumptions(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	asOf, err := parseAsOf(opts.AsOf, time.Now)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	loaded, err := loadDataset(args, opts.Active, opts.Terminations)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	for _, w := range loaded.Warnings {
		logger.Warn("dataset warning", "collection", w.Collection, "line", w.Line, "message", w.Message)
	}
	formatter.VerboseLog("Loaded %d active and %d termination row(s)",
		len(loaded.Data.ActivePersonnel), len(loaded.Data.Terminations))

	var m *metrics.Metrics
	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.MetricsOut != "" {
		m = metrics.New()
		engineOpts = append(engineOpts, engine.WithObserver(m))
	}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDGenerator(opts.RunIDs))
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}
	eng, err := suite.NewEngine(cfg, opts.Only, engineOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodePlan, Message: err.Error(), Err: err})
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, runErr := eng.Run(ctx, loaded.Data, asOf)
	if runErr != nil {
		return formatter.Fail(ExitCommandError, fmt.Errorf("validation run %s did not complete: %w", rep.RunID, runErr))
	}

	recorded := false
	if opts.Database != "" {
		recorded, err = recordRun(ctx, opts.Database, rep, loaded, cfg.Version)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		formatter.VerboseLog("Recorded run %s in %s", rep.RunID, opts.Database)
	}
	if opts.Archive != "" {
		if err := report.SaveArchive(opts.Archive, rep); err != nil {
			return formatter.Fail(ExitCommandError, &LoadError{Code: ErrCodeWriteFailed, Message: "failed to write archive", Err: err})
		}
		formatter.VerboseLog("Archived report to %s", opts.Archive)
	}
	if m != nil {
		if err := writeMetrics(opts.MetricsOut, m); err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
	}

	summary := report.Summarize(rep)
	if formatter.JSON() {
		doc, err := report.NewDocument(rep)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		if err := formatter.Respond(CLIResponse{
			Status: "ok",
			RunID:  rep.RunID,
			Data:   ValidateOutput{Document: doc, Warnings: loaded.Warnings, Recorded: recorded},
		}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if err := report.Render(w, rep, report.RenderOptions{ShowInfo: opts.ShowInfo, MaxRows: opts.MaxRows}); err != nil {
			return err
		}
		if n := len(loaded.Warnings); n > 0 {
			fmt.Fprintf(w, "\n%d dataset warning(s); rerun with --verbose to see them\n", n)
		}
		if opts.Database != "" && !recorded {
			fmt.Fprintf(w, "\nrun %s was already recorded\n", rep.RunID)
		}
	}

	return gate(opts.FailOn, summary.Counts)
}

// gate turns findings at or above the threshold into exit code 1.
func gate(failOn string, c report.Counts) error {
	switch {
	case failOn == FailOnCritical && c.Critical > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d critical finding(s) block valuation", ErrCodeFindings, c.Critical))
	case failOn == FailOnWarning && c.Critical+c.Warning > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d critical and %d warning finding(s)", ErrCodeFindings, c.Critical, c.Warning))
	}
	return nil
}

func recordRun(ctx context.Context, path string, rep *engine.Report, loaded *dataset.Result, configVersion string) (bool, error) {
	st, err := store.Open(path)
	if err != nil {
		return false, &LoadError{Code: ErrCodeStore, Message: "failed to open database", Err: err}
	}
	defer st.Close()

	inserted, err := st.WriteRun(ctx, rep, loaded.Data, configVersion)
	if err != nil {
		return false, &LoadError{Code: ErrCodeStore, Message: "failed to record run", Err: err}
	}
	return inserted, nil
}

func writeMetrics(path string, m *metrics.Metrics) error {
	f, err := os.Create(path)
	if err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: "failed to create metrics file", Err: err}
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return &LoadError{Code: ErrCodeWriteFailed, Message: "failed to write metrics", Err: err}
	}
	if err := f.Close(); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Message: "failed to write metrics", Err: err}
	}
	return nil
}
