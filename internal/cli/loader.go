package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/dataset"
	"github.com/roach88/nomina/internal/store"
)

// Environment variables read by the CLI. Flags take precedence.
const (
	EnvConfig = "NOMINA_CONFIG" // default for --config
	EnvAsOf   = "NOMINA_AS_OF"  // default for --as-of
)

// Error codes for CLI output.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path not found
	ErrCodeDataset     = "E003" // Dataset could not be read
	ErrCodeConfig      = "E004" // Configuration rejected
	ErrCodeAsOf        = "E005" // Malformed evaluation date
	ErrCodeStore       = "E006" // Run history unavailable
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeUsage       = "E008" // Invalid flag combination
	ErrCodeUnknownRun  = "E009" // Run ID matches no or several runs
	ErrCodePlan        = "E010" // Validator selection or ordering failed
	ErrCodeFindings    = "E100" // Findings at or above the --fail-on threshold
	ErrCodeTestFailed  = "E101" // Conformance scenarios failed
	ErrCodeRunsDiffer  = "E102" // Compared runs report different results
)

// LoadError is an input problem with a stable code.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadAssumptions loads path, or the file named by NOMINA_CONFIG, over the
// compiled-in defaults.
func loadAssumptions(path string) (config.Assumptions, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Assumptions{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config file not found: %s", path)}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Assumptions{}, &LoadError{Code: ErrCodeConfig, Message: err.Error(), Err: err}
	}
	return cfg, nil
}

// parseAsOf resolves the evaluation date from the flag, NOMINA_AS_OF, or
// today's UTC date.
func parseAsOf(flag string, now func() time.Time) (time.Time, error) {
	raw := strings.TrimSpace(flag)
	if raw == "" {
		raw = strings.TrimSpace(os.Getenv(EnvAsOf))
	}
	if raw == "" {
		y, m, d := now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, &LoadError{Code: ErrCodeAsOf, Message: fmt.Sprintf("evaluation date %q is not YYYY-MM-DD", raw), Err: err}
	}
	return t, nil
}

// loadDataset reads either a single dataset file or the active and
// terminations CSV pair.
func loadDataset(args []string, active, terminations string) (*dataset.Result, error) {
	switch {
	case len(args) == 1 && (active != "" || terminations != ""):
		return nil, &LoadError{Code: ErrCodeUsage, Message: "pass either a dataset file or --active/--terminations, not both"}
	case len(args) == 1:
		if err := mustExist(args[0]); err != nil {
			return nil, err
		}
		res, err := dataset.LoadFile(args[0])
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDataset, Message: err.Error(), Err: err}
		}
		return res, nil
	case active != "":
		if err := mustExist(active); err != nil {
			return nil, err
		}
		if terminations != "" {
			if err := mustExist(terminations); err != nil {
				return nil, err
			}
		}
		res, err := dataset.LoadCSVFiles(active, terminations)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeDataset, Message: err.Error(), Err: err}
		}
		return res, nil
	case terminations != "":
		return nil, &LoadError{Code: ErrCodeUsage, Message: "--terminations requires --active"}
	default:
		return nil, &LoadError{Code: ErrCodeUsage, Message: "no dataset given: pass a dataset file or --active"}
	}
}

func mustExist(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
		}
		return &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("cannot access %s", path), Err: err}
	}
	return nil
}

// openHistory opens an existing run-history database. Unlike store.Open it
// refuses to create a new file.
func openHistory(path string) (*store.Store, error) {
	if path == "" {
		return nil, &LoadError{Code: ErrCodeUsage, Message: "--db is required"}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: "failed to open database", Err: err}
	}
	return st, nil
}

// runLookupError maps store lookup failures to CLI codes.
func runLookupError(ref string, err error) error {
	var amb *store.AmbiguousError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &LoadError{Code: ErrCodeUnknownRun, Message: fmt.Sprintf("no run matches %q", ref), Err: err}
	case errors.As(err, &amb):
		return &LoadError{Code: ErrCodeUnknownRun, Message: amb.Error(), Err: err}
	default:
		return &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to read run %q", ref), Err: err}
	}
}
