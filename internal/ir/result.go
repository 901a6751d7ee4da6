package ir

import (
	"fmt"
	"strings"
)

// Severity ranks how much a finding matters to downstream valuation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities: info < warning < critical.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Status is the outcome a result reports for the checked subject.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Kind is the error taxonomy carried by every non-success result.
type Kind string

const (
	KindMissingData          Kind = "MISSING_DATA"
	KindFormatInvalid        Kind = "FORMAT_INVALID"
	KindConsistencyViolation Kind = "CONSISTENCY_VIOLATION"
	KindBusinessRule         Kind = "BUSINESS_RULE_VIOLATION"
	KindStatisticalOutlier   Kind = "STATISTICAL_OUTLIER"
	KindSystemError          Kind = "SYSTEM_ERROR"
)

// ValidationResult is one diagnostic produced by a validator.
// Results are append-only; once returned they are never mutated.
type ValidationResult struct {
	Agent        string         `json:"agent"`
	Field        string         `json:"field"`
	Message      string         `json:"message"`
	Severity     Severity       `json:"severity"`
	Status       Status         `json:"status"`
	Kind         Kind           `json:"kind,omitempty"`
	Suggestion   string         `json:"suggestion,omitempty"`
	Collection   Collection     `json:"collection,omitempty"`
	AffectedRows []int          `json:"affected_rows,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func newResult(agent string, sev Severity, st Status, kind Kind, field, message string) ValidationResult {
	return ValidationResult{
		Agent:    agent,
		Field:    field,
		Message:  message,
		Severity: sev,
		Status:   st,
		Kind:     kind,
	}
}

// Critical builds a blocking finding. Critical results always carry status error.
func Critical(agent string, kind Kind, field, message string) ValidationResult {
	return newResult(agent, SeverityCritical, StatusError, kind, field, message)
}

// Warning builds a non-blocking finding.
func Warning(agent string, kind Kind, field, message string) ValidationResult {
	return newResult(agent, SeverityWarning, StatusWarning, kind, field, message)
}

// Info builds an informational finding, typically a population statistic.
func Info(agent, field, message string) ValidationResult {
	return newResult(agent, SeverityInfo, StatusSuccess, "", field, message)
}

// Success builds a pass marker for a validator that found nothing to report.
func Success(agent, message string) ValidationResult {
	return newResult(agent, SeverityInfo, StatusSuccess, "", "*", message)
}

// WithSuggestion returns a copy carrying an actionable suggestion.
func (r ValidationResult) WithSuggestion(s string) ValidationResult {
	r.Suggestion = s
	return r
}

// WithRows returns a copy pointing at rows of the given collection.
func (r ValidationResult) WithRows(c Collection, rows ...int) ValidationResult {
	r.Collection = c
	r.AffectedRows = append([]int(nil), rows...)
	return r
}

// WithMeta returns a copy with one metadata entry added.
func (r ValidationResult) WithMeta(key string, value any) ValidationResult {
	meta := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		meta[k] = v
	}
	meta[key] = value
	r.Metadata = meta
	return r
}

// IsCritical reports whether the result blocks downstream valuation.
func (r ValidationResult) IsCritical() bool {
	return r.Severity == SeverityCritical
}

// Key identifies a result for cross-run comparison. Two runs over the same
// input and rules produce identical keys for identical findings.
func (r ValidationResult) Key() string {
	rows := make([]string, len(r.AffectedRows))
	for i, row := range r.AffectedRows {
		rows[i] = fmt.Sprintf("%d", row)
	}
	return strings.Join([]string{
		r.Agent, r.Field, string(r.Severity), string(r.Kind),
		string(r.Collection), strings.Join(rows, ","), r.Message,
	}, "|")
}

// InvariantError describes a result that breaks the result invariants.
type InvariantError struct {
	Index   int
	Message string
}

func (e InvariantError) Error() string {
	return fmt.Sprintf("result[%d]: %s", e.Index, e.Message)
}

// CheckResults verifies the result invariants against the collection sizes of
// the originating input. Returns all violations (does not fail-fast).
func CheckResults(results []ValidationResult, sizes map[Collection]int) []InvariantError {
	var errs []InvariantError
	for i, r := range results {
		if strings.TrimSpace(r.Agent) == "" {
			errs = append(errs, InvariantError{Index: i, Message: "agent name is empty"})
		}
		if strings.TrimSpace(r.Message) == "" {
			errs = append(errs, InvariantError{Index: i, Message: "message is empty"})
		}
		if r.Severity == SeverityCritical && r.Status != StatusError {
			errs = append(errs, InvariantError{Index: i, Message: fmt.Sprintf("critical result has status %q", r.Status)})
		}
		if len(r.AffectedRows) > 0 {
			size, ok := sizes[r.Collection]
			if !ok {
				errs = append(errs, InvariantError{Index: i, Message: fmt.Sprintf("affected rows reference unknown collection %q", r.Collection)})
				continue
			}
			for _, row := range r.AffectedRows {
				if row < 1 || row > size {
					errs = append(errs, InvariantError{Index: i, Message: fmt.Sprintf("row %d outside 1..%d of %s", row, size, r.Collection)})
				}
			}
		}
	}
	return errs
}
