package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/report"
)

// AssertionError is returned when an expectation fails.
// It includes the report's results to help debug the failure.
type AssertionError struct {
	Type     string                // "expect", "blocks_valuation" or "state"
	Expected string                // Human-readable expected outcome
	Actual   string                // Human-readable actual outcome
	Results  []ir.ValidationResult // Full result list for context
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nResults:\n")
	for i, r := range e.Results {
		fmt.Fprintf(&buf, "  [%d] %s %s %s %s: %s\n", i+1, r.Severity, r.Agent, r.Kind, r.Field, r.Message)
	}

	return buf.String()
}

// Matches reports whether r satisfies every filter e sets.
func (e Expectation) Matches(r ir.ValidationResult) bool {
	switch {
	case e.Agent != "" && r.Agent != e.Agent:
		return false
	case e.Severity != "" && string(r.Severity) != e.Severity:
		return false
	case e.Kind != "" && string(r.Kind) != e.Kind:
		return false
	case e.Field != "" && r.Field != e.Field:
		return false
	case e.Collection != "" && string(r.Collection) != e.Collection:
		return false
	case e.MessageContains != "" && !strings.Contains(r.Message, e.MessageContains):
		return false
	}
	for _, want := range e.Rows {
		if !containsRow(r.AffectedRows, want) {
			return false
		}
	}
	return true
}

func containsRow(rows []int, row int) bool {
	for _, r := range rows {
		if r == row {
			return true
		}
	}
	return false
}

// String describes the filter for error messages.
func (e Expectation) String() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("agent", e.Agent)
	add("severity", e.Severity)
	add("kind", e.Kind)
	add("field", e.Field)
	add("collection", e.Collection)
	if len(e.Rows) > 0 {
		add("rows", strings.Trim(fmt.Sprint(e.Rows), "[]"))
	}
	add("message~", e.MessageContains)
	if len(parts) == 0 {
		return "any result"
	}
	return strings.Join(parts, " ")
}

// checkExpectation counts matching results and compares against count or
// min. Without either, at least one match is required.
func checkExpectation(results []ir.ValidationResult, e Expectation) error {
	n := 0
	for _, r := range results {
		if e.Matches(r) {
			n++
		}
	}

	var expected string
	switch {
	case e.Count != nil:
		if n == *e.Count {
			return nil
		}
		expected = fmt.Sprintf("exactly %d result(s) matching %s", *e.Count, e)
	default:
		floor := 1
		if e.Min != nil {
			floor = *e.Min
		}
		if n >= floor {
			return nil
		}
		expected = fmt.Sprintf("at least %d result(s) matching %s", floor, e)
	}
	return &AssertionError{
		Type:     "expect",
		Expected: expected,
		Actual:   fmt.Sprintf("%d matching result(s)", n),
		Results:  results,
	}
}

// EvaluateAssertions checks every expectation of s against rep and returns
// one error message per failure.
func EvaluateAssertions(s *Scenario, rep *engine.Report) []string {
	var errs []string
	for _, e := range s.Expect {
		if err := checkExpectation(rep.Results, e); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if s.BlocksValuation != nil {
		got := report.Summarize(rep).BlocksValuation()
		if got != *s.BlocksValuation {
			errs = append(errs, (&AssertionError{
				Type:     "blocks_valuation",
				Expected: fmt.Sprintf("blocks valuation = %t", *s.BlocksValuation),
				Actual:   fmt.Sprintf("blocks valuation = %t", got),
				Results:  rep.Results,
			}).Error())
		}
	}

	if s.State != "" && string(rep.State) != s.State {
		errs = append(errs, (&AssertionError{
			Type:     "state",
			Expected: "run state " + s.State,
			Actual:   "run state " + string(rep.State),
			Results:  rep.Results,
		}).Error())
	}
	return errs
}
