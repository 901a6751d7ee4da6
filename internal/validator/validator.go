// Package validator defines the unit contract every rule family implements
// and the read-only input the orchestrator hands to it.
package validator

//go:generate mockgen -source=validator.go -destination=mocks/mocks.go -package=mocks Validator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/ir"
)

// Validator encodes one family of rules.
//
// Validate must be a pure function of its Input: no writes to the dataset,
// no shared mutable state. It should honour ctx cancellation in loops over
// records. A returned error is converted by the orchestrator into a single
// SYSTEM_ERROR result naming the validator.
type Validator interface {
	Descriptor() ir.AgentDescriptor
	Validate(ctx context.Context, in Input) ([]ir.ValidationResult, error)
}

// Input is the immutable snapshot a validator runs against.
type Input struct {
	Data *ir.MappedData

	// AsOf is the evaluation date for ages, tenure and "future" checks.
	AsOf time.Time

	// Upstream holds the results of validators that completed in earlier
	// tiers, keyed by agent name. Dependencies are soft: a failed or timed
	// out dependency contributes only its SYSTEM_ERROR result.
	Upstream map[string][]ir.ValidationResult
}

// Results returns the upstream results of one agent.
func (in Input) Results(agent string) []ir.ValidationResult {
	return in.Upstream[agent]
}

// CriticalRows returns the rows of collection c that agent flagged critical.
func (in Input) CriticalRows(agent string, c ir.Collection) map[int]bool {
	rows := make(map[int]bool)
	for _, r := range in.Upstream[agent] {
		if !r.IsCritical() || r.Collection != c {
			continue
		}
		for _, row := range r.AffectedRows {
			rows[row] = true
		}
	}
	return rows
}

// CriticalFieldRows is CriticalRows restricted to results about field.
func (in Input) CriticalFieldRows(agent, field string, c ir.Collection) map[int]bool {
	rows := make(map[int]bool)
	for _, r := range in.Upstream[agent] {
		if !r.IsCritical() || r.Collection != c || r.Field != field {
			continue
		}
		for _, row := range r.AffectedRows {
			rows[row] = true
		}
	}
	return rows
}

// FlaggingAgents maps each row of collection c to the set of upstream agents
// that reported a warning or critical result about it.
func (in Input) FlaggingAgents(c ir.Collection) map[int]map[string]bool {
	out := make(map[int]map[string]bool)
	for agent, results := range in.Upstream {
		for _, r := range results {
			if r.Severity == ir.SeverityInfo || r.Collection != c {
				continue
			}
			for _, row := range r.AffectedRows {
				if out[row] == nil {
					out[row] = make(map[string]bool)
				}
				out[row][agent] = true
			}
		}
	}
	return out
}

// Describe builds a descriptor.
func Describe(name, description string, priority int, timeout time.Duration, deps ...string) ir.AgentDescriptor {
	return ir.AgentDescriptor{
		Name:         name,
		Description:  description,
		Priority:     priority,
		Dependencies: deps,
		Timeout:      timeout,
	}
}

// SystemError is the single result that replaces the output of a validator
// that failed, panicked or ran past its deadline.
func SystemError(agent string, err error) ir.ValidationResult {
	return ir.Critical(agent, ir.KindSystemError, "*", fmt.Sprintf("validator %s failed: %v", agent, err)).
		WithSuggestion("re-run the validation; if it persists, report the dataset to the maintainers")
}

// Label renders a subject for messages: "active row 3 (Ana López)".
func Label(s ir.Subject) string {
	name := strings.TrimSpace(s.Record.Name)
	if name == "" {
		return fmt.Sprintf("%s row %d", s.Collection, s.Record.Row)
	}
	return fmt.Sprintf("%s row %d (%s)", s.Collection, s.Record.Row, name)
}

// Func adapts a function into a Validator. Handy for tests and one-off rules.
type Func struct {
	Desc ir.AgentDescriptor
	Fn   func(ctx context.Context, in Input) ([]ir.ValidationResult, error)
}

func (f Func) Descriptor() ir.AgentDescriptor { return f.Desc }

func (f Func) Validate(ctx context.Context, in Input) ([]ir.ValidationResult, error) {
	return f.Fn(ctx, in)
}

// WithSuccess appends a success marker to results when none of them is a
// warning or critical, so every validator reports at least one line.
func WithSuccess(agent string, results []ir.ValidationResult, message string) []ir.ValidationResult {
	for _, r := range results {
		if r.Severity != ir.SeverityInfo {
			return results
		}
	}
	return append(results, ir.Success(agent, message))
}
