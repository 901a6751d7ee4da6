// Package suite wires the default validator set.
package suite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nomina/internal/anomaly"
	"github.com/roach88/nomina/internal/compliance"
	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/validator"
)

// Default returns every validator in declaration order, configured by cfg.
func Default(cfg config.Assumptions) []validator.Validator {
	return []validator.Validator{
		identity.NewRFCValidator(cfg),
		identity.NewCURPValidator(cfg),
		identity.NewNSSValidator(cfg),
		salary.NewValidator(cfg),
		demographic.NewBirthDateValidator(cfg),
		demographic.NewTemporalValidator(cfg),
		demographic.NewActuarialAgeValidator(cfg),
		compliance.NewLaborLawValidator(cfg),
		demographic.NewCompositionValidator(cfg),
		compliance.NewRiskValidator(cfg),
		anomaly.NewDetector(cfg),
	}
}

// Names returns validator names in order.
func Names(vs []validator.Validator) []string {
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Descriptor().Name
	}
	return names
}

// Select keeps the validators named in only, preserving declaration order.
// An empty only keeps everything. Dependencies are not pulled in: a
// selected validator whose dependency is left out runs without its results.
func Select(vs []validator.Validator, only []string) ([]validator.Validator, error) {
	if len(only) == 0 {
		return vs, nil
	}
	want := make(map[string]bool, len(only))
	for _, name := range only {
		want[strings.TrimSpace(name)] = true
	}
	var out []validator.Validator
	for _, v := range vs {
		name := v.Descriptor().Name
		if want[name] {
			out = append(out, v)
			delete(want, name)
		}
	}
	if len(want) > 0 {
		var unknown []string
		for name := range want {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, &engine.PlanError{
			Code:    engine.ErrCodeUnknownAgent,
			Message: fmt.Sprintf("no validator named %s; known: %s", strings.Join(unknown, ", "), strings.Join(Names(vs), ", ")),
		}
	}
	return out, nil
}

// NewEngine builds an engine over the default suite, optionally restricted
// to only.
func NewEngine(cfg config.Assumptions, only []string, opts ...engine.Option) (*engine.Engine, error) {
	vs, err := Select(Default(cfg), only)
	if err != nil {
		return nil, err
	}
	return engine.New(vs, opts...)
}
