package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/suite"
	"github.com/roach88/nomina/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario gets a fresh engine, a deterministic clock starting at the
// evaluation date and a fixed run ID, so two runs of the same scenario
// produce identical reports. Expectation failures are reported in the
// result; the error is reserved for scenarios that cannot run at all.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	asOf, err := scenario.evaluationDate()
	if err != nil {
		return nil, err
	}

	cfg, err := scenario.assumptions()
	if err != nil {
		return nil, err
	}

	loaded, err := scenario.loadData()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	eng, err := suite.NewEngine(cfg, scenario.Only,
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithClock(testutil.NewDeterministicClock(asOf, time.Millisecond)),
		engine.WithRunIDGenerator(testutil.FixedRunID(scenario.RunID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	rep, err := eng.Run(ctx, loaded.Data, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to execute scenario %q: %w", scenario.Name, err)
	}

	result := NewResult(scenario.Name)
	result.Report = rep
	result.Warnings = loaded.Warnings
	for _, msg := range EvaluateAssertions(scenario, rep) {
		result.AddError(msg)
	}
	return result, nil
}

func (s *Scenario) assumptions() (config.Assumptions, error) {
	if s.Config == "" {
		return config.Defaults(), nil
	}
	path, err := s.resolve(s.Config)
	if err != nil {
		return config.Assumptions{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Assumptions{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
