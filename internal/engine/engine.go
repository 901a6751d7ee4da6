package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/validator"
)

// DefaultTimeout applies to validators whose descriptor has no timeout.
const DefaultTimeout = 30 * time.Second

// Observer receives per-validator and per-run measurements.
// Implemented by metrics.Metrics.
type Observer interface {
	ObserveValidator(agent string, d time.Duration, results []ir.ValidationResult, err error)
	ObserveRun(state State, d time.Duration)
}

// AgentRun records how one validator ran.
type AgentRun struct {
	Name     string        `json:"name"`
	Tier     int           `json:"tier"`
	Priority int           `json:"priority"`
	Duration time.Duration `json:"duration"`
	Results  int           `json:"results"`
	Error    string        `json:"error,omitempty"`
}

// Failed reports whether the validator's output was replaced by a
// SYSTEM_ERROR result.
func (a AgentRun) Failed() bool { return a.Error != "" }

// Report is the outcome of one run.
type Report struct {
	RunID      string                `json:"run_id"`
	State      State                 `json:"state"`
	AsOf       time.Time             `json:"as_of"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Plan       *Plan                 `json:"plan"`
	Agents     []AgentRun            `json:"agents"`
	Results    []ir.ValidationResult `json:"results"`

	// Normalized counts results the engine had to repair.
	Normalized int `json:"normalized,omitempty"`

	// Transitions is the state path the run took.
	Transitions []State `json:"transitions"`
}

// Engine runs a fixed set of validators according to their plan.
//
// An Engine is immutable after New and safe for concurrent Run calls.
type Engine struct {
	validators []validator.Validator
	descs      []ir.AgentDescriptor
	plan       *Plan

	logger   *slog.Logger
	clock    Clock
	runIDs   RunIDGenerator
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the clock used for timestamps and durations.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithRunIDGenerator sets the run ID source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.runIDs = g
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New plans validators and returns an engine ready to run them.
//
// Declaration order matters: it breaks priority ties inside a tier.
func New(validators []validator.Validator, opts ...Option) (*Engine, error) {
	e := &Engine{
		validators: append([]validator.Validator(nil), validators...),
		logger:     slog.Default(),
		clock:      SystemClock{},
		runIDs:     UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.descs = make([]ir.AgentDescriptor, len(e.validators))
	for i, v := range e.validators {
		e.descs[i] = v.Descriptor()
	}
	plan, err := BuildPlan(e.descs, e.logger)
	if err != nil {
		return nil, err
	}
	e.plan = plan
	e.logger.Debug("plan built", "validators", len(e.descs), "tiers", len(plan.Tiers), "plan", plan.String())
	return e, nil
}

// Plan returns the execution plan.
func (e *Engine) Plan() *Plan { return e.plan }

// Descriptors returns validator descriptors in declaration order.
func (e *Engine) Descriptors() []ir.AgentDescriptor {
	return append([]ir.AgentDescriptor(nil), e.descs...)
}

// Run validates data as of asOf.
//
// Validator failures never fail the run; they become SYSTEM_ERROR results.
// If ctx is cancelled, no further tier is scheduled and Run returns the
// partial report in state Failed together with the context error.
func (e *Engine) Run(ctx context.Context, data *ir.MappedData, asOf time.Time) (*Report, error) {
	if data == nil {
		data = &ir.MappedData{}
	}
	sm := newStateMachine()
	report := &Report{
		RunID:     e.runIDs.Generate(),
		AsOf:      asOf,
		StartedAt: e.clock.Now(),
		Plan:      e.plan,
	}
	log := e.logger.With("run_id", report.RunID)
	log.Info("run starting",
		"active", len(data.ActivePersonnel),
		"terminations", len(data.Terminations),
		"as_of", asOf.Format(time.DateOnly))

	e.mustAdvance(sm, StateScheduling)
	if err := ctx.Err(); err != nil {
		e.mustAdvance(sm, StateFailed)
		return e.finish(report, sm, log), fmt.Errorf("run cancelled before scheduling: %w", err)
	}
	e.mustAdvance(sm, StateRunning)

	sizes := data.Sizes()
	upstream := make(map[string][]ir.ValidationResult)
	var runErr error
	for _, tier := range e.plan.Tiers {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run cancelled before tier %d: %w", tier.Index, err)
			log.Warn("run cancelled", "tier", tier.Index, "error", err)
			break
		}
		in := validator.Input{Data: data, AsOf: asOf, Upstream: snapshot(upstream)}
		outcomes := e.runTier(ctx, tier, in, log)

		for _, o := range outcomes {
			results, fixed := normalize(o.run.Name, o.results, sizes)
			if fixed > 0 {
				log.Warn("normalized validator results", "agent", o.run.Name, "fixed", fixed)
			}
			report.Normalized += fixed
			o.run.Results = len(results)
			upstream[o.run.Name] = results
			report.Results = append(report.Results, results...)
			report.Agents = append(report.Agents, o.run)
		}
	}

	e.mustAdvance(sm, StateAggregated)
	if runErr == nil {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run cancelled: %w", err)
		}
	}
	if runErr != nil {
		e.mustAdvance(sm, StateFailed)
	} else {
		e.mustAdvance(sm, StateCompleted)
	}
	return e.finish(report, sm, log), runErr
}

func (e *Engine) finish(report *Report, sm *stateMachine, log *slog.Logger) *Report {
	report.State = sm.current
	report.Transitions = append([]State(nil), sm.history...)
	report.FinishedAt = e.clock.Now()
	if report.Results == nil {
		report.Results = []ir.ValidationResult{}
	}
	d := report.FinishedAt.Sub(report.StartedAt)
	if e.observer != nil {
		e.observer.ObserveRun(report.State, d)
	}
	log.Info("run finished", "state", report.State, "results", len(report.Results), "duration", d)
	return report
}

// mustAdvance panics on an illegal transition: that is an engine bug, not a
// data problem.
func (e *Engine) mustAdvance(sm *stateMachine, to State) {
	if err := sm.advance(to); err != nil {
		panic(err)
	}
}

// outcome is one validator's contribution to a tier.
type outcome struct {
	run     AgentRun
	results []ir.ValidationResult
}

// runTier runs every validator of the tier concurrently and returns their
// outcomes in tier order.
func (e *Engine) runTier(ctx context.Context, tier Tier, in validator.Input, log *slog.Logger) []outcome {
	log.Debug("tier starting", "tier", tier.Index, "agents", tier.Agents)
	outcomes := make([]outcome, len(tier.Agents))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range tier.Agents {
		i := i
		v := e.validators[e.plan.position[name]]
		desc := e.descs[e.plan.position[name]]
		g.Go(func() error {
			outcomes[i] = e.runValidator(gctx, v, desc, tier.Index, in, log)
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return outcomes
}

func (e *Engine) runValidator(ctx context.Context, v validator.Validator, desc ir.AgentDescriptor, tier int, in validator.Input, log *slog.Logger) outcome {
	timeout := desc.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	start := e.clock.Now()
	results, err := execute(ctx, v, in, timeout)
	d := e.clock.Now().Sub(start)

	run := AgentRun{Name: desc.Name, Tier: tier, Priority: desc.Priority, Duration: d}
	if err != nil {
		verr := &ValidatorError{Agent: desc.Name, Cause: err}
		run.Error = err.Error()
		results = []ir.ValidationResult{validator.SystemError(desc.Name, err)}
		log.Warn("validator failed", "agent", desc.Name, "duration", d, "error", verr)
	} else {
		log.Debug("validator finished", "agent", desc.Name, "duration", d, "results", len(results))
	}
	if e.observer != nil {
		e.observer.ObserveValidator(desc.Name, d, results, err)
	}
	return outcome{run: run, results: results}
}

// snapshot copies the upstream map so a tier never observes writes made
// while aggregating it.
func snapshot(upstream map[string][]ir.ValidationResult) map[string][]ir.ValidationResult {
	out := make(map[string][]ir.ValidationResult, len(upstream))
	for k, v := range upstream {
		out[k] = v
	}
	return out
}
