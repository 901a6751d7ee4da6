package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/queryir"
)

// Run is the stored header of one validation run.
type Run struct {
	ID               string       `json:"id"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
	State            engine.State `json:"state"`
	AsOf             time.Time    `json:"as_of"`
	ConfigVersion    string       `json:"config_version"`
	RulesetVersion   string       `json:"ruleset_version"`
	Digest           string       `json:"digest"`
	DatasetDigest    string       `json:"dataset_digest"`
	ActiveCount      int          `json:"active_count"`
	TerminationCount int          `json:"termination_count"`
	Critical         int          `json:"critical"`
	Warning          int          `json:"warning"`
	Info             int          `json:"info"`
	Normalized       int          `json:"normalized"`

	transitions string
	plan        string
	agents      string
}

// ResultFilter narrows ReadResults. Empty fields match everything.
type ResultFilter struct {
	Agents     []string
	Severities []ir.Severity
	Kinds      []ir.Kind
	Collection ir.Collection
}

func (f ResultFilter) predicate(runID string) queryir.Predicate {
	preds := []queryir.Predicate{queryir.Equals{Field: "run_id", Value: runID}}
	if len(f.Agents) > 0 {
		preds = append(preds, queryir.In{Field: "agent", Values: toAny(f.Agents)})
	}
	if len(f.Severities) > 0 {
		preds = append(preds, queryir.In{Field: "severity", Values: toAny(f.Severities)})
	}
	if len(f.Kinds) > 0 {
		preds = append(preds, queryir.In{Field: "kind", Values: toAny(f.Kinds)})
	}
	if f.Collection != "" {
		preds = append(preds, queryir.Equals{Field: "collection", Value: string(f.Collection)})
	}
	return queryir.And{Predicates: preds}
}

// toAny converts string-kinded values to SQL parameters.
func toAny[T ~string](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// GetRun returns the run with exactly this ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	runs, err := s.readRuns(ctx, queryir.Select{
		From:   "runs",
		Filter: queryir.Equals{Field: "id", Value: id},
	})
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return runs[0], nil
}

// ResolveRun finds the run whose ID is prefix or starts with it. Run IDs
// are UUIDv7, so the first characters usually suffice.
func (s *Store) ResolveRun(ctx context.Context, prefix string) (Run, error) {
	if prefix == "" {
		return Run{}, fmt.Errorf("resolve run: empty ID")
	}
	if run, err := s.GetRun(ctx, prefix); err == nil || !errors.Is(err, ErrNotFound) {
		return run, err
	}
	runs, err := s.readRuns(ctx, queryir.Select{
		From:   "runs",
		Filter: queryir.HasPrefix{Field: "id", Prefix: prefix},
	})
	if err != nil {
		return Run{}, err
	}
	switch len(runs) {
	case 0:
		return Run{}, fmt.Errorf("run %s: %w", prefix, ErrNotFound)
	case 1:
		return runs[0], nil
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return Run{}, &AmbiguousError{Prefix: prefix, Matches: ids}
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit < 0 {
		limit = 0
	}
	return s.readRuns(ctx, queryir.Select{From: "runs", Descending: true, Limit: limit})
}

func (s *Store) readRuns(ctx context.Context, q queryir.Select) ([]Run, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		r                       Run
		started, finished, asOf string
		state                   string
	)
	if err := rows.Scan(
		&r.ID, &started, &finished, &state, &asOf, &r.ConfigVersion,
		&r.RulesetVersion, &r.Digest, &r.DatasetDigest, &r.ActiveCount, &r.TerminationCount,
		&r.Critical, &r.Warning, &r.Info, &r.Normalized, &r.transitions,
		&r.plan, &r.agents,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.State = engine.State(state)
	var err error
	if r.StartedAt, err = parseTime(started); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
	}
	if r.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
	}
	if r.AsOf, err = parseTime(asOf); err != nil {
		return Run{}, fmt.Errorf("scan run %s: %w", r.ID, err)
	}
	return r, nil
}

// ReadResults returns the results of a run in their original order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) ReadResults(ctx context.Context, runID string, f ResultFilter) ([]ir.ValidationResult, error) {
	rows, err := s.query(ctx, queryir.Select{From: "results", Filter: f.predicate(runID)})
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := []ir.ValidationResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func scanResult(rows *sql.Rows) (ir.ValidationResult, error) {
	var (
		r                                  ir.ValidationResult
		runID                              string
		seq                                int
		severity, status, kind, collection string
		rowsJSON, metaJSON                 string
	)
	if err := rows.Scan(
		&runID, &seq, &r.Agent, &r.Field, &severity, &status, &kind,
		&r.Message, &r.Suggestion, &collection, &rowsJSON, &metaJSON,
	); err != nil {
		return ir.ValidationResult{}, fmt.Errorf("scan result: %w", err)
	}
	r.Severity = ir.Severity(severity)
	r.Status = ir.Status(status)
	r.Kind = ir.Kind(kind)
	r.Collection = ir.Collection(collection)

	var err error
	if r.AffectedRows, err = unmarshalRows(rowsJSON); err != nil {
		return ir.ValidationResult{}, fmt.Errorf("scan result %s/%d: %w", runID, seq, err)
	}
	if r.Metadata, err = unmarshalMetadata(metaJSON); err != nil {
		return ir.ValidationResult{}, fmt.Errorf("scan result %s/%d: %w", runID, seq, err)
	}
	return r, nil
}

// LoadReport rebuilds the engine report of a stored run. The results
// digest is recomputed and must match the one recorded at write time.
func (s *Store) LoadReport(ctx context.Context, id string) (*engine.Report, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := s.ReadResults(ctx, id, ResultFilter{})
	if err != nil {
		return nil, err
	}
	digest, err := ir.ResultsDigest(results)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	if digest != run.Digest {
		return nil, fmt.Errorf("load report %s: results digest mismatch: have %s, recorded %s", id, digest, run.Digest)
	}

	rep := &engine.Report{
		RunID:      run.ID,
		State:      run.State,
		AsOf:       run.AsOf,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Results:    results,
		Normalized: run.Normalized,
	}
	if err := unmarshalJSON("plan", run.plan, &rep.Plan); err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	if err := unmarshalJSON("agents", run.agents, &rep.Agents); err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	if err := unmarshalJSON("transitions", run.transitions, &rep.Transitions); err != nil {
		return nil, fmt.Errorf("load report %s: %w", id, err)
	}
	return rep, nil
}
