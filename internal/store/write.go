package store

import (
	"context"
	"fmt"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// WriteRun records a finished run and its ordered results in one
// transaction. data is the input the run validated; it is fingerprinted
// and counted, not stored.
//
// Uses ON CONFLICT(id) DO NOTHING: writing an existing run ID leaves the
// stored run untouched and returns inserted=false.
func (s *Store) WriteRun(ctx context.Context, rep *engine.Report, data *ir.MappedData, configVersion string) (inserted bool, err error) {
	if rep == nil || rep.RunID == "" {
		return false, fmt.Errorf("write run: report has no run ID")
	}

	digest, err := ir.ResultsDigest(rep.Results)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	datasetDigest, err := ir.DatasetDigest(data)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	planJSON, err := marshalCanonical("plan", rep.Plan)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	agents := rep.Agents
	if agents == nil {
		agents = []engine.AgentRun{}
	}
	agentsJSON, err := marshalCanonical("agents", agents)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	transitions := rep.Transitions
	if transitions == nil {
		transitions = []engine.State{}
	}
	transitionsJSON, err := marshalCanonical("transitions", transitions)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}

	var critical, warning, info int
	for _, r := range rep.Results {
		switch r.Severity {
		case ir.SeverityCritical:
			critical++
		case ir.SeverityWarning:
			warning++
		default:
			info++
		}
	}
	sizes := data.Sizes()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, state, as_of, config_version, ruleset_version,
		 digest, dataset_digest, active_count, termination_count,
		 critical_count, warning_count, info_count, normalized, transitions, plan, agents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rep.RunID,
		formatTime(rep.StartedAt),
		formatTime(rep.FinishedAt),
		string(rep.State),
		formatTime(rep.AsOf),
		configVersion,
		ir.RulesetVersion,
		digest,
		datasetDigest,
		sizes[ir.CollectionActive],
		sizes[ir.CollectionTerminations],
		critical,
		warning,
		info,
		rep.Normalized,
		transitionsJSON,
		planJSON,
		agentsJSON,
	)
	if err != nil {
		return false, fmt.Errorf("write run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run: rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results
		(run_id, seq, agent, field, severity, status, kind, message, suggestion, collection, affected_rows, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("write results: prepare: %w", err)
	}
	defer stmt.Close()

	for seq, r := range rep.Results {
		rowsJSON, err := marshalRows(r.AffectedRows)
		if err != nil {
			return false, fmt.Errorf("write result %d: %w", seq, err)
		}
		metaJSON, err := marshalMetadata(r.Metadata)
		if err != nil {
			return false, fmt.Errorf("write result %d: %w", seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			rep.RunID, seq, r.Agent, r.Field, string(r.Severity), string(r.Status), string(r.Kind),
			r.Message, r.Suggestion, string(r.Collection), rowsJSON, metaJSON,
		); err != nil {
			return false, fmt.Errorf("write result %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run: commit: %w", err)
	}
	return true, nil
}

// DeleteRun removes a run and, through the foreign key, its results.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
