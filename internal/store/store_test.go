package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// ============================================================
// Open
// ============================================================

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	assert.Error(t, err)
}

// ============================================================
// Write / read
// ============================================================

func TestWriteRun_AndGetRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rep := createTestReport("run-a", 0)

	inserted, err := s.WriteRun(ctx, rep, testData(), "2")
	require.NoError(t, err)
	assert.True(t, inserted)

	run, err := s.GetRun(ctx, "run-a")
	require.NoError(t, err)

	wantDigest, err := ir.ResultsDigest(rep.Results)
	require.NoError(t, err)
	wantDataset, err := ir.DatasetDigest(testData())
	require.NoError(t, err)

	assert.Equal(t, "run-a", run.ID)
	assert.Equal(t, engine.StateCompleted, run.State)
	assert.True(t, run.AsOf.Equal(testAsOf))
	assert.True(t, run.StartedAt.Equal(rep.StartedAt))
	assert.True(t, run.FinishedAt.Equal(rep.FinishedAt))
	assert.Equal(t, "2", run.ConfigVersion)
	assert.Equal(t, ir.RulesetVersion, run.RulesetVersion)
	assert.Equal(t, wantDigest, run.Digest)
	assert.Equal(t, wantDataset, run.DatasetDigest)
	assert.Equal(t, 2, run.ActiveCount)
	assert.Equal(t, 1, run.TerminationCount)
	assert.Equal(t, []int{1, 1, 1}, []int{run.Critical, run.Warning, run.Info})
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, createTestReport("run-a", 0), testData(), "2")
	require.NoError(t, err)

	changed := createTestReport("run-a", time.Hour)
	changed.Results = nil
	inserted, err := s.WriteRun(ctx, changed, testData(), "3")
	require.NoError(t, err)
	assert.False(t, inserted)

	run, err := s.GetRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, "2", run.ConfigVersion)

	results, err := s.ReadResults(ctx, "run-a", ResultFilter{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestWriteRun_RequiresRunID(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteRun(context.Background(), &engine.Report{}, nil, "2")
	assert.Error(t, err)
	_, err = s.WriteRun(context.Background(), nil, nil, "2")
	assert.Error(t, err)
}

func TestWriteRun_EmptyRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rep := &engine.Report{RunID: "empty", State: engine.StateFailed, AsOf: testAsOf}

	_, err := s.WriteRun(ctx, rep, nil, "2")
	require.NoError(t, err)

	loaded, err := s.LoadReport(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, loaded.Results)
	assert.Nil(t, loaded.Plan)
	assert.Empty(t, loaded.Agents)
}

func TestReadResults_PreservesOrderAndContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rep := createTestReport("run-a", 0)
	_, err := s.WriteRun(ctx, rep, testData(), "2")
	require.NoError(t, err)

	got, err := s.ReadResults(ctx, "run-a", ResultFilter{})
	require.NoError(t, err)

	assert.Equal(t, keys(rep.Results), keys(got))
	assert.Equal(t, "recompute the integrated salary", got[0].Suggestion)
	assert.Equal(t, ir.StatusError, got[0].Status)
	assert.Equal(t, json.Number("10000.5"), got[0].Metadata["base"])
	assert.Nil(t, got[2].AffectedRows)

	digest, err := ir.ResultsDigest(got)
	require.NoError(t, err)
	want, err := ir.ResultsDigest(rep.Results)
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestReadResults_Filters(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestReport("run-a", 0), testData(), "2")
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter ResultFilter
		agents []string
	}{
		{"by agent", ResultFilter{Agents: []string{"rfc-validator", "anomaly-detector"}}, []string{"rfc-validator", "anomaly-detector"}},
		{"by severity", ResultFilter{Severities: []ir.Severity{ir.SeverityCritical}}, []string{"salary-validator"}},
		{"by kind", ResultFilter{Kinds: []ir.Kind{ir.KindMissingData}}, []string{"rfc-validator"}},
		{"by collection", ResultFilter{Collection: ir.CollectionActive}, []string{"salary-validator"}},
		{"combined", ResultFilter{Agents: []string{"rfc-validator"}, Severities: []ir.Severity{ir.SeverityCritical}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ReadResults(ctx, "run-a", tt.filter)
			require.NoError(t, err)

			agents := []string{}
			for _, r := range got {
				agents = append(agents, r.Agent)
			}
			assert.Equal(t, tt.agents, agents)
		})
	}
}

func TestReadResults_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadResults(context.Background(), "nope", ResultFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ============================================================
// Lookup
// ============================================================

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"0190aa-1", "0190aa-2", "0191bb-1"} {
		_, err := s.WriteRun(ctx, createTestReport(id, time.Duration(i)*time.Minute), testData(), "2")
		require.NoError(t, err)
	}

	run, err := s.ResolveRun(ctx, "0191")
	require.NoError(t, err)
	assert.Equal(t, "0191bb-1", run.ID)

	run, err = s.ResolveRun(ctx, "0190aa-2")
	require.NoError(t, err)
	assert.Equal(t, "0190aa-2", run.ID)

	_, err = s.ResolveRun(ctx, "0190")
	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, []string{"0190aa-1", "0190aa-2"}, amb.Matches)

	_, err = s.ResolveRun(ctx, "ffff")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ResolveRun(ctx, "")
	assert.Error(t, err)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for i, id := range []string{"first", "second", "third"} {
		_, err := s.WriteRun(ctx, createTestReport(id, time.Duration(i)*time.Hour), testData(), "2")
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"third", "second", "first"}, ids)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

// ============================================================
// Reports
// ============================================================

func TestLoadReport_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rep := createTestReport("run-a", 0)
	_, err := s.WriteRun(ctx, rep, testData(), "2")
	require.NoError(t, err)

	got, err := s.LoadReport(ctx, "run-a")
	require.NoError(t, err)

	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, rep.State, got.State)
	assert.Equal(t, rep.Agents, got.Agents)
	assert.Equal(t, rep.Transitions, got.Transitions)
	assert.Equal(t, rep.Plan.Tiers, got.Plan.Tiers)
	assert.Equal(t, 1, got.Plan.TierOf("anomaly-detector"))
	assert.Equal(t, keys(rep.Results), keys(got.Results))
}

func TestLoadReport_DetectsTampering(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestReport("run-a", 0), testData(), "2")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE results SET message = 'edited' WHERE run_id = 'run-a' AND seq = 1`)
	require.NoError(t, err)

	_, err = s.LoadReport(ctx, "run-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestDeleteRun_CascadesResults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.WriteRun(ctx, createTestReport("run-a", 0), testData(), "2")
	require.NoError(t, err)

	require.NoError(t, s.DeleteRun(ctx, "run-a"))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count))
	assert.Zero(t, count)
	assert.ErrorIs(t, s.DeleteRun(ctx, "run-a"), ErrNotFound)
}
