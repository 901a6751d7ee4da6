package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var testAsOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func testData() *ir.MappedData {
	return &ir.MappedData{
		ActivePersonnel: []ir.EmployeeRecord{{Row: 1, Name: "Ana"}, {Row: 2, Name: "Juan"}},
		Terminations:    []ir.TerminationRecord{{EmployeeRecord: ir.EmployeeRecord{Row: 1, Name: "María"}}},
	}
}

// createTestReport builds a completed run started at the given offset from
// testAsOf.
func createTestReport(id string, offset time.Duration) *engine.Report {
	started := testAsOf.Add(offset)
	return &engine.Report{
		RunID:      id,
		State:      engine.StateCompleted,
		AsOf:       testAsOf,
		StartedAt:  started,
		FinishedAt: started.Add(250 * time.Millisecond),
		Plan: &engine.Plan{Tiers: []engine.Tier{
			{Index: 0, Agents: []string{"rfc-validator", "salary-validator"}},
			{Index: 1, Agents: []string{"anomaly-detector"}},
		}},
		Agents: []engine.AgentRun{
			{Name: "rfc-validator", Tier: 0, Priority: 1, Duration: 3 * time.Millisecond, Results: 1},
			{Name: "salary-validator", Tier: 0, Priority: 1, Duration: 5 * time.Millisecond, Results: 1},
			{Name: "anomaly-detector", Tier: 1, Priority: 5, Duration: 2 * time.Millisecond, Results: 1},
		},
		Results: []ir.ValidationResult{
			ir.Critical("salary-validator", ir.KindConsistencyViolation, "integrated_salary", "integrated below base").
				WithSuggestion("recompute the integrated salary").
				WithRows(ir.CollectionActive, 2).
				WithMeta("base", 10000.5),
			ir.Warning("rfc-validator", ir.KindMissingData, "rfc", "RFC is missing").
				WithRows(ir.CollectionTerminations, 1),
			ir.Success("anomaly-detector", "no cross-field anomalies detected").WithMeta("checked", 2),
		},
		Transitions: []engine.State{
			engine.StateIdle, engine.StateScheduling, engine.StateRunning,
			engine.StateAggregated, engine.StateCompleted,
		},
	}
}

func keys(results []ir.ValidationResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Key()
	}
	return out
}
