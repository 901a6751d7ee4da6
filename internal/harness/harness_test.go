package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

func loadRepoScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// =============================================================================
// Repository scenarios
// =============================================================================

func TestRun_RepositoryScenariosPass(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "%v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Empty(t, result.Warnings)
		})
	}
}

func TestRun_IntegratedBelowBaseRunsWholeSuite(t *testing.T) {
	result, err := Run(loadRepoScenario(t, "integrated_below_base"))
	require.NoError(t, err)

	assert.Len(t, result.Report.Agents, 11)
	assert.Equal(t, "test-run-default", result.Report.RunID)
	assert.Equal(t, DefaultAsOf, result.Report.AsOf.Format("2006-01-02"))
}

func TestRun_IsDeterministic(t *testing.T) {
	s := loadRepoScenario(t, "integrated_below_base")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(NewSnapshot(s.Name, first.Report))
	require.NoError(t, err)
	b, err := MarshalSnapshot(NewSnapshot(s.Name, second.Report))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, first.Report.StartedAt, second.Report.StartedAt)
}

// =============================================================================
// Failures
// =============================================================================

func TestRun_FailedExpectationsAreReported(t *testing.T) {
	s := loadRepoScenario(t, "century_mismatch")
	zero := 0
	blocks := false
	s.Expect = []Expectation{{Agent: "temporal-consistency-validator", Count: &zero}}
	s.BlocksValuation = &blocks
	s.State = string(engine.StateFailed)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: expect")
	assert.Contains(t, result.Errors[0], "exactly 0 result(s) matching agent=temporal-consistency-validator")
	assert.Contains(t, result.Errors[0], "1 matching result(s)")
	assert.Contains(t, result.Errors[1], "Assertion failed: blocks_valuation")
	assert.Contains(t, result.Errors[2], "Expected: run state failed")
	assert.Contains(t, result.Errors[2], "Actual: run state completed")
}

func TestRun_UnknownValidator(t *testing.T) {
	s := loadRepoScenario(t, "century_mismatch")
	s.Only = []string{"no-such-validator"}

	_, err := Run(s)
	require.Error(t, err)
	assert.True(t, engine.IsPlanError(err))
}

func TestRun_MissingConfigFile(t *testing.T) {
	s := loadRepoScenario(t, "century_mismatch")
	s.Config = "nope.yaml"

	_, err := Run(s)
	var nf *DatasetNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRunContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunContext(ctx, loadRepoScenario(t, "century_mismatch"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_EmptyScenario(t *testing.T) {
	zero := 0
	s := &Scenario{
		Name:   "empty",
		Only:   []string{"rfc-validator"},
		Expect: []Expectation{{Severity: string(ir.SeverityCritical), Count: &zero}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
	assert.Equal(t, engine.StateCompleted, result.Report.State)
}
