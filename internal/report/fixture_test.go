package report

import (
	"time"

	"github.com/roach88/nomina/internal/engine"
	"github.com/roach88/nomina/internal/ir"
)

var asOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func salaryCritical() ir.ValidationResult {
	return ir.Critical("salary-validator", ir.KindConsistencyViolation, "integrated_salary",
		"active row 1 (Juan Pérez): integrated salary 9000.00 is below base salary 10000.00").
		WithSuggestion("integrated salary must include the base salary; recompute it").
		WithRows(ir.CollectionActive, 1).
		WithMeta("base", 10000.0)
}

func riskFailure() ir.ValidationResult {
	return ir.Critical("actuarial-risk-validator", ir.KindSystemError, "*",
		"validator actuarial-risk-validator failed: boom").
		WithSuggestion("re-run the validation; if it persists, report the dataset to the maintainers")
}

func missingRFC() ir.ValidationResult {
	return ir.Warning("rfc-validator", ir.KindMissingData, "rfc", "terminations row 2: RFC is missing").
		WithSuggestion("capture the employee's RFC from official documents").
		WithRows(ir.CollectionTerminations, 2)
}

func rfcChecked() ir.ValidationResult {
	return ir.Success("rfc-validator", "1 RFC values checked, no issues found").WithMeta("checked", 1)
}

// sampleReport is a finished run with one failed validator.
func sampleReport() *engine.Report {
	started := asOf.Add(9 * time.Hour)
	return &engine.Report{
		RunID:      "run-0001",
		State:      engine.StateCompleted,
		AsOf:       asOf,
		StartedAt:  started,
		FinishedAt: started.Add(120 * time.Millisecond),
		Plan: &engine.Plan{Tiers: []engine.Tier{
			{Index: 0, Agents: []string{"rfc-validator", "salary-validator"}},
			{Index: 1, Agents: []string{"actuarial-risk-validator"}},
		}},
		Agents: []engine.AgentRun{
			{Name: "rfc-validator", Tier: 0, Priority: 1, Duration: 4 * time.Millisecond, Results: 2},
			{Name: "salary-validator", Tier: 0, Priority: 1, Duration: 6 * time.Millisecond, Results: 1},
			{Name: "actuarial-risk-validator", Tier: 1, Priority: 4, Duration: time.Millisecond, Results: 1, Error: "boom"},
		},
		Results: []ir.ValidationResult{missingRFC(), rfcChecked(), salaryCritical(), riskFailure()},
		Transitions: []engine.State{
			engine.StateIdle, engine.StateScheduling, engine.StateRunning,
			engine.StateAggregated, engine.StateCompleted,
		},
	}
}
