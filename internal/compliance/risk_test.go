package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/actuarial"
	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/testutil"
)

func veteran() ir.EmployeeRecord {
	return testutil.With(testutil.Juan(0), func(r *ir.EmployeeRecord) {
		r.RFC, r.CURP, r.NSS = "", "", ""
		r.BirthDate = "1958-01-01"
		r.HireDate = "1985-01-01"
		r.BaseSalary = "60000"
		r.IntegratedSalary = "62712"
		r.Position = "Director de Operaciones"
	})
}

func TestRiskValidator_Score(t *testing.T) {
	v := NewRiskValidator(config.Defaults())
	scores := v.Score([]demographic.Projected{
		{Row: 1, Projection: actuarial.Projection{YearsToRetirement: 0, Service: 30, AnnualSalary: 200000, PresentValue: 1e6}},
		{Row: 2, Projection: actuarial.Projection{YearsToRetirement: 40, Service: 1, AnnualSalary: 100000, PresentValue: 1e4}},
	})
	require.Len(t, scores, 2)

	assert.Equal(t, 100.0, scores[0].Retirement)
	assert.Equal(t, 100.0, scores[0].Salary)
	assert.Equal(t, 0.0, scores[0].Turnover)
	assert.Equal(t, 85.0, scores[0].Score)
	assert.Equal(t, RiskCritical, scores[0].Level)

	assert.InDelta(t, 100*(1-40.0/49), scores[1].Retirement, 1e-9)
	assert.Equal(t, 0.0, scores[1].Salary)
	assert.InDelta(t, 90.0, scores[1].Turnover, 1e-9)
	assert.InDelta(t, 19.93, scores[1].Score, 0.01)
	assert.Equal(t, RiskLow, scores[1].Level)
}

func TestRiskValidator_SingleEmployeeRanksMidway(t *testing.T) {
	scores := NewRiskValidator(config.Defaults()).Score([]demographic.Projected{
		{Row: 1, Projection: actuarial.Projection{YearsToRetirement: 10, Service: 5, AnnualSalary: 1, PresentValue: 1}},
	})
	assert.Equal(t, 50.0, scores[0].Salary)
	assert.Equal(t, 50.0, scores[0].Liability)
}

func TestRiskValidator_FlagsCriticalRisk(t *testing.T) {
	data := testutil.Actives(testutil.Ana(0), veteran())

	results := run(t, NewRiskValidator(config.Defaults()), data, nil)
	critical := byMeta(results, "level", string(RiskCritical))
	require.Len(t, critical, 1)
	assert.Equal(t, ir.SeverityWarning, critical[0].Severity)
	assert.Equal(t, []int{2}, critical[0].AffectedRows)

	summary := byMeta(results, "levels", nil)
	require.Len(t, summary, 1)
	assert.Equal(t, 2, summary[0].Metadata["scored"])
	for _, r := range results {
		assert.False(t, r.IsCritical(), "risk levels never block valuation: %s", r.Message)
	}
}

func TestRiskValidator_ExcludesRowsWithSalaryCriticals(t *testing.T) {
	data := testutil.Actives(testutil.Ana(1), veteran())
	upstream := map[string][]ir.ValidationResult{
		salary.Agent: {ir.Critical(salary.Agent, ir.KindConsistencyViolation, salary.FieldIntegrated, "low").WithRows(ir.CollectionActive, 2)},
	}

	results := run(t, NewRiskValidator(config.Defaults()), data, upstream)
	summary := byMeta(results, "levels", nil)
	require.Len(t, summary, 1)
	assert.Equal(t, 1, summary[0].Metadata["scored"])
	assert.Equal(t, 1, summary[0].Metadata["skipped"])
}

func TestRiskValidator_Sustainability(t *testing.T) {
	data := testutil.Actives(testutil.Ana(0), testutil.Juan(0))

	under := byMeta(run(t, NewRiskValidator(config.Defaults()), data, nil), "funding_ratio", nil)
	require.Len(t, under, 1)
	assert.Equal(t, ir.SeverityWarning, under[0].Severity)
	assert.Less(t, under[0].Metadata["funding_ratio"].(float64), 1.0)

	cfg := config.Defaults()
	cfg.Actuarial.ContributionRate = 0.5
	cfg.Actuarial.ContributionYears = 40
	funded := byMeta(run(t, NewRiskValidator(cfg), data, nil), "funding_ratio", nil)
	require.Len(t, funded, 1)
	assert.Equal(t, ir.SeverityInfo, funded[0].Severity)
}

func TestRiskValidator_NothingToScore(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.BaseSalary = "" }))

	results := run(t, NewRiskValidator(config.Defaults()), data, nil)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Metadata["skipped"])
}
