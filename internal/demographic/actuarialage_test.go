package demographic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/actuarial"
	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/testutil"
	"github.com/roach88/nomina/internal/validator"
)

func TestProjectActives_SkipsUnusableRows(t *testing.T) {
	data := testutil.Actives(
		testutil.Ana(0),
		testutil.With(testutil.Juan(0), func(r *ir.EmployeeRecord) { r.BaseSalary = "" }),
		testutil.With(testutil.Juan(0), func(r *ir.EmployeeRecord) { r.HireDate = "??" }),
		testutil.Juan(0),
	)
	in := validator.Input{Data: data, AsOf: testutil.AsOf}

	got, skipped, err := ProjectActives(context.Background(), in, config.Defaults(), map[int]bool{4: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Row)
	assert.Equal(t, 3, skipped)

	cfg := config.Defaults()
	annual := cfg.Salary.Annual(15000)
	assert.InDelta(t, annual, got[0].AnnualSalary, 1e-9)
	assert.Equal(t, actuarial.EligibilityNone, got[0].Eligibility)
}

func TestActuarialAgeValidator_Eligibility(t *testing.T) {
	normal := testutil.With(testutil.Juan(0), noIDs, dates("1955-01-01", "1980-01-01"))
	early := testutil.With(testutil.Juan(0), noIDs, dates("1962-06-01", "1998-01-01"))
	short := testutil.With(testutil.Juan(0), noIDs, dates("1955-01-01", "2010-01-01"))
	data := testutil.Actives(testutil.Ana(0), normal, early, short)

	results := run(t, NewActuarialAgeValidator(config.Defaults()), data, nil)

	eligibility := withMeta(results, "eligibility")
	require.Len(t, eligibility, 2)
	assert.Equal(t, []int{2}, eligibility[0].AffectedRows)
	assert.Equal(t, "normal", eligibility[0].Metadata["eligibility"])
	assert.Equal(t, []int{3}, eligibility[1].AffectedRows)

	warnings := bySeverity(results, ir.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, []int{4}, warnings[0].AffectedRows)

	summary := withMeta(results, "total_present_value")
	require.Len(t, summary, 1)
	assert.Equal(t, 4, summary[0].Metadata["projected"])
	assert.Positive(t, summary[0].Metadata["total_present_value"].(float64))
	buckets := summary[0].Metadata["tenure_buckets"].(map[string]any)
	assert.Equal(t, 2, buckets["10-19"])
	assert.Equal(t, 1, buckets["30+"])
	assert.Equal(t, 1, buckets["20-29"])
}

func TestActuarialAgeValidator_ExcludesRejectedBirthDates(t *testing.T) {
	data := testutil.Actives(testutil.Ana(1))
	upstream := map[string][]ir.ValidationResult{
		BirthDateAgent: {ir.Critical(BirthDateAgent, ir.KindBusinessRule, FieldBirthDate, "bad").WithRows(ir.CollectionActive, 1)},
	}

	results := run(t, NewActuarialAgeValidator(config.Defaults()), data, upstream)
	require.Len(t, results, 1)
	assert.Equal(t, ir.SeverityInfo, results[0].Severity)
	assert.Equal(t, 1, results[0].Metadata["skipped"])
}
