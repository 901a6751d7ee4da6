package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/testutil"
)

func TestLaborLawValidator_Descriptor(t *testing.T) {
	d := NewLaborLawValidator(config.Defaults()).Descriptor()
	assert.Equal(t, []string{salary.Agent, demographic.TemporalAgent}, d.Dependencies)
	assert.Equal(t, 3, d.Priority)
}

func TestLaborLawValidator_Clean(t *testing.T) {
	data := testutil.Dataset(
		[]ir.EmployeeRecord{testutil.Ana(1), testutil.Juan(2)},
		testutil.Terminated(testutil.Juan(1), "2023-06-30", "Renuncia voluntaria"),
	)

	results := run(t, NewLaborLawValidator(config.Defaults()), data, nil)
	require.Len(t, results, 1, "%+v", results)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}

func TestLaborLawValidator_ActiveViolations(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(*ir.EmployeeRecord)
		statute  string
		severity ir.Severity
		class    SeverityClass
	}{
		{"no IMSS registration", func(r *ir.EmployeeRecord) { r.NSS = "" }, StatuteSocialSecurity, ir.SeverityCritical, ClassCritical},
		{"below minimum wage", func(r *ir.EmployeeRecord) { r.BaseSalary = "3000"; r.IntegratedSalary = "3200" }, StatuteMinimumWage, ir.SeverityWarning, ClassHigh},
		{"short vacations", func(r *ir.EmployeeRecord) { r.VacationDays = "20" }, StatuteVacationDays, ir.SeverityWarning, ClassMedium},
		{"low vacation premium", func(r *ir.EmployeeRecord) { r.VacationPremium = "20%" }, StatuteVacationPremium, ir.SeverityWarning, ClassLow},
		{"one percent vacation premium", func(r *ir.EmployeeRecord) { r.VacationPremium = "1%" }, StatuteVacationPremium, ir.SeverityWarning, ClassLow},
		{"half percent vacation premium", func(r *ir.EmployeeRecord) { r.VacationPremium = "0.5%" }, StatuteVacationPremium, ir.SeverityWarning, ClassLow},
		{"low annual bonus", func(r *ir.EmployeeRecord) { r.AnnualBonusDays = "10" }, StatuteAnnualBonus, ir.SeverityWarning, ClassMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testutil.Actives(testutil.With(testutil.Ana(1), tt.edit))

			results := run(t, NewLaborLawValidator(config.Defaults()), data, nil)
			require.Len(t, results, 1, "%+v", results)
			r := results[0]
			assert.Equal(t, tt.severity, r.Severity)
			assert.Equal(t, ir.KindBusinessRule, r.Kind)
			assert.Equal(t, tt.statute, r.Metadata["statute"])
			assert.Equal(t, string(tt.class), r.Metadata["severity_class"])
			assert.NotEmpty(t, r.Suggestion)
		})
	}
}

func TestLaborLawValidator_StatutoryMinimumsPass(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.VacationDays = "24"
		r.VacationPremium = "0.25"
		r.AnnualBonusDays = "15"
	}))

	results := run(t, NewLaborLawValidator(config.Defaults()), data, nil)
	require.Len(t, results, 1)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}

func TestLaborLawValidator_AnnualBonusProrated(t *testing.T) {
	hired := func(bonus string) func(*ir.EmployeeRecord) {
		return func(r *ir.EmployeeRecord) {
			r.HireDate = "2024-07-01"
			r.AnnualBonusDays = bonus
		}
	}

	ok := run(t, NewLaborLawValidator(config.Defaults()), testutil.Actives(testutil.With(testutil.Ana(1), hired("8"))), nil)
	assert.Empty(t, byMeta(ok, "statute", StatuteAnnualBonus))

	short := run(t, NewLaborLawValidator(config.Defaults()), testutil.Actives(testutil.With(testutil.Ana(1), hired("7"))), nil)
	bonus := byMeta(short, "statute", StatuteAnnualBonus)
	require.Len(t, bonus, 1)
	assert.InDelta(t, 7.54, bonus[0].Metadata["required"], 1e-9)
}

func TestLaborLawValidator_UnjustifiedDismissal(t *testing.T) {
	term := testutil.Terminated(testutil.Juan(1), "2023-06-01", "Despido injustificado")
	term.SeniorityPremium = "10000"

	results := run(t, NewLaborLawValidator(config.Defaults()), testutil.Dataset(nil, term), nil)

	premium := byMeta(results, "statute", StatuteSeniorityPremium)
	require.Len(t, premium, 1)
	assert.InDelta(t, 12*8*12000/30.4, premium[0].Metadata["required"], 0.01)
	assert.Equal(t, ir.CollectionTerminations, premium[0].Collection)

	severance := byMeta(results, "statute", StatuteSeverance)
	require.Len(t, severance, 1)
	assert.InDelta(t, 90*12542.40/30.4, severance[0].Metadata["required"], 0.01)
	assert.Contains(t, severance[0].Message, "no severance")
}

func TestLaborLawValidator_SeverancePaidInFull(t *testing.T) {
	term := testutil.Terminated(testutil.Juan(1), "2023-06-01", "Despido injustificado")
	term.SeverancePay = "$40,000.00"
	term.SeniorityPremium = "40000"

	results := run(t, NewLaborLawValidator(config.Defaults()), testutil.Dataset(nil, term), nil)
	require.Len(t, results, 1)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}

func TestLaborLawValidator_SeniorityPremiumCappedAtTwiceMinimumWage(t *testing.T) {
	term := testutil.Terminated(testutil.With(testutil.Juan(1), func(r *ir.EmployeeRecord) {
		r.BaseSalary = "60000"
		r.IntegratedSalary = "62712"
		r.Position = "Gerente"
	}), "2023-06-01", "Jubilación")
	term.SeniorityPremium = "1"

	results := run(t, NewLaborLawValidator(config.Defaults()), testutil.Dataset(nil, term), nil)
	premium := byMeta(results, "statute", StatuteSeniorityPremium)
	require.Len(t, premium, 1)
	assert.InDelta(t, 12*8*2*207.44, premium[0].Metadata["required"], 0.01)
}

func TestLaborLawValidator_SkipsTenureChecksForRejectedDates(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.VacationDays = "1" }))
	upstream := map[string][]ir.ValidationResult{
		demographic.TemporalAgent: {
			ir.Critical(demographic.TemporalAgent, ir.KindConsistencyViolation, demographic.FieldHireDate, "swapped").
				WithRows(ir.CollectionActive, 1),
		},
	}

	results := run(t, NewLaborLawValidator(config.Defaults()), data, upstream)
	require.Len(t, results, 1)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}
