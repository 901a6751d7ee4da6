package demographic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/testutil"
	"github.com/roach88/nomina/internal/validator"
)

func TestTemporalValidator_Descriptor(t *testing.T) {
	d := NewTemporalValidator(config.Defaults()).Descriptor()
	assert.Equal(t, []string{identity.RFCAgent, identity.CURPAgent, identity.NSSAgent}, d.Dependencies)
}

func TestTemporalValidator_Clean(t *testing.T) {
	data := testutil.Dataset(
		[]ir.EmployeeRecord{testutil.Ana(1), testutil.Juan(2)},
		testutil.Terminated(testutil.Juan(1), "2023-06-30", "renuncia"),
	)

	results := run(t, NewTemporalValidator(config.Defaults()), data, nil)
	require.Len(t, results, 1, "%+v", results)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}

func TestTemporalValidator_RecordChecks(t *testing.T) {
	tests := []struct {
		name     string
		edit     func(*ir.EmployeeRecord)
		severity ir.Severity
		kind     ir.Kind
		field    string
	}{
		{"missing hire", dates("1985-01-01", ""), ir.SeverityCritical, ir.KindMissingData, FieldHireDate},
		{"unparseable hire", dates("1985-01-01", "2010-13-01"), ir.SeverityCritical, ir.KindFormatInvalid, FieldHireDate},
		{"hire before birth", dates("1985-01-01", "1980-01-01"), ir.SeverityCritical, ir.KindConsistencyViolation, FieldHireDate},
		{"hired at 14", dates("1985-01-01", "1999-06-01"), ir.SeverityCritical, ir.KindBusinessRule, FieldHireDate},
		{"hired at 72", dates("1940-01-01", "2012-06-01"), ir.SeverityWarning, ir.KindBusinessRule, FieldHireDate},
		{"future hire", dates("1985-01-01", "2025-03-01"), ir.SeverityWarning, ir.KindConsistencyViolation, FieldHireDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testutil.Actives(testutil.With(testutil.Ana(1), noIDs, tt.edit))

			results := run(t, NewTemporalValidator(config.Defaults()), data, nil)
			require.Len(t, results, 1, "%+v", results)
			assert.Equal(t, tt.severity, results[0].Severity)
			assert.Equal(t, tt.kind, results[0].Kind)
			assert.Equal(t, tt.field, results[0].Field)
			assert.Equal(t, []int{1}, results[0].AffectedRows)
		})
	}
}

func TestTemporalValidator_FutureBirthIsWarning(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), noIDs, dates("2026-01-01", "2024-01-01")))

	results := run(t, NewTemporalValidator(config.Defaults()), data, nil)
	assert.Empty(t, bySeverity(results, ir.SeverityCritical))
	require.Len(t, results, 1, "%+v", results)
	assert.Equal(t, ir.SeverityWarning, results[0].Severity)
	assert.Equal(t, FieldBirthDate, results[0].Field)
}

func TestFutureBirthIsCriticalOnce(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), noIDs, dates("2026-01-01", "2024-01-01")))
	cfg := config.Defaults()

	var critical []ir.ValidationResult
	for _, v := range []validator.Validator{NewBirthDateValidator(cfg), NewTemporalValidator(cfg)} {
		critical = append(critical, bySeverity(run(t, v, data, nil), ir.SeverityCritical)...)
	}
	require.Len(t, critical, 1, "%+v", critical)
	assert.Equal(t, BirthDateAgent, critical[0].Agent)
	assert.Equal(t, FieldBirthDate, critical[0].Field)
}

func TestTemporalValidator_TerminationChecks(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		severity ir.Severity
		kind     ir.Kind
	}{
		{"missing", "", ir.SeverityCritical, ir.KindMissingData},
		{"unparseable", "ayer", ir.SeverityCritical, ir.KindFormatInvalid},
		{"before hire", "2014-12-31", ir.SeverityCritical, ir.KindConsistencyViolation},
		{"same day as hire", "01/06/2015", ir.SeverityCritical, ir.KindConsistencyViolation},
		{"future", "2025-06-30", ir.SeverityWarning, ir.KindConsistencyViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := testutil.Dataset(nil, testutil.Terminated(testutil.Juan(1), tt.date, "despido"))

			results := run(t, NewTemporalValidator(config.Defaults()), data, nil)
			require.Len(t, results, 1, "%+v", results)
			assert.Equal(t, tt.severity, results[0].Severity)
			assert.Equal(t, tt.kind, results[0].Kind)
			assert.Equal(t, FieldTerminationDate, results[0].Field)
			assert.Equal(t, ir.CollectionTerminations, results[0].Collection)
		})
	}
}

func TestTemporalValidator_DecodedCenturyMismatchIsOneCritical(t *testing.T) {
	rec := testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.RFC = "LOGA300101AB1"
		r.CURP = ""
		r.BirthDate = "1930-01-01"
		r.HireDate = "1955-03-01"
	})

	results := run(t, NewTemporalValidator(config.Defaults()), testutil.Actives(rec), nil)
	require.Len(t, results, 1, "%+v", results)
	r := results[0]
	assert.Equal(t, ir.SeverityCritical, r.Severity)
	assert.Equal(t, ir.KindConsistencyViolation, r.Kind)
	assert.Equal(t, identity.FieldRFC, r.Metadata["source"])
	assert.Equal(t, "2030-01-01", r.Metadata["decoded_birth_date"])
	assert.Greater(t, r.Metadata["delta_days"].(int), 30)
}

func TestTemporalValidator_SmallDeltaWarns(t *testing.T) {
	rec := testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.RFC = "LOGA850111AB1" })

	results := run(t, NewTemporalValidator(config.Defaults()), testutil.Actives(rec), nil)
	require.Len(t, results, 1)
	assert.Equal(t, ir.SeverityWarning, results[0].Severity)
	assert.Equal(t, 10, results[0].Metadata["delta_days"])
}

func TestTemporalValidator_SkipsIdentifiersRejectedUpstream(t *testing.T) {
	rec := testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.RFC = "LOGA850111AB1" })
	upstream := map[string][]ir.ValidationResult{
		identity.RFCAgent: {
			ir.Critical(identity.RFCAgent, ir.KindConsistencyViolation, identity.FieldRFC, "duplicated").
				WithRows(ir.CollectionActive, 1),
		},
	}

	results := run(t, NewTemporalValidator(config.Defaults()), testutil.Actives(rec), upstream)
	require.Len(t, results, 1)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}
