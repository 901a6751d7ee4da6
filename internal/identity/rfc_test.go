package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/testutil"
)

// ============================================================================
// ParseRFC
// ============================================================================

func TestParseRFC_Valid(t *testing.T) {
	rfc, err := ParseRFC("loga-850101-ab1")
	require.NoError(t, err)

	assert.Equal(t, "LOGA850101AB1", rfc.Value)
	assert.Equal(t, "LOGA", rfc.NameBlock)
	assert.Equal(t, time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), rfc.BirthDate)
	assert.Equal(t, "AB", rfc.Homoclave)
	assert.Equal(t, '1', rfc.CheckChar)
}

func TestParseRFC_AcceptsEnieAndAmpersand(t *testing.T) {
	_, err := ParseRFC("MUÑO850101AB1")
	assert.NoError(t, err)
	_, err = ParseRFC("M&RA850101ABA")
	assert.NoError(t, err)
}

func TestParseRFC_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"legal entity", "LOG850101AB1", "legal-entity"},
		{"too long", "LOGA850101AB12", "expected 13"},
		{"digit in name block", "L0GA850101AB1", "name block"},
		{"blocked word", "PUTO850101AB1", "blocked word"},
		{"impossible month", "LOGA851301AB1", "birth segment"},
		{"impossible day", "LOGA850230AB1", "birth segment"},
		{"homoclave symbol", "LOGA850101A#1", "homoclave"},
		{"check char letter", "LOGA850101ABZ", "check character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRFC(tt.raw)
			require.Error(t, err)
			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe.Reason, tt.reason)
		})
	}
}

// ============================================================================
// RFCValidator
// ============================================================================

func TestRFCValidator_MissingRequiredIsCritical(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.RFC = "N/A"
		r.Name = "Ana López García LOGA850101AB1"
	}))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	missing := only(results, ir.SeverityCritical, ir.KindMissingData)
	require.Len(t, missing, 1)
	assert.Equal(t, []int{1}, missing[0].AffectedRows)
	assert.Equal(t, ir.CollectionActive, missing[0].Collection)
	assert.Contains(t, missing[0].Suggestion, "LOGA850101AB1")
}

func TestRFCValidator_MissingOptionalIsWarning(t *testing.T) {
	cfg := config.Defaults()
	cfg.Identity.Required = []string{"nss"}
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.RFC = "" }))

	results := run(t, NewRFCValidator(cfg), data)
	require.Len(t, only(results, ir.SeverityWarning, ir.KindMissingData), 1)
	assert.Empty(t, only(results, ir.SeverityCritical, ir.KindMissingData))
}

func TestRFCValidator_FormatInvalidSuggestsEmbeddedID(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.RFC = "RFC: LOGA850101AB1" }))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	invalid := only(results, ir.SeverityCritical, ir.KindFormatInvalid)
	require.Len(t, invalid, 1)
	assert.Contains(t, invalid[0].Suggestion, "LOGA850101AB1")
}

func TestRFCValidator_DuplicatesPerCollection(t *testing.T) {
	data := testutil.Dataset(
		[]ir.EmployeeRecord{testutil.Ana(1), testutil.Juan(2), testutil.Ana(3)},
		testutil.Terminated(testutil.Ana(1), "2023-01-31", "renuncia"),
	)

	results := run(t, NewRFCValidator(config.Defaults()), data)
	dups := only(results, ir.SeverityCritical, ir.KindConsistencyViolation)
	require.Len(t, dups, 1, "the terminated row belongs to another collection")
	assert.Equal(t, []int{1, 3}, dups[0].AffectedRows)
	assert.Equal(t, "LOGA850101AB1", dups[0].Metadata["value"])
}

func TestRFCValidator_FutureDecodedDateOnlyWarns(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.RFC = "LOGA300101AB1"
		r.BirthDate = "1930-01-01"
	}))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	for _, r := range results {
		assert.NotEqual(t, ir.SeverityCritical, r.Severity, r.Message)
	}
	warnings := only(results, ir.SeverityWarning, ir.KindConsistencyViolation)
	require.Len(t, warnings, 2, "future decoded date and declared mismatch")
	assert.Equal(t, "2030-01-01", warnings[0].Metadata["decoded_birth_date"])
	assert.Equal(t, "1930-01-01", warnings[1].Metadata["declared_birth_date"])
}

func TestRFCValidator_DecodedMinorIsCritical(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.RFC = "LOGA100101AB1"
		r.BirthDate = "2010-01-01"
	}))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	rule := only(results, ir.SeverityCritical, ir.KindBusinessRule)
	require.Len(t, rule, 1)
	assert.Equal(t, 14, rule[0].Metadata["derived_age"])
}

func TestRFCValidator_DecodedVeryOldWarns(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) {
		r.RFC = "LOGA400101AB1"
		r.BirthDate = "1940-01-01"
	}))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	require.Len(t, only(results, ir.SeverityWarning, ir.KindBusinessRule), 1)
}

func TestRFCValidator_DeclaredWithinToleranceIsQuiet(t *testing.T) {
	data := testutil.Actives(testutil.With(testutil.Ana(1), func(r *ir.EmployeeRecord) { r.BirthDate = "1985-01-02" }))

	results := run(t, NewRFCValidator(config.Defaults()), data)
	require.Len(t, results, 1)
	assert.Equal(t, ir.StatusSuccess, results[0].Status)
}
