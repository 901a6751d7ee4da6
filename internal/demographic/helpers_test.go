package demographic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/testutil"
	"github.com/roach88/nomina/internal/validator"
)

func run(t *testing.T, v validator.Validator, data *ir.MappedData, upstream map[string][]ir.ValidationResult) []ir.ValidationResult {
	t.Helper()
	results, err := v.Validate(context.Background(), validator.Input{Data: data, AsOf: testutil.AsOf, Upstream: upstream})
	require.NoError(t, err)
	require.Empty(t, ir.CheckResults(results, data.Sizes()))
	return results
}

func bySeverity(results []ir.ValidationResult, sev ir.Severity) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, r := range results {
		if r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}

func withMeta(results []ir.ValidationResult, key string) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, r := range results {
		if _, ok := r.Metadata[key]; ok {
			out = append(out, r)
		}
	}
	return out
}

// noIDs strips identifiers so date edits do not trigger reconciliation.
func noIDs(r *ir.EmployeeRecord) {
	r.RFC = ""
	r.CURP = ""
	r.NSS = ""
}

func dates(birth, hire string) func(*ir.EmployeeRecord) {
	return func(r *ir.EmployeeRecord) {
		r.BirthDate = birth
		r.HireDate = hire
	}
}
