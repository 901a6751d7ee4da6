package compliance

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

func byMeta(results []ir.ValidationResult, key string, value any) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, r := range results {
		if v, ok := r.Metadata[key]; ok && (value == nil || v == value) {
			out = append(out, r)
		}
	}
	return out
}
