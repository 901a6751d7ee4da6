package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/nomina/internal/ir"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		a, b      []ir.ValidationResult
		added     []ir.ValidationResult
		removed   []ir.ValidationResult
		unchanged int
	}{
		{
			name:      "identical",
			a:         []ir.ValidationResult{missingRFC(), salaryCritical()},
			b:         []ir.ValidationResult{missingRFC(), salaryCritical()},
			added:     []ir.ValidationResult{},
			removed:   []ir.ValidationResult{},
			unchanged: 2,
		},
		{
			name:      "fixed and new",
			a:         []ir.ValidationResult{missingRFC(), salaryCritical()},
			b:         []ir.ValidationResult{salaryCritical(), riskFailure()},
			added:     []ir.ValidationResult{riskFailure()},
			removed:   []ir.ValidationResult{missingRFC()},
			unchanged: 1,
		},
		{
			name:      "duplicates counted",
			a:         []ir.ValidationResult{missingRFC()},
			b:         []ir.ValidationResult{missingRFC(), missingRFC()},
			added:     []ir.ValidationResult{missingRFC()},
			removed:   []ir.ValidationResult{},
			unchanged: 1,
		},
		{
			name:    "empty baseline",
			b:       []ir.ValidationResult{missingRFC()},
			added:   []ir.ValidationResult{missingRFC()},
			removed: []ir.ValidationResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Diff(tt.a, tt.b)

			assert.Equal(t, tt.added, d.Added)
			assert.Equal(t, tt.removed, d.Removed)
			assert.Equal(t, tt.unchanged, d.Unchanged)
			assert.Equal(t, len(tt.added) == 0 && len(tt.removed) == 0, d.Empty())
		})
	}
}

func TestDiffIgnoresMetadata(t *testing.T) {
	a := []ir.ValidationResult{salaryCritical()}
	b := []ir.ValidationResult{salaryCritical().WithMeta("base", 10001.0)}

	assert.True(t, Diff(a, b).Empty())
}
