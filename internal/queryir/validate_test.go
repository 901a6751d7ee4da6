package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = Schema{
	"results": {
		Name:     "results",
		Columns:  []string{"run_id", "seq", "agent", "severity"},
		OrderKey: []string{"run_id", "seq"},
	},
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		query  Query
		issues []string
	}{
		{
			name:  "valid",
			query: Select{From: "results", Filter: And{Predicates: []Predicate{Equals{Field: "run_id", Value: "r"}, In{Field: "seq", Values: []any{1, int64(2)}}}}},
		},
		{
			name:  "pointer select",
			query: &Select{From: "results", Columns: []string{"agent"}},
		},
		{
			name:   "unknown table",
			query:  Select{From: "runs"},
			issues: []string{`unknown table "runs"`},
		},
		{
			name:  "collects every issue",
			query: Select{From: "results", Columns: []string{"nope"}, Limit: -1, Filter: And{Predicates: []Predicate{In{Field: "agent"}, Equals{Field: "severity"}}}},
			issues: []string{
				`unknown column "nope" in table "results"`,
				"negative limit -1",
				`empty value list for "agent"`,
				`field "severity" compared to NULL`,
			},
		},
		{
			name:   "unsupported value",
			query:  Select{From: "results", Filter: Equals{Field: "seq", Value: 1.5}},
			issues: []string{`field "seq" compared to unsupported value type float64`},
		},
		{
			name:   "nil query",
			query:  nil,
			issues: []string{"nil query"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query, schema)
			if len(tt.issues) == 0 {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.issues, verr.Issues)
		})
	}
}

func TestTableHasColumn(t *testing.T) {
	tbl := schema["results"]
	assert.True(t, tbl.HasColumn("agent"))
	assert.False(t, tbl.HasColumn("Agent"))
}
