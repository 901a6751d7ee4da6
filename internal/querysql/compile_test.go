package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomina/internal/queryir"
)

var testSchema = queryir.Schema{
	"results": {
		Name:     "results",
		Columns:  []string{"run_id", "seq", "agent", "severity"},
		OrderKey: []string{"run_id", "seq"},
	},
	"runs": {
		Name:     "runs",
		Columns:  []string{"id", "started_at"},
		OrderKey: []string{"started_at", "id"},
	},
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		query  queryir.Query
		sql    string
		params []any
	}{
		{
			name:  "all columns, no filter",
			query: queryir.Select{From: "runs"},
			sql:   "SELECT id, started_at FROM runs ORDER BY started_at COLLATE BINARY ASC, id COLLATE BINARY ASC",
		},
		{
			name: "equals and in",
			query: queryir.Select{
				From:    "results",
				Columns: []string{"seq", "agent"},
				Filter: queryir.And{Predicates: []queryir.Predicate{
					queryir.Equals{Field: "run_id", Value: "r1"},
					queryir.In{Field: "severity", Values: []any{"critical", "warning"}},
				}},
			},
			sql:    "SELECT seq, agent FROM results WHERE run_id = ? AND severity IN (?, ?) ORDER BY run_id COLLATE BINARY ASC, seq COLLATE BINARY ASC",
			params: []any{"r1", "critical", "warning"},
		},
		{
			name: "prefix, descending, limit",
			query: &queryir.Select{
				From:       "runs",
				Columns:    []string{"id"},
				Filter:     queryir.HasPrefix{Field: "id", Prefix: "0190"},
				Descending: true,
				Limit:      5,
			},
			sql:    "SELECT id FROM runs WHERE substr(id, 1, ?) = ? ORDER BY started_at COLLATE BINARY DESC, id COLLATE BINARY DESC LIMIT ?",
			params: []any{4, "0190", 5},
		},
		{
			name:  "empty and",
			query: queryir.Select{From: "runs", Columns: []string{"id"}, Filter: queryir.And{}},
			sql:   "SELECT id FROM runs WHERE 1 = 1 ORDER BY started_at COLLATE BINARY ASC, id COLLATE BINARY ASC",
		},
	}

	c := NewCompiler(testSchema)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := c.Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompileNeverInterpolatesValues(t *testing.T) {
	c := NewCompiler(testSchema)

	sql, params, err := c.Compile(queryir.Select{
		From:   "results",
		Filter: queryir.Equals{Field: "agent", Value: "x' OR '1'='1"},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "OR")
	assert.Equal(t, []any{"x' OR '1'='1"}, params)
}

func TestCompileRejectsInvalidQueries(t *testing.T) {
	c := NewCompiler(testSchema)

	_, _, err := c.Compile(queryir.Select{
		From:    "results",
		Columns: []string{"agent; DROP TABLE runs"},
		Filter:  queryir.In{Field: "severity"},
	})

	var verr *queryir.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 2)
}
