// Package queryir describes run-history lookups independently of the SQL
// that executes them.
//
// A query is a Select over one table of a Schema with an optional
// conjunction of predicates. Column and table names are checked against the
// schema before compilation, since backends interpolate identifiers; values
// are always passed as parameters.
//
//	Select{
//	  From:    "results",
//	  Columns: []string{"seq", "agent", "message"},
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "run_id", Value: runID},
//	    In{Field: "severity", Values: []any{"critical", "warning"}},
//	  }},
//	}
//
// Every table declares a stable order key, so identical queries over
// identical data return rows in the same order.
package queryir
