// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/nomina/internal/queryir"
)

// Compiler compiles queries against a fixed schema.
//
// Every compiled query ends with ORDER BY over the table's order key, and
// values are never interpolated.
type Compiler struct {
	schema queryir.Schema
}

// NewCompiler returns a compiler for schema.
func NewCompiler(schema queryir.Schema) *Compiler {
	return &Compiler{schema: schema}
}

// Compile validates q and converts it to SQL and its parameters.
func (c *Compiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q, c.schema); err != nil {
		return "", nil, err
	}
	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	}
	table := c.schema[sel.From]

	cols := sel.Columns
	if len(cols) == 0 {
		cols = table.Columns
	}

	var b strings.Builder
	var params []any
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(cols, ", "), table.Name)
	if sel.Filter != nil {
		where, whereParams := compilePredicate(sel.Filter)
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, whereParams...)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy(table, sel.Descending))
	if sel.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, sel.Limit)
	}
	return b.String(), params, nil
}

// orderBy renders the stable order key. COLLATE BINARY keeps text ordering
// identical across SQLite builds.
func orderBy(t queryir.Table, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	parts := make([]string, len(t.OrderKey))
	for i, k := range t.OrderKey {
		parts[i] = fmt.Sprintf("%s COLLATE BINARY %s", k, dir)
	}
	return strings.Join(parts, ", ")
}

// compilePredicate assumes p has been validated.
func compilePredicate(p queryir.Predicate) (string, []any) {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Field + " = ?", []any{pred.Value}
	case queryir.In:
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(pred.Values)), ", ")
		return fmt.Sprintf("%s IN (%s)", pred.Field, marks), append([]any(nil), pred.Values...)
	case queryir.HasPrefix:
		// substr avoids LIKE wildcard escaping.
		return fmt.Sprintf("substr(%s, 1, ?) = ?", pred.Field),
			[]any{utf8.RuneCountInString(pred.Prefix), pred.Prefix}
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil
		}
		parts := make([]string, len(pred.Predicates))
		var params []any
		for i, sub := range pred.Predicates {
			sql, subParams := compilePredicate(sub)
			parts[i] = sql
			params = append(params, subParams...)
		}
		return strings.Join(parts, " AND "), params
	}
	return "1 = 1", nil
}
