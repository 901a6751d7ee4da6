package queryir

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Issues, "; ")
}

// Validate checks q against schema: the table and every referenced column
// must exist, In lists must be non-empty and values must be scalars. It
// reports all problems at once.
func Validate(q Query, schema Schema) error {
	v := &validator{schema: schema}
	v.validateQuery(q)
	if len(v.issues) > 0 {
		return &ValidationError{Issues: v.issues}
	}
	return nil
}

type validator struct {
	schema Schema
	table  Table
	issues []string
}

func (v *validator) addIssue(format string, args ...any) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addIssue("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addIssue("nil query")
	default:
		v.addIssue("unsupported query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	table, ok := v.schema[sel.From]
	if !ok {
		v.addIssue("unknown table %q", sel.From)
		return
	}
	v.table = table
	for _, col := range sel.Columns {
		v.checkColumn(col)
	}
	if sel.Limit < 0 {
		v.addIssue("negative limit %d", sel.Limit)
	}
	v.validatePredicate(sel.Filter)
}

func (v *validator) checkColumn(col string) {
	if !v.table.HasColumn(col) {
		v.addIssue("unknown column %q in table %q", col, v.table.Name)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.checkColumn(pred.Field)
		v.checkValue(pred.Field, pred.Value)
	case In:
		v.checkColumn(pred.Field)
		if len(pred.Values) == 0 {
			v.addIssue("empty value list for %q", pred.Field)
		}
		for _, val := range pred.Values {
			v.checkValue(pred.Field, val)
		}
	case HasPrefix:
		v.checkColumn(pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addIssue("unsupported predicate type %T", p)
	}
}

func (v *validator) checkValue(field string, val any) {
	switch val.(type) {
	case string, int, int64, bool:
	case nil:
		v.addIssue("field %q compared to NULL", field)
	default:
		v.addIssue("field %q compared to unsupported value type %T", field, val)
	}
}
