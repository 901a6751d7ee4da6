package queryir

// Query is a sealed interface; only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface for filter conditions.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from one table.
type Select struct {
	From    string
	Columns []string  // empty means every schema column, in schema order
	Filter  Predicate // nil means no filter

	// Descending reverses the table's order key.
	Descending bool

	// Limit caps the number of rows; zero means no limit.
	Limit int
}

func (Select) queryNode() {}

// Equals matches rows whose field equals Value.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// In matches rows whose field equals any of Values. An empty list is
// rejected by Validate rather than matching nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// HasPrefix matches text fields starting with Prefix.
type HasPrefix struct {
	Field  string
	Prefix string
}

func (HasPrefix) predicateNode() {}

// And matches rows satisfying every predicate. Empty is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Table describes one queryable table.
type Table struct {
	Name    string
	Columns []string

	// OrderKey is the column list every query is sorted by.
	OrderKey []string
}

// HasColumn reports whether col is declared.
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Schema is the set of queryable tables by name.
type Schema map[string]Table
