// Package demographic validates birth and hire dates, their mutual
// consistency and the age, tenure and gender composition of the workforce.
//
// Population statistics are computed over active personnel only;
// termination rows are history and would skew the current distribution.
package demographic

// Agent names.
const (
	BirthDateAgent   = "birth-date-validator"
	TemporalAgent    = "temporal-consistency-validator"
	ActuarialAgent   = "actuarial-age-validator"
	CompositionAgent = "demographic-composition-validator"
)

// Field names used in results.
const (
	FieldBirthDate       = "birth_date"
	FieldHireDate        = "hire_date"
	FieldTerminationDate = "termination_date"
	FieldSex             = "sex"
)
