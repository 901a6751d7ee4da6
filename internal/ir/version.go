package ir

// Version constants for the result schema and the rule set.
const (
	// SchemaVersion is the ValidationResult schema version.
	SchemaVersion = "1"

	// RulesetVersion is the nomina rule set version. Bump when a validator
	// changes what it reports for the same input.
	RulesetVersion = "0.3.0"
)
