// Package harness runs conformance scenarios against the validator suite.
//
// A scenario is a small payroll dataset plus the results a correct rule set
// must report for it. Scenarios run through the real engine with a
// deterministic clock and run ID, so their reports can be snapshotted.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: century_mismatch
//	description: "RFC decodes to 2030 while the declared birth is 1930"
//	as_of: "2024-12-31"
//	only: [temporal-consistency-validator]
//	data:
//	  active_personnel:
//	    - name: Ana Lopez
//	      rfc: LOGA300101AB1
//	      birth_date: "1930-01-01"
//	      hire_date: "1955-03-01"
//	expect:
//	  - agent: temporal-consistency-validator
//	    severity: critical
//	    kind: CONSISTENCY_VIOLATION
//	    count: 1
//	blocks_valuation: true
//
// Instead of inline data a scenario may name a dataset file (JSON or CSV)
// relative to the scenario file:
//
//	dataset: fixtures/census.json
//
// # Expectations
//
// Every expect entry filters the report's results by the fields it sets
// (agent, severity, kind, field, collection, rows, message_contains) and
// checks the number of matches: exactly count when count is set, at least
// min when min is set, at least one otherwise.
//
// # Golden Files
//
// RunWithGolden snapshots the canonical report (run ID, state, counts and
// ordered results) under testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
