// Package shared holds the pure parsing and arithmetic primitives every
// validator builds on: dates (including spreadsheet serials), money, national
// identifiers, ages, descriptive statistics and name folding.
//
// All functions are total. Parsers never panic; on anything ambiguous or
// invalid they return the zero value and false.
package shared
