// Package testutil holds deterministic clocks, run IDs and record fixtures
// shared by package tests.
package testutil

import (
	"time"

	"github.com/roach88/nomina/internal/ir"
)

// AsOf is the evaluation date fixtures are consistent with.
var AsOf = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

// Ana returns a clean active record: female, born 1985-01-01, hired
// 2010-03-01, with RFC, CURP and NSS that agree with each other.
func Ana(row int) ir.EmployeeRecord {
	return ir.EmployeeRecord{
		Row:              row,
		Name:             "Ana López García",
		RFC:              "LOGA850101AB1",
		CURP:             "LOGA850101MDFPRN05",
		NSS:              "12108500013",
		BirthDate:        "1985-01-01",
		HireDate:         "2010-03-01",
		BaseSalary:       "15000",
		IntegratedSalary: "15678",
		Position:         "Analista de Nómina",
		Department:       "Finanzas",
		EmployeeType:     "confianza",
		Sex:              "F",
	}
}

// Juan returns a clean active record: male, born 1990-05-15, hired
// 2015-06-01.
func Juan(row int) ir.EmployeeRecord {
	return ir.EmployeeRecord{
		Row:              row,
		Name:             "Juan Pérez Martínez",
		RFC:              "PEMJ900515XY2",
		CURP:             "PEMJ900515HJCRRN03",
		NSS:              "03159000029",
		BirthDate:        "15/05/1990",
		HireDate:         "01/06/2015",
		BaseSalary:       "12000",
		IntegratedSalary: "12542.40",
		Position:         "Auxiliar Administrativo",
		Department:       "Operaciones",
		EmployeeType:     "sindicalizado",
		Sex:              "M",
	}
}

// With applies edits to a copy of r.
func With(r ir.EmployeeRecord, edits ...func(*ir.EmployeeRecord)) ir.EmployeeRecord {
	for _, edit := range edits {
		edit(&r)
	}
	return r
}

// Terminated turns r into a termination row.
func Terminated(r ir.EmployeeRecord, date, cause string) ir.TerminationRecord {
	return ir.TerminationRecord{EmployeeRecord: r, TerminationDate: date, TerminationCause: cause}
}

// Dataset builds MappedData with rows renumbered 1..n per collection.
func Dataset(active []ir.EmployeeRecord, terminations ...ir.TerminationRecord) *ir.MappedData {
	d := &ir.MappedData{
		ActivePersonnel: make([]ir.EmployeeRecord, len(active)),
		Terminations:    make([]ir.TerminationRecord, len(terminations)),
	}
	for i, r := range active {
		r.Row = i + 1
		d.ActivePersonnel[i] = r
	}
	for i, t := range terminations {
		t.Row = i + 1
		d.Terminations[i] = t
	}
	return d
}

// Actives is Dataset without terminations.
func Actives(active ...ir.EmployeeRecord) *ir.MappedData {
	return Dataset(active)
}
