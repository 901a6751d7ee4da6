package dataset

import (
	"fmt"
	"strings"

	"github.com/roach88/nomina/internal/ir"
)

// ParseWarning is a non-fatal problem found while reading a file. Line is
// the 1-based line (CSV) or row (JSON) in the source; 0 means the whole
// collection.
type ParseWarning struct {
	Collection ir.Collection `json:"collection"`
	Line       int           `json:"line"`
	Message    string        `json:"message"`
}

func (w ParseWarning) String() string {
	if w.Line == 0 {
		return fmt.Sprintf("%s: %s", w.Collection, w.Message)
	}
	return fmt.Sprintf("%s line %d: %s", w.Collection, w.Line, w.Message)
}

// Result is a loaded dataset.
type Result struct {
	Data     *ir.MappedData
	Warnings []ParseWarning

	// Encodings records how each source file was decoded.
	Encodings map[ir.Collection]Encoding
}

func newResult() *Result {
	return &Result{
		Data: &ir.MappedData{
			ActivePersonnel: []ir.EmployeeRecord{},
			Terminations:    []ir.TerminationRecord{},
		},
		Encodings: make(map[ir.Collection]Encoding),
	}
}

func (r *Result) warn(c ir.Collection, line int, format string, args ...any) {
	r.Warnings = append(r.Warnings, ParseWarning{Collection: c, Line: line, Message: fmt.Sprintf(format, args...)})
}

// add appends rec to collection c and assigns its 1-based row.
func (r *Result) add(c ir.Collection, rec ir.TerminationRecord) {
	if c == ir.CollectionTerminations {
		rec.Row = len(r.Data.Terminations) + 1
		r.Data.Terminations = append(r.Data.Terminations, rec)
		return
	}
	rec.EmployeeRecord.Row = len(r.Data.ActivePersonnel) + 1
	r.Data.ActivePersonnel = append(r.Data.ActivePersonnel, rec.EmployeeRecord)
}

// assign stores a trimmed cell into the canonical field of rec. Unknown
// fields are ignored.
func assign(rec *ir.TerminationRecord, field, value string) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldName:
		rec.Name = value
	case FieldRFC:
		rec.RFC = value
	case FieldCURP:
		rec.CURP = value
	case FieldNSS:
		rec.NSS = value
	case FieldBirthDate:
		rec.BirthDate = value
	case FieldHireDate:
		rec.HireDate = value
	case FieldBaseSalary:
		rec.BaseSalary = value
	case FieldIntegratedSalary:
		rec.IntegratedSalary = value
	case FieldPosition:
		rec.Position = value
	case FieldDepartment:
		rec.Department = value
	case FieldEmployeeType:
		rec.EmployeeType = value
	case FieldSex:
		rec.Sex = value
	case FieldVacationDays:
		rec.VacationDays = value
	case FieldVacationPremium:
		rec.VacationPremium = value
	case FieldAnnualBonusDays:
		rec.AnnualBonusDays = value
	case FieldTerminationDate:
		rec.TerminationDate = value
	case FieldTerminationCause:
		rec.TerminationCause = value
	case FieldSeverancePay:
		rec.SeverancePay = value
	case FieldSeniorityPremium:
		rec.SeniorityPremium = value
	}
}
