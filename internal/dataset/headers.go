// Package dataset turns payroll spreadsheets exported as CSV or JSON into
// ir.MappedData. It is the only place where header spellings, text
// encodings and cell types are dealt with; validators see canonical records.
package dataset

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Canonical field names, matching the JSON tags of ir.EmployeeRecord and
// ir.TerminationRecord.
const (
	FieldName             = "name"
	FieldRFC              = "rfc"
	FieldCURP             = "curp"
	FieldNSS              = "nss"
	FieldBirthDate        = "birth_date"
	FieldHireDate         = "hire_date"
	FieldBaseSalary       = "base_salary"
	FieldIntegratedSalary = "integrated_salary"
	FieldPosition         = "position"
	FieldDepartment       = "department"
	FieldEmployeeType     = "employee_type"
	FieldSex              = "sex"
	FieldVacationDays     = "vacation_days"
	FieldVacationPremium  = "vacation_premium"
	FieldAnnualBonusDays  = "annual_bonus_days"
	FieldTerminationDate  = "termination_date"
	FieldTerminationCause = "termination_cause"
	FieldSeverancePay     = "severance_pay"
	FieldSeniorityPremium = "seniority_premium"
)

// headerAliases maps folded header spellings to canonical fields. Keys are
// in NormalizeHeader form.
var headerAliases = map[string]string{
	"name": FieldName, "nombre": FieldName, "nombrecompleto": FieldName, "fullname": FieldName,
	"empleado": FieldName, "nombredelempleado": FieldName, "trabajador": FieldName,

	"rfc": FieldRFC, "registrofederaldecontribuyentes": FieldRFC,

	"curp": FieldCURP,

	"nss": FieldNSS, "numerodeseguridadsocial": FieldNSS, "numeroseguridadsocial": FieldNSS,
	"noseguridadsocial": FieldNSS, "numeroimss": FieldNSS, "noimss": FieldNSS, "imss": FieldNSS,

	"birthdate": FieldBirthDate, "dateofbirth": FieldBirthDate, "fechadenacimiento": FieldBirthDate,
	"fechanacimiento": FieldBirthDate, "fnacimiento": FieldBirthDate, "nacimiento": FieldBirthDate,

	"hiredate": FieldHireDate, "startdate": FieldHireDate, "fechadeingreso": FieldHireDate,
	"fechaingreso": FieldHireDate, "fechadealta": FieldHireDate, "fechaalta": FieldHireDate,
	"ingreso": FieldHireDate,

	"basesalary": FieldBaseSalary, "salary": FieldBaseSalary, "salario": FieldBaseSalary,
	"salariobase": FieldBaseSalary, "salariomensual": FieldBaseSalary, "sueldo": FieldBaseSalary,
	"sueldobase": FieldBaseSalary, "sueldomensual": FieldBaseSalary,

	"integratedsalary": FieldIntegratedSalary, "salariointegrado": FieldIntegratedSalary,
	"salariodiariointegrado": FieldIntegratedSalary, "sdi": FieldIntegratedSalary,
	"sbc": FieldIntegratedSalary, "salariobasedecotizacion": FieldIntegratedSalary,

	"position": FieldPosition, "jobtitle": FieldPosition, "puesto": FieldPosition, "cargo": FieldPosition,

	"department": FieldDepartment, "departamento": FieldDepartment, "depto": FieldDepartment,
	"area": FieldDepartment,

	"employeetype": FieldEmployeeType, "tipodeempleado": FieldEmployeeType,
	"tipoempleado": FieldEmployeeType, "tipodecontrato": FieldEmployeeType,
	"tipocontrato": FieldEmployeeType, "contrato": FieldEmployeeType,

	"sex": FieldSex, "gender": FieldSex, "sexo": FieldSex, "genero": FieldSex,

	"vacationdays": FieldVacationDays, "diasdevacaciones": FieldVacationDays,
	"diasvacaciones": FieldVacationDays, "vacaciones": FieldVacationDays,

	"vacationpremium": FieldVacationPremium, "primavacacional": FieldVacationPremium,
	"primadevacaciones": FieldVacationPremium,

	"annualbonusdays": FieldAnnualBonusDays, "aguinaldo": FieldAnnualBonusDays,
	"diasdeaguinaldo": FieldAnnualBonusDays, "diasaguinaldo": FieldAnnualBonusDays,

	"terminationdate": FieldTerminationDate, "fechadebaja": FieldTerminationDate,
	"fechabaja": FieldTerminationDate, "fechadesalida": FieldTerminationDate,
	"fechadeterminacion": FieldTerminationDate, "fechaterminacion": FieldTerminationDate,
	"baja": FieldTerminationDate,

	"terminationcause": FieldTerminationCause, "causadebaja": FieldTerminationCause,
	"causabaja": FieldTerminationCause, "motivodebaja": FieldTerminationCause,
	"motivobaja": FieldTerminationCause, "motivo": FieldTerminationCause, "causa": FieldTerminationCause,

	"severancepay": FieldSeverancePay, "indemnizacion": FieldSeverancePay,
	"liquidacion": FieldSeverancePay,

	"senioritypremium": FieldSeniorityPremium, "primadeantiguedad": FieldSeniorityPremium,
	"primaantiguedad": FieldSeniorityPremium,
}

// terminationOnly fields are ignored in the active collection.
var terminationOnly = map[string]bool{
	FieldTerminationDate:  true,
	FieldTerminationCause: true,
	FieldSeverancePay:     true,
	FieldSeniorityPremium: true,
}

// NormalizeHeader folds a header for alias lookup: accents stripped (NFD,
// combining marks dropped), lower-cased, and everything but letters and
// digits removed. "Fecha de Nacimiento", "fecha_nacimiento " and
// "FECHA-DE-NACIMIENTO" all fold to the same key family.
func NormalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(header) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CanonicalField resolves a header to its canonical field.
func CanonicalField(header string) (string, bool) {
	f, ok := headerAliases[NormalizeHeader(header)]
	return f, ok
}

// HeaderMapping is the result of resolving a header row.
type HeaderMapping struct {
	// Fields holds the canonical field per column index; "" means ignored.
	Fields []string

	// Unmapped lists headers that matched no alias, in column order.
	Unmapped []string

	// Duplicates lists headers whose field was already claimed by an
	// earlier column.
	Duplicates []string
}

// MapHeaders resolves headers for collection-appropriate fields. The first
// column claiming a field wins.
func MapHeaders(headers []string, terminations bool) HeaderMapping {
	m := HeaderMapping{Fields: make([]string, len(headers))}
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		f, ok := CanonicalField(h)
		if !ok || (!terminations && terminationOnly[f]) {
			if strings.TrimSpace(h) != "" {
				m.Unmapped = append(m.Unmapped, h)
			}
			continue
		}
		if used[f] {
			m.Duplicates = append(m.Duplicates, h)
			continue
		}
		used[f] = true
		m.Fields[i] = f
	}
	return m
}
