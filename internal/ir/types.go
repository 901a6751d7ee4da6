package ir

// Collection names a record collection inside MappedData.
type Collection string

const (
	CollectionActive       Collection = "active"
	CollectionTerminations Collection = "terminations"
)

// EmployeeRecord is one row of the active-personnel sheet after column mapping.
//
// Date and money fields hold raw cell text (e.g. "15/03/1985", "43831",
// "$12,500.00"). Empty string means the cell was absent.
type EmployeeRecord struct {
	Row int `json:"row"` // stable 1-based index assigned by ingestion

	Name string `json:"name"`
	RFC  string `json:"rfc,omitempty"`  // federal taxpayer ID, 13 chars
	CURP string `json:"curp,omitempty"` // population registry ID, 18 chars
	NSS  string `json:"nss,omitempty"`  // social-security number, 11 digits

	BirthDate string `json:"birth_date,omitempty"`
	HireDate  string `json:"hire_date,omitempty"`

	BaseSalary       string `json:"base_salary,omitempty"`
	IntegratedSalary string `json:"integrated_salary,omitempty"`

	Position     string `json:"position,omitempty"`
	Department   string `json:"department,omitempty"`
	EmployeeType string `json:"employee_type,omitempty"`
	Sex          string `json:"sex,omitempty"` // declared or upstream-inferred: "M", "F" or ""

	// Optional labor-benefit columns.
	VacationDays    string `json:"vacation_days,omitempty"`
	VacationPremium string `json:"vacation_premium,omitempty"` // rate: "25%", "0.25" or "25"
	AnnualBonusDays string `json:"annual_bonus_days,omitempty"`
}

// TerminationRecord is one row of the terminations sheet.
type TerminationRecord struct {
	EmployeeRecord

	TerminationDate  string `json:"termination_date,omitempty"`
	TerminationCause string `json:"termination_cause,omitempty"`
	SeverancePay     string `json:"severance_pay,omitempty"`
	SeniorityPremium string `json:"seniority_premium,omitempty"`
}

// MappedData is the sole input of a validation run. It is constructed once by
// the ingestion boundary and shared read-only across all validators.
type MappedData struct {
	ActivePersonnel []EmployeeRecord    `json:"active_personnel"`
	Terminations    []TerminationRecord `json:"terminations"`
}

// Sizes returns the number of rows per collection.
func (d *MappedData) Sizes() map[Collection]int {
	if d == nil {
		return map[Collection]int{CollectionActive: 0, CollectionTerminations: 0}
	}
	return map[Collection]int{
		CollectionActive:       len(d.ActivePersonnel),
		CollectionTerminations: len(d.Terminations),
	}
}

// Subject is a record viewed uniformly across both collections.
// Termination is nil for active rows.
type Subject struct {
	Collection  Collection
	Record      *EmployeeRecord
	Termination *TerminationRecord
}

// Subjects returns every record of both collections, actives first, in row order.
// The returned pointers alias the input; callers must treat them as read-only.
func (d *MappedData) Subjects() []Subject {
	if d == nil {
		return nil
	}
	out := make([]Subject, 0, len(d.ActivePersonnel)+len(d.Terminations))
	for i := range d.ActivePersonnel {
		out = append(out, Subject{Collection: CollectionActive, Record: &d.ActivePersonnel[i]})
	}
	for i := range d.Terminations {
		t := &d.Terminations[i]
		out = append(out, Subject{Collection: CollectionTerminations, Record: &t.EmployeeRecord, Termination: t})
	}
	return out
}
