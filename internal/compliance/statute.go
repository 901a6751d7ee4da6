// Package compliance checks Mexican labor and social-security statutes and
// scores the actuarial risk each employee adds to the pension liability.
package compliance

import (
	"strings"

	"github.com/roach88/nomina/internal/shared"
)

// Agent names.
const (
	LaborLawAgent = "labor-law-validator"
	RiskAgent     = "actuarial-risk-validator"
)

// Statutes cited in result metadata.
const (
	StatuteMinimumWage      = "LFT Art. 90"
	StatuteVacationDays     = "LFT Art. 76"
	StatuteVacationPremium  = "LFT Art. 80"
	StatuteAnnualBonus      = "LFT Art. 87"
	StatuteSeniorityPremium = "LFT Art. 162"
	StatuteSeverance        = "LFT Art. 48, 50"
	StatuteSocialSecurity   = "LSS Art. 15"
)

// SeverityClass estimates the exposure a violation creates.
type SeverityClass string

const (
	ClassLow      SeverityClass = "low"
	ClassMedium   SeverityClass = "medium"
	ClassHigh     SeverityClass = "high"
	ClassCritical SeverityClass = "critical"
)

// Statutory constants.
const (
	MinVacationPremium      = 0.25
	AnnualBonusDays         = 15
	SeniorityDaysPerYear    = 12
	SeniorityWageCap        = 2
	SeverancePayDays        = 90
	ResignationPremiumYears = 15
)

// VacationDays returns the LFT Art. 76 minimum (2023 reform) for completed
// service years: 12 days in year one, +2 per year up to 20 in year five,
// then +2 per five-year block.
func VacationDays(years int) int {
	switch {
	case years < 1:
		return 0
	case years <= 5:
		return 10 + 2*years
	default:
		return 20 + 2*((years-1)/5)
	}
}

// Cause classifies a free-text termination cause.
type Cause string

const (
	CauseResignation          Cause = "resignation"
	CauseUnjustifiedDismissal Cause = "unjustified_dismissal"
	CauseJustifiedDismissal   Cause = "justified_dismissal"
	CauseRetirement           Cause = "retirement"
	CauseDeathOrDisability    Cause = "death_or_disability"
	CauseUnknown              Cause = "unknown"
)

// ClassifyCause maps the spellings payroll systems use onto Cause. A bare
// "despido" is treated as unjustified; the employer bears the proof.
func ClassifyCause(raw string) Cause {
	c := shared.NormalizeName(raw)
	switch {
	case c == "":
		return CauseUnknown
	case strings.Contains(c, "INJUSTIFICAD"):
		return CauseUnjustifiedDismissal
	case strings.Contains(c, "JUSTIFICAD"), strings.Contains(c, "RESCISION"):
		return CauseJustifiedDismissal
	case strings.Contains(c, "RENUNCIA"), strings.Contains(c, "VOLUNTARI"):
		return CauseResignation
	case strings.Contains(c, "JUBILACION"), strings.Contains(c, "RETIRO"), strings.Contains(c, "PENSION"):
		return CauseRetirement
	case strings.Contains(c, "DEFUNCION"), strings.Contains(c, "FALLECIMIENTO"), strings.Contains(c, "INVALIDEZ"), strings.Contains(c, "INCAPACIDAD"):
		return CauseDeathOrDisability
	case strings.Contains(c, "DESPIDO"):
		return CauseUnjustifiedDismissal
	}
	return CauseUnknown
}

// SeniorityPremiumDue reports whether Art. 162 applies: every separation
// except resignations with fewer than 15 service years.
func SeniorityPremiumDue(cause Cause, years int) bool {
	switch cause {
	case CauseUnknown:
		return false
	case CauseResignation:
		return years >= ResignationPremiumYears
	}
	return true
}

// ParseRate reads a percentage cell: "25%", "0.25" and "25" are all 25%.
// An explicit "%" always means percent, so "1%" is 0.01.
func ParseRate(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	percent := strings.HasSuffix(trimmed, "%")
	v, ok := shared.ParseNumeric(strings.TrimSuffix(trimmed, "%"))
	if !ok {
		return 0, false
	}
	if percent || v > 1 {
		v /= 100
	}
	return v, true
}
