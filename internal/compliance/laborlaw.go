package compliance

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// LaborLawValidator checks the statutory minimums of the Ley Federal del
// Trabajo and the IMSS registration duty of the Ley del Seguro Social.
type LaborLawValidator struct {
	cfg config.Assumptions
}

func NewLaborLawValidator(cfg config.Assumptions) *LaborLawValidator {
	return &LaborLawValidator{cfg: cfg}
}

func (v *LaborLawValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(LaborLawAgent,
		"minimum wage, vacations, vacation premium, annual bonus, IMSS registration, seniority premium and severance",
		3, v.cfg.Timeout(LaborLawAgent, 25*time.Second),
		salary.Agent, demographic.TemporalAgent)
}

func violation(s ir.Subject, field, statute string, class SeverityClass, msg, suggestion string) ir.ValidationResult {
	var r ir.ValidationResult
	if class == ClassCritical {
		r = ir.Critical(LaborLawAgent, ir.KindBusinessRule, field, msg)
	} else {
		r = ir.Warning(LaborLawAgent, ir.KindBusinessRule, field, msg)
	}
	return r.WithSuggestion(suggestion).
		WithRows(s.Collection, s.Record.Row).
		WithMeta("statute", statute).
		WithMeta("severity_class", string(class))
}

func (v *LaborLawValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	rejected := map[ir.Collection]map[int]bool{
		ir.CollectionActive:       in.CriticalRows(demographic.TemporalAgent, ir.CollectionActive),
		ir.CollectionTerminations: in.CriticalRows(demographic.TemporalAgent, ir.CollectionTerminations),
	}

	var results []ir.ValidationResult
	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, v.socialSecurity(s)...)
		results = append(results, v.minimumWage(s, in.AsOf)...)
		if rejected[s.Collection][s.Record.Row] {
			continue
		}

		hire, ok := shared.ParseDate(s.Record.HireDate)
		if !ok {
			continue
		}
		end := in.AsOf
		if s.Termination != nil {
			term, ok := shared.ParseDate(s.Termination.TerminationDate)
			if !ok {
				continue
			}
			end = term
		}
		if !hire.Before(end) {
			continue
		}
		results = append(results, v.vacations(s, hire, end)...)
		results = append(results, v.annualBonus(s, hire, end)...)
		if s.Termination != nil {
			results = append(results, v.separation(s, hire, end)...)
		}
	}
	return validator.WithSuccess(LaborLawAgent, results, "no labor-law violations found"), nil
}

func (v *LaborLawValidator) socialSecurity(s ir.Subject) []ir.ValidationResult {
	if !shared.IsBlank(s.Record.NSS) {
		return nil
	}
	return []ir.ValidationResult{violation(s, identity.FieldNSS, StatuteSocialSecurity, ClassCritical,
		validator.Label(s)+": employee has no IMSS registration number",
		"register the employee with IMSS; unregistered workers expose the employer to capital-constitutive charges")}
}

func (v *LaborLawValidator) minimumWage(s ir.Subject, asOf time.Time) []ir.ValidationResult {
	cfg := v.cfg.Salary
	a := salary.Parse(s.Record)
	if !a.HasBase || a.Base <= 0 {
		return nil
	}
	year := salary.WageYear(s, asOf)
	minWage := cfg.MinimumWageFor(year)
	daily := cfg.Daily(a.Base)
	if daily >= minWage {
		return nil
	}
	class := ClassMedium
	if daily < minWage*0.5 {
		class = ClassHigh
	}
	return []ir.ValidationResult{violation(s, salary.FieldBase, StatuteMinimumWage, class,
		fmt.Sprintf("%s: daily base %.2f is below the %d general minimum wage %.2f", validator.Label(s), daily, year, minWage),
		"raise the salary to at least the minimum wage or document the reduced schedule").
		WithMeta("daily", shared.Round(daily, 2)).
		WithMeta("minimum_wage", minWage)}
}

func (v *LaborLawValidator) vacations(s ir.Subject, hire, end time.Time) []ir.ValidationResult {
	var out []ir.ValidationResult
	label := validator.Label(s)
	years := shared.YearsOfService(hire, end)

	if raw := s.Record.VacationDays; !shared.IsBlank(raw) && years >= 1 {
		days, ok := shared.ParseNumeric(raw)
		if want := VacationDays(years); ok && days < float64(want) {
			out = append(out, violation(s, "vacation_days", StatuteVacationDays, ClassMedium,
				fmt.Sprintf("%s: %g vacation days after %d years of service; the minimum is %d", label, days, years, want),
				fmt.Sprintf("grant at least %d days", want)).
				WithMeta("required", want).
				WithMeta("granted", days))
		}
	}

	if raw := s.Record.VacationPremium; !shared.IsBlank(raw) {
		rate, ok := ParseRate(raw)
		if ok && rate < MinVacationPremium {
			out = append(out, violation(s, "vacation_premium", StatuteVacationPremium, ClassLow,
				fmt.Sprintf("%s: vacation premium %g%% is below the statutory 25%%", label, shared.Round(rate*100, 2)),
				"pay a vacation premium of at least 25% of vacation salary").
				WithMeta("rate", shared.Round(rate, 4)))
		}
	}
	return out
}

// annualBonus checks the aguinaldo against 15 days prorated by the days
// worked in the calendar year of end.
func (v *LaborLawValidator) annualBonus(s ir.Subject, hire, end time.Time) []ir.ValidationResult {
	raw := s.Record.AnnualBonusDays
	if shared.IsBlank(raw) {
		return nil
	}
	days, ok := shared.ParseNumeric(raw)
	if !ok {
		return nil
	}
	from := time.Date(end.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	if hire.After(from) {
		from = hire
	}
	worked := shared.DaysBetween(from, end) + 1
	yearDays := shared.DaysBetween(time.Date(end.Year(), 1, 1, 0, 0, 0, 0, time.UTC), time.Date(end.Year()+1, 1, 1, 0, 0, 0, 0, time.UTC))
	required := shared.Round(AnnualBonusDays*float64(min(worked, yearDays))/float64(yearDays), 2)
	if days >= required {
		return nil
	}
	return []ir.ValidationResult{violation(s, "annual_bonus_days", StatuteAnnualBonus, ClassMedium,
		fmt.Sprintf("%s: annual bonus of %g days is below the %.2f days due for %d days worked", validator.Label(s), days, required, worked),
		"pay at least 15 days of salary per year, prorated for partial years").
		WithMeta("required", required).
		WithMeta("granted", days)}
}

// separation checks the seniority premium and, for unjustified dismissals,
// the constitutional three-month severance.
func (v *LaborLawValidator) separation(s ir.Subject, hire, term time.Time) []ir.ValidationResult {
	cfg := v.cfg.Salary
	var out []ir.ValidationResult
	label := validator.Label(s)
	cause := ClassifyCause(s.Termination.TerminationCause)
	a := salary.Parse(s.Record)
	if !a.HasBase || a.Base <= 0 {
		return nil
	}
	years := shared.FractionalYears(hire, term)
	dailyBase := cfg.Daily(a.Base)
	dailyIntegrated := dailyBase * cfg.IntegrationFactor
	if a.HasIntegrated && a.Integrated >= a.Base {
		dailyIntegrated = cfg.Daily(a.Integrated)
	}

	if SeniorityPremiumDue(cause, shared.YearsOfService(hire, term)) && !shared.IsBlank(s.Termination.SeniorityPremium) {
		capped := min(dailyBase, SeniorityWageCap*cfg.MinimumWageFor(term.Year()))
		required := shared.Round(SeniorityDaysPerYear*years*capped, 2)
		if paid, ok := shared.ParseNumeric(s.Termination.SeniorityPremium); ok && paid < required {
			out = append(out, violation(s, "seniority_premium", StatuteSeniorityPremium, ClassHigh,
				fmt.Sprintf("%s: seniority premium %.2f is below the %.2f due for %.1f years", label, paid, required, years),
				"pay 12 days per year of service at a daily wage capped at twice the minimum wage").
				WithMeta("required", required).
				WithMeta("paid", paid).
				WithMeta("cause", string(cause)))
		}
	}

	if cause != CauseUnjustifiedDismissal {
		return out
	}
	required := shared.Round(SeverancePayDays*dailyIntegrated, 2)
	raw := s.Termination.SeverancePay
	if shared.IsBlank(raw) {
		return append(out, violation(s, "severance_pay", StatuteSeverance, ClassHigh,
			fmt.Sprintf("%s: unjustified dismissal with no severance recorded", label),
			fmt.Sprintf("record the severance paid; at least three months of integrated salary (%.2f) is due", required)).
			WithMeta("required", required).
			WithMeta("cause", string(cause)))
	}
	if paid, ok := shared.ParseNumeric(raw); ok && paid < required {
		out = append(out, violation(s, "severance_pay", StatuteSeverance, ClassHigh,
			fmt.Sprintf("%s: severance %.2f is below three months of integrated salary %.2f", label, paid, required),
			"pay 90 days of integrated salary for an unjustified dismissal").
			WithMeta("required", required).
			WithMeta("paid", paid).
			WithMeta("cause", string(cause)))
	}
	return out
}
