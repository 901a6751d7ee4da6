package demographic

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// TemporalValidator enforces birth < hire < termination, the age at hire
// and the agreement between declared and identifier-encoded birth dates.
type TemporalValidator struct {
	cfg config.Assumptions
}

func NewTemporalValidator(cfg config.Assumptions) *TemporalValidator {
	return &TemporalValidator{cfg: cfg}
}

func (v *TemporalValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(TemporalAgent,
		"date ordering, age at hire, future dates and declared vs encoded birth dates",
		2, v.cfg.Timeout(TemporalAgent, 15*time.Second),
		identity.RFCAgent, identity.CURPAgent, identity.NSSAgent)
}

func (v *TemporalValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	var results []ir.ValidationResult
	skip := map[ir.Collection]map[string]map[int]bool{}
	for _, c := range []ir.Collection{ir.CollectionActive, ir.CollectionTerminations} {
		skip[c] = map[string]map[int]bool{
			identity.FieldRFC:  in.CriticalFieldRows(identity.RFCAgent, identity.FieldRFC, c),
			identity.FieldCURP: in.CriticalFieldRows(identity.CURPAgent, identity.FieldCURP, c),
		}
	}

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, v.checkSubject(s, in.AsOf, skip[s.Collection])...)
	}
	return validator.WithSuccess(TemporalAgent, results, "all dates are chronologically consistent"), nil
}

func (v *TemporalValidator) checkSubject(s ir.Subject, asOf time.Time, skip map[string]map[int]bool) []ir.ValidationResult {
	cfg := v.cfg.Demographic
	var out []ir.ValidationResult
	label := validator.Label(s)
	row := s.Record.Row

	birth, hasBirth := shared.ParseDate(s.Record.BirthDate)
	hire, hasHire := shared.ParseDate(s.Record.HireDate)

	switch {
	case shared.IsBlank(s.Record.HireDate):
		out = append(out, ir.Critical(TemporalAgent, ir.KindMissingData, FieldHireDate, label+": hire date is missing").
			WithSuggestion("capture the hire date from the employment contract; service years cannot be computed without it").
			WithRows(s.Collection, row))
	case !hasHire:
		out = append(out, ir.Critical(TemporalAgent, ir.KindFormatInvalid, FieldHireDate,
			fmt.Sprintf("%s: hire date %q is not a valid date", label, s.Record.HireDate)).
			WithSuggestion("use YYYY-MM-DD or DD/MM/YYYY").
			WithRows(s.Collection, row))
	}

	// A future birth date is critical in birth-date-validator. Here it is a
	// warning, and the ordering checks that would only restate it are skipped.
	futureBirth := hasBirth && birth.After(asOf)
	if futureBirth {
		out = append(out, ir.Warning(TemporalAgent, ir.KindConsistencyViolation, FieldBirthDate,
			fmt.Sprintf("%s: birth date %s is after the evaluation date", label, birth.Format(time.DateOnly))).
			WithSuggestion("correct the birth year").
			WithRows(s.Collection, row))
	}
	if hasHire && hire.After(asOf) {
		out = append(out, ir.Warning(TemporalAgent, ir.KindConsistencyViolation, FieldHireDate,
			fmt.Sprintf("%s: hire date %s is after the evaluation date", label, hire.Format(time.DateOnly))).
			WithSuggestion("future hires should not be in the valuation census; confirm the date").
			WithRows(s.Collection, row))
	}

	if hasBirth && hasHire && !futureBirth {
		if !birth.Before(hire) {
			out = append(out, ir.Critical(TemporalAgent, ir.KindConsistencyViolation, FieldHireDate,
				fmt.Sprintf("%s: hire date %s is not after birth date %s", label, hire.Format(time.DateOnly), birth.Format(time.DateOnly))).
				WithSuggestion("birth and hire dates are probably swapped").
				WithRows(s.Collection, row))
		} else {
			hireAge := shared.AgeAt(birth, hire)
			switch {
			case hireAge < cfg.MinHireAge:
				out = append(out, ir.Critical(TemporalAgent, ir.KindBusinessRule, FieldHireDate,
					fmt.Sprintf("%s: hired at age %d, below the legal minimum of %d", label, hireAge, cfg.MinHireAge)).
					WithSuggestion("verify birth and hire dates; hiring a minor under 16 is prohibited").
					WithRows(s.Collection, row).
					WithMeta("age_at_hire", hireAge))
			case hireAge > cfg.MaxHireAge:
				out = append(out, ir.Warning(TemporalAgent, ir.KindBusinessRule, FieldHireDate,
					fmt.Sprintf("%s: hired at age %d, above %d", label, hireAge, cfg.MaxHireAge)).
					WithSuggestion("confirm the hire date; it may be a rehire or re-registration date").
					WithRows(s.Collection, row).
					WithMeta("age_at_hire", hireAge))
			}
		}
	}

	if s.Termination != nil {
		out = append(out, v.checkTermination(s, hire, hasHire, asOf)...)
	}
	if hasBirth {
		out = append(out, v.reconcile(s, birth, skip)...)
	}
	return out
}

func (v *TemporalValidator) checkTermination(s ir.Subject, hire time.Time, hasHire bool, asOf time.Time) []ir.ValidationResult {
	var out []ir.ValidationResult
	label := validator.Label(s)
	raw := s.Termination.TerminationDate

	if shared.IsBlank(raw) {
		return append(out, ir.Critical(TemporalAgent, ir.KindMissingData, FieldTerminationDate, label+": termination date is missing").
			WithSuggestion("capture the termination date from the separation record").
			WithRows(s.Collection, s.Record.Row))
	}
	term, ok := shared.ParseDate(raw)
	if !ok {
		return append(out, ir.Critical(TemporalAgent, ir.KindFormatInvalid, FieldTerminationDate,
			fmt.Sprintf("%s: termination date %q is not a valid date", label, raw)).
			WithSuggestion("use YYYY-MM-DD or DD/MM/YYYY").
			WithRows(s.Collection, s.Record.Row))
	}
	if term.After(asOf) {
		out = append(out, ir.Warning(TemporalAgent, ir.KindConsistencyViolation, FieldTerminationDate,
			fmt.Sprintf("%s: termination date %s is after the evaluation date", label, term.Format(time.DateOnly))).
			WithSuggestion("scheduled terminations belong in the active census until they happen").
			WithRows(s.Collection, s.Record.Row))
	}
	if hasHire && !hire.Before(term) {
		out = append(out, ir.Critical(TemporalAgent, ir.KindConsistencyViolation, FieldTerminationDate,
			fmt.Sprintf("%s: termination date %s is not after hire date %s", label, term.Format(time.DateOnly), hire.Format(time.DateOnly))).
			WithSuggestion("hire and termination dates are probably swapped").
			WithRows(s.Collection, s.Record.Row))
	}
	return out
}

// reconcile compares the declared birth date with the dates RFC and CURP
// encode. Identifiers already rejected upstream are skipped.
func (v *TemporalValidator) reconcile(s ir.Subject, declared time.Time, skip map[string]map[int]bool) []ir.ValidationResult {
	var out []ir.ValidationResult
	row := s.Record.Row

	if !skip[identity.FieldRFC][row] {
		if rfc, err := identity.ParseRFC(s.Record.RFC); err == nil {
			if r, ok := v.compareBirthDates(s, identity.FieldRFC, declared, rfc.BirthDate); ok {
				out = append(out, r)
			}
		}
	}
	if !skip[identity.FieldCURP][row] {
		if curp, err := identity.ParseCURP(s.Record.CURP); err == nil {
			if r, ok := v.compareBirthDates(s, identity.FieldCURP, declared, curp.BirthDate); ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func (v *TemporalValidator) compareBirthDates(s ir.Subject, field string, declared, decoded time.Time) (ir.ValidationResult, bool) {
	delta := shared.AbsDays(declared, decoded)
	if delta == 0 {
		return ir.ValidationResult{}, false
	}
	msg := fmt.Sprintf("%s: declared birth date %s differs by %d days from %s-encoded %s",
		validator.Label(s), declared.Format(time.DateOnly), delta, field, decoded.Format(time.DateOnly))

	var r ir.ValidationResult
	if delta > v.cfg.Demographic.ConsistencyCriticalDays {
		r = ir.Critical(TemporalAgent, ir.KindConsistencyViolation, FieldBirthDate, msg).
			WithSuggestion(fmt.Sprintf("the declared birth date and the %s cannot both be right; correct one before valuation", field))
	} else {
		r = ir.Warning(TemporalAgent, ir.KindConsistencyViolation, FieldBirthDate, msg).
			WithSuggestion("small differences usually come from a typo in the day; confirm against official documents")
	}
	return r.WithRows(s.Collection, s.Record.Row).
		WithMeta("source", field).
		WithMeta("delta_days", delta).
		WithMeta("decoded_birth_date", decoded.Format(time.DateOnly)), true
}
