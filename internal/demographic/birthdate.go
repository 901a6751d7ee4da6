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

// BirthDateValidator range-checks birth dates and summarizes the age
// distribution of the active workforce.
type BirthDateValidator struct {
	cfg config.Assumptions
}

func NewBirthDateValidator(cfg config.Assumptions) *BirthDateValidator {
	return &BirthDateValidator{cfg: cfg}
}

func (v *BirthDateValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(BirthDateAgent,
		"birth date presence and range, generational cohorts, age distribution and retirement wave",
		2, v.cfg.Timeout(BirthDateAgent, 10*time.Second))
}

func (v *BirthDateValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	cfg := v.cfg.Demographic
	var results []ir.ValidationResult
	var ages []float64
	var waveRows []int
	cohorts := make(map[Generation]int)

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		label := validator.Label(s)
		raw := s.Record.BirthDate

		if shared.IsBlank(raw) {
			r := ir.Critical(BirthDateAgent, ir.KindMissingData, FieldBirthDate, label+": birth date is missing").
				WithSuggestion("capture the birth date from the employee's birth certificate").
				WithRows(s.Collection, s.Record.Row)
			if d, src, ok := decodedFromIDs(s.Record); ok {
				r = r.WithSuggestion(fmt.Sprintf("the %s encodes %s; confirm and capture it", src, d.Format(time.DateOnly))).
					WithMeta("suggested_birth_date", d.Format(time.DateOnly))
			}
			results = append(results, r)
			continue
		}

		birth, ok := shared.ParseDate(raw)
		if !ok {
			results = append(results, ir.Critical(BirthDateAgent, ir.KindFormatInvalid, FieldBirthDate,
				fmt.Sprintf("%s: birth date %q is not a valid date", label, raw)).
				WithSuggestion("use YYYY-MM-DD or DD/MM/YYYY").
				WithRows(s.Collection, s.Record.Row))
			continue
		}
		if birth.After(in.AsOf) {
			results = append(results, ir.Critical(BirthDateAgent, ir.KindConsistencyViolation, FieldBirthDate,
				fmt.Sprintf("%s: birth date %s is in the future", label, birth.Format(time.DateOnly))).
				WithSuggestion("check the year; a two-digit year may have been expanded into the wrong century").
				WithRows(s.Collection, s.Record.Row))
			continue
		}

		age := shared.AgeAt(birth, in.AsOf)
		switch {
		case age > cfg.MaxAge:
			results = append(results, ir.Critical(BirthDateAgent, ir.KindBusinessRule, FieldBirthDate,
				fmt.Sprintf("%s: age %d exceeds the plausible maximum of %d", label, age, cfg.MaxAge)).
				WithSuggestion("correct the birth year").
				WithRows(s.Collection, s.Record.Row).
				WithMeta("age", age))
			continue
		case age < cfg.MinAge:
			results = append(results, ir.Critical(BirthDateAgent, ir.KindBusinessRule, FieldBirthDate,
				fmt.Sprintf("%s: age %d is below the legal working age of %d", label, age, cfg.MinAge)).
				WithSuggestion("correct the birth date; minors cannot be on the payroll").
				WithRows(s.Collection, s.Record.Row).
				WithMeta("age", age))
			continue
		}

		if s.Collection != ir.CollectionActive {
			continue
		}
		ages = append(ages, shared.FractionalYears(birth, in.AsOf))
		cohorts[GenerationOf(birth.Year())]++
		if age >= cfg.RetirementWaveAge {
			waveRows = append(waveRows, s.Record.Row)
		}
	}

	if len(ages) > 0 {
		results = append(results, ageDistribution(ages), cohortBreakdown(cohorts))
		share := float64(len(waveRows)) / float64(len(ages))
		if share > cfg.RetirementWaveThreshold {
			results = append(results, ir.Warning(BirthDateAgent, ir.KindBusinessRule, FieldBirthDate,
				fmt.Sprintf("%.1f%% of active employees are %d or older, above the %.1f%% retirement-wave threshold",
					share*100, cfg.RetirementWaveAge, cfg.RetirementWaveThreshold*100)).
				WithSuggestion("review pension funding and succession plans for the upcoming retirement wave").
				WithRows(ir.CollectionActive, waveRows...).
				WithMeta("share", shared.Round(share, 4)).
				WithMeta("threshold", cfg.RetirementWaveThreshold))
		}
	}

	return validator.WithSuccess(BirthDateAgent, results, "all birth dates are present and plausible"), nil
}

func ageDistribution(ages []float64) ir.ValidationResult {
	lo, hi := ages[0], ages[0]
	for _, a := range ages {
		lo = min(lo, a)
		hi = max(hi, a)
	}
	mean := shared.Mean(ages)
	return ir.Info(BirthDateAgent, FieldBirthDate,
		fmt.Sprintf("active age distribution: n=%d mean=%.1f median=%.1f", len(ages), mean, shared.Median(ages))).
		WithMeta("count", len(ages)).
		WithMeta("mean", shared.Round(mean, 2)).
		WithMeta("median", shared.Round(shared.Median(ages), 2)).
		WithMeta("std_dev", shared.Round(shared.StdDev(ages), 2)).
		WithMeta("min", shared.Round(lo, 2)).
		WithMeta("max", shared.Round(hi, 2))
}

func cohortBreakdown(cohorts map[Generation]int) ir.ValidationResult {
	counts := make(map[string]any, len(Generations))
	for _, g := range Generations {
		counts[string(g)] = cohorts[g]
	}
	return ir.Info(BirthDateAgent, FieldBirthDate, "generational cohorts of active employees").
		WithMeta("cohorts", counts)
}

// decodedFromIDs decodes a birth date from the record's CURP, falling back
// to its RFC. src names the identifier used.
func decodedFromIDs(r *ir.EmployeeRecord) (d time.Time, src string, ok bool) {
	if curp, err := identity.ParseCURP(r.CURP); err == nil {
		return curp.BirthDate, "CURP", true
	}
	if rfc, err := identity.ParseRFC(r.RFC); err == nil {
		return rfc.BirthDate, "RFC", true
	}
	return time.Time{}, "", false
}
