package demographic

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/roach88/nomina/internal/actuarial"
	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// ageBandWidth is the width in years of the bands the diversity score uses.
const ageBandWidth = 5

// CompositionValidator reports the generation, gender and tenure make-up of
// the active workforce and the risks that follow from it.
type CompositionValidator struct {
	cfg config.Assumptions
}

func NewCompositionValidator(cfg config.Assumptions) *CompositionValidator {
	return &CompositionValidator{cfg: cfg}
}

func (v *CompositionValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(CompositionAgent,
		"generation, gender and tenure breakdowns, age diversity, salary equity gap and succession risk",
		4, v.cfg.Timeout(CompositionAgent, 20*time.Second),
		BirthDateAgent, salary.Agent)
}

// ResolveSex returns the declared sex, else the CURP sex, else the sex
// inferred from the first given name. source is "declared", "curp", "name"
// or "" when nothing could be resolved.
func ResolveSex(r *ir.EmployeeRecord) (sex shared.Sex, source string) {
	if s := shared.NormalizeSex(r.Sex); s != shared.SexUnknown {
		return s, "declared"
	}
	if curp, err := identity.ParseCURP(r.CURP); err == nil && curp.Sex() != shared.SexUnknown {
		return curp.Sex(), "curp"
	}
	if s, ok := shared.InferSexFromName(r.Name); ok {
		return s, "name"
	}
	return shared.SexUnknown, ""
}

func (v *CompositionValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	cfg := v.cfg.Demographic
	rejectedBirth := in.CriticalRows(BirthDateAgent, ir.CollectionActive)
	rejectedSalary := in.CriticalRows(salary.Agent, ir.CollectionActive)

	generations := make(map[Generation]int)
	genders := map[shared.Sex]int{}
	tenure := make(map[string]int)
	bands := make(map[string]int)
	pay := map[shared.Sex][]float64{}
	var missingSex, successors []int
	var inferred []any
	withAge := 0

	for i := range in.Data.ActivePersonnel {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := &in.Data.ActivePersonnel[i]

		sex, source := ResolveSex(r)
		genders[sex]++
		if source != "declared" {
			missingSex = append(missingSex, r.Row)
			if sex != shared.SexUnknown {
				inferred = append(inferred, map[string]any{"row": r.Row, "sex": string(sex), "source": source})
			}
		}

		a := salary.Parse(r)
		if sex != shared.SexUnknown && a.HasBase && a.Base > 0 && !rejectedSalary[r.Row] {
			pay[sex] = append(pay[sex], v.cfg.Salary.Monthly(a.Base))
		}

		birth, okBirth := shared.ParseDate(r.BirthDate)
		okBirth = okBirth && !rejectedBirth[r.Row] && !birth.After(in.AsOf)
		if okBirth {
			withAge++
			age := shared.AgeAt(birth, in.AsOf)
			generations[GenerationOf(birth.Year())]++
			lo := age / ageBandWidth * ageBandWidth
			bands[fmt.Sprintf("%d-%d", lo, lo+ageBandWidth-1)]++
		}
		hire, okHire := shared.ParseDate(r.HireDate)
		if okHire && !hire.After(in.AsOf) {
			years := shared.YearsOfService(hire, in.AsOf)
			tenure[actuarial.TenureBucket(years)]++
			if okBirth && years >= cfg.LongTenureYears && shared.AgeAt(birth, in.AsOf) >= cfg.RetirementWaveAge {
				successors = append(successors, r.Row)
			}
		}
	}

	total := len(in.Data.ActivePersonnel)
	if total == 0 {
		return []ir.ValidationResult{ir.Info(CompositionAgent, "*", "no active employees to profile")}, nil
	}

	var results []ir.ValidationResult
	results = append(results, breakdown(generations, genders, tenure, total))

	if withAge > 0 {
		score := shared.NormalizedEntropy(bands)
		results = append(results, ir.Info(CompositionAgent, FieldBirthDate,
			fmt.Sprintf("age diversity score %.2f over %d five-year bands", score, len(bands))).
			WithMeta("diversity_score", shared.Round(score, 4)).
			WithMeta("entropy_bits", shared.Round(shared.ShannonEntropy(bands), 4)).
			WithMeta("bands", len(bands)))
	}

	if r, ok := equityGap(pay, cfg.EquityGapThreshold); ok {
		results = append(results, r)
	}

	if share := float64(len(successors)) / float64(total); share > cfg.SuccessionRiskThreshold {
		results = append(results, ir.Warning(CompositionAgent, ir.KindBusinessRule, FieldHireDate,
			fmt.Sprintf("%.1f%% of active employees have %d+ service years and are %d or older; knowledge-transfer risk",
				share*100, cfg.LongTenureYears, cfg.RetirementWaveAge)).
			WithSuggestion("plan succession and knowledge transfer for these roles").
			WithRows(ir.CollectionActive, successors...).
			WithMeta("share", shared.Round(share, 4)).
			WithMeta("threshold", cfg.SuccessionRiskThreshold))
	}

	if len(missingSex) > 0 {
		r := ir.Warning(CompositionAgent, ir.KindMissingData, FieldSex,
			fmt.Sprintf("%d active employees have no declared sex", len(missingSex))).
			WithSuggestion("capture the declared sex; inferred values from CURP or first name are listed for review").
			WithRows(ir.CollectionActive, missingSex...)
		if len(inferred) > 0 {
			r = r.WithMeta("inferred", inferred)
		}
		results = append(results, r)
	}

	return validator.WithSuccess(CompositionAgent, results, "workforce composition shows no risks"), nil
}

func breakdown(generations map[Generation]int, genders map[shared.Sex]int, tenure map[string]int, total int) ir.ValidationResult {
	gen := make(map[string]any, len(Generations))
	for _, g := range Generations {
		gen[string(g)] = generations[g]
	}
	ten := make(map[string]any, len(actuarial.TenureBuckets))
	for _, b := range actuarial.TenureBuckets {
		ten[b] = tenure[b]
	}
	sex := map[string]any{
		"male":    genders[shared.SexMale],
		"female":  genders[shared.SexFemale],
		"unknown": genders[shared.SexUnknown],
	}
	return ir.Info(CompositionAgent, "*",
		fmt.Sprintf("%d active employees: %d female, %d male, %d unknown",
			total, genders[shared.SexFemale], genders[shared.SexMale], genders[shared.SexUnknown])).
		WithMeta("generations", gen).
		WithMeta("genders", sex).
		WithMeta("tenure", ten)
}

// equityGap compares mean monthly base salary between sexes. The gap is
// relative to the higher mean.
func equityGap(pay map[shared.Sex][]float64, threshold float64) (ir.ValidationResult, bool) {
	male, female := pay[shared.SexMale], pay[shared.SexFemale]
	if len(male) == 0 || len(female) == 0 {
		return ir.ValidationResult{}, false
	}
	mm, fm := shared.Mean(male), shared.Mean(female)
	gap := math.Abs(mm-fm) / math.Max(mm, fm)
	msg := fmt.Sprintf("mean monthly base salary: female %.2f, male %.2f (gap %.1f%%)", fm, mm, gap*100)

	var r ir.ValidationResult
	if gap > threshold {
		r = ir.Warning(CompositionAgent, ir.KindStatisticalOutlier, salary.FieldBase, msg).
			WithSuggestion("review pay equity by position before valuation; sex may be inferred for some rows")
	} else {
		r = ir.Info(CompositionAgent, salary.FieldBase, msg)
	}
	return r.WithMeta("female_mean", shared.Round(fm, 2)).
		WithMeta("male_mean", shared.Round(mm, 2)).
		WithMeta("gap", shared.Round(gap, 4)).
		WithMeta("threshold", threshold), true
}
