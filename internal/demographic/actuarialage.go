package demographic

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/actuarial"
	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// ActuarialAgeValidator derives actuarial age, service, pension eligibility
// and the present value of the projected benefit for active employees.
type ActuarialAgeValidator struct {
	cfg config.Assumptions
}

func NewActuarialAgeValidator(cfg config.Assumptions) *ActuarialAgeValidator {
	return &ActuarialAgeValidator{cfg: cfg}
}

func (v *ActuarialAgeValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(ActuarialAgent,
		"actuarial age, tenure buckets, pension eligibility and benefit present value",
		3, v.cfg.Timeout(ActuarialAgent, 20*time.Second),
		BirthDateAgent)
}

// Projected is one active employee's projection, keyed by row.
type Projected struct {
	Row int
	actuarial.Projection
}

// ProjectActives projects every active row whose birth date, hire date and
// base salary parse and whose birth date was not rejected upstream. Rows
// are returned in input order along with the number skipped.
func ProjectActives(ctx context.Context, in validator.Input, cfg config.Assumptions, exclude map[int]bool) ([]Projected, int, error) {
	var out []Projected
	skipped := 0
	for i := range in.Data.ActivePersonnel {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		r := &in.Data.ActivePersonnel[i]
		if exclude[r.Row] {
			skipped++
			continue
		}
		birth, ok1 := shared.ParseDate(r.BirthDate)
		hire, ok2 := shared.ParseDate(r.HireDate)
		salary, ok3 := shared.ParseNumeric(r.BaseSalary)
		if !ok1 || !ok2 || !ok3 || salary <= 0 || birth.After(in.AsOf) {
			skipped++
			continue
		}
		p := actuarial.Project(birth, hire, in.AsOf, cfg.Salary.Annual(salary), cfg.Actuarial)
		out = append(out, Projected{Row: r.Row, Projection: p})
	}
	return out, skipped, nil
}

func (v *ActuarialAgeValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	act := v.cfg.Actuarial
	projected, skipped, err := ProjectActives(ctx, in, v.cfg, in.CriticalRows(BirthDateAgent, ir.CollectionActive))
	if err != nil {
		return nil, err
	}

	var results []ir.ValidationResult
	if len(projected) == 0 {
		return append(results, ir.Info(ActuarialAgent, "*",
			fmt.Sprintf("no active employee has the dates and salary needed for a projection (%d skipped)", skipped)).
			WithMeta("skipped", skipped)), nil
	}

	var normal, early, short []int
	var ages, service []float64
	var totalPV float64
	buckets := make(map[string]int, len(actuarial.TenureBuckets))
	for _, p := range projected {
		ages = append(ages, p.Age)
		service = append(service, p.Service)
		totalPV += p.PresentValue
		buckets[actuarial.TenureBucket(int(p.Service))]++

		switch p.Eligibility {
		case actuarial.EligibilityNormal:
			normal = append(normal, p.Row)
		case actuarial.EligibilityEarly:
			early = append(early, p.Row)
		default:
			if int(p.Age) >= act.RetirementAge {
				short = append(short, p.Row)
			}
		}
	}

	if len(normal) > 0 {
		results = append(results, ir.Info(ActuarialAgent, "eligibility",
			fmt.Sprintf("%d active employees already qualify for a normal pension (age >= %d, service >= %d)",
				len(normal), act.RetirementAge, act.MinServiceYears)).
			WithRows(ir.CollectionActive, normal...).
			WithMeta("eligibility", string(actuarial.EligibilityNormal)))
	}
	if len(early) > 0 {
		results = append(results, ir.Info(ActuarialAgent, "eligibility",
			fmt.Sprintf("%d active employees qualify for early retirement (age >= %d, service >= %d)",
				len(early), act.EarlyRetirementAge, act.MinServiceYears)).
			WithRows(ir.CollectionActive, early...).
			WithMeta("eligibility", string(actuarial.EligibilityEarly)))
	}
	if len(short) > 0 {
		results = append(results, ir.Warning(ActuarialAgent, ir.KindBusinessRule, "eligibility",
			fmt.Sprintf("%d active employees are past retirement age %d without %d service years",
				len(short), act.RetirementAge, act.MinServiceYears)).
			WithSuggestion("confirm hire dates; prior service may be missing from the census").
			WithRows(ir.CollectionActive, short...))
	}

	bucketMeta := make(map[string]any, len(actuarial.TenureBuckets))
	for _, b := range actuarial.TenureBuckets {
		bucketMeta[b] = buckets[b]
	}
	results = append(results, ir.Info(ActuarialAgent, "*",
		fmt.Sprintf("projected %d employees: mean age %.1f, mean service %.1f, total benefit present value %.2f",
			len(projected), shared.Mean(ages), shared.Mean(service), totalPV)).
		WithMeta("projected", len(projected)).
		WithMeta("skipped", skipped).
		WithMeta("mean_age", shared.Round(shared.Mean(ages), 2)).
		WithMeta("mean_service", shared.Round(shared.Mean(service), 2)).
		WithMeta("total_present_value", shared.Round(totalPV, 2)).
		WithMeta("tenure_buckets", bucketMeta).
		WithMeta("discount_rate", act.DiscountRate).
		WithMeta("salary_growth_rate", act.SalaryGrowthRate))

	return validator.WithSuccess(ActuarialAgent, results, "no actuarial age or service issues found"), nil
}
