// Package salary validates base and integrated salaries: presence, the
// integrated >= base relationship, statutory minimum wage, position bands
// and population outliers.
package salary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

const Agent = "salary-validator"

const (
	FieldBase       = "base_salary"
	FieldIntegrated = "integrated_salary"
)

// minOutlierSample is the smallest population the IQR test runs on.
const minOutlierSample = 4

// Amounts are the parsed salary cells of one record, in the configured
// period.
type Amounts struct {
	Base          float64
	Integrated    float64
	HasBase       bool
	HasIntegrated bool
}

// Parse reads both salary cells. A cell that is blank or not numeric is
// reported as absent.
func Parse(r *ir.EmployeeRecord) Amounts {
	var a Amounts
	if !shared.IsBlank(r.BaseSalary) {
		a.Base, a.HasBase = shared.ParseNumeric(r.BaseSalary)
	}
	if !shared.IsBlank(r.IntegratedSalary) {
		a.Integrated, a.HasIntegrated = shared.ParseNumeric(r.IntegratedSalary)
	}
	return a
}

// WageYear is the year whose minimum wage applies: the termination year for
// terminations, otherwise the evaluation year.
func WageYear(s ir.Subject, asOf time.Time) int {
	if s.Termination != nil {
		if d, ok := shared.ParseDate(s.Termination.TerminationDate); ok && !d.After(asOf) {
			return d.Year()
		}
	}
	return asOf.Year()
}

// Validator is the salary-validator.
type Validator struct {
	cfg config.Assumptions
}

func NewValidator(cfg config.Assumptions) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(Agent,
		"salary presence, integrated >= base, minimum wage, position bands and IQR outliers",
		1, v.cfg.Timeout(Agent, 15*time.Second))
}

type sample struct {
	row      int
	position string
	monthly  float64
}

func (v *Validator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	var results []ir.ValidationResult
	var population []sample

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rs, base, ok := v.checkRecord(s, in.AsOf)
		results = append(results, rs...)
		if ok && s.Collection == ir.CollectionActive {
			population = append(population, sample{
				row:      s.Record.Row,
				position: positionKey(s.Record.Position),
				monthly:  v.cfg.Salary.Monthly(base),
			})
		}
	}

	results = append(results, v.outliers(population)...)
	results = append(results, positionStats(population)...)
	return validator.WithSuccess(Agent, results, "all salaries are present and consistent"), nil
}

// checkRecord returns the record's findings and its base salary when usable
// for population statistics.
func (v *Validator) checkRecord(s ir.Subject, asOf time.Time) ([]ir.ValidationResult, float64, bool) {
	cfg := v.cfg.Salary
	var out []ir.ValidationResult
	label := validator.Label(s)
	row := s.Record.Row
	a := Parse(s.Record)

	switch {
	case shared.IsBlank(s.Record.BaseSalary):
		return append(out, ir.Critical(Agent, ir.KindMissingData, FieldBase, label+": base salary is missing").
			WithSuggestion("capture the base salary from the latest payroll receipt").
			WithRows(s.Collection, row)), 0, false
	case !a.HasBase:
		return append(out, ir.Critical(Agent, ir.KindFormatInvalid, FieldBase,
			fmt.Sprintf("%s: base salary %q is not a number", label, s.Record.BaseSalary)).
			WithSuggestion("enter the amount as digits, e.g. 12500.00").
			WithRows(s.Collection, row)), 0, false
	case a.Base <= 0:
		out = append(out, ir.Warning(Agent, ir.KindBusinessRule, FieldBase,
			fmt.Sprintf("%s: base salary %.2f is not positive", label, a.Base)).
			WithSuggestion("a salaried employee must earn a positive base salary").
			WithRows(s.Collection, row))
		return append(out, v.integration(s, a)...), 0, false
	}

	out = append(out, v.integration(s, a)...)

	year := WageYear(s, asOf)
	minWage := cfg.MinimumWageFor(year)
	if daily := cfg.Daily(a.Base); daily < minWage {
		out = append(out, belowMinimum(s, FieldBase, daily, minWage, year))
	}
	if a.HasIntegrated && a.Integrated >= a.Base {
		if daily := cfg.Daily(a.Integrated); daily < minWage {
			out = append(out, belowMinimum(s, FieldIntegrated, daily, minWage, year))
		}
	}

	if band, ok := BandFor(cfg.PositionBands, s.Record.Position); ok {
		monthly := cfg.Monthly(a.Base)
		if monthly < band.Min || monthly > band.Max {
			out = append(out, ir.Warning(Agent, ir.KindBusinessRule, FieldBase,
				fmt.Sprintf("%s: monthly base %.2f is outside the %s band %.0f-%.0f for %q",
					label, monthly, band.Name, band.Min, band.Max, s.Record.Position)).
				WithSuggestion("confirm the salary period (monthly vs daily) and the position title").
				WithRows(s.Collection, row).
				WithMeta("band", band.Name).
				WithMeta("monthly", shared.Round(monthly, 2)))
		}
	}
	return out, a.Base, true
}

// integration checks the integrated salary against a parsed base. Only
// integrated < base is critical.
func (v *Validator) integration(s ir.Subject, a Amounts) []ir.ValidationResult {
	cfg := v.cfg.Salary
	label := validator.Label(s)
	row := s.Record.Row
	expected := shared.Round(a.Base*cfg.IntegrationFactor, 2)

	switch {
	case shared.IsBlank(s.Record.IntegratedSalary):
		return []ir.ValidationResult{ir.Warning(Agent, ir.KindMissingData, FieldIntegrated, label+": integrated salary is missing").
			WithSuggestion(fmt.Sprintf("use base x %.4f = %.2f as the statutory minimum integration", cfg.IntegrationFactor, expected)).
			WithRows(s.Collection, row).
			WithMeta("suggested_integrated", expected)}
	case !a.HasIntegrated:
		return []ir.ValidationResult{ir.Warning(Agent, ir.KindFormatInvalid, FieldIntegrated,
			fmt.Sprintf("%s: integrated salary %q is not a number", label, s.Record.IntegratedSalary)).
			WithSuggestion(fmt.Sprintf("enter the amount as digits; the statutory minimum is %.2f", expected)).
			WithRows(s.Collection, row)}
	case a.Integrated < a.Base:
		return []ir.ValidationResult{ir.Critical(Agent, ir.KindConsistencyViolation, FieldIntegrated,
			fmt.Sprintf("%s: integrated salary %.2f is below base salary %.2f", label, a.Integrated, a.Base)).
			WithSuggestion(fmt.Sprintf("integrated salary includes benefits and must be at least base; expected about %.2f", expected)).
			WithRows(s.Collection, row).
			WithMeta("base", a.Base).
			WithMeta("integrated", a.Integrated)}
	}
	return nil
}

func belowMinimum(s ir.Subject, field string, daily, minWage float64, year int) ir.ValidationResult {
	return ir.Warning(Agent, ir.KindBusinessRule, field,
		fmt.Sprintf("%s: daily %s %.2f is below the %d minimum wage of %.2f",
			validator.Label(s), strings.ReplaceAll(field, "_", " "), daily, year, minWage)).
		WithSuggestion("check whether the amount is part-time or expressed in another period").
		WithRows(s.Collection, s.Record.Row).
		WithMeta("daily", shared.Round(daily, 2)).
		WithMeta("minimum_wage", minWage).
		WithMeta("year", year)
}

// BandFor returns the first band whose keyword occurs in position.
func BandFor(bands []config.PositionBand, position string) (config.PositionBand, bool) {
	norm := shared.NormalizeName(position)
	if norm == "" {
		return config.PositionBand{}, false
	}
	for _, b := range bands {
		for _, kw := range b.Keywords {
			if strings.Contains(norm, shared.NormalizeName(kw)) {
				return b, true
			}
		}
	}
	return config.PositionBand{}, false
}

func positionKey(position string) string {
	if p := shared.NormalizeName(position); p != "" {
		return p
	}
	return "UNSPECIFIED"
}

func (v *Validator) outliers(pop []sample) []ir.ValidationResult {
	if len(pop) < minOutlierSample {
		return nil
	}
	values := make([]float64, len(pop))
	for i, p := range pop {
		values[i] = p.monthly
	}
	lower, upper := shared.IQRBounds(values, v.cfg.Salary.IQRMultiplier)

	var out []ir.ValidationResult
	for _, p := range pop {
		if p.monthly >= lower && p.monthly <= upper {
			continue
		}
		side := "above"
		if p.monthly < lower {
			side = "below"
		}
		out = append(out, ir.Warning(Agent, ir.KindStatisticalOutlier, FieldBase,
			fmt.Sprintf("active row %d: monthly base %.2f is %s the population range %.2f-%.2f", p.row, p.monthly, side, lower, upper)).
			WithSuggestion("verify the amount; outliers distort the liability projection").
			WithRows(ir.CollectionActive, p.row).
			WithMeta("lower", shared.Round(lower, 2)).
			WithMeta("upper", shared.Round(upper, 2)))
	}
	return out
}

func positionStats(pop []sample) []ir.ValidationResult {
	groups := make(map[string][]float64)
	for _, p := range pop {
		groups[p.position] = append(groups[p.position], p.monthly)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ir.ValidationResult, 0, len(names))
	for _, name := range names {
		vals := groups[name]
		mean := shared.Mean(vals)
		out = append(out, ir.Info(Agent, FieldBase,
			fmt.Sprintf("%s: n=%d mean=%.2f median=%.2f", name, len(vals), mean, shared.Median(vals))).
			WithMeta("position", name).
			WithMeta("count", len(vals)).
			WithMeta("mean", shared.Round(mean, 2)).
			WithMeta("median", shared.Round(shared.Median(vals), 2)).
			WithMeta("skewness", shared.Round(shared.Skewness(vals), 4)).
			WithMeta("cv", shared.Round(shared.CoefficientOfVariation(vals), 4)))
	}
	return out
}
