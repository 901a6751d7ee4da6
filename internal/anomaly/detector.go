// Package anomaly correlates fields and rows to find data that is valid in
// isolation but implausible as a whole: salary ratios, social-security
// ceilings, hiring clusters, placeholder dates and identifiers, and rows
// that several validators already flagged.
package anomaly

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/identity"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

const Agent = "anomaly-detector"

// minLowSalarySample is the smallest population the low-salary quantile is
// computed on.
const minLowSalarySample = 5

// placeholderBirthDates are dates systems write when the real one is unknown.
var placeholderBirthDates = map[string]bool{
	"1899-12-30": true,
	"1899-12-31": true,
	"1900-01-01": true,
	"1901-01-01": true,
	"1970-01-01": true,
}

// genericRFCs are SAT's generic taxpayer codes, never valid for an employee.
var genericRFCs = map[string]bool{
	"XAXX010101000": true,
	"XEXX010101000": true,
}

// Detector is the anomaly-detector validator.
type Detector struct {
	cfg config.Assumptions
}

func NewDetector(cfg config.Assumptions) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) Descriptor() ir.AgentDescriptor {
	return validator.Describe(Agent,
		"salary ratio and ceiling outliers, low pay for long tenure, hiring clusters, placeholder dates and identifiers, multi-flag rows",
		5, d.cfg.Timeout(Agent, 30*time.Second),
		salary.Agent, demographic.TemporalAgent)
}

func (d *Detector) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	detectors := []func(validator.Input) []ir.ValidationResult{
		d.salaryRatios,
		d.lowSalaryForTenure,
		d.hiringClusters,
		d.repeatedBirthDates,
		d.sequentialNSS,
		d.genericIdentifiers,
		d.multiFlagged,
	}
	var results []ir.ValidationResult
	for _, detect := range detectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, detect(in)...)
	}
	return validator.WithSuccess(Agent, results, "no cross-field anomalies detected"), nil
}

// salaryRatios flags integrated/base ratios above the configured maximum
// and integrated salaries above the social-security contribution ceiling.
func (d *Detector) salaryRatios(in validator.Input) []ir.ValidationResult {
	cfg := d.cfg
	var out []ir.ValidationResult
	for _, s := range in.Data.Subjects() {
		if in.CriticalRows(salary.Agent, s.Collection)[s.Record.Row] {
			continue
		}
		a := salary.Parse(s.Record)
		if !a.HasBase || !a.HasIntegrated || a.Base <= 0 || a.Integrated < a.Base {
			continue
		}
		label := validator.Label(s)
		if ratio := a.Integrated / a.Base; ratio > cfg.Anomaly.MaxIntegrationRatio {
			out = append(out, ir.Warning(Agent, ir.KindStatisticalOutlier, salary.FieldIntegrated,
				fmt.Sprintf("%s: integrated salary is %.2fx base, above the %.2fx expected maximum", label, ratio, cfg.Anomaly.MaxIntegrationRatio)).
				WithSuggestion("check for one-off payments or commissions mixed into the integrated salary").
				WithRows(s.Collection, s.Record.Row).
				WithMeta("ratio", shared.Round(ratio, 4)))
		}
		year := salary.WageYear(s, in.AsOf)
		ceiling := cfg.Anomaly.SocialSecurityCapUMAs * cfg.Salary.UMAFor(year)
		if daily := cfg.Salary.Daily(a.Integrated); ceiling > 0 && daily > ceiling {
			out = append(out, ir.Warning(Agent, ir.KindBusinessRule, salary.FieldIntegrated,
				fmt.Sprintf("%s: daily integrated salary %.2f exceeds the %g-UMA contribution ceiling %.2f", label, daily, cfg.Anomaly.SocialSecurityCapUMAs, ceiling)).
				WithSuggestion("IMSS contributions are capped at the ceiling; confirm the integrated salary used for valuation").
				WithRows(s.Collection, s.Record.Row).
				WithMeta("ceiling", shared.Round(ceiling, 2)).
				WithMeta("daily", shared.Round(daily, 2)))
		}
	}
	return out
}

// lowSalaryForTenure flags long-tenured actives paid at or below the low
// salary quantile of the population.
func (d *Detector) lowSalaryForTenure(in validator.Input) []ir.ValidationResult {
	cfg := d.cfg.Anomaly
	type paid struct {
		row     int
		monthly float64
		years   int
	}
	var pop []paid
	var values []float64
	for i := range in.Data.ActivePersonnel {
		r := &in.Data.ActivePersonnel[i]
		a := salary.Parse(r)
		if !a.HasBase || a.Base <= 0 {
			continue
		}
		monthly := d.cfg.Salary.Monthly(a.Base)
		values = append(values, monthly)
		years := -1
		if hire, ok := shared.ParseDate(r.HireDate); ok && !hire.After(in.AsOf) {
			years = shared.YearsOfService(hire, in.AsOf)
		}
		pop = append(pop, paid{row: r.Row, monthly: monthly, years: years})
	}
	if len(values) < minLowSalarySample {
		return nil
	}
	threshold := shared.Quantile(values, cfg.LowSalaryQuantile)

	var rows []int
	for _, p := range pop {
		if p.years >= cfg.LowSalaryTenureYears && p.monthly <= threshold {
			rows = append(rows, p.row)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return []ir.ValidationResult{ir.Warning(Agent, ir.KindStatisticalOutlier, salary.FieldBase,
		fmt.Sprintf("%d employees with %d+ service years earn at or below the %.0fth percentile (%.2f monthly)",
			len(rows), cfg.LowSalaryTenureYears, cfg.LowSalaryQuantile*100, threshold)).
		WithSuggestion("long tenure usually comes with raises; check for a stale salary or a wrong hire date").
		WithRows(ir.CollectionActive, rows...).
		WithMeta("threshold", shared.Round(threshold, 2))}
}

// hiringClusters flags single hire dates shared by an unusually large part
// of the active workforce, typical of a bulk import or a merger default.
func (d *Detector) hiringClusters(in validator.Input) []ir.ValidationResult {
	cfg := d.cfg.Anomaly
	groups, order := groupActives(in.Data, func(r *ir.EmployeeRecord) (string, bool) {
		t, ok := shared.ParseDate(r.HireDate)
		return t.Format(time.DateOnly), ok
	})
	total := len(in.Data.ActivePersonnel)

	var out []ir.ValidationResult
	for _, date := range order {
		rows := groups[date]
		share := float64(len(rows)) / float64(total)
		if len(rows) < cfg.HiringClusterMin || share < cfg.HiringClusterShare {
			continue
		}
		out = append(out, ir.Warning(Agent, ir.KindStatisticalOutlier, demographic.FieldHireDate,
			fmt.Sprintf("%d active employees (%.1f%%) share the hire date %s", len(rows), share*100, date)).
			WithSuggestion("a mass hire date usually marks a migration or merger; capture the original hire dates to keep service years right").
			WithRows(ir.CollectionActive, rows...).
			WithMeta("hire_date", date).
			WithMeta("share", shared.Round(share, 4)))
	}
	return out
}

// repeatedBirthDates flags birth dates shared by many actives and any known
// placeholder date.
func (d *Detector) repeatedBirthDates(in validator.Input) []ir.ValidationResult {
	cfg := d.cfg.Anomaly
	groups, order := groupActives(in.Data, func(r *ir.EmployeeRecord) (string, bool) {
		t, ok := shared.ParseDate(r.BirthDate)
		return t.Format(time.DateOnly), ok
	})

	var out []ir.ValidationResult
	for _, date := range order {
		rows := groups[date]
		placeholder := placeholderBirthDates[date]
		if !placeholder && len(rows) < cfg.RepeatedBirthDateMin {
			continue
		}
		msg := fmt.Sprintf("%d active employees share the birth date %s", len(rows), date)
		if placeholder {
			msg = fmt.Sprintf("%d active employees have the placeholder birth date %s", len(rows), date)
		}
		out = append(out, ir.Warning(Agent, ir.KindStatisticalOutlier, demographic.FieldBirthDate, msg).
			WithSuggestion("replace default birth dates with the real ones; they distort ages and the liability").
			WithRows(ir.CollectionActive, rows...).
			WithMeta("birth_date", date).
			WithMeta("placeholder", placeholder))
	}
	return out
}

// sequentialNSS flags runs of actives whose NSS bodies are consecutive
// numbers, the trace of identifiers generated rather than captured.
func (d *Detector) sequentialNSS(in validator.Input) []ir.ValidationResult {
	type id struct {
		body int64
		row  int
	}
	var ids []id
	for i := range in.Data.ActivePersonnel {
		r := &in.Data.ActivePersonnel[i]
		v := shared.NormalizeID(r.NSS)
		if len(v) != 11 || !shared.IsAllDigits(v) {
			continue
		}
		body, err := strconv.ParseInt(v[:10], 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id{body: body, row: r.Row})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].body < ids[j].body })

	var out []ir.ValidationResult
	flush := func(run []id) {
		if len(run) < d.cfg.Anomaly.SequentialIDRunMin {
			return
		}
		rows := make([]int, len(run))
		for i, x := range run {
			rows[i] = x.row
		}
		sort.Ints(rows)
		out = append(out, ir.Warning(Agent, ir.KindStatisticalOutlier, identity.FieldNSS,
			fmt.Sprintf("%d active employees have consecutive NSS numbers", len(run))).
			WithSuggestion("sequential social-security numbers are almost never real; verify them with IMSS").
			WithRows(ir.CollectionActive, rows...))
	}
	start := 0
	for i := 1; i <= len(ids); i++ {
		if i < len(ids) && ids[i].body == ids[i-1].body+1 {
			continue
		}
		flush(ids[start:i])
		start = i
	}
	return out
}

// genericIdentifiers flags SAT's generic RFCs.
func (d *Detector) genericIdentifiers(in validator.Input) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, s := range in.Data.Subjects() {
		v := shared.NormalizeID(s.Record.RFC)
		if !genericRFCs[v] {
			continue
		}
		out = append(out, ir.Warning(Agent, ir.KindConsistencyViolation, identity.FieldRFC,
			fmt.Sprintf("%s: RFC %s is a generic taxpayer code", validator.Label(s), v)).
			WithSuggestion("capture the employee's personal RFC; generic codes are for anonymous sales").
			WithRows(s.Collection, s.Record.Row))
	}
	return out
}

// multiFlagged reports rows that several upstream validators flagged.
func (d *Detector) multiFlagged(in validator.Input) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, c := range []ir.Collection{ir.CollectionActive, ir.CollectionTerminations} {
		flagged := in.FlaggingAgents(c)
		var rows []int
		agents := make(map[string]bool)
		for row, by := range flagged {
			if len(by) < d.cfg.Anomaly.MultiFlagMinValidators {
				continue
			}
			rows = append(rows, row)
			for a := range by {
				agents[a] = true
			}
		}
		if len(rows) == 0 {
			continue
		}
		sort.Ints(rows)
		names := make([]string, 0, len(agents))
		for a := range agents {
			names = append(names, a)
		}
		sort.Strings(names)
		out = append(out, ir.Warning(Agent, ir.KindConsistencyViolation, "*",
			fmt.Sprintf("%d %s rows were flagged by %d or more validators", len(rows), c, d.cfg.Anomaly.MultiFlagMinValidators)).
			WithSuggestion("review these rows first; independent findings usually share one root cause").
			WithRows(c, rows...).
			WithMeta("agents", strings.Join(names, ",")))
	}
	return out
}

// groupActives buckets active rows by key, returning keys in order of first
// appearance.
func groupActives(data *ir.MappedData, key func(*ir.EmployeeRecord) (string, bool)) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i := range data.ActivePersonnel {
		r := &data.ActivePersonnel[i]
		k, ok := key(r)
		if !ok {
			continue
		}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r.Row)
	}
	return groups, order
}
