package compliance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/demographic"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/salary"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// RiskLevel is the four-level actuarial risk scale.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists levels in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// LevelFor maps a 0-100 score onto the scale using cfg thresholds.
func LevelFor(score float64, cfg config.RiskConfig) RiskLevel {
	switch {
	case score >= cfg.CriticalThreshold:
		return RiskCritical
	case score >= cfg.HighThreshold:
		return RiskHigh
	case score >= cfg.MediumThreshold:
		return RiskMedium
	}
	return RiskLow
}

// turnoverHorizon is the service, in years, after which an employee is
// considered unlikely to leave before retirement.
const turnoverHorizon = 10.0

// RiskScore is one employee's weighted risk breakdown. Components are 0-100.
type RiskScore struct {
	Row        int       `json:"row"`
	Retirement float64   `json:"retirement"`
	Salary     float64   `json:"salary"`
	Turnover   float64   `json:"turnover"`
	Liability  float64   `json:"liability"`
	Score      float64   `json:"score"`
	Level      RiskLevel `json:"level"`
}

// RiskValidator scores every projectable active employee and compares the
// total projected liability with the contribution base.
type RiskValidator struct {
	cfg config.Assumptions
}

func NewRiskValidator(cfg config.Assumptions) *RiskValidator {
	return &RiskValidator{cfg: cfg}
}

func (v *RiskValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(RiskAgent,
		"per-employee weighted actuarial risk and population funding sustainability",
		4, v.cfg.Timeout(RiskAgent, 40*time.Second),
		salary.Agent, demographic.ActuarialAgent)
}

func (v *RiskValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	exclude := in.CriticalRows(salary.Agent, ir.CollectionActive)
	for row := range in.CriticalRows(demographic.BirthDateAgent, ir.CollectionActive) {
		exclude[row] = true
	}
	projected, skipped, err := demographic.ProjectActives(ctx, in, v.cfg, exclude)
	if err != nil {
		return nil, err
	}
	if len(projected) == 0 {
		return []ir.ValidationResult{ir.Info(RiskAgent, "*",
			fmt.Sprintf("no active employee could be scored (%d skipped)", skipped)).
			WithMeta("skipped", skipped)}, nil
	}

	scores := v.Score(projected)
	var results []ir.ValidationResult
	counts := make(map[RiskLevel]int)
	var high, critical []int
	for _, s := range scores {
		counts[s.Level]++
		switch s.Level {
		case RiskHigh:
			high = append(high, s.Row)
		case RiskCritical:
			critical = append(critical, s.Row)
		}
	}
	if len(critical) > 0 {
		results = append(results, ir.Warning(RiskAgent, ir.KindBusinessRule, "*",
			fmt.Sprintf("%d active employees carry critical actuarial risk (score >= %.0f)", len(critical), v.cfg.Risk.CriticalThreshold)).
			WithSuggestion("prioritize data review for these employees; they dominate the liability").
			WithRows(ir.CollectionActive, critical...).
			WithMeta("level", string(RiskCritical)))
	}
	if len(high) > 0 {
		results = append(results, ir.Info(RiskAgent, "*",
			fmt.Sprintf("%d active employees carry high actuarial risk", len(high))).
			WithRows(ir.CollectionActive, high...).
			WithMeta("level", string(RiskHigh)))
	}

	levels := make(map[string]any, len(RiskLevels))
	for _, l := range RiskLevels {
		levels[string(l)] = counts[l]
	}
	results = append(results, ir.Info(RiskAgent, "*",
		fmt.Sprintf("scored %d employees: %d low, %d medium, %d high, %d critical",
			len(scores), counts[RiskLow], counts[RiskMedium], counts[RiskHigh], counts[RiskCritical])).
		WithMeta("levels", levels).
		WithMeta("scored", len(scores)).
		WithMeta("skipped", skipped))

	results = append(results, v.sustainability(in, projected))
	return validator.WithSuccess(RiskAgent, results, "no actuarial risk concentrations found"), nil
}

// Score computes the weighted risk of each projection. Salary and liability
// are ranked within the population; retirement proximity and turnover are
// absolute.
func (v *RiskValidator) Score(projected []demographic.Projected) []RiskScore {
	w := v.cfg.Risk
	horizon := float64(v.cfg.Actuarial.RetirementAge - v.cfg.Demographic.MinAge)

	salaries := make([]float64, len(projected))
	liabilities := make([]float64, len(projected))
	for i, p := range projected {
		salaries[i] = p.AnnualSalary
		liabilities[i] = p.PresentValue
	}

	out := make([]RiskScore, len(projected))
	for i, p := range projected {
		s := RiskScore{
			Row:        p.Row,
			Retirement: 100 * (1 - min(p.YearsToRetirement, horizon)/horizon),
			Salary:     percentRank(salaries, p.AnnualSalary),
			Turnover:   100 * (1 - min(p.Service, turnoverHorizon)/turnoverHorizon),
			Liability:  percentRank(liabilities, p.PresentValue),
		}
		s.Score = shared.Round(w.RetirementWeight*s.Retirement+w.SalaryWeight*s.Salary+
			w.TurnoverWeight*s.Turnover+w.LiabilityWeight*s.Liability, 2)
		s.Level = LevelFor(s.Score, w)
		out[i] = s
	}
	return out
}

// percentRank is the share of values strictly below x, scaled to 0-100. A
// single-value population ranks at 50.
func percentRank(values []float64, x float64) float64 {
	if len(values) < 2 {
		return 50
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	below := sort.SearchFloat64s(sorted, x)
	return 100 * float64(below) / float64(len(values)-1)
}

// sustainability compares the total benefit present value against the
// contribution base: annual integrated payroll x contribution rate x
// contribution horizon.
func (v *RiskValidator) sustainability(in validator.Input, projected []demographic.Projected) ir.ValidationResult {
	act := v.cfg.Actuarial
	var liability, payroll float64
	for _, p := range projected {
		liability += p.PresentValue
	}
	rows := make(map[int]bool, len(projected))
	for _, p := range projected {
		rows[p.Row] = true
	}
	for i := range in.Data.ActivePersonnel {
		r := &in.Data.ActivePersonnel[i]
		if !rows[r.Row] {
			continue
		}
		a := salary.Parse(r)
		integrated := a.Base * v.cfg.Salary.IntegrationFactor
		if a.HasIntegrated && a.Integrated >= a.Base {
			integrated = a.Integrated
		}
		payroll += v.cfg.Salary.Annual(integrated)
	}
	base := payroll * act.ContributionRate * float64(act.ContributionYears)

	ratio := 0.0
	if liability > 0 {
		ratio = base / liability
	}
	msg := fmt.Sprintf("projected liability %.2f vs contribution base %.2f (funding ratio %.2f)", liability, base, ratio)
	var r ir.ValidationResult
	if liability > base {
		r = ir.Warning(RiskAgent, ir.KindBusinessRule, "*", msg).
			WithSuggestion("the plan is underfunded at current contribution rates; review the rate or the benefit formula")
	} else {
		r = ir.Info(RiskAgent, "*", msg)
	}
	return r.WithMeta("total_liability", shared.Round(liability, 2)).
		WithMeta("contribution_base", shared.Round(base, 2)).
		WithMeta("funding_ratio", shared.Round(ratio, 4))
}
