// Package config holds the versioned actuarial and statutory assumptions that
// every validator receives at construction.
//
// Values come from compiled-in defaults, optionally overlaid by a YAML file
// (checked against the embedded CUE schema) and then by environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultVersion identifies the compiled-in assumption set.
const DefaultVersion = "2026.1"

// Assumptions is the full configuration value.
type Assumptions struct {
	Version     string                   `yaml:"version" json:"version"`
	Identity    IdentityConfig           `yaml:"identity" json:"identity"`
	Demographic DemographicConfig        `yaml:"demographic" json:"demographic"`
	Salary      SalaryConfig             `yaml:"salary" json:"salary"`
	Actuarial   ActuarialConfig          `yaml:"actuarial" json:"actuarial"`
	Risk        RiskConfig               `yaml:"risk" json:"risk"`
	Anomaly     AnomalyConfig            `yaml:"anomaly" json:"anomaly"`
	Timeouts    map[string]time.Duration `yaml:"timeouts,omitempty" json:"timeouts,omitempty"`
}

type IdentityConfig struct {
	// Required lists identity fields whose absence is critical: rfc, curp, nss.
	Required                   []string `yaml:"required" json:"required"`
	BirthDateToleranceDays     int      `yaml:"birth_date_tolerance_days" json:"birth_date_tolerance_days"`
	NSSRegistrationToleranceYr int      `yaml:"nss_registration_tolerance_years" json:"nss_registration_tolerance_years"`
	MinAge                     int      `yaml:"min_age" json:"min_age"`
	MaxPlausibleAge            int      `yaml:"max_plausible_age" json:"max_plausible_age"`
}

type DemographicConfig struct {
	MinAge                  int     `yaml:"min_age" json:"min_age"`
	MaxAge                  int     `yaml:"max_age" json:"max_age"`
	MinHireAge              int     `yaml:"min_hire_age" json:"min_hire_age"`
	MaxHireAge              int     `yaml:"max_hire_age" json:"max_hire_age"`
	RetirementWaveAge       int     `yaml:"retirement_wave_age" json:"retirement_wave_age"`
	RetirementWaveThreshold float64 `yaml:"retirement_wave_threshold" json:"retirement_wave_threshold"`
	ConsistencyCriticalDays int     `yaml:"consistency_critical_days" json:"consistency_critical_days"`
	LongTenureYears         int     `yaml:"long_tenure_years" json:"long_tenure_years"`
	EquityGapThreshold      float64 `yaml:"equity_gap_threshold" json:"equity_gap_threshold"`
	SuccessionRiskThreshold float64 `yaml:"succession_risk_threshold" json:"succession_risk_threshold"`
}

type SalaryConfig struct {
	// Period is the unit salary cells are expressed in: monthly or daily.
	Period            string          `yaml:"period" json:"period"`
	DaysPerMonth      float64         `yaml:"days_per_month" json:"days_per_month"`
	IntegrationFactor float64         `yaml:"integration_factor" json:"integration_factor"`
	IQRMultiplier     float64         `yaml:"iqr_multiplier" json:"iqr_multiplier"`
	MinimumWage       map[int]float64 `yaml:"minimum_wage" json:"minimum_wage"`
	UMA               map[int]float64 `yaml:"uma" json:"uma"`
	PositionBands     []PositionBand  `yaml:"position_bands" json:"position_bands"`
}

// PositionBand is a heuristic monthly salary range for positions whose
// title contains any of Keywords.
type PositionBand struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Min      float64  `yaml:"min" json:"min"`
	Max      float64  `yaml:"max" json:"max"`
}

type ActuarialConfig struct {
	RetirementAge      int     `yaml:"retirement_age" json:"retirement_age"`
	EarlyRetirementAge int     `yaml:"early_retirement_age" json:"early_retirement_age"`
	MinServiceYears    int     `yaml:"min_service_years" json:"min_service_years"`
	DiscountRate       float64 `yaml:"discount_rate" json:"discount_rate"`
	SalaryGrowthRate   float64 `yaml:"salary_growth_rate" json:"salary_growth_rate"`
	AccrualRate        float64 `yaml:"accrual_rate" json:"accrual_rate"`
	AccrualCap         float64 `yaml:"accrual_cap" json:"accrual_cap"`
	PayoutYears        int     `yaml:"payout_years" json:"payout_years"`
	ContributionRate   float64 `yaml:"contribution_rate" json:"contribution_rate"`
	ContributionYears  int     `yaml:"contribution_years" json:"contribution_years"`
}

type RiskConfig struct {
	RetirementWeight  float64 `yaml:"retirement_weight" json:"retirement_weight"`
	SalaryWeight      float64 `yaml:"salary_weight" json:"salary_weight"`
	TurnoverWeight    float64 `yaml:"turnover_weight" json:"turnover_weight"`
	LiabilityWeight   float64 `yaml:"liability_weight" json:"liability_weight"`
	MediumThreshold   float64 `yaml:"medium_threshold" json:"medium_threshold"`
	HighThreshold     float64 `yaml:"high_threshold" json:"high_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold" json:"critical_threshold"`
}

type AnomalyConfig struct {
	HiringClusterMin       int     `yaml:"hiring_cluster_min" json:"hiring_cluster_min"`
	HiringClusterShare     float64 `yaml:"hiring_cluster_share" json:"hiring_cluster_share"`
	RepeatedBirthDateMin   int     `yaml:"repeated_birth_date_min" json:"repeated_birth_date_min"`
	LowSalaryTenureYears   int     `yaml:"low_salary_tenure_years" json:"low_salary_tenure_years"`
	LowSalaryQuantile      float64 `yaml:"low_salary_quantile" json:"low_salary_quantile"`
	MaxIntegrationRatio    float64 `yaml:"max_integration_ratio" json:"max_integration_ratio"`
	SocialSecurityCapUMAs  float64 `yaml:"social_security_cap_umas" json:"social_security_cap_umas"`
	SequentialIDRunMin     int     `yaml:"sequential_id_run_min" json:"sequential_id_run_min"`
	MultiFlagMinValidators int     `yaml:"multi_flag_min_validators" json:"multi_flag_min_validators"`
}

// Defaults returns the compiled-in assumption set.
func Defaults() Assumptions {
	return Assumptions{
		Version: DefaultVersion,
		Identity: IdentityConfig{
			Required:                   []string{"rfc", "nss"},
			BirthDateToleranceDays:     1,
			NSSRegistrationToleranceYr: 5,
			MinAge:                     16,
			MaxPlausibleAge:            80,
		},
		Demographic: DemographicConfig{
			MinAge:                  16,
			MaxAge:                  125,
			MinHireAge:              16,
			MaxHireAge:              70,
			RetirementWaveAge:       60,
			RetirementWaveThreshold: 0.15,
			ConsistencyCriticalDays: 30,
			LongTenureYears:         20,
			EquityGapThreshold:      0.15,
			SuccessionRiskThreshold: 0.10,
		},
		Salary: SalaryConfig{
			Period:            PeriodMonthly,
			DaysPerMonth:      30.4,
			IntegrationFactor: 1.0452,
			IQRMultiplier:     1.5,
			MinimumWage:       defaultMinimumWage(),
			UMA:               defaultUMA(),
			PositionBands:     defaultPositionBands(),
		},
		Actuarial: ActuarialConfig{
			RetirementAge:      65,
			EarlyRetirementAge: 60,
			MinServiceYears:    25,
			DiscountRate:       0.08,
			SalaryGrowthRate:   0.04,
			AccrualRate:        0.02,
			AccrualCap:         0.70,
			PayoutYears:        20,
			ContributionRate:   0.10,
			ContributionYears:  20,
		},
		Risk: RiskConfig{
			RetirementWeight:  0.35,
			SalaryWeight:      0.25,
			TurnoverWeight:    0.15,
			LiabilityWeight:   0.25,
			MediumThreshold:   25,
			HighThreshold:     50,
			CriticalThreshold: 75,
		},
		Anomaly: AnomalyConfig{
			HiringClusterMin:       5,
			HiringClusterShare:     0.20,
			RepeatedBirthDateMin:   3,
			LowSalaryTenureYears:   15,
			LowSalaryQuantile:      0.10,
			MaxIntegrationRatio:    1.5,
			SocialSecurityCapUMAs:  25,
			SequentialIDRunMin:     3,
			MultiFlagMinValidators: 2,
		},
	}
}

// Load reads a YAML file over the defaults, checks it against the schema and
// applies environment overrides. An empty path yields defaults plus env.
func Load(path string) (Assumptions, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Assumptions{}, &Error{Code: ErrCodeRead, Message: fmt.Sprintf("reading %s", path), Err: err}
		}
		cfg, err = Parse(path, data)
		if err != nil {
			return Assumptions{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Assumptions{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Assumptions{}, err
	}
	return cfg, nil
}

// Parse overlays YAML bytes on the defaults after schema validation.
// The filename is only used in diagnostics.
func Parse(filename string, data []byte) (Assumptions, error) {
	if err := CheckSchema(filename, data); err != nil {
		return Assumptions{}, err
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Assumptions{}, &Error{Code: ErrCodeParse, Message: fmt.Sprintf("decoding %s", filename), Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return Assumptions{}, err
	}
	return cfg, nil
}

// applyEnv overrides selected assumptions from NOMINA_* variables.
func applyEnv(cfg *Assumptions) error {
	if v := os.Getenv("NOMINA_SALARY_PERIOD"); v != "" {
		cfg.Salary.Period = strings.ToLower(v)
	}
	floats := []struct {
		env string
		dst *float64
	}{
		{"NOMINA_DISCOUNT_RATE", &cfg.Actuarial.DiscountRate},
		{"NOMINA_SALARY_GROWTH_RATE", &cfg.Actuarial.SalaryGrowthRate},
		{"NOMINA_RETIREMENT_WAVE_THRESHOLD", &cfg.Demographic.RetirementWaveThreshold},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &Error{Code: ErrCodeEnv, Message: fmt.Sprintf("%s=%q is not a number", f.env, v), Err: err}
		}
		*f.dst = n
	}
	return nil
}

// Timeout returns the configured override for a validator, or fallback.
func (a Assumptions) Timeout(name string, fallback time.Duration) time.Duration {
	if d, ok := a.Timeouts[name]; ok && d > 0 {
		return d
	}
	return fallback
}

// Validate checks cross-field constraints the schema cannot express.
func (a Assumptions) Validate() error {
	var problems []string
	if a.Salary.Period != PeriodMonthly && a.Salary.Period != PeriodDaily {
		problems = append(problems, fmt.Sprintf("salary.period %q must be monthly or daily", a.Salary.Period))
	}
	if len(a.Salary.MinimumWage) == 0 {
		problems = append(problems, "salary.minimum_wage must list at least one year")
	}
	if a.Salary.DaysPerMonth <= 0 {
		problems = append(problems, "salary.days_per_month must be positive")
	}
	for _, f := range a.Identity.Required {
		switch f {
		case "rfc", "curp", "nss":
		default:
			problems = append(problems, fmt.Sprintf("identity.required: unknown field %q", f))
		}
	}
	if a.Actuarial.EarlyRetirementAge > a.Actuarial.RetirementAge {
		problems = append(problems, "actuarial.early_retirement_age exceeds retirement_age")
	}
	if a.Actuarial.RetirementAge <= a.Demographic.MinAge {
		problems = append(problems, "actuarial.retirement_age must exceed demographic.min_age")
	}
	if a.Actuarial.DiscountRate <= 0 {
		problems = append(problems, "actuarial.discount_rate must be positive")
	}
	r := a.Risk
	if !(r.MediumThreshold < r.HighThreshold && r.HighThreshold < r.CriticalThreshold) {
		problems = append(problems, "risk thresholds must increase: medium < high < critical")
	}
	if sum := r.RetirementWeight + r.SalaryWeight + r.TurnoverWeight + r.LiabilityWeight; sum < 0.999 || sum > 1.001 {
		problems = append(problems, fmt.Sprintf("risk weights sum to %.3f, want 1", sum))
	}
	for name, d := range a.Timeouts {
		if d <= 0 {
			problems = append(problems, fmt.Sprintf("timeouts.%s must be positive", name))
		}
	}
	if len(problems) > 0 {
		return &Error{Code: ErrCodeInvalid, Message: strings.Join(problems, "; ")}
	}
	return nil
}
