// Package actuarial holds the closed-form pension projections shared by the
// actuarial age and actuarial risk validators.
package actuarial

import (
	"math"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/shared"
)

// Eligibility is the pension status of an employee at the evaluation date.
type Eligibility string

const (
	EligibilityNone   Eligibility = "none"
	EligibilityEarly  Eligibility = "early"
	EligibilityNormal Eligibility = "normal"
)

// EligibilityAt classifies completed age and service years.
// Normal: age >= retirement age with minimum service. Early: age >= early
// retirement age with minimum service.
func EligibilityAt(age, service int, cfg config.ActuarialConfig) Eligibility {
	if service < cfg.MinServiceYears {
		return EligibilityNone
	}
	switch {
	case age >= cfg.RetirementAge:
		return EligibilityNormal
	case age >= cfg.EarlyRetirementAge:
		return EligibilityEarly
	}
	return EligibilityNone
}

// Projection is the benefit projection of one employee.
type Projection struct {
	Age               float64     `json:"age"`
	Service           float64     `json:"service"`
	YearsToRetirement float64     `json:"years_to_retirement"`
	AccrualYears      float64     `json:"accrual_years"`
	AnnualSalary      float64     `json:"annual_salary"`
	FinalSalary       float64     `json:"final_salary"`
	AnnualBenefit     float64     `json:"annual_benefit"`
	PresentValue      float64     `json:"present_value"`
	Eligibility       Eligibility `json:"eligibility"`
}

// Project computes the defined-benefit projection:
//
//	final   = salary * (1+g)^n
//	benefit = final * min(accrualYears * accrualRate, cap)
//	pv      = benefit * a(N, i) / (1+i)^n
//
// where n is the fractional years to retirement (0 once reached), N the
// payout horizon and a(N, i) the annuity-immediate factor.
func Project(birth, hire, asOf time.Time, annualSalary float64, cfg config.ActuarialConfig) Projection {
	age := shared.FractionalYears(birth, asOf)
	service := math.Max(0, shared.FractionalYears(hire, asOf))
	n := math.Max(0, float64(cfg.RetirementAge)-age)
	accrual := service + n

	final := annualSalary * math.Pow(1+cfg.SalaryGrowthRate, n)
	benefit := final * math.Min(accrual*cfg.AccrualRate, cfg.AccrualCap)
	pv := benefit * AnnuityFactor(cfg.PayoutYears, cfg.DiscountRate) / math.Pow(1+cfg.DiscountRate, n)

	return Projection{
		Age:               age,
		Service:           service,
		YearsToRetirement: n,
		AccrualYears:      accrual,
		AnnualSalary:      annualSalary,
		FinalSalary:       final,
		AnnualBenefit:     benefit,
		PresentValue:      pv,
		Eligibility:       EligibilityAt(shared.AgeAt(birth, asOf), shared.YearsOfService(hire, asOf), cfg),
	}
}

// AnnuityFactor is (1 - (1+i)^-N) / i, or N when i is zero.
func AnnuityFactor(years int, rate float64) float64 {
	if years <= 0 {
		return 0
	}
	if rate == 0 {
		return float64(years)
	}
	return (1 - math.Pow(1+rate, -float64(years))) / rate
}

// TenureBucket groups completed service years for reporting.
func TenureBucket(years int) string {
	switch {
	case years < 1:
		return "<1"
	case years < 5:
		return "1-4"
	case years < 10:
		return "5-9"
	case years < 20:
		return "10-19"
	case years < 30:
		return "20-29"
	default:
		return "30+"
	}
}

// TenureBuckets lists bucket labels in display order.
var TenureBuckets = []string{"<1", "1-4", "5-9", "10-19", "20-29", "30+"}
