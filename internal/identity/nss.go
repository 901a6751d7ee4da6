package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

const nssLength = 11

// NSS is a structurally valid IMSS social-security number:
// subdelegation (2), registration year (2), birth year (2), serial (4) and
// check digit (1).
type NSS struct {
	Value          string
	Subdelegation  string
	RegistrationYY int
	BirthYY        int
	Serial         string
	CheckDigit     int
}

// NSSCheckDigit computes the weighted mod-10 check digit over the first ten
// digits: weights alternate 1,2 from the left, two-digit products are folded
// (digit sum) and the check is (10 - sum mod 10) mod 10.
func NSSCheckDigit(body string) (int, bool) {
	if len(body) != nssLength-1 || !shared.IsAllDigits(body) {
		return 0, false
	}
	sum := 0
	for i := 0; i < len(body); i++ {
		p := int(body[i] - '0')
		if i%2 == 1 {
			p *= 2
		}
		if p > 9 {
			p = p/10 + p%10
		}
		sum += p
	}
	return (10 - sum%10) % 10, true
}

// templated reports whether the ten body digits are all identical or form a
// run ascending or descending by one (mod 10), the shapes placeholder NSS
// values take.
func templated(body string) bool {
	same, asc, desc := true, true, true
	for i := 1; i < len(body); i++ {
		prev, cur := int(body[i-1]-'0'), int(body[i]-'0')
		same = same && cur == prev
		asc = asc && cur == (prev+1)%10
		desc = desc && cur == (prev+9)%10
	}
	return same || asc || desc
}

// ParseNSS validates length, digits, placeholder shapes and the check digit.
func ParseNSS(raw string) (NSS, error) {
	value := shared.NormalizeID(raw)
	fail := func(reason string) (NSS, error) {
		return NSS{}, &FormatError{Type: shared.IDTypeNSS, Value: value, Reason: reason}
	}

	if len(value) != nssLength {
		return fail(fmt.Sprintf("expected %d digits, got %d characters", nssLength, len([]rune(value))))
	}
	if !shared.IsAllDigits(value) {
		return fail("must contain only digits")
	}
	body := value[:nssLength-1]
	if templated(body) {
		return fail("digits follow a placeholder pattern")
	}
	want, _ := NSSCheckDigit(body)
	got := int(value[nssLength-1] - '0')
	if got != want {
		return fail(fmt.Sprintf("check digit %d does not match computed %d", got, want))
	}

	return NSS{
		Value:          value,
		Subdelegation:  value[0:2],
		RegistrationYY: int(value[2]-'0')*10 + int(value[3]-'0'),
		BirthYY:        int(value[4]-'0')*10 + int(value[5]-'0'),
		Serial:         value[6:10],
		CheckDigit:     got,
	}, nil
}

// RegistrationYear resolves the two-digit registration year to the latest
// century not after asOf.
func (n NSS) RegistrationYear(asOf time.Time) int {
	year := 2000 + n.RegistrationYY
	if year > asOf.Year() {
		year -= 100
	}
	return year
}

// NSSValidator checks NSS structure, its registration and birth-year
// segments against the record, and uniqueness.
type NSSValidator struct {
	cfg config.Assumptions
}

func NewNSSValidator(cfg config.Assumptions) *NSSValidator {
	return &NSSValidator{cfg: cfg}
}

func (v *NSSValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(NSSAgent,
		"NSS digits, check digit, placeholder patterns, registration and birth year segments and duplicates",
		1, v.cfg.Timeout(NSSAgent, 10*time.Second))
}

func (v *NSSValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	var results []ir.ValidationResult
	dups := newDuplicateTracker()
	required := isRequired(v.cfg, FieldNSS)
	checked := 0

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := s.Record.NSS
		if shared.IsBlank(raw) {
			results = append(results, missingResult(NSSAgent, FieldNSS, required, s, shared.IDTypeNSS))
			continue
		}
		checked++

		nss, err := ParseNSS(raw)
		if err != nil {
			results = append(results, invalidResult(NSSAgent, FieldNSS, s, raw, err, shared.IDTypeNSS,
				"copy the NSS from the employee's IMSS registration"))
			continue
		}
		dups.add(s.Collection, nss.Value, s.Record.Row)
		results = append(results, v.segmentChecks(s, nss, in.AsOf)...)
	}

	results = append(results, dups.results(NSSAgent, FieldNSS)...)
	return summarize(NSSAgent, results, checked, FieldNSS), nil
}

func (v *NSSValidator) segmentChecks(s ir.Subject, nss NSS, asOf time.Time) []ir.ValidationResult {
	var out []ir.ValidationResult
	label := validator.Label(s)
	reg := nss.RegistrationYear(asOf)
	tolerance := v.cfg.Identity.NSSRegistrationToleranceYr

	if hire, ok := shared.ParseDate(s.Record.HireDate); ok && reg > hire.Year()+tolerance {
		out = append(out, ir.Warning(NSSAgent, ir.KindConsistencyViolation, FieldNSS,
			fmt.Sprintf("%s: NSS registered in %d, more than %d years after hire in %d", label, reg, tolerance, hire.Year())).
			WithSuggestion("confirm the NSS; employees must be registered with IMSS when hired").
			WithRows(s.Collection, s.Record.Row).
			WithMeta("registration_year", reg).
			WithMeta("hire_year", hire.Year()))
	}

	birth, ok := shared.ParseDate(s.Record.BirthDate)
	if !ok {
		return out
	}
	if reg < birth.Year() {
		out = append(out, ir.Warning(NSSAgent, ir.KindConsistencyViolation, FieldNSS,
			fmt.Sprintf("%s: NSS registration year %d precedes birth year %d", label, reg, birth.Year())).
			WithSuggestion("the NSS probably belongs to someone else; verify it with IMSS").
			WithRows(s.Collection, s.Record.Row).
			WithMeta("registration_year", reg).
			WithMeta("birth_year", birth.Year()))
	}
	if nss.BirthYY != birth.Year()%100 {
		out = append(out, ir.Warning(NSSAgent, ir.KindConsistencyViolation, FieldNSS,
			fmt.Sprintf("%s: NSS birth-year segment %02d does not match declared birth year %d", label, nss.BirthYY, birth.Year())).
			WithSuggestion("correct either the birth date or the NSS").
			WithRows(s.Collection, s.Record.Row).
			WithMeta("nss_birth_yy", nss.BirthYY).
			WithMeta("birth_year", birth.Year()))
	}
	return out
}
