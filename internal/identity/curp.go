package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

const curpLength = 18

// curpStates are the RENAPO birth-state codes. NE marks foreign-born.
var curpStates = map[string]string{
	"AS": "Aguascalientes", "BC": "Baja California", "BS": "Baja California Sur",
	"CC": "Campeche", "CL": "Coahuila", "CM": "Colima", "CS": "Chiapas",
	"CH": "Chihuahua", "DF": "Ciudad de México", "DG": "Durango", "GT": "Guanajuato",
	"GR": "Guerrero", "HG": "Hidalgo", "JC": "Jalisco", "MC": "Estado de México",
	"MN": "Michoacán", "MS": "Morelos", "NT": "Nayarit", "NL": "Nuevo León",
	"OC": "Oaxaca", "PL": "Puebla", "QT": "Querétaro", "QR": "Quintana Roo",
	"SP": "San Luis Potosí", "SL": "Sinaloa", "SR": "Sonora", "TC": "Tabasco",
	"TS": "Tamaulipas", "TL": "Tlaxcala", "VZ": "Veracruz", "YN": "Yucatán",
	"ZS": "Zacatecas", "NE": "Nacido en el extranjero",
}

// CURP is a structurally valid population-registry ID.
type CURP struct {
	Value          string
	NameBlock      string
	BirthDate      time.Time
	SexChar        byte
	State          string
	Consonants     string
	Differentiator byte
	CheckDigit     byte
}

// Sex decodes the sex character. X (non-binary) is SexUnknown.
func (c CURP) Sex() shared.Sex {
	return shared.SexFromCURPChar(c.SexChar)
}

// ParseCURP validates the 18-character CURP layout:
//
//	[0]     first surname initial
//	[1]     first internal vowel of the first surname (X when none)
//	[2:4]   second surname and given name initials
//	[4:10]  YYMMDD
//	[10]    sex: H, M or X
//	[11:13] birth state
//	[13:16] first internal consonants of surnames and name
//	[16]    differentiator: digit for births up to 1999, letter from 2000
//	[17]    check digit
//
// The birth date decodes like the RFC's; a differentiator that disagrees
// with its century is reported by the validator, not rejected here. The
// check digit is only checked to be a digit.
func ParseCURP(raw string) (CURP, error) {
	value := shared.NormalizeID(raw)
	fail := func(reason string) (CURP, error) {
		return CURP{}, &FormatError{Type: shared.IDTypeCURP, Value: value, Reason: reason}
	}

	if n := len([]rune(value)); n != curpLength {
		return fail(fmt.Sprintf("expected %d characters, got %d", curpLength, n))
	}
	if strings.ContainsRune(value, 'Ñ') {
		return fail("Ñ is written as X in a CURP")
	}

	block := value[0:4]
	for i := 0; i < 4; i++ {
		if !isUpperLetter(value[i]) {
			return fail(fmt.Sprintf("name block %q must be letters", block))
		}
	}
	if !isVowelOrX(value[1]) {
		return fail(fmt.Sprintf("second character %q must be the first internal vowel of the surname", string(value[1])))
	}
	if curpInconvenientWords[block] {
		return fail(fmt.Sprintf("name block %q is a blocked word RENAPO replaces with X", block))
	}

	differentiator := value[16]
	if !isUpperLetter(differentiator) && !isDigit(differentiator) {
		return fail(fmt.Sprintf("differentiator %q must be a letter or digit", string(differentiator)))
	}
	birth, ok := shared.DecodeBirthDateFromNationalID(value)
	if !ok {
		return fail(fmt.Sprintf("birth segment %q is not a valid YYMMDD date", value[4:10]))
	}

	sex := value[10]
	if sex != 'H' && sex != 'M' && sex != 'X' {
		return fail(fmt.Sprintf("sex character %q must be H, M or X", string(sex)))
	}
	state := value[11:13]
	if _, ok := curpStates[state]; !ok {
		return fail(fmt.Sprintf("state code %q is not a RENAPO state", state))
	}
	consonants := value[13:16]
	for i := 13; i < 16; i++ {
		if !isUpperLetter(value[i]) || isVowel(value[i]) {
			return fail(fmt.Sprintf("internal consonants %q must be consonants", consonants))
		}
	}
	check := value[17]
	if !isDigit(check) {
		return fail(fmt.Sprintf("check digit %q must be a digit", string(check)))
	}

	return CURP{
		Value:          value,
		NameBlock:      block,
		BirthDate:      birth,
		SexChar:        sex,
		State:          state,
		Consonants:     consonants,
		Differentiator: differentiator,
		CheckDigit:     check,
	}, nil
}

// CenturyConsistent reports whether the differentiator agrees with the
// decoded birth year: a digit for births up to 1999, a letter from 2000.
func (c CURP) CenturyConsistent() bool {
	return isUpperLetter(c.Differentiator) == (c.BirthDate.Year() >= 2000)
}

func isUpperLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isVowel(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

func isVowelOrX(c byte) bool { return isVowel(c) || c == 'X' }

// CURPValidator checks CURP structure, its embedded data against the
// declared record, and uniqueness.
type CURPValidator struct {
	cfg config.Assumptions
}

func NewCURPValidator(cfg config.Assumptions) *CURPValidator {
	return &CURPValidator{cfg: cfg}
}

func (v *CURPValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(CURPAgent,
		"CURP structure, state code, embedded sex and birth date, RFC agreement and duplicates",
		1, v.cfg.Timeout(CURPAgent, 10*time.Second))
}

func (v *CURPValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	var results []ir.ValidationResult
	dups := newDuplicateTracker()
	required := isRequired(v.cfg, FieldCURP)
	checked := 0

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := s.Record.CURP
		if shared.IsBlank(raw) {
			results = append(results, missingResult(CURPAgent, FieldCURP, required, s, shared.IDTypeCURP))
			continue
		}
		checked++

		curp, err := ParseCURP(raw)
		if err != nil {
			results = append(results, invalidResult(CURPAgent, FieldCURP, s, raw, err, shared.IDTypeCURP,
				"look up the CURP in the RENAPO registry and copy it exactly"))
			continue
		}
		dups.add(s.Collection, curp.Value, s.Record.Row)

		if r, ok := sexMismatch(s, curp); ok {
			results = append(results, r)
		}
		if r, ok := rfcPrefixMismatch(s, curp); ok {
			results = append(results, r)
		}
		if r, ok := centuryMismatch(s, curp); ok {
			results = append(results, r)
		}
		results = append(results, birthDateChecks(CURPAgent, FieldCURP, v.cfg, s, curp.BirthDate, in.AsOf)...)
	}

	results = append(results, dups.results(CURPAgent, FieldCURP)...)
	return summarize(CURPAgent, results, checked, FieldCURP), nil
}

func sexMismatch(s ir.Subject, curp CURP) (ir.ValidationResult, bool) {
	declared := shared.NormalizeSex(s.Record.Sex)
	encoded := curp.Sex()
	if declared == shared.SexUnknown || encoded == shared.SexUnknown || declared == encoded {
		return ir.ValidationResult{}, false
	}
	return ir.Warning(CURPAgent, ir.KindConsistencyViolation, "sex",
		fmt.Sprintf("%s: declared sex %s but CURP encodes %s", validator.Label(s), declared, encoded)).
		WithSuggestion("confirm the sex with the employee's CURP certificate").
		WithRows(s.Collection, s.Record.Row).
		WithMeta("declared", string(declared)).
		WithMeta("curp", string(encoded)), true
}

func centuryMismatch(s ir.Subject, curp CURP) (ir.ValidationResult, bool) {
	if curp.CenturyConsistent() {
		return ir.ValidationResult{}, false
	}
	expected := "a digit"
	if curp.BirthDate.Year() >= 2000 {
		expected = "a letter"
	}
	return ir.Warning(CURPAgent, ir.KindConsistencyViolation, FieldCURP,
		fmt.Sprintf("%s: CURP differentiator %q does not match birth year %d, which takes %s",
			validator.Label(s), string(curp.Differentiator), curp.BirthDate.Year(), expected)).
		WithSuggestion("check the birth date segment and the 17th character against the CURP certificate").
		WithRows(s.Collection, s.Record.Row).
		WithMeta("differentiator", string(curp.Differentiator)).
		WithMeta("birth_year", curp.BirthDate.Year()), true
}

// rfcPrefixMismatch compares the ten leading characters RFC and CURP share
// (name block and birth date). Ñ in the RFC is X in the CURP.
func rfcPrefixMismatch(s ir.Subject, curp CURP) (ir.ValidationResult, bool) {
	rfc, err := ParseRFC(s.Record.RFC)
	if err != nil {
		return ir.ValidationResult{}, false
	}
	rfcPrefix := strings.ReplaceAll(string([]rune(rfc.Value)[:10]), "Ñ", "X")
	curpPrefix := curp.Value[:10]
	if rfcPrefix == curpPrefix {
		return ir.ValidationResult{}, false
	}
	// Blocked words are altered differently by SAT and RENAPO; only the dates
	// must then agree.
	if curpInconvenientWords[rfcPrefix[:4]] && rfcPrefix[4:] == curpPrefix[4:] {
		return ir.ValidationResult{}, false
	}
	return ir.Warning(CURPAgent, ir.KindConsistencyViolation, FieldCURP,
		fmt.Sprintf("%s: CURP prefix %s does not match RFC prefix %s", validator.Label(s), curpPrefix, rfcPrefix)).
		WithSuggestion("RFC and CURP are derived from the same name and birth date; one of them is mistyped").
		WithRows(s.Collection, s.Record.Row).
		WithMeta("rfc_prefix", rfcPrefix).
		WithMeta("curp_prefix", curpPrefix), true
}
