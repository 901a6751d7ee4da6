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

// FormatError explains why an identifier failed structural validation.
type FormatError struct {
	Type   shared.IDType
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", strings.ToUpper(string(e.Type)), e.Value, e.Reason)
}

// RFC is a structurally valid individual (persona física) tax ID.
type RFC struct {
	Value     string
	NameBlock string
	BirthDate time.Time
	Homoclave string
	CheckChar rune
}

const rfcLength = 13

// ParseRFC validates the 13-character individual RFC layout:
// four name letters, YYMMDD, two homoclave characters and a check character.
func ParseRFC(raw string) (RFC, error) {
	value := shared.NormalizeID(raw)
	fail := func(reason string) (RFC, error) {
		return RFC{}, &FormatError{Type: shared.IDTypeRFC, Value: value, Reason: reason}
	}

	runes := []rune(value)
	switch {
	case len(runes) == rfcLength-1:
		return fail("12 characters is a legal-entity RFC; employees carry a 13-character individual RFC")
	case len(runes) != rfcLength:
		return fail(fmt.Sprintf("expected %d characters, got %d", rfcLength, len(runes)))
	}

	block := string(runes[0:4])
	for _, r := range runes[0:4] {
		if !isRFCLetter(r) {
			return fail(fmt.Sprintf("name block %q must be letters", block))
		}
	}
	if rfcInconvenientWords[block] {
		return fail(fmt.Sprintf("name block %q is a blocked word SAT never issues", block))
	}

	birth, ok := shared.DecodeBirthDateFromNationalID(value)
	if !ok {
		return fail(fmt.Sprintf("birth segment %q is not a valid YYMMDD date", string(runes[4:10])))
	}

	homoclave := string(runes[10:12])
	for _, r := range runes[10:12] {
		if !isUpperAlnum(r) {
			return fail(fmt.Sprintf("homoclave %q must be letters or digits", homoclave))
		}
	}
	check := runes[12]
	if !(check >= '0' && check <= '9') && check != 'A' {
		return fail(fmt.Sprintf("check character %q must be a digit or A", string(check)))
	}

	return RFC{
		Value:     value,
		NameBlock: block,
		BirthDate: birth,
		Homoclave: homoclave,
		CheckChar: check,
	}, nil
}

func isRFCLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || r == 'Ñ' || r == '&'
}

func isUpperAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// RFCValidator checks RFC structure, its embedded birth date and uniqueness.
type RFCValidator struct {
	cfg config.Assumptions
}

func NewRFCValidator(cfg config.Assumptions) *RFCValidator {
	return &RFCValidator{cfg: cfg}
}

func (v *RFCValidator) Descriptor() ir.AgentDescriptor {
	return validator.Describe(RFCAgent,
		"RFC structure, blocked name words, embedded birth date and duplicates",
		1, v.cfg.Timeout(RFCAgent, 10*time.Second))
}

func (v *RFCValidator) Validate(ctx context.Context, in validator.Input) ([]ir.ValidationResult, error) {
	var results []ir.ValidationResult
	dups := newDuplicateTracker()
	required := isRequired(v.cfg, FieldRFC)
	checked := 0

	for _, s := range in.Data.Subjects() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := s.Record.RFC
		if shared.IsBlank(raw) {
			results = append(results, missingResult(RFCAgent, FieldRFC, required, s, shared.IDTypeRFC))
			continue
		}
		checked++

		rfc, err := ParseRFC(raw)
		if err != nil {
			results = append(results, invalidResult(RFCAgent, FieldRFC, s, raw, err, shared.IDTypeRFC,
				"verify the RFC against the employee's SAT tax status certificate"))
			continue
		}
		dups.add(s.Collection, rfc.Value, s.Record.Row)
		results = append(results, birthDateChecks(RFCAgent, FieldRFC, v.cfg, s, rfc.BirthDate, in.AsOf)...)
	}

	results = append(results, dups.results(RFCAgent, FieldRFC)...)
	return summarize(RFCAgent, results, checked, FieldRFC), nil
}

// invalidResult reports a structurally invalid identifier. If the cell holds
// a valid-looking identifier wrapped in other text, the suggestion offers it.
func invalidResult(agent, field string, s ir.Subject, raw string, err error, want shared.IDType, fallback string) ir.ValidationResult {
	suggestion := fallback
	if m, ok := shared.ExtractIDFromMixedField(raw); ok && m.Type == want && m.Value != shared.NormalizeID(raw) {
		suggestion = fmt.Sprintf("the cell contains %s %s; keep only the identifier", strings.ToUpper(string(m.Type)), m.Value)
	}
	return ir.Critical(agent, ir.KindFormatInvalid, field, fmt.Sprintf("%s: %v", validator.Label(s), err)).
		WithSuggestion(suggestion).
		WithRows(s.Collection, s.Record.Row)
}

// birthDateChecks cross-checks a birth date decoded from an identifier
// against the evaluation date and the declared birth date.
func birthDateChecks(agent, field string, cfg config.Assumptions, s ir.Subject, decoded, asOf time.Time) []ir.ValidationResult {
	var out []ir.ValidationResult
	label := validator.Label(s)
	id := strings.ToUpper(field)

	if decoded.After(asOf) {
		out = append(out, ir.Warning(agent, ir.KindConsistencyViolation, field,
			fmt.Sprintf("%s: %s birth segment decodes to %s, after the evaluation date", label, id, decoded.Format(time.DateOnly))).
			WithSuggestion("the two-digit year may belong to the previous century; confirm the birth date").
			WithRows(s.Collection, s.Record.Row).
			WithMeta("decoded_birth_date", decoded.Format(time.DateOnly)))
	} else {
		age := shared.AgeAt(decoded, asOf)
		switch {
		case age < cfg.Identity.MinAge:
			out = append(out, ir.Critical(agent, ir.KindBusinessRule, field,
				fmt.Sprintf("%s: %s implies age %d, below the legal working age of %d", label, id, age, cfg.Identity.MinAge)).
				WithSuggestion(fmt.Sprintf("verify the %s; a minor cannot be on the payroll", id)).
				WithRows(s.Collection, s.Record.Row).
				WithMeta("derived_age", age))
		case age > cfg.Identity.MaxPlausibleAge:
			out = append(out, ir.Warning(agent, ir.KindBusinessRule, field,
				fmt.Sprintf("%s: %s implies age %d, above %d", label, id, age, cfg.Identity.MaxPlausibleAge)).
				WithSuggestion(fmt.Sprintf("confirm the %s birth segment and the employee's status", id)).
				WithRows(s.Collection, s.Record.Row).
				WithMeta("derived_age", age))
		}
	}

	declared, ok := shared.ParseDate(s.Record.BirthDate)
	if !ok {
		return out
	}
	if delta := shared.AbsDays(decoded, declared); delta > cfg.Identity.BirthDateToleranceDays {
		out = append(out, ir.Warning(agent, ir.KindConsistencyViolation, field,
			fmt.Sprintf("%s: %s birth date %s differs from declared %s by %d days",
				label, id, decoded.Format(time.DateOnly), declared.Format(time.DateOnly), delta)).
			WithSuggestion(fmt.Sprintf("correct either the birth date or the %s", id)).
			WithRows(s.Collection, s.Record.Row).
			WithMeta("decoded_birth_date", decoded.Format(time.DateOnly)).
			WithMeta("declared_birth_date", declared.Format(time.DateOnly)).
			WithMeta("delta_days", delta))
	}
	return out
}
