// Package identity validates the three Mexican national identifiers carried
// by every employee record: RFC (tax ID), CURP (population registry ID) and
// NSS (social-security number).
//
// The RFC homoclave and CURP check digit are best-effort plausibility checks.
// The authoritative government algorithms are not implemented.
package identity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/nomina/internal/config"
	"github.com/roach88/nomina/internal/ir"
	"github.com/roach88/nomina/internal/shared"
	"github.com/roach88/nomina/internal/validator"
)

// Agent names.
const (
	RFCAgent  = "rfc-validator"
	CURPAgent = "curp-validator"
	NSSAgent  = "nss-validator"
)

// Field names used in results.
const (
	FieldRFC  = "rfc"
	FieldCURP = "curp"
	FieldNSS  = "nss"
)

// rfcInconvenientWords are the name blocks SAT never issues in an RFC.
var rfcInconvenientWords = map[string]bool{
	"BUEI": true, "BUEY": true, "CACA": true, "CACO": true, "CAGA": true, "CAGO": true,
	"CAKA": true, "CAKO": true, "COGE": true, "COJA": true, "COJE": true, "COJI": true,
	"COJO": true, "CULO": true, "FETO": true, "GUEY": true, "JOTO": true, "KACA": true,
	"KACO": true, "KAGA": true, "KAGO": true, "KOGE": true, "KOJO": true, "KAKA": true,
	"KULO": true, "MAME": true, "MAMO": true, "MEAR": true, "MEAS": true, "MEON": true,
	"MION": true, "MOCO": true, "MULA": true, "PEDA": true, "PEDO": true, "PENE": true,
	"PUTA": true, "PUTO": true, "QULO": true, "RATA": true, "RUIN": true,
}

// curpInconvenientWords is RENAPO's longer list for CURP; the second letter
// is replaced with X instead.
var curpInconvenientWords = map[string]bool{
	"BACA": true, "BAKA": true, "BUEI": true, "BUEY": true, "CACA": true, "CACO": true,
	"CAGA": true, "CAGO": true, "CAKA": true, "CAKO": true, "COGE": true, "COGI": true,
	"COJA": true, "COJE": true, "COJI": true, "COJO": true, "COLA": true, "CULO": true,
	"FALO": true, "FETO": true, "GETA": true, "GUEI": true, "GUEY": true, "JETA": true,
	"JOTO": true, "KACA": true, "KACO": true, "KAGA": true, "KAGO": true, "KAKA": true,
	"KAKO": true, "KOGE": true, "KOGI": true, "KOJA": true, "KOJE": true, "KOJI": true,
	"KOJO": true, "KOLA": true, "KULO": true, "LILO": true, "LOCA": true, "LOCO": true,
	"LOKA": true, "LOKO": true, "MAME": true, "MAMO": true, "MEAR": true, "MEAS": true,
	"MEON": true, "MIAR": true, "MION": true, "MOCO": true, "MOKO": true, "MULA": true,
	"MULO": true, "NACA": true, "NACO": true, "PEDA": true, "PEDO": true, "PENE": true,
	"PIPI": true, "PITO": true, "POPO": true, "PUTA": true, "PUTO": true, "QULO": true,
	"RATA": true, "ROBA": true, "ROBE": true, "ROBO": true, "RUIN": true, "SENO": true,
	"TETA": true, "VACA": true, "VAGA": true, "VAGO": true, "VAKA": true, "VUEI": true,
	"VUEY": true, "WUEI": true, "WUEY": true,
}

// isRequired reports whether field is mandatory under cfg.
func isRequired(cfg config.Assumptions, field string) bool {
	for _, f := range cfg.Identity.Required {
		if f == field {
			return true
		}
	}
	return false
}

// missingResult reports an absent identifier. Mandatory identifiers block
// valuation; optional ones only warn. If the name cell hides an identifier
// of the right type, the suggestion points at it.
func missingResult(agent, field string, required bool, s ir.Subject, want shared.IDType) ir.ValidationResult {
	msg := fmt.Sprintf("%s: %s is missing", validator.Label(s), strings.ToUpper(field))
	suggestion := fmt.Sprintf("capture the employee's %s from official documents", strings.ToUpper(field))
	if m, ok := shared.ExtractIDFromMixedField(s.Record.Name); ok && m.Type == want {
		suggestion = fmt.Sprintf("the name field contains %s %s; move it to the %s column", strings.ToUpper(string(m.Type)), m.Value, field)
	}
	var r ir.ValidationResult
	if required {
		r = ir.Critical(agent, ir.KindMissingData, field, msg)
	} else {
		r = ir.Warning(agent, ir.KindMissingData, field, msg)
	}
	return r.WithSuggestion(suggestion).WithRows(s.Collection, s.Record.Row)
}

// duplicateTracker collects rows per identifier value within each collection.
type duplicateTracker struct {
	rows map[ir.Collection]map[string][]int
}

func newDuplicateTracker() *duplicateTracker {
	return &duplicateTracker{rows: make(map[ir.Collection]map[string][]int)}
}

func (d *duplicateTracker) add(c ir.Collection, value string, row int) {
	if d.rows[c] == nil {
		d.rows[c] = make(map[string][]int)
	}
	d.rows[c][value] = append(d.rows[c][value], row)
}

// results emits one critical result per duplicated value, ordered by
// collection then first row.
func (d *duplicateTracker) results(agent, field string) []ir.ValidationResult {
	var out []ir.ValidationResult
	for _, c := range []ir.Collection{ir.CollectionActive, ir.CollectionTerminations} {
		values := d.rows[c]
		type dup struct {
			value string
			rows  []int
		}
		var dups []dup
		for v, rows := range values {
			if len(rows) > 1 {
				dups = append(dups, dup{v, rows})
			}
		}
		sort.Slice(dups, func(i, j int) bool { return dups[i].rows[0] < dups[j].rows[0] })
		for _, dd := range dups {
			out = append(out, ir.Critical(agent, ir.KindConsistencyViolation, field,
				fmt.Sprintf("%s %s appears in %d %s rows", strings.ToUpper(field), dd.value, len(dd.rows), c)).
				WithSuggestion("each employee must have a unique identifier; merge or correct the duplicated rows").
				WithRows(c, dd.rows...).
				WithMeta("value", dd.value))
		}
	}
	return out
}

// summarize appends a success marker when nothing but info was reported.
func summarize(agent string, results []ir.ValidationResult, checked int, field string) []ir.ValidationResult {
	out := validator.WithSuccess(agent, results, fmt.Sprintf("%d %s values checked, no issues found", checked, strings.ToUpper(field)))
	if len(out) > len(results) {
		out[len(out)-1] = out[len(out)-1].WithMeta("checked", checked)
	}
	return out
}
