package shared

import (
	"regexp"
	"strings"
	"time"
)

// IDType names a Mexican national identifier family.
type IDType string

const (
	IDTypeRFC  IDType = "rfc"
	IDTypeCURP IDType = "curp"
	IDTypeNSS  IDType = "nss"
)

// IDMatch is an identifier found inside free text.
type IDMatch struct {
	Type  IDType `json:"type"`
	Value string `json:"value"`
}

// Embedded identifier patterns, most specific first: a CURP prefix also
// satisfies the RFC shape.
var (
	embeddedCURP = regexp.MustCompile(`[A-Z][AEIOUX][A-Z]{2}\d{6}[HMX][A-Z]{5}[0-9A-Z]\d`)
	embeddedRFC  = regexp.MustCompile(`[A-Z&Ñ]{4}\d{6}[A-Z0-9]{3}`)
	embeddedNSS  = regexp.MustCompile(`(^|\D)(\d{11})(\D|$)`)
)

// birthSegmentOffset is where both RFC and CURP embed YYMMDD.
const birthSegmentOffset = 4

// CenturyPivot resolves two-digit years: yy <= CenturyPivot is 20yy.
const CenturyPivot = 30

// NormalizeID upper-cases an identifier and drops whitespace and dashes.
func NormalizeID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		switch r {
		case ' ', '\t', '\n', '\r', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ExtractIDFromMixedField scans free text (for example a name cell with the
// RFC pasted into it) for an embedded CURP, RFC or NSS.
func ExtractIDFromMixedField(text string) (IDMatch, bool) {
	upper := strings.ToUpper(text)
	if m := embeddedCURP.FindString(upper); m != "" {
		return IDMatch{Type: IDTypeCURP, Value: m}, true
	}
	if m := embeddedRFC.FindString(upper); m != "" {
		return IDMatch{Type: IDTypeRFC, Value: m}, true
	}
	if m := embeddedNSS.FindStringSubmatch(upper); m != nil {
		return IDMatch{Type: IDTypeNSS, Value: m[2]}, true
	}
	return IDMatch{}, false
}

// DecodeBirthDateFromNationalID decodes the YYMMDD segment RFC and CURP both
// carry at offset 4. Two-digit years up to CenturyPivot map to the 2000s,
// the rest to the 1900s.
func DecodeBirthDateFromNationalID(id string) (time.Time, bool) {
	runes := []rune(NormalizeID(id))
	if len(runes) < birthSegmentOffset+6 {
		return time.Time{}, false
	}
	seg := string(runes[birthSegmentOffset : birthSegmentOffset+6])
	yy, ok1 := atoiDigits(seg[0:2])
	mm, ok2 := atoiDigits(seg[2:4])
	dd, ok3 := atoiDigits(seg[4:6])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	year := 1900 + yy
	if yy <= CenturyPivot {
		year = 2000 + yy
	}
	return makeDate(year, mm, dd)
}

// IsAllDigits reports whether s is non-empty and only ASCII digits.
func IsAllDigits(s string) bool {
	_, ok := atoiDigits(s)
	return ok && s != ""
}
