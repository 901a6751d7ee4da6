package shared

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeName upper-cases a personal name, strips diacritics and collapses
// whitespace: "  José  Muñoz " becomes "JOSE MUNOZ".
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToUpper(s)
}

// stripDiacritics decomposes to NFD and drops combining marks.
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Sex is the canonical declared or inferred sex of an employee.
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// NormalizeSex maps the spellings payroll exports use onto Sex.
// A bare "M" is read as masculino, the payroll convention; CURP's own sex
// character is decoded separately by SexFromCURPChar.
func NormalizeSex(raw string) Sex {
	switch NormalizeName(raw) {
	case "M", "MASCULINO", "HOMBRE", "H", "MALE", "MASC", "VARON":
		return SexMale
	case "F", "FEMENINO", "MUJER", "FEMALE", "FEM":
		return SexFemale
	}
	return SexUnknown
}

// SexFromCURPChar decodes CURP position 11: H hombre, M mujer.
func SexFromCURPChar(c byte) Sex {
	switch c {
	case 'H':
		return SexMale
	case 'M':
		return SexFemale
	}
	return SexUnknown
}

// Leading tokens that are not the given name.
var nameParticles = map[string]bool{
	"MA": true, "MA.": true, "J.": true, "DE": true, "DEL": true, "LA": true,
}

var (
	femaleNames = map[string]bool{
		"MARIA": true, "GUADALUPE": true, "JUANA": true, "MARGARITA": true, "VERONICA": true,
		"LETICIA": true, "ROSA": true, "PATRICIA": true, "ELIZABETH": true, "ALEJANDRA": true,
		"GABRIELA": true, "ANA": true, "LAURA": true, "ADRIANA": true, "CLAUDIA": true,
		"MARTHA": true, "SILVIA": true, "LOURDES": true, "CARMEN": true, "ISABEL": true,
		"YOLANDA": true, "ARACELI": true, "ROCIO": true, "SOFIA": true, "XIMENA": true,
		"FERNANDA": true, "DANIELA": true, "MONICA": true, "BEATRIZ": true, "ESTHER": true,
		"RAQUEL": true, "MIRIAM": true, "KAREN": true, "NOEMI": true, "ITZEL": true,
		"CONSUELO": true, "AMPARO": true, "SOCORRO": true, "ROSARIO": true, "DOLORES": true,
		"MERCEDES": true, "PILAR": true, "LUZ": true, "IRENE": true,
	}
	maleNames = map[string]bool{
		"JOSE": true, "JUAN": true, "LUIS": true, "CARLOS": true, "JESUS": true,
		"MIGUEL": true, "FRANCISCO": true, "ALEJANDRO": true, "PEDRO": true, "MANUEL": true,
		"JORGE": true, "RICARDO": true, "ROBERTO": true, "FERNANDO": true, "DANIEL": true,
		"EDUARDO": true, "RAFAEL": true, "ANTONIO": true, "JAVIER": true, "SERGIO": true,
		"MARIO": true, "ARTURO": true, "RAUL": true, "GERARDO": true, "OSCAR": true,
		"HECTOR": true, "ENRIQUE": true, "DAVID": true, "VICTOR": true, "ANDRES": true,
		"JOSUE": true, "ISAAC": true, "ANGEL": true, "RUBEN": true, "SANTIAGO": true,
		"NICOLAS": true, "IVAN": true, "OMAR": true, "ULISES": true, "ELIAS": true,
		"MATIAS": true, "TOMAS": true, "GABRIEL": true, "ISRAEL": true, "NOE": true,
	}
)

// FirstGivenName returns the first token of a normalized name that is not a
// connecting particle.
func FirstGivenName(name string) string {
	for _, tok := range strings.Fields(NormalizeName(name)) {
		if nameParticles[tok] {
			continue
		}
		return strings.Trim(tok, ".,")
	}
	return ""
}

// InferSexFromName guesses sex from the first given name. Known names win;
// otherwise Spanish gender endings (-A feminine, -O masculine) decide. The
// guess is a suggestion for the operator, never a correction.
func InferSexFromName(name string) (Sex, bool) {
	first := FirstGivenName(name)
	if first == "" {
		return SexUnknown, false
	}
	if femaleNames[first] {
		return SexFemale, true
	}
	if maleNames[first] {
		return SexMale, true
	}
	switch {
	case strings.HasSuffix(first, "A"):
		return SexFemale, true
	case strings.HasSuffix(first, "O"):
		return SexMale, true
	}
	return SexUnknown, false
}
