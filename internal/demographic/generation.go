package demographic

// Generation is a birth-year cohort.
type Generation string

const (
	GenerationSilent     Generation = "silent"
	GenerationBoomer     Generation = "boomer"
	GenerationX          Generation = "gen_x"
	GenerationMillennial Generation = "millennial"
	GenerationZ          Generation = "gen_z"
	GenerationAlpha      Generation = "alpha"
)

// Generations lists cohorts oldest first.
var Generations = []Generation{
	GenerationSilent, GenerationBoomer, GenerationX,
	GenerationMillennial, GenerationZ, GenerationAlpha,
}

// GenerationOf maps a birth year onto its cohort.
func GenerationOf(year int) Generation {
	switch {
	case year <= 1945:
		return GenerationSilent
	case year <= 1964:
		return GenerationBoomer
	case year <= 1980:
		return GenerationX
	case year <= 1996:
		return GenerationMillennial
	case year <= 2012:
		return GenerationZ
	default:
		return GenerationAlpha
	}
}
