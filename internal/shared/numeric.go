package shared

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseNumeric converts a raw money or count cell into a float.
//
// Currency markers ("$", "MXN"), spaces and comma thousands separators are
// stripped. Accounting negatives "(1,200.00)" are honoured. Anything left that
// is not a plain decimal number is rejected.
func ParseNumeric(v any) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		return parseNumericString(val)
	default:
		return 0, false
	}
}

func parseNumericString(raw string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("MXN", "", "$", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, false
	}
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case (r == '-' || r == '+') && i == 0:
		default:
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		f = -f
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsBlank reports whether a raw cell carries no value.
func IsBlank(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "N/A", "NA", "NULL", "-", "NONE":
		return true
	}
	return false
}
