package shared

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1900-01-01 (serial 1) and include
// the phantom 1900-02-29 (serial 60) inherited from Lotus 1-2-3.
const (
	lotusLeapBugSerial = 60
	maxSerial          = 2958465 // 9999-12-31
)

var (
	serialEpochAfterBug  = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	serialEpochBeforeBug = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// ParseDate converts a raw cell into a calendar date at UTC midnight.
//
// Accepted inputs:
//   - time.Time and *time.Time (time of day is dropped)
//   - "YYYY-MM-DD", "YYYY/MM/DD", "DD-MM-YYYY", "DD/MM/YYYY", optionally
//     followed by a time part ("T..." or " ...")
//   - spreadsheet serials as numbers or numeric strings
//
// The year position is detected from the 4-digit token. A layout without a
// 4-digit year is ambiguous and rejected, as is any impossible calendar date
// such as "31/02/2020".
func ParseDate(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return truncateDay(val), true
	case *time.Time:
		if val == nil || val.IsZero() {
			return time.Time{}, false
		}
		return truncateDay(*val), true
	case float64:
		return fromSerial(val)
	case float32:
		return fromSerial(float64(val))
	case int:
		return fromSerial(float64(val))
	case int64:
		return fromSerial(float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromSerial(f)
	case string:
		return parseDateString(val)
	default:
		return time.Time{}, false
	}
}

func parseDateString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(f)
	}

	// Drop a trailing time part.
	if i := strings.IndexAny(s, "T "); i > 0 {
		s = s[:i]
	}

	var parts []string
	switch {
	case strings.Count(s, "-") == 2 && !strings.Contains(s, "/"):
		parts = strings.Split(s, "-")
	case strings.Count(s, "/") == 2 && !strings.Contains(s, "-"):
		parts = strings.Split(s, "/")
	default:
		return time.Time{}, false
	}

	var ys, ms, ds string
	switch {
	case len(parts[0]) == 4 && len(parts[2]) <= 2:
		ys, ms, ds = parts[0], parts[1], parts[2]
	case len(parts[2]) == 4 && len(parts[0]) <= 2:
		ds, ms, ys = parts[0], parts[1], parts[2]
	default:
		return time.Time{}, false
	}
	if len(ms) == 0 || len(ms) > 2 || len(ds) == 0 {
		return time.Time{}, false
	}

	year, ok1 := atoiDigits(ys)
	month, ok2 := atoiDigits(ms)
	day, ok3 := atoiDigits(ds)
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}
	return makeDate(year, month, day)
}

// fromSerial converts a spreadsheet serial. Fractions carry the time of day
// and are discarded.
func fromSerial(f float64) (time.Time, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	serial := int(math.Floor(f))
	if serial < 1 || serial > maxSerial || serial == lotusLeapBugSerial {
		return time.Time{}, false
	}
	if serial < lotusLeapBugSerial {
		return serialEpochBeforeBug.AddDate(0, 0, serial), true
	}
	return serialEpochAfterBug.AddDate(0, 0, serial), true
}

// makeDate builds a date and rejects values time.Date would normalize.
func makeDate(year, month, day int) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func atoiDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AgeAt returns completed years between birth and at. The count is
// decremented when the anniversary in at's year has not yet occurred.
func AgeAt(birth, at time.Time) int {
	years := at.Year() - birth.Year()
	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}
	return years
}

// YearsOfService returns completed years of service between hire and at.
// Service never goes negative.
func YearsOfService(hire, at time.Time) int {
	return max(0, AgeAt(hire, at))
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(truncateDay(b).Sub(truncateDay(a)).Hours() / 24))
}

// FractionalYears returns the actuarial year fraction between two dates
// using a 365.25-day year.
func FractionalYears(from, to time.Time) float64 {
	return float64(DaysBetween(from, to)) / 365.25
}

// AbsDays is DaysBetween without sign.
func AbsDays(a, b time.Time) int {
	d := DaysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}
