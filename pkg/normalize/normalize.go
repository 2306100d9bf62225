package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var numberRegex = regexp.MustCompile(`-?[0-9]+(\.[0-9]+)?`)

// Excel serial dates outside this window are treated as plain numbers.
const (
	minExcelSerial = 20000 // 1954-10-03
	maxExcelSerial = 80000 // 2119-01-10
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"01-02-06 15:04",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"01-02-06",
}

// Numeric coerces v into a float64. Missing, empty, non-numeric and
// non-finite values yield def.
func Numeric(v any, def float64) float64 {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Int is Numeric truncated toward zero.
func Int(v any, def int) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return int(f)
}

// Ratio returns numerator/denominator, or 0 when the denominator is zero.
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 || math.IsNaN(denominator) || math.IsNaN(numerator) {
		return 0
	}
	r := numerator / denominator
	if math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Percent is Ratio scaled to 0-100.
func Percent(part, whole float64) float64 {
	return Ratio(part, whole) * 100
}

// String returns the trimmed textual form of v, "" for nil.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Bool interprets the usual spreadsheet spellings of true.
func Bool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "enabled", "connected":
			return true
		}
		return false
	default:
		f, ok := toFloat(v)
		return ok && f != 0
	}
}

// Date parses v as a point in time. Strings are tried against the layouts
// RVTools exports commonly use; numbers inside a plausible range are read as
// Excel serial dates.
func Date(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromSerial(f)
		}
		return time.Time{}, false
	default:
		f, ok := toFloat(v)
		if !ok {
			return time.Time{}, false
		}
		return fromSerial(f)
	}
}

func fromSerial(f float64) (time.Time, bool) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	parsed, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(t)
	default:
		return 0, false
	}
}

func parseNumber(s string) (float64, bool) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if clean == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f, true
	}
	loc := numberRegex.FindStringIndex(clean)
	if loc == nil {
		return 0, false
	}
	match := clean[loc[0]:loc[1]]
	// a dash glued to a word is a separator, as in "vmx-19"
	if loc[0] > 0 && match[0] == '-' && isWordByte(clean[loc[0]-1]) {
		match = match[1:]
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
