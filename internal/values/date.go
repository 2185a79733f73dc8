package values

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateWire = "2006-01-02"

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// sheetEpochTime anchors serial date conversion.
var sheetEpochTime = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// FormatDate coerces a raw cell value into the CRM's YYYY-MM-DD wire form.
// Any time component of an ISO datetime is stripped. A bare time string is
// rejected: there is no date to recover from it, and guessing one would
// silently corrupt the record.
func FormatDate(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: empty date value", ErrUnformattable)
	case time.Time:
		return t.Format(dateWire), nil
	case float64:
		return serialToDate(t)
	case float32:
		return serialToDate(float64(t))
	case int:
		return serialToDate(float64(t))
	case int64:
		return serialToDate(float64(t))
	case string:
		return parseDateString(strings.TrimSpace(t))
	}
	return "", fmt.Errorf("%w: unsupported date input %T", ErrUnformattable, v)
}

func parseDateString(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty date string", ErrUnformattable)
	}

	if isoDateRe.MatchString(s) {
		day := s[:len(dateWire)]
		if _, err := time.Parse(dateWire, day); err != nil {
			return "", fmt.Errorf("%w: invalid date %q", ErrUnformattable, s)
		}
		return day, nil
	}

	if twentyFourHourRe.MatchString(s) || twelveHourRe.MatchString(s) {
		return "", fmt.Errorf("%w: %q is a time, not a date", ErrUnformattable, s)
	}

	for _, layout := range []string{"02/01/2006", "2006/01/02", "January 2, 2006", "2 January 2006"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed.Format(dateWire), nil
		}
	}

	if decimalRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialToDate(f)
		}
	}

	return "", fmt.Errorf("%w: unrecognized date %q", ErrUnformattable, s)
}

// serialToDate converts a whole spreadsheet serial number to a date. A value
// below 1 has no day component at all, only a time of day.
func serialToDate(f float64) (string, error) {
	if f < 1 {
		return "", fmt.Errorf("%w: serial %v carries no date component", ErrUnformattable, f)
	}
	days := int(math.Floor(f))
	return sheetEpochTime.AddDate(0, 0, days).Format(dateWire), nil
}

// LooksLikeDate reports whether a raw value reads as a genuine calendar
// date. Values on the sheet epoch are time-only artifacts and do not count.
func LooksLikeDate(v any) bool {
	switch t := v.(type) {
	case time.Time:
		return t.Format(dateWire) != SheetEpoch
	case string:
		s := strings.TrimSpace(t)
		return isoDateRe.MatchString(s) && !strings.HasPrefix(s, SheetEpoch)
	}
	return false
}
