package values

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	twelveHourRe     = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?\s*([AaPp])\.?\s*[Mm]\.?$`)
	twentyFourHourRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	isoDateTimeRe    = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ](\d{2}):(\d{2})(?::(\d{2}))?`)
	decimalRe        = regexp.MustCompile(`^-?\d*\.?\d+$`)
)

// FormatTime coerces a raw cell value into the CRM's HH:MM:SS wire form.
// It accepts a time.Time, an HH:MM[:SS] string, a 12-hour H:MM AM/PM string,
// an ISO datetime string, a spreadsheet serial fraction (0.5 -> 12:00:00),
// or a structured {hour, minute} object. Datetimes sitting on the sheet
// epoch (1899-12-30) are time-only cells and are read as bare times.
func FormatTime(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: empty time value", ErrUnformattable)
	case time.Time:
		return clockString(t.Hour(), t.Minute(), t.Second()), nil
	case float64:
		return serialToTime(t)
	case float32:
		return serialToTime(float64(t))
	case int:
		return serialToTime(float64(t))
	case int64:
		return serialToTime(float64(t))
	case map[string]any:
		return structuredTime(t)
	case string:
		return parseTimeString(strings.TrimSpace(t))
	}
	return "", fmt.Errorf("%w: unsupported time input %T", ErrUnformattable, v)
}

func parseTimeString(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty time string", ErrUnformattable)
	}

	if m := isoDateTimeRe.FindStringSubmatch(s); m != nil {
		// The date component is irrelevant here; an epoch date means the
		// cell was never anything but a time in the first place.
		hour, _ := strconv.Atoi(m[2])
		minute, _ := strconv.Atoi(m[3])
		second := 0
		if m[4] != "" {
			second, _ = strconv.Atoi(m[4])
		}
		return clockString(hour, minute, second), nil
	}

	if m := twelveHourRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour < 1 || hour > 12 || minute > 59 || second > 59 {
			return "", fmt.Errorf("%w: invalid 12-hour time %q", ErrUnformattable, s)
		}
		if strings.EqualFold(m[4], "p") {
			if hour != 12 {
				hour += 12
			}
		} else if hour == 12 {
			hour = 0
		}
		return clockString(hour, minute, second), nil
	}

	if m := twentyFourHourRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour > 23 || minute > 59 || second > 59 {
			return "", fmt.Errorf("%w: invalid time %q", ErrUnformattable, s)
		}
		return clockString(hour, minute, second), nil
	}

	if decimalRe.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return serialToTime(f)
		}
	}

	return "", fmt.Errorf("%w: unrecognized time %q", ErrUnformattable, s)
}

// serialToTime converts a spreadsheet serial number to a clock time. Whole
// days encode the date; only the fractional part carries the time of day.
func serialToTime(f float64) (string, error) {
	if f < 0 {
		return "", fmt.Errorf("%w: negative serial time %v", ErrUnformattable, f)
	}
	frac := f - math.Floor(f)
	totalSeconds := int(math.Round(frac * 86400))
	if totalSeconds >= 86400 {
		totalSeconds = 0
	}
	return clockString(totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60), nil
}

func structuredTime(m map[string]any) (string, error) {
	hour, ok := mapNumber(m, "hour", "hours")
	if !ok {
		return "", fmt.Errorf("%w: structured time has no hour", ErrUnformattable)
	}
	minute, _ := mapNumber(m, "minute", "minutes")
	second, _ := mapNumber(m, "second", "seconds")
	if hour > 23 || minute > 59 || second > 59 {
		return "", fmt.Errorf("%w: structured time out of range", ErrUnformattable)
	}
	return clockString(hour, minute, second), nil
}

func mapNumber(m map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func clockString(hour, minute, second int) string {
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second)
}
