// Package values coerces raw spreadsheet cell values into the scalar wire
// forms the CRM update endpoints accept. Every formatter is a pure function
// returning an error when the input cannot be interpreted; callers omit the
// field rather than send a value the formatter could not make sense of.
package values

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnformattable marks input a formatter could not interpret. Callers
// check it with errors.Is and drop the field from the payload.
var ErrUnformattable = errors.New("value cannot be formatted")

// SheetEpoch is the day-zero date of spreadsheet serial numbers. A datetime
// carrying this date is a time-only cell, not a real date.
const SheetEpoch = "1899-12-30"

// AsString renders any scalar cell value as a trimmed string.
func AsString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}

// IsEmpty reports whether a cell value carries no data at all.
func IsEmpty(v any) bool {
	return v == nil || AsString(v) == ""
}
