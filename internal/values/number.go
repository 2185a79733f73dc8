package values

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceInt parses a cell value as an integer. Non-numeric input is an
// error so callers omit the field instead of corrupting a numeric attribute.
func CoerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case float32:
		return int(n), nil
	}
	s := AsString(v)
	if s == "" {
		return 0, fmt.Errorf("%w: empty numeric value", ErrUnformattable)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: %q is not numeric", ErrUnformattable, s)
}

// CoerceFloat parses a cell value as a float, tolerating thousands
// separators the sheet may have left in.
func CoerceFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	s := strings.ReplaceAll(AsString(v), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty numeric value", ErrUnformattable)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrUnformattable, s)
	}
	return f, nil
}

// Prices normalizes a product price cell into the array-of-objects form the
// product endpoint requires. A bare scalar becomes a single entry in the
// default currency; a pre-structured list passes through.
func Prices(v any, defaultCurrency string) ([]map[string]any, error) {
	switch p := v.(type) {
	case []any:
		prices := make([]map[string]any, 0, len(p))
		for _, entry := range p {
			m, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: price list entry %T", ErrUnformattable, entry)
			}
			prices = append(prices, m)
		}
		return prices, nil
	case map[string]any:
		return []map[string]any{p}, nil
	}

	f, err := CoerceFloat(v)
	if err != nil {
		return nil, err
	}
	return []map[string]any{{"price": f, "currency": defaultCurrency}}, nil
}
