package values

import (
	"fmt"
	"strconv"
	"strings"
)

// OptionID maps an option label (as typed in the sheet) to the option id the
// CRM expects on the wire. Matching is case-insensitive; a value that is
// already a known id passes through untouched. Multi-select input may be a
// slice or a comma-separated string and keeps its order.
func OptionID(raw any, options map[string]string, multi bool) (any, error) {
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no options known for field", ErrUnformattable)
	}

	if multi {
		members := splitMembers(raw)
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: empty option list", ErrUnformattable)
		}
		ids := make([]any, 0, len(members))
		for _, member := range members {
			id, err := singleOptionID(member, options)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	return singleOptionID(AsString(raw), options)
}

// OptionLabel maps wire option ids back to their display labels, joining
// multi-select members with ", " for the sheet.
func OptionLabel(raw any, options map[string]string, multi bool) string {
	if multi {
		members := splitMembers(raw)
		labels := make([]string, 0, len(members))
		for _, member := range members {
			labels = append(labels, singleOptionLabel(member, options))
		}
		return strings.Join(labels, ", ")
	}
	return singleOptionLabel(AsString(raw), options)
}

func singleOptionID(value string, options map[string]string) (any, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty option value", ErrUnformattable)
	}
	if _, ok := options[value]; ok {
		return numericID(value), nil
	}
	for id, label := range options {
		if strings.EqualFold(label, value) {
			return numericID(id), nil
		}
	}
	return nil, fmt.Errorf("%w: no option matching %q", ErrUnformattable, value)
}

func singleOptionLabel(id string, options map[string]string) string {
	if label, ok := options[id]; ok {
		return label
	}
	return id
}

// numericID restores the integer form the CRM reports option ids in; a few
// legacy fields use non-numeric ids, which stay strings.
func numericID(id string) any {
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

func splitMembers(raw any) []string {
	var members []string
	switch v := raw.(type) {
	case []any:
		for _, m := range v {
			if s := AsString(m); s != "" {
				members = append(members, s)
			}
		}
	case []string:
		for _, m := range v {
			if s := strings.TrimSpace(m); s != "" {
				members = append(members, s)
			}
		}
	default:
		for _, m := range strings.Split(AsString(raw), ",") {
			if s := strings.TrimSpace(m); s != "" {
				members = append(members, s)
			}
		}
	}
	return members
}
