package values

// AddressComponent extracts one named sub-field from a structured address
// value. The second return is false when the value is not structured or the
// component is absent; that omits the field rather than raising an error,
// since a sparse address map is normal.
func AddressComponent(v any, component string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		// A plain string cell only satisfies the formatted-address slot.
		if s, isStr := v.(string); isStr && component == "formatted_address" && s != "" {
			return s, true
		}
		return nil, false
	}
	sub, ok := m[component]
	if !ok || IsEmpty(sub) {
		return nil, false
	}
	return sub, true
}
