// Package payload builds and reconciles CRM update payloads from edited
// sheet rows: per-column classification and formatting, start/end range
// pairing, and the per-entity root vs. custom_fields shape rules.
package payload

import "crm_sheet_sync/internal/fields"

// Kind selects which entity's update endpoint the payload is shaped for.
type Kind string

const (
	Deal         Kind = "deal"
	Person       Kind = "person"
	Organization Kind = "organization"
	Product      Kind = "product"
	Activity     Kind = "activity"
	Lead         Kind = "lead"
)

// Warning is a non-fatal diagnostic collected while shaping a payload:
// an omitted unparseable cell, a filled-in range half, a defaulted pair.
// Warnings travel with the envelope so the caller can report them per row.
type Warning struct {
	Field   string
	Message string
}

// RangeKind says whether a start/end pair holds dates or times.
type RangeKind int

const (
	RangeUnknown RangeKind = iota
	RangeTime
	RangeDate
)

type rangePair struct {
	startKey string
	endKey   string
	kind     RangeKind
	start    any
	end      any
}

// Envelope is the payload under construction. Root and CustomFields hold
// wire values; everything else is bookkeeping that Finalize strips.
type Envelope struct {
	Root         map[string]any
	CustomFields map[string]any
	Warnings     []Warning

	// DefaultCurrency fills in price entries built from bare scalars.
	DefaultCurrency string

	pairs     map[string]*rangePair
	hasRanges bool
}

// NewEnvelope returns an empty envelope ready for one update call.
func NewEnvelope() *Envelope {
	return &Envelope{
		Root:            make(map[string]any),
		CustomFields:    make(map[string]any),
		DefaultCurrency: "USD",
		pairs:           make(map[string]*rangePair),
	}
}

// Warn records a non-fatal diagnostic against a field.
func (e *Envelope) Warn(field, message string) {
	e.Warnings = append(e.Warnings, Warning{Field: field, Message: message})
}

// HasRangeFields reports whether any start/end pair was resolved into the
// envelope.
func (e *Envelope) HasRangeFields() bool {
	return e.hasRanges
}

// lookup finds a value for key, preferring root over the nested sub-object.
func (e *Envelope) lookup(key string) (any, bool) {
	if v, ok := e.Root[key]; ok {
		return v, true
	}
	if e.CustomFields != nil {
		if v, ok := e.CustomFields[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// place writes a wire value to the location its key belongs in: custom hash
// keys go to the nested sub-object, everything else to the root.
func (e *Envelope) place(key string, v any) {
	if fields.IsCustomKey(key) {
		e.CustomFields[key] = v
		return
	}
	e.Root[key] = v
}

// Finalize strips all internal bookkeeping and returns the wire-ready
// object. Flattened entity kinds have a nil CustomFields map by this point,
// so no custom_fields key appears for them.
func Finalize(e *Envelope) map[string]any {
	out := make(map[string]any, len(e.Root)+1)
	for k, v := range e.Root {
		out[k] = v
	}
	if len(e.CustomFields) > 0 {
		nested := make(map[string]any, len(e.CustomFields))
		for k, v := range e.CustomFields {
			nested[k] = v
		}
		out["custom_fields"] = nested
	}
	return out
}
