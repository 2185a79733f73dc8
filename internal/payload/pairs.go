package payload

import (
	"strings"

	"crm_sheet_sync/internal/fields"
	"crm_sheet_sync/internal/values"

	"github.com/rs/zerolog/log"
)

// timeDefault is substituted when both halves of a time range are missing.
// Date ranges get no such default: there is no safe date to invent.
const timeDefault = "00:00:00"

// ResolvePairs finds every start/end range pair touched by this update,
// decides whether each pair holds dates or times, fills a missing half from
// the present one, and writes both halves into every location the payload
// carries them. Calling it again on a resolved envelope changes nothing.
//
// Pairs are discovered from three sources: keys already placed in the
// envelope (root and custom_fields), and raw row data reachable through the
// reverse header mapping. A pair registers even when only its end key was
// observed. Value precedence is fixed: envelope root, then custom_fields,
// then the raw row.
func ResolvePairs(env *Envelope, row map[string]any, headerToKey map[string]string, defs map[string]fields.Definition) *Envelope {
	keyToHeader := make(map[string]string, len(headerToKey))
	for header, key := range headerToKey {
		keyToHeader[key] = header
	}

	for base := range discoverPairs(env, row, headerToKey, defs) {
		resolvePair(env, base, row, keyToHeader, defs)
	}
	return env
}

// discoverPairs unions the base keys of every observed pair: any key ending
// in the range suffix, plus any key whose definition is a range type. Keys
// count as observed only where they actually carry a value; a mapped range
// column left blank in this row must not drag defaults into the payload.
func discoverPairs(env *Envelope, row map[string]any, headerToKey map[string]string, defs map[string]fields.Definition) map[string]bool {
	bases := make(map[string]bool)

	note := func(key string) {
		if base, ok := strings.CutSuffix(key, fields.RangeEndSuffix); ok && base != "" {
			bases[base] = true
		} else if defs[key].IsRange() {
			bases[key] = true
		}
	}

	for key := range env.Root {
		note(key)
	}
	for key := range env.CustomFields {
		note(key)
	}
	for header, key := range headerToKey {
		if v, ok := row[header]; ok && !values.IsEmpty(v) {
			note(key)
		}
	}
	return bases
}

func resolvePair(env *Envelope, base string, row map[string]any, keyToHeader map[string]string, defs map[string]fields.Definition) {
	endKey := base + fields.RangeEndSuffix

	start, startOK := pairValue(env, row, keyToHeader, base)
	end, endOK := pairValue(env, row, keyToHeader, endKey)

	if prev, done := env.pairs[base]; done && prev.start == start && prev.end == end {
		return
	}

	kind := classifyPair(env, base, start, startOK, end, endOK, defs)

	var startWire, endWire any
	if startOK {
		startWire = formatHalf(env, base, kind, start)
	}
	if endOK {
		endWire = formatHalf(env, endKey, kind, end)
	}

	switch {
	case startWire != nil && endWire == nil:
		endWire = startWire
	case startWire == nil && endWire != nil:
		// The CRM rejects a lone end value, so mirror it back. This can
		// mask a genuinely omitted start, hence the diagnostic.
		startWire = endWire
		env.Warn(base, "range start filled from end value")
		log.Debug().Str("field", base).Msg("Range start missing, copied from end")
	case startWire == nil && endWire == nil:
		if kind != RangeTime {
			return
		}
		startWire, endWire = timeDefault, timeDefault
		env.Warn(base, "empty time range defaulted to "+timeDefault)
		log.Warn().Str("field", base).Msg("Both halves of time range missing, applying default")
	}

	writePair(env, base, endKey, startWire, endWire)
	env.pairs[base] = &rangePair{startKey: base, endKey: endKey, kind: kind, start: startWire, end: endWire}
	env.hasRanges = true
}

// pairValue gathers one half of a pair with the fixed source precedence.
func pairValue(env *Envelope, row map[string]any, keyToHeader map[string]string, key string) (any, bool) {
	if v, ok := env.lookup(key); ok && !values.IsEmpty(v) {
		return v, true
	}
	if header, ok := keyToHeader[key]; ok {
		if v, ok := row[header]; ok && !values.IsEmpty(v) {
			return v, true
		}
	}
	return nil, false
}

// classifyPair decides date vs. time once per pair. An explicit range
// definition settles it; otherwise the present values are sniffed, halves
// that disagree are logged, and the start wins.
func classifyPair(env *Envelope, base string, start any, startOK bool, end any, endOK bool, defs map[string]fields.Definition) RangeKind {
	switch defs[base].FieldType {
	case fields.TypeDateRange:
		return RangeDate
	case fields.TypeTimeRange:
		return RangeTime
	}

	if startOK && endOK {
		startKind, endKind := sniffKind(start), sniffKind(end)
		if startKind != endKind {
			env.Warn(base, "range halves disagree on date vs. time, using start")
			log.Warn().Str("field", base).Msg("Mismatched range halves, classifying by start value")
		}
		return startKind
	}
	if startOK {
		return sniffKind(start)
	}
	if endOK {
		return sniffKind(end)
	}
	return RangeTime
}

func sniffKind(v any) RangeKind {
	if values.LooksLikeDate(v) {
		return RangeDate
	}
	return RangeTime
}

// formatHalf applies the pair's formatter to one half; unparseable halves
// drop out and the fill logic treats them as absent.
func formatHalf(env *Envelope, key string, kind RangeKind, raw any) any {
	var wire string
	var err error
	if kind == RangeDate {
		wire, err = values.FormatDate(raw)
	} else {
		wire, err = values.FormatTime(raw)
	}
	if err != nil {
		log.Warn().Err(err).Str("field", key).Interface("raw", raw).Msg("Omitting unformattable range value")
		env.Warn(key, "omitted: "+err.Error())
		return nil
	}
	return wire
}

// writePair lands both halves everywhere the payload shape needs them:
// custom pairs live in both root and custom_fields until assembly settles
// the entity-specific final shape.
func writePair(env *Envelope, base, endKey string, start, end any) {
	env.Root[base] = start
	env.Root[endKey] = end
	if fields.IsCustomKey(base) {
		env.CustomFields[base] = start
		env.CustomFields[endKey] = end
	}
}
