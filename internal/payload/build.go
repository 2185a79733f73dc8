package payload

import (
	"fmt"

	"crm_sheet_sync/internal/fields"
	"crm_sheet_sync/internal/values"

	"github.com/rs/zerolog/log"
)

// Build turns one edited row into an envelope: every mapped, non-empty cell
// is classified, coerced to its wire form, and placed at root or under
// custom_fields. Cells a formatter rejects are omitted with a warning, never
// sent raw.
func Build(kind Kind, row map[string]any, headerToKey map[string]string, defs map[string]fields.Definition) *Envelope {
	env := NewEnvelope()
	options := fields.OptionIndex(defs)

	for header, raw := range row {
		key, ok := headerToKey[header]
		if !ok || key == "" {
			continue
		}
		if values.IsEmpty(raw) {
			continue
		}

		class := fields.Classify(key, defs)
		switch class.Kind {
		case fields.KindContactChannel:
			// A row may map several channels of the same kind; only the
			// first becomes primary.
			channels, _ := env.Root[class.Parent].([]any)
			env.Root[class.Parent] = append(channels, map[string]any{
				"label":   class.Label,
				"value":   values.AsString(raw),
				"primary": len(channels) == 0,
			})

		case fields.KindNestedPath:
			parent, ok := env.Root[class.Parent].(map[string]any)
			if !ok {
				parent = make(map[string]any)
				env.Root[class.Parent] = parent
			}
			parent[class.Property] = raw

		case fields.KindCustomComponent:
			placeComponent(env, class, raw)

		case fields.KindCustomComponentGeneric:
			env.CustomFields[class.Key] = values.AsString(raw)

		case fields.KindOptionSingle, fields.KindOptionMulti:
			wire, err := values.OptionID(raw, options[key], class.Kind == fields.KindOptionMulti)
			if err != nil {
				omit(env, key, raw, err)
				continue
			}
			env.Root[key] = wire

		case fields.KindCustomBase, fields.KindWellKnown:
			wire, err := formatDefined(defs[key], raw, options[key])
			if err != nil {
				omit(env, key, raw, err)
				continue
			}
			env.place(key, wire)
		}
	}

	return env
}

// placeComponent routes a hash+suffix key. Range ends carry the raw value
// through to the pair resolver; address components may need extraction from
// a structured cell; the misc qualifiers are plain strings.
func placeComponent(env *Envelope, class fields.Class, raw any) {
	switch class.Component {
	case "until":
		env.CustomFields[class.Key] = raw
	case "timezone_id", "currency":
		env.CustomFields[class.Key] = values.AsString(raw)
	default:
		if _, structured := raw.(map[string]any); structured {
			sub, ok := values.AddressComponent(raw, class.Component)
			if !ok {
				return
			}
			env.CustomFields[class.Key] = sub
			return
		}
		env.CustomFields[class.Key] = values.AsString(raw)
	}
}

// formatDefined coerces a value according to its field definition. With no
// definition the value passes through as the scalar it already is.
func formatDefined(def fields.Definition, raw any, options map[string]string) (any, error) {
	switch def.FieldType {
	case fields.TypeDate, fields.TypeDateRange:
		return values.FormatDate(raw)
	case fields.TypeTime, fields.TypeTimeRange:
		return values.FormatTime(raw)
	case fields.TypeEnum:
		return values.OptionID(raw, options, false)
	case fields.TypeSet:
		return values.OptionID(raw, options, true)
	case fields.TypeMonetary, fields.TypeDouble:
		return values.CoerceFloat(raw)
	case fields.TypeInt, fields.TypeUser, fields.TypeOrg, fields.TypePeople:
		return values.CoerceInt(raw)
	}

	switch raw.(type) {
	case string:
		return values.AsString(raw), nil
	case float64, float32, int, int64, bool:
		return raw, nil
	case map[string]any, []any:
		return nil, fmt.Errorf("%w: structured value for scalar field", values.ErrUnformattable)
	}
	return values.AsString(raw), nil
}

func omit(env *Envelope, key string, raw any, err error) {
	log.Warn().Err(err).Str("field", key).Interface("raw", raw).Msg("Omitting unformattable cell value")
	env.Warn(key, fmt.Sprintf("omitted: %v", err))
}
