package payload

import (
	"crm_sheet_sync/internal/fields"
	"crm_sheet_sync/internal/values"

	"github.com/rs/zerolog/log"
)

// Assemble settles the entity-specific final shape of the envelope. The CRM
// accepts custom fields in different places depending on the entity kind:
// deals and leads want them nested under custom_fields with copies at root,
// while persons, organizations, activities and products take a fully flat
// payload with no custom_fields key at all. Products additionally coerce a
// handful of typed root attributes.
func Assemble(kind Kind, env *Envelope) *Envelope {
	switch kind {
	case Deal, Lead:
		// Promote: copy, never move. The nested object must survive.
		for key, v := range env.CustomFields {
			env.Root[key] = v
		}

	case Person, Activity:
		flatten(env)

	case Organization:
		// Rebuilt field by field: standard keys verbatim, custom keys
		// merged in after.
		root := make(map[string]any, len(env.Root)+len(env.CustomFields))
		for key, v := range env.Root {
			if !fields.IsCustomKey(key) {
				root[key] = v
			}
		}
		for key, v := range env.CustomFields {
			root[key] = v
		}
		env.Root = root
		env.CustomFields = nil

	case Product:
		flatten(env)
		coerceProductFields(env)

	default:
		log.Warn().Str("kind", string(kind)).Msg("Unknown entity kind, leaving payload shape as built")
	}
	return env
}

// flatten moves every custom field to root and removes the nested object.
func flatten(env *Envelope) {
	for key, v := range env.CustomFields {
		env.Root[key] = v
	}
	env.CustomFields = nil
}

// coerceProductFields enforces the product endpoint's typed root attributes.
// A value that cannot take its required type is dropped, not guessed at:
// sending a non-numeric category would corrupt the product record.
func coerceProductFields(env *Envelope) {
	if v, ok := env.Root["unit"]; ok {
		if values.IsEmpty(v) {
			env.Root["unit"] = nil
		} else {
			env.Root["unit"] = values.AsString(v)
		}
	}

	for _, key := range []string{"category", "owner_id"} {
		v, ok := env.Root[key]
		if !ok {
			continue
		}
		n, err := values.CoerceInt(v)
		if err != nil {
			log.Warn().Err(err).Str("field", key).Interface("raw", v).Msg("Dropping non-numeric product field")
			env.Warn(key, "omitted: "+err.Error())
			delete(env.Root, key)
			continue
		}
		env.Root[key] = n
	}

	if v, ok := env.Root["prices"]; ok {
		prices, err := values.Prices(v, env.DefaultCurrency)
		if err != nil {
			log.Warn().Err(err).Interface("raw", v).Msg("Dropping unparseable product prices")
			env.Warn("prices", "omitted: "+err.Error())
			delete(env.Root, "prices")
		} else {
			env.Root["prices"] = prices
		}
	}
}
