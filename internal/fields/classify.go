package fields

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Kind is the classification of a field key.
type Kind int

const (
	// KindWellKnown is a short snake_case key the CRM defines itself.
	KindWellKnown Kind = iota
	// KindContactChannel is a dotted email.* or phone.* key.
	KindContactChannel
	// KindNestedPath is any other dotted key (parent.property).
	KindNestedPath
	// KindCustomBase is a bare custom-field hash.
	KindCustomBase
	// KindCustomComponent is a hash plus a recognized component suffix.
	KindCustomComponent
	// KindCustomComponentGeneric is a hash plus an unrecognized suffix.
	KindCustomComponentGeneric
	// KindOptionSingle is a well-known single-select field.
	KindOptionSingle
	// KindOptionMulti is a well-known multi-select field.
	KindOptionMulti
)

// Class is the tagged result of classifying a field key. Which members are
// populated depends on Kind: Hash/Component for custom keys, Parent/Property
// for dotted keys, Label for contact channels.
type Class struct {
	Kind      Kind
	Key       string
	Hash      string
	Component string
	Parent    string
	Property  string
	Label     string
}

var (
	customBaseRe      = regexp.MustCompile(`(?i)^[a-f0-9]{20,}$`)
	customComponentRe = regexp.MustCompile(`(?i)^([a-f0-9]{20,})_([a-z_]+)$`)
)

// knownComponents are the hash suffixes the CRM attaches meaning to:
// address sub-fields, the range end marker, and a couple of misc qualifiers.
var knownComponents = map[string]bool{
	"locality":           true,
	"sublocality":        true,
	"route":              true,
	"street_number":      true,
	"admin_area_level_1": true,
	"admin_area_level_2": true,
	"country":            true,
	"postal_code":        true,
	"subpremise":         true,
	"formatted_address":  true,
	"until":              true,
	"timezone_id":        true,
	"currency":           true,
}

// IsCustomKey reports whether key is a custom-field hash, with or without
// a component suffix.
func IsCustomKey(key string) bool {
	return customBaseRe.MatchString(key) || customComponentRe.MatchString(key)
}

// RangeEndSuffix links the two halves of a date or time range: the end
// field's key is always the start field's key plus this suffix.
const RangeEndSuffix = "_until"

// Classify determines what shape a field key has and, where definitions are
// available, whether it is an option field. It never fails: keys that match
// nothing fall back to KindWellKnown and are passed through as scalars.
func Classify(key string, defs map[string]Definition) Class {
	if parent, property, ok := strings.Cut(key, "."); ok {
		if parent == "email" || parent == "phone" {
			return Class{Kind: KindContactChannel, Key: key, Parent: parent, Label: property}
		}
		return Class{Kind: KindNestedPath, Key: key, Parent: parent, Property: property}
	}

	if m := customComponentRe.FindStringSubmatch(key); m != nil {
		hash, component := strings.ToLower(m[1]), strings.ToLower(m[2])
		if knownComponents[component] {
			return Class{Kind: KindCustomComponent, Key: key, Hash: hash, Component: component}
		}
		log.Debug().Str("key", key).Str("component", component).Msg("Unrecognized custom field component")
		return Class{Kind: KindCustomComponentGeneric, Key: key, Hash: hash, Component: component}
	}

	if customBaseRe.MatchString(key) {
		return Class{Kind: KindCustomBase, Key: key, Hash: strings.ToLower(key)}
	}

	if def, ok := defs[key]; ok {
		switch def.FieldType {
		case TypeEnum:
			return Class{Kind: KindOptionSingle, Key: key}
		case TypeSet:
			return Class{Kind: KindOptionMulti, Key: key}
		}
		return Class{Kind: KindWellKnown, Key: key}
	}

	log.Debug().Str("key", key).Msg("No definition for field key, treating as plain scalar")
	return Class{Kind: KindWellKnown, Key: key}
}
