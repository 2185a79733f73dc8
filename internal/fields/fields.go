package fields

import "fmt"

// Field type identifiers as reported by the CRM field-metadata endpoints.
const (
	TypeText      = "text"
	TypeVarchar   = "varchar"
	TypeDate      = "date"
	TypeTime      = "time"
	TypeDateRange = "daterange"
	TypeTimeRange = "timerange"
	TypeEnum      = "enum"
	TypeSet       = "set"
	TypeAddress   = "address"
	TypeMonetary  = "monetary"
	TypeDouble    = "double"
	TypeInt       = "int"
	TypePhone     = "phone"
	TypeUser      = "user"
	TypeOrg       = "org"
	TypePeople    = "people"
)

// Option is one selectable value of an enum or set field.
// The CRM reports option ids as numbers for most entities and as
// strings for a few legacy ones, so the id stays untyped here.
type Option struct {
	ID    any    `json:"id"`
	Label string `json:"label"`
}

// Definition is the metadata the CRM publishes for a single field.
type Definition struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	FieldType string   `json:"field_type"`
	Options   []Option `json:"options,omitempty"`
}

// IsRange reports whether the definition describes a paired start/end field.
func (d Definition) IsRange() bool {
	return d.FieldType == TypeDateRange || d.FieldType == TypeTimeRange
}

// OptionIndex builds a per-field id->label lookup from a set of definitions.
// Option ids are normalized to strings so numeric and string ids compare alike.
func OptionIndex(defs map[string]Definition) map[string]map[string]string {
	index := make(map[string]map[string]string)
	for key, def := range defs {
		if len(def.Options) == 0 {
			continue
		}
		byID := make(map[string]string, len(def.Options))
		for _, opt := range def.Options {
			byID[fmt.Sprint(opt.ID)] = opt.Label
		}
		index[key] = byID
	}
	return index
}
