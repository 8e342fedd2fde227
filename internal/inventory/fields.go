package inventory

import (
	"fmt"
	"strings"
)

// ClearSentinel is the reserved value that means "reset this field" in bulk
// mutations: foreign-key fields go to 0, free-text fields to "".
const ClearSentinel = "Очистить"

// FieldAPIKeys is the fixed set of catalog field keys the mapping table may
// reference. "type" is synthetic: it renders the record's Kind.
var FieldAPIKeys = map[string]bool{
	"type":         true,
	"otherserial":  true,
	"serial":       true,
	"name":         true,
	"groups_id":    true,
	"states_id":    true,
	"contact":      true,
	"locations_id": true,
	"users_id":     true,
	"comment":      true,
}

// ReferenceFields maps foreign-key field keys to the entity table that
// resolves them.
var ReferenceFields = map[string]EntityType{
	"users_id":     EntityUser,
	"groups_id":    EntityGroup,
	"locations_id": EntityLocation,
	"states_id":    EntityState,
}

// FieldMapping is one row of the display configuration: a human-facing
// column name bound to an underlying API key.
type FieldMapping struct {
	DisplayName string
	APIKey      string
	Visible     bool
}

// FieldTable is the ordered field-display mapping, consumed read-only by the
// core. Lookup works in both directions.
type FieldTable struct {
	entries []FieldMapping
}

func NewFieldTable(entries []FieldMapping) (*FieldTable, error) {
	t := &FieldTable{entries: append([]FieldMapping(nil), entries...)}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func DefaultFieldTable() *FieldTable {
	return &FieldTable{entries: []FieldMapping{
		{DisplayName: "Тип", APIKey: "type", Visible: true},
		{DisplayName: "Инв. номер", APIKey: "otherserial", Visible: true},
		{DisplayName: "Наименование", APIKey: "name", Visible: true},
		{DisplayName: "Департамент", APIKey: "groups_id", Visible: true},
		{DisplayName: "Статус", APIKey: "states_id", Visible: true},
		{DisplayName: "Стеллаж", APIKey: "contact", Visible: true},
		{DisplayName: "Местоположение", APIKey: "locations_id", Visible: true},
		{DisplayName: "Пользователь", APIKey: "users_id", Visible: true},
		{DisplayName: "Комментарий", APIKey: "comment", Visible: true},
	}}
}

func (t *FieldTable) validate() error {
	seen := map[string]bool{}
	for _, e := range t.entries {
		if strings.TrimSpace(e.DisplayName) == "" {
			return fmt.Errorf("field mapping with empty display name (api key %q)", e.APIKey)
		}
		if !FieldAPIKeys[e.APIKey] {
			return fmt.Errorf("field mapping %q references unknown api key %q", e.DisplayName, e.APIKey)
		}
		if seen[e.DisplayName] {
			return fmt.Errorf("duplicate field mapping display name %q", e.DisplayName)
		}
		seen[e.DisplayName] = true
	}
	return nil
}

// Entries returns the mappings in declaration order.
func (t *FieldTable) Entries() []FieldMapping {
	return append([]FieldMapping(nil), t.entries...)
}

// VisibleEntries returns only the mappings flagged visible, in order.
func (t *FieldTable) VisibleEntries() []FieldMapping {
	out := make([]FieldMapping, 0, len(t.entries))
	for _, e := range t.entries {
		if e.Visible {
			out = append(out, e)
		}
	}
	return out
}

func (t *FieldTable) ByDisplayName(name string) (FieldMapping, bool) {
	for _, e := range t.entries {
		if e.DisplayName == name {
			return e, true
		}
	}
	return FieldMapping{}, false
}

func (t *FieldTable) ByAPIKey(key string) (FieldMapping, bool) {
	for _, e := range t.entries {
		if e.APIKey == key {
			return e, true
		}
	}
	return FieldMapping{}, false
}

// locationRootPrefix is stripped from location paths before display.
const locationRootPrefix = "Про Ай-Ти Ресурс > "

// TrimLocationRoot strips the known organization root from a location path.
func TrimLocationRoot(location string) string {
	return strings.TrimPrefix(location, locationRootPrefix)
}

// AbbreviateLocation shortens a long `>`-delimited path for display:
// more than two segments collapse to "first>...>last", otherwise an overlong
// flat label is cut. Rune-safe.
func AbbreviateLocation(location string) string {
	runes := []rune(location)
	if len(runes) <= 30 {
		return location
	}
	parts := strings.Split(location, ">")
	if len(parts) > 2 {
		return strings.TrimSpace(parts[0]) + ">...>" + strings.TrimSpace(parts[len(parts)-1])
	}
	if len(runes) > 40 {
		return string(runes[:37]) + "..."
	}
	return location
}

// DisplayLocation applies both the root trim and the abbreviation rule.
func DisplayLocation(location string) string {
	return AbbreviateLocation(TrimLocationRoot(location))
}
