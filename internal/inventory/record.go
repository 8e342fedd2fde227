package inventory

import (
	"fmt"
	"strings"
)

// Kind is one of the three item categories served by the catalog.
type Kind string

const (
	KindComputer   Kind = "Computer"
	KindMonitor    Kind = "Monitor"
	KindPeripheral Kind = "Peripheral"
)

func Kinds() []Kind {
	return []Kind{KindComputer, KindMonitor, KindPeripheral}
}

func (k Kind) DisplayName() string {
	switch k {
	case KindComputer:
		return "Компьютер"
	case KindMonitor:
		return "Монитор"
	case KindPeripheral:
		return "Устройство"
	default:
		return string(k)
	}
}

// EntityType is a lookup-only reference table used to translate foreign-key
// ids into display labels.
type EntityType string

const (
	EntityUser     EntityType = "User"
	EntityGroup    EntityType = "Group"
	EntityLocation EntityType = "Location"
	EntityState    EntityType = "State"
)

func EntityTypes() []EntityType {
	return []EntityType{EntityUser, EntityGroup, EntityLocation, EntityState}
}

// LabelMissing is the display fallback for anything the index cannot resolve.
const LabelMissing = "Не указано"

// Record is one catalog row. Identity is (Kind, ID); Fields holds the raw
// API payload and is replaced wholesale after a successful remote update.
type Record struct {
	Kind   Kind
	ID     int
	Fields map[string]any
}

// Field returns the string rendering of a raw field, "" when absent.
func (r Record) Field(key string) string {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// ResolvedSerial is the dedup key: normalized otherserial, falling back to
// normalized serial. Empty when the record carries neither.
func (r Record) ResolvedSerial() string {
	if s := NormalizeSerial(r.Field("otherserial")); s != "" {
		return s
	}
	return NormalizeSerial(r.Field("serial"))
}

// NormalizeSerial trims whitespace and strips leading zeros. Idempotent.
func NormalizeSerial(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "0")
}

// EntityLabel computes the display label for one reference-entity row.
// Users concatenate two name fields; every other type uses one designated
// field.
func EntityLabel(t EntityType, row map[string]any) string {
	str := func(key string) string {
		if v, ok := row[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return ""
	}
	switch t {
	case EntityUser:
		label := strings.TrimSpace(str("realname") + " " + str("firstname"))
		if label == "" {
			return LabelMissing
		}
		return label
	case EntityGroup:
		if v := str("name"); v != "" {
			return v
		}
	case EntityLocation, EntityState:
		if v := str("completename"); v != "" {
			return v
		}
	}
	return LabelMissing
}
