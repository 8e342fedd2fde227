package filter

import (
	"fmt"
	"strings"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

type Operator string

const (
	OpEquals      Operator = "Equals"
	OpNotEquals   Operator = "NotEquals"
	OpContains    Operator = "Contains"
	OpNotContains Operator = "NotContains"
)

// Clause is one predicate row. Logic is ignored for the first clause. An
// empty Value makes the clause an implicit pass.
type Clause struct {
	Logic    Logic
	Field    string // display field name from the mapping table
	Operator Operator
	Value    string
}

// Evaluator selects catalog records by a user-built clause sequence.
// Clauses fold strictly left to right with no precedence: a trailing OR can
// override everything accumulated before it.
type Evaluator struct {
	fields *inventory.FieldTable
	store  *index.Store
}

func NewEvaluator(fields *inventory.FieldTable, store *index.Store) *Evaluator {
	return &Evaluator{fields: fields, store: store}
}

// Validate rejects clauses referencing unknown display fields or operators
// before any evaluation work.
func (e *Evaluator) Validate(clauses []Clause) error {
	for i, c := range clauses {
		if _, ok := e.fields.ByDisplayName(c.Field); !ok {
			return fmt.Errorf("clause %d references unknown field %q", i, c.Field)
		}
		switch c.Operator {
		case OpEquals, OpNotEquals, OpContains, OpNotContains:
		default:
			return fmt.Errorf("clause %d has unknown operator %q", i, c.Operator)
		}
		if i > 0 && c.Logic != LogicAnd && c.Logic != LogicOr {
			return fmt.Errorf("clause %d has unknown logic %q", i, c.Logic)
		}
	}
	return nil
}

// Evaluate returns the resolved serials of every record matching the clause
// fold, deduplicated, in catalog order. The result feeds Buffer.Add
// directly.
func (e *Evaluator) Evaluate(records []inventory.Record, clauses []Clause) []string {
	snap := e.store.Current()
	var serials []string
	seen := map[string]bool{}
	for _, rec := range records {
		if !e.matches(snap, rec, clauses) {
			continue
		}
		serial := rec.ResolvedSerial()
		if serial == "" || seen[serial] {
			continue
		}
		seen[serial] = true
		serials = append(serials, serial)
	}
	return serials
}

func (e *Evaluator) matches(snap *index.Snapshot, rec inventory.Record, clauses []Clause) bool {
	match := true
	first := true
	for _, c := range clauses {
		value := strings.TrimSpace(c.Value)
		if value == "" {
			// Vacuously true: the clause neither narrows nor widens.
			continue
		}
		fieldValue := e.fieldValue(snap, rec, c.Field)
		hit := applyOperator(c.Operator, fieldValue, value)
		if first {
			match = hit
			first = false
			continue
		}
		if c.Logic == LogicOr {
			match = match || hit
		} else {
			match = match && hit
		}
	}
	return match
}

func applyOperator(op Operator, fieldValue, value string) bool {
	fv := strings.ToLower(fieldValue)
	v := strings.ToLower(value)
	switch op {
	case OpEquals:
		return fv == v
	case OpNotEquals:
		return fv != v
	case OpContains:
		return strings.Contains(fv, v)
	case OpNotContains:
		return !strings.Contains(fv, v)
	default:
		return false
	}
}

// fieldValue mirrors the display layer: reference fields resolve through the
// snapshot's labels when present (raw foreign id otherwise), the synthetic
// type field renders the category name, locations are trimmed.
func (e *Evaluator) fieldValue(snap *index.Snapshot, rec inventory.Record, displayName string) string {
	mapping, ok := e.fields.ByDisplayName(displayName)
	if !ok {
		return ""
	}
	if mapping.APIKey == "type" {
		return rec.Kind.DisplayName()
	}
	raw := rec.Field(mapping.APIKey)
	entity, isRef := inventory.ReferenceFields[mapping.APIKey]
	if !isRef {
		return raw
	}
	if raw == "" || raw == "0" {
		return ""
	}
	label, ok := snap.EntityLabel(entity, raw)
	if !ok {
		return raw
	}
	if entity == inventory.EntityLocation {
		return inventory.TrimLocationRoot(label)
	}
	return label
}
