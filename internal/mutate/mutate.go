package mutate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

const updateConcurrency = 4

// Updater is the slice of the client the coordinator writes through.
type Updater interface {
	Update(ctx context.Context, kind inventory.Kind, id int, input map[string]any) error
}

// Change is one field mutation to apply across the found set. Value is a
// display-layer value: entity labels for reference fields, free text
// otherwise. inventory.ClearSentinel resets the field to its empty
// representation.
type Change struct {
	Field string
	Value string
}

// Result is one target's outcome. Record carries the replaced field map on
// success and the untouched original on failure.
type Result struct {
	Record inventory.Record
	Err    error
}

// Coordinator applies one field change to many records, one independent
// remote write per target. There is no cross-record transaction: failures
// are collected per target and never stop the rest.
type Coordinator struct {
	log    *logger.Logger
	client Updater
	store  *index.Store
}

func NewCoordinator(log *logger.Logger, client Updater, store *index.Store) *Coordinator {
	return &Coordinator{
		log:    log.With("service", "MutationCoordinator"),
		client: client,
		store:  store,
	}
}

// ApplyFieldChange validates the change, resolves its display value once,
// then fans out the per-target writes. A validation failure rejects the
// whole call before any network traffic; per-target errors land in the
// results.
func (m *Coordinator) ApplyFieldChange(ctx context.Context, change Change, targets []inventory.Record) ([]Result, error) {
	value, err := m.resolveValue(change)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(updateConcurrency)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			input := map[string]any{change.Field: value}
			if change.Field == "comment" {
				input["comment"] = appendComment(target.Field("comment"), change.Value)
			}
			if err := m.client.Update(gctx, target.Kind, target.ID, input); err != nil {
				m.log.Warn("update failed",
					"kind", target.Kind,
					"id", target.ID,
					"field", change.Field,
					"error", err,
				)
				results[i] = Result{Record: target, Err: err}
				return nil
			}
			results[i] = Result{Record: withFields(target, input)}
			m.log.Info("updated", "kind", target.Kind, "id", target.ID, "field", change.Field)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// resolveValue turns the display value into the wire value. Reference
// fields go through the snapshot's label lookup; the clear sentinel maps to
// the field's zero representation.
func (m *Coordinator) resolveValue(change Change) (any, error) {
	if !inventory.FieldAPIKeys[change.Field] || change.Field == "type" {
		return nil, fmt.Errorf("field %q is not mutable", change.Field)
	}
	entity, isRef := inventory.ReferenceFields[change.Field]
	if change.Value == inventory.ClearSentinel {
		if isRef {
			return 0, nil
		}
		return "", nil
	}
	if !isRef {
		return change.Value, nil
	}
	id, ok := m.store.Current().EntityIDByLabel(entity, change.Value)
	if !ok {
		return nil, fmt.Errorf("no %s matches %q", entity, change.Value)
	}
	return id, nil
}

// appendComment keeps existing commentary: a new non-empty comment is
// appended below the old one instead of replacing it.
func appendComment(existing, next string) string {
	if next == inventory.ClearSentinel {
		return ""
	}
	if existing != "" && next != "" {
		return existing + "\n" + next
	}
	return next
}

// withFields returns the target with a replaced field map; published records
// are never mutated in place.
func withFields(target inventory.Record, input map[string]any) inventory.Record {
	fields := make(map[string]any, len(target.Fields)+len(input))
	for k, v := range target.Fields {
		fields[k] = v
	}
	for k, v := range input {
		fields[k] = v
	}
	return inventory.Record{Kind: target.Kind, ID: target.ID, Fields: fields}
}
