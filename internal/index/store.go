package index

import (
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
)

// Snapshot is one generation of the local catalog mirror. It is immutable
// once published: readers may hold it across a reindex and keep a coherent
// view.
type Snapshot struct {
	// Serials maps normalized otherserial/serial values to records.
	Serials map[string]inventory.Record
	// Entities maps each reference table to id → display label.
	Entities map[inventory.EntityType]map[string]string
	// Contacts is the deduplicated set of shelf/contact free-text values.
	Contacts map[string]struct{}
	// Items keeps the full listings per category for substring scans.
	Items   map[inventory.Kind][]inventory.Record
	BuiltAt time.Time
}

func (s *Snapshot) LookupSerial(normalized string) (inventory.Record, bool) {
	if s == nil {
		return inventory.Record{}, false
	}
	rec, ok := s.Serials[normalized]
	return rec, ok
}

// HasEntity reports whether the given reference table was indexed in this
// generation. A table whose fetch failed mid-reindex is absent, not empty.
func (s *Snapshot) HasEntity(t inventory.EntityType) bool {
	if s == nil {
		return false
	}
	_, ok := s.Entities[t]
	return ok
}

// EntityLabel resolves a foreign-key id to its display label.
func (s *Snapshot) EntityLabel(t inventory.EntityType, id string) (string, bool) {
	if s == nil {
		return "", false
	}
	table, ok := s.Entities[t]
	if !ok {
		return "", false
	}
	label, ok := table[id]
	return label, ok
}

// EntityLabels returns the table's labels sorted case-insensitively, with
// placeholder entries dropped. Used for value pickers and filter inputs.
func (s *Snapshot) EntityLabels(t inventory.EntityType) []string {
	if s == nil {
		return nil
	}
	table, ok := s.Entities[t]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(table))
	for _, label := range table {
		if label == "" || label == inventory.LabelMissing {
			continue
		}
		out = append(out, label)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// EntityIDByLabel finds the id whose label starts with the chosen value
// (the part before any "..." abbreviation; locations compare after root
// trimming). When several labels share the prefix the numerically first id
// wins. Groups compare by full label only.
func (s *Snapshot) EntityIDByLabel(t inventory.EntityType, label string) (string, bool) {
	if s == nil {
		return "", false
	}
	table, ok := s.Entities[t]
	if !ok {
		return "", false
	}
	prefix := label
	if i := strings.Index(prefix, "..."); i >= 0 {
		prefix = prefix[:i]
	}
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	for _, id := range ids {
		candidate := table[id]
		if t == inventory.EntityLocation {
			candidate = inventory.TrimLocationRoot(candidate)
		}
		if t == inventory.EntityGroup {
			if candidate == label {
				return id, true
			}
			continue
		}
		if strings.HasPrefix(candidate, prefix) {
			return id, true
		}
	}
	return "", false
}

// ContactValues returns the shelf/contact set sorted case-insensitively.
func (s *Snapshot) ContactValues() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.Contacts))
	for v := range s.Contacts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Store publishes snapshots. Readers always see either the previous or the
// next generation in full; in-place mutation of a published snapshot is not
// permitted.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot, nil before the first reindex.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish swaps in a new generation. The snapshot must not be mutated
// afterwards.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
}
