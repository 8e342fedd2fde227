package buffer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
	"github.com/vinnienasta1/ProITech-pub/internal/resolve"
)

type State string

const (
	StatePending   State = "Pending"
	StateSearching State = "Searching"
	StateFound     State = "Found"
	StateAmbiguous State = "AmbiguousPendingChoice"
	StateDuplicate State = "Duplicate"
	StateNotFound  State = "NotFound"
)

// Terminal reports whether the state accepts no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateFound, StateDuplicate, StateNotFound:
		return true
	default:
		return false
	}
}

// Entry is one user-entered identifier tracked through its resolution
// lifecycle.
type Entry struct {
	Key            string
	RawInput       string
	Normalized     string
	ResolvedSerial string
	State          State
	// Candidates holds the match list while the entry awaits an explicit
	// choice.
	Candidates []inventory.Record
	// Record is set once the entry reaches Found.
	Record inventory.Record
}

// Resolver is the slice of the resolution engine the buffer spawns work on.
type Resolver interface {
	Resolve(ctx context.Context, rawInput string) (resolve.Outcome, error)
}

type completion struct {
	key     string
	outcome resolve.Outcome
	err     error
}

// Buffer owns the working set and the FoundSet. All resolution completions
// pass through one coordinator goroutine, so duplicate checks and state
// transitions are atomic with respect to each other; entries resolve
// concurrently and may complete out of order.
type Buffer struct {
	log      *logger.Logger
	resolver Resolver
	onChange func(Entry)

	mu         sync.Mutex
	entries    map[string]*Entry
	order      []string
	found      map[string]inventory.Record
	foundOrder []string

	completions chan completion
	stop        chan struct{}
	wg          sync.WaitGroup
}

// New starts the coordinator. onChange, when non-nil, fires after every
// entry state change, outside the buffer lock.
func New(log *logger.Logger, resolver Resolver, onChange func(Entry)) *Buffer {
	b := &Buffer{
		log:         log.With("service", "Buffer"),
		resolver:    resolver,
		onChange:    onChange,
		entries:     map[string]*Entry{},
		found:       map[string]inventory.Record{},
		completions: make(chan completion, 64),
		stop:        make(chan struct{}),
	}
	go b.loop()
	return b
}

// Close stops the coordinator after in-flight resolutions drain.
func (b *Buffer) Close() {
	b.wg.Wait()
	close(b.stop)
}

func (b *Buffer) loop() {
	for {
		select {
		case c := <-b.completions:
			b.apply(c)
			b.wg.Done()
		case <-b.stop:
			return
		}
	}
}

// Add creates an entry and begins asynchronous resolution; it never blocks
// on the network. Input that normalizes to nothing is rejected before any
// entry is created.
func (b *Buffer) Add(ctx context.Context, rawInput string) (Entry, error) {
	normalized := inventory.NormalizeSerial(rawInput)
	if normalized == "" {
		return Entry{}, resolve.ErrEmptyInput
	}
	e := &Entry{
		Key:        uuid.NewString(),
		RawInput:   rawInput,
		Normalized: normalized,
		State:      StatePending,
	}
	b.mu.Lock()
	b.entries[e.Key] = e
	b.order = append(b.order, e.Key)
	b.mu.Unlock()
	b.notify(*e)

	b.mu.Lock()
	e.State = StateSearching
	snapshot := *e
	b.mu.Unlock()
	b.notify(snapshot)

	b.wg.Add(1)
	go func() {
		outcome, err := b.resolver.Resolve(ctx, rawInput)
		b.completions <- completion{key: e.Key, outcome: outcome, err: err}
	}()
	return snapshot, nil
}

// apply runs on the coordinator goroutine. Completions for entries that were
// removed (or already settled) in the meantime are discarded.
func (b *Buffer) apply(c completion) {
	b.mu.Lock()
	e, ok := b.entries[c.key]
	if !ok || e.State != StateSearching {
		b.mu.Unlock()
		b.log.Debug("stale resolution discarded", "key", c.key)
		return
	}
	if c.err != nil {
		e.State = StateNotFound
		snapshot := *e
		b.mu.Unlock()
		b.log.Warn("resolution failed", "input", snapshot.RawInput, "error", c.err)
		b.notify(snapshot)
		return
	}
	switch len(c.outcome.Matches) {
	case 0:
		e.State = StateNotFound
		b.log.Info("not found", "serial", e.Normalized)
	case 1:
		b.settleLocked(e, c.outcome.Matches[0])
	default:
		e.State = StateAmbiguous
		e.Candidates = c.outcome.Matches
		b.log.Info("multiple matches", "serial", e.Normalized, "count", len(c.outcome.Matches))
	}
	snapshot := *e
	b.mu.Unlock()
	b.notify(snapshot)
}

// settleLocked finishes an entry against a concrete record, enforcing the
// one-Found-per-serial invariant. Caller holds b.mu.
func (b *Buffer) settleLocked(e *Entry, rec inventory.Record) {
	key := rec.ResolvedSerial()
	if key == "" {
		key = e.Normalized
	}
	e.ResolvedSerial = key
	e.Candidates = nil
	if _, dup := b.found[key]; dup {
		e.State = StateDuplicate
		b.log.Info("duplicate", "serial", key)
		return
	}
	e.State = StateFound
	e.Record = rec
	b.found[key] = rec
	b.foundOrder = append(b.foundOrder, key)
	b.log.Info("found", "serial", key, "kind", rec.Kind)
}

// Choose settles an ambiguous entry with the user-selected candidate.
func (b *Buffer) Choose(entryKey string, candidate inventory.Record) (Entry, error) {
	b.mu.Lock()
	e, ok := b.entries[entryKey]
	if !ok {
		b.mu.Unlock()
		return Entry{}, fmt.Errorf("no buffer entry %s", entryKey)
	}
	if e.State != StateAmbiguous {
		b.mu.Unlock()
		return Entry{}, fmt.Errorf("entry %s is %s, not awaiting a choice", entryKey, e.State)
	}
	if !containsRecord(e.Candidates, candidate) {
		b.mu.Unlock()
		return Entry{}, fmt.Errorf("record %s/%d is not a candidate for entry %s", candidate.Kind, candidate.ID, entryKey)
	}
	b.settleLocked(e, candidate)
	snapshot := *e
	b.mu.Unlock()
	b.notify(snapshot)
	return snapshot, nil
}

func containsRecord(records []inventory.Record, rec inventory.Record) bool {
	for _, r := range records {
		if r.Kind == rec.Kind && r.ID == rec.ID {
			return true
		}
	}
	return false
}

// Remove deletes an entry from any state. When no remaining entry references
// the same resolved key, that key leaves the FoundSet. In-flight resolution
// for the removed entry is suppressed on completion.
func (b *Buffer) Remove(entryKey string) bool {
	b.mu.Lock()
	removed := b.removeLocked(entryKey)
	b.mu.Unlock()
	return removed
}

func (b *Buffer) removeLocked(entryKey string) bool {
	e, ok := b.entries[entryKey]
	if !ok {
		return false
	}
	delete(b.entries, entryKey)
	for i, k := range b.order {
		if k == entryKey {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	if s := e.ResolvedSerial; s != "" {
		referenced := false
		for _, other := range b.entries {
			if other.ResolvedSerial == s {
				referenced = true
				break
			}
		}
		if !referenced {
			if _, ok := b.found[s]; ok {
				delete(b.found, s)
				for i, k := range b.foundOrder {
					if k == s {
						b.foundOrder = append(b.foundOrder[:i], b.foundOrder[i+1:]...)
						break
					}
				}
			}
		}
	}
	return true
}

// BulkPurgeNonGreen removes every entry that is not Found, plus duplicate
// Found entries beyond the first per resolved key. Idempotent.
func (b *Buffer) BulkPurgeNonGreen() int {
	b.mu.Lock()
	kept := map[string]bool{}
	var doomed []string
	for _, k := range b.order {
		e := b.entries[k]
		if e.State == StateFound && !kept[e.ResolvedSerial] {
			kept[e.ResolvedSerial] = true
			continue
		}
		doomed = append(doomed, k)
	}
	for _, k := range doomed {
		b.removeLocked(k)
	}
	b.mu.Unlock()
	if len(doomed) > 0 {
		b.log.Info("purged non-green entries", "count", len(doomed))
	}
	return len(doomed)
}

// Clear empties the buffer and the FoundSet.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.entries = map[string]*Entry{}
	b.order = nil
	b.found = map[string]inventory.Record{}
	b.foundOrder = nil
	b.mu.Unlock()
	b.log.Info("buffer cleared")
}

// ReplaceRecord swaps the stored field map for a found serial after a
// successful remote update.
func (b *Buffer) ReplaceRecord(serial string, rec inventory.Record) {
	b.mu.Lock()
	if _, ok := b.found[serial]; ok {
		b.found[serial] = rec
	}
	for _, e := range b.entries {
		if e.State == StateFound && e.ResolvedSerial == serial {
			e.Record = rec
		}
	}
	b.mu.Unlock()
}

// Entries returns entry snapshots in insertion order.
func (b *Buffer) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entry, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, *b.entries[k])
	}
	return out
}

// Entry returns one entry snapshot by key.
func (b *Buffer) Entry(entryKey string) (Entry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[entryKey]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// FoundRecords returns the FoundSet in first-found order.
func (b *Buffer) FoundRecords() []inventory.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]inventory.Record, 0, len(b.foundOrder))
	for _, s := range b.foundOrder {
		out = append(out, b.found[s])
	}
	return out
}

// FoundSerials returns the FoundSet keys in first-found order.
func (b *Buffer) FoundSerials() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.foundOrder...)
}

// Counts returns (entries, found).
func (b *Buffer) Counts() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order), len(b.found)
}

// Wait blocks until every in-flight resolution has been applied (or
// suppressed). Used by the CLI between a bulk Add and reading results.
func (b *Buffer) Wait() {
	b.wg.Wait()
}

func (b *Buffer) notify(e Entry) {
	if b.onChange != nil {
		b.onChange(e)
	}
}
