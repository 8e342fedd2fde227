package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

type fakeCatalog struct {
	mu       sync.Mutex
	items    map[inventory.Kind][]inventory.Record
	entities map[inventory.EntityType][]map[string]any
	itemErr  map[inventory.Kind]error
	entErr   map[inventory.EntityType]error
	calls    int
}

func (f *fakeCatalog) ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.itemErr[kind]; err != nil {
		return nil, err
	}
	return f.items[kind], nil
}

func (f *fakeCatalog) ListEntities(ctx context.Context, entity inventory.EntityType, offset, count int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.entErr[entity]; err != nil {
		return nil, err
	}
	rows := f.entities[entity]
	if offset >= len(rows) {
		return nil, nil
	}
	end := offset + count
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end], nil
}

func record(kind inventory.Kind, id int, fields map[string]any) inventory.Record {
	return inventory.Record{Kind: kind, ID: id, Fields: fields}
}

func TestReindexBuildsSnapshot(t *testing.T) {
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindComputer: {
				record(inventory.KindComputer, 1, map[string]any{"otherserial": "0042", "contact": "Стеллаж 1"}),
			},
			inventory.KindMonitor: {
				record(inventory.KindMonitor, 2, map[string]any{"serial": "99"}),
			},
		},
		entities: map[inventory.EntityType][]map[string]any{
			inventory.EntityState: {
				{"id": float64(1), "completename": "В работе"},
			},
			inventory.EntityUser: {
				{"id": "5", "realname": "Иванов", "firstname": "Иван"},
			},
		},
	}
	store := NewStore()
	ix := NewIndexer(logger.NewNop(), catalog, store, IndexerOptions{})

	report := ix.Reindex(context.Background())
	if !report.Complete() {
		t.Fatalf("report: want complete got=%+v", report)
	}
	if report.Items[inventory.KindComputer].Count != 1 {
		t.Fatalf("computer count: want=1 got=%d", report.Items[inventory.KindComputer].Count)
	}
	if report.Contacts != 1 {
		t.Fatalf("contacts: want=1 got=%d", report.Contacts)
	}

	snap := store.Current()
	if snap == nil {
		t.Fatalf("snapshot not published")
	}
	if rec, ok := snap.LookupSerial("42"); !ok || rec.ID != 1 {
		t.Fatalf("otherserial lookup: got=%+v ok=%v", rec, ok)
	}
	if rec, ok := snap.LookupSerial("99"); !ok || rec.ID != 2 {
		t.Fatalf("serial lookup: got=%+v ok=%v", rec, ok)
	}
	if label, ok := snap.EntityLabel(inventory.EntityState, "1"); !ok || label != "В работе" {
		t.Fatalf("state label: got=%q ok=%v", label, ok)
	}
	if label, ok := snap.EntityLabel(inventory.EntityUser, "5"); !ok || label != "Иванов Иван" {
		t.Fatalf("user label: got=%q ok=%v", label, ok)
	}
	if len(snap.Items[inventory.KindPeripheral]) != 0 {
		t.Fatalf("peripheral items: want empty")
	}
}

func TestReindexPartialEntityFailureOmitsTable(t *testing.T) {
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindComputer: {
				record(inventory.KindComputer, 1, map[string]any{"otherserial": "7"}),
			},
		},
		entities: map[inventory.EntityType][]map[string]any{
			inventory.EntityState: {
				{"id": float64(1), "completename": "В работе"},
			},
		},
		entErr: map[inventory.EntityType]error{
			inventory.EntityLocation: errors.New("boom"),
		},
	}
	store := NewStore()
	ix := NewIndexer(logger.NewNop(), catalog, store, IndexerOptions{})

	report := ix.Reindex(context.Background())
	if report.Complete() {
		t.Fatalf("report: want incomplete")
	}
	if report.Entities[inventory.EntityLocation].Err == nil {
		t.Fatalf("location report: want error")
	}

	snap := store.Current()
	if snap.HasEntity(inventory.EntityLocation) {
		t.Fatalf("failed table must be absent, not empty")
	}
	if !snap.HasEntity(inventory.EntityState) {
		t.Fatalf("healthy table must be present")
	}
	if _, ok := snap.LookupSerial("7"); !ok {
		t.Fatalf("items must survive an entity failure")
	}
}

func TestReindexItemFailureKeepsOtherCategories(t *testing.T) {
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindMonitor: {
				record(inventory.KindMonitor, 3, map[string]any{"otherserial": "300"}),
			},
		},
		itemErr: map[inventory.Kind]error{
			inventory.KindComputer: errors.New("offline"),
		},
	}
	store := NewStore()
	ix := NewIndexer(logger.NewNop(), catalog, store, IndexerOptions{})

	report := ix.Reindex(context.Background())
	if report.Items[inventory.KindComputer].Err == nil {
		t.Fatalf("computer report: want error")
	}
	if report.Items[inventory.KindMonitor].Count != 1 {
		t.Fatalf("monitor count: want=1 got=%d", report.Items[inventory.KindMonitor].Count)
	}
	if _, ok := store.Current().LookupSerial("300"); !ok {
		t.Fatalf("monitor serial must be indexed")
	}
}

func TestFetchEntityTablePagesUntilShortWindow(t *testing.T) {
	rows := make([]map[string]any, 0, 750)
	for i := 0; i < 750; i++ {
		rows = append(rows, map[string]any{
			"id":           float64(i + 1),
			"completename": fmt.Sprintf("Статус %d", i+1),
		})
	}
	catalog := &fakeCatalog{
		entities: map[inventory.EntityType][]map[string]any{
			inventory.EntityState: rows,
		},
	}
	store := NewStore()
	ix := NewIndexer(logger.NewNop(), catalog, store, IndexerOptions{EntityWindow: 500})

	labels, err := ix.fetchEntityTable(context.Background(), inventory.EntityState)
	if err != nil {
		t.Fatalf("fetchEntityTable: %v", err)
	}
	if len(labels) != 750 {
		t.Fatalf("labels: want=750 got=%d", len(labels))
	}
	if labels["750"] != "Статус 750" {
		t.Fatalf("last label: got=%q", labels["750"])
	}
}

func TestRequestReindexCoalesces(t *testing.T) {
	release := make(chan struct{})
	catalog := &blockingCatalog{release: release, blocked: make(chan struct{})}
	store := NewStore()
	ix := NewIndexer(logger.NewNop(), catalog, store, IndexerOptions{})

	var mu sync.Mutex
	runs := 0
	done := make(chan struct{}, 8)
	onDone := func(Report) {
		mu.Lock()
		runs++
		mu.Unlock()
		done <- struct{}{}
	}

	ix.RequestReindex(context.Background(), onDone)
	catalog.waitBlocked(t)
	// these arrive while the first run is in flight and must fold together
	ix.RequestReindex(context.Background(), onDone)
	ix.RequestReindex(context.Background(), onDone)
	ix.RequestReindex(context.Background(), onDone)
	close(release)

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("reindex run %d did not finish", i+1)
		}
	}
	select {
	case <-done:
		t.Fatalf("coalesced requests must produce exactly one follow-up run")
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	if runs != 2 {
		t.Fatalf("runs: want=2 got=%d", runs)
	}
}

// blockingCatalog parks the first ListItems call until released, so the test
// can inject requests mid-run.
type blockingCatalog struct {
	release <-chan struct{}
	blocked chan struct{}
	once    sync.Once
}

func (b *blockingCatalog) waitBlocked(t *testing.T) {
	t.Helper()
	select {
	case <-b.blocked:
	case <-time.After(5 * time.Second):
		t.Fatalf("first reindex never reached the catalog")
	}
}

func (b *blockingCatalog) ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error) {
	b.once.Do(func() {
		close(b.blocked)
		<-b.release
	})
	return nil, nil
}

func (b *blockingCatalog) ListEntities(ctx context.Context, entity inventory.EntityType, offset, count int) ([]map[string]any, error) {
	return nil, nil
}
