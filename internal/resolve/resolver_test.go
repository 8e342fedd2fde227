package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

type fakeCatalog struct {
	items map[inventory.Kind][]inventory.Record
	errs  map[inventory.Kind]error
	calls int
}

func (f *fakeCatalog) ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error) {
	f.calls++
	if err := f.errs[kind]; err != nil {
		return nil, err
	}
	return f.items[kind], nil
}

func record(kind inventory.Kind, id int, otherserial, serial string) inventory.Record {
	return inventory.Record{Kind: kind, ID: id, Fields: map[string]any{
		"otherserial": otherserial,
		"serial":      serial,
	}}
}

func seededStore(items map[inventory.Kind][]inventory.Record) *index.Store {
	store := index.NewStore()
	store.Publish(&index.Snapshot{Items: items})
	return store
}

func TestResolveEmptyInput(t *testing.T) {
	r := NewResolver(logger.NewNop(), index.NewStore(), &fakeCatalog{}, nil)
	for _, in := range []string{"", "   ", "000"} {
		_, err := r.Resolve(context.Background(), in)
		if !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("Resolve(%q): want ErrEmptyInput got=%v", in, err)
		}
	}
}

func TestResolveFromSnapshotSubstring(t *testing.T) {
	store := seededStore(map[inventory.Kind][]inventory.Record{
		inventory.KindComputer: {
			record(inventory.KindComputer, 1, "1007", ""),
			record(inventory.KindComputer, 2, "555", ""),
		},
		inventory.KindMonitor: {
			record(inventory.KindMonitor, 3, "", "0071"),
		},
	})
	catalog := &fakeCatalog{}
	r := NewResolver(logger.NewNop(), store, catalog, nil)

	out, err := r.Resolve(context.Background(), "007")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if out.Normalized != "7" {
		t.Fatalf("Normalized: want=%q got=%q", "7", out.Normalized)
	}
	if len(out.Matches) != 2 {
		t.Fatalf("matches: want=2 got=%d", len(out.Matches))
	}
	if out.Matches[0].ID != 1 || out.Matches[1].ID != 3 {
		t.Fatalf("match ids: want=[1 3] got=[%d %d]", out.Matches[0].ID, out.Matches[1].ID)
	}
	if catalog.calls != 0 {
		t.Fatalf("indexed path must not hit the catalog, got %d calls", catalog.calls)
	}
}

func TestResolveLivePathWhenIndexingDisabled(t *testing.T) {
	store := seededStore(map[inventory.Kind][]inventory.Record{
		inventory.KindComputer: {record(inventory.KindComputer, 1, "42", "")},
	})
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindPeripheral: {record(inventory.KindPeripheral, 9, "42", "")},
		},
	}
	r := NewResolver(logger.NewNop(), store, catalog, func() bool { return false })

	out, err := r.Resolve(context.Background(), "42")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].ID != 9 {
		t.Fatalf("live matches: got=%+v", out.Matches)
	}
	if catalog.calls != 3 {
		t.Fatalf("live path must scan all categories, got %d calls", catalog.calls)
	}
}

func TestResolveLivePathBeforeFirstSnapshot(t *testing.T) {
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindMonitor: {record(inventory.KindMonitor, 4, "", "88")},
		},
	}
	r := NewResolver(logger.NewNop(), index.NewStore(), catalog, nil)

	out, err := r.Resolve(context.Background(), "88")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].ID != 4 {
		t.Fatalf("matches: got=%+v", out.Matches)
	}
}

func TestResolveLivePathSkipsFailedCategory(t *testing.T) {
	catalog := &fakeCatalog{
		items: map[inventory.Kind][]inventory.Record{
			inventory.KindMonitor: {record(inventory.KindMonitor, 4, "13", "")},
		},
		errs: map[inventory.Kind]error{
			inventory.KindComputer: errors.New("offline"),
		},
	}
	r := NewResolver(logger.NewNop(), index.NewStore(), catalog, func() bool { return false })

	out, err := r.Resolve(context.Background(), "13")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out.Matches) != 1 || out.Matches[0].ID != 4 {
		t.Fatalf("matches: got=%+v", out.Matches)
	}
}
