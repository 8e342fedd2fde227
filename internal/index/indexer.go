package index

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

const (
	// DefaultItemPageSize covers a whole category in one request; the
	// catalog caps list responses at this size.
	DefaultItemPageSize = 10000
	// DefaultEntityWindow pages reference tables in fixed windows.
	DefaultEntityWindow = 500

	fetchConcurrency = 4
)

// Catalog is the slice of the client the indexer needs.
type Catalog interface {
	ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error)
	ListEntities(ctx context.Context, entity inventory.EntityType, offset, count int) ([]map[string]any, error)
}

// SourceReport describes one source's outcome within a reindex run.
type SourceReport struct {
	Count int
	Err   error
}

// Report is the completeness report of one reindex. A reindex always
// "succeeds"; callers inspect the report for per-source failures.
type Report struct {
	Items    map[inventory.Kind]SourceReport
	Entities map[inventory.EntityType]SourceReport
	Contacts int
	Took     time.Duration
}

// Complete reports whether every source indexed without error.
func (r Report) Complete() bool {
	for _, sr := range r.Items {
		if sr.Err != nil {
			return false
		}
	}
	for _, sr := range r.Entities {
		if sr.Err != nil {
			return false
		}
	}
	return true
}

// Indexer mirrors the remote catalog into fresh snapshots. Runs are
// serialized; a request made while a run is in flight is coalesced into one
// follow-up run.
type Indexer struct {
	log          *logger.Logger
	catalog      Catalog
	store        *Store
	itemPageSize int
	entityWindow int

	runMu sync.Mutex // serializes builds, keeps the swap single-writer

	mu      sync.Mutex
	running bool
	queued  bool
}

type IndexerOptions struct {
	ItemPageSize int
	EntityWindow int
}

func NewIndexer(log *logger.Logger, catalog Catalog, store *Store, opts IndexerOptions) *Indexer {
	itemPage := opts.ItemPageSize
	if itemPage <= 0 {
		itemPage = DefaultItemPageSize
	}
	window := opts.EntityWindow
	if window <= 0 {
		window = DefaultEntityWindow
	}
	return &Indexer{
		log:          log.With("service", "Indexer"),
		catalog:      catalog,
		store:        store,
		itemPageSize: itemPage,
		entityWindow: window,
	}
}

// Reindex builds a fresh snapshot and atomically publishes it. Partial
// failures are reported, never raised: a run that failed to index one source
// still installs everything else.
func (ix *Indexer) Reindex(ctx context.Context) Report {
	ix.runMu.Lock()
	defer ix.runMu.Unlock()

	started := time.Now()
	ix.log.Info("reindex started")

	type itemResult struct {
		records []inventory.Record
		err     error
	}
	type entityResult struct {
		labels map[string]string
		err    error
	}

	kinds := inventory.Kinds()
	entityTypes := inventory.EntityTypes()
	itemResults := make([]itemResult, len(kinds))
	entityResults := make([]entityResult, len(entityTypes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, kind := range kinds {
		i, kind := i, kind
		g.Go(func() error {
			records, err := ix.catalog.ListItems(gctx, kind, 0, ix.itemPageSize)
			itemResults[i] = itemResult{records: records, err: err}
			return nil
		})
	}
	for i, entity := range entityTypes {
		i, entity := i, entity
		g.Go(func() error {
			labels, err := ix.fetchEntityTable(gctx, entity)
			entityResults[i] = entityResult{labels: labels, err: err}
			return nil
		})
	}
	_ = g.Wait()

	snap := &Snapshot{
		Serials:  map[string]inventory.Record{},
		Entities: map[inventory.EntityType]map[string]string{},
		Contacts: map[string]struct{}{},
		Items:    map[inventory.Kind][]inventory.Record{},
		BuiltAt:  time.Now(),
	}
	report := Report{
		Items:    map[inventory.Kind]SourceReport{},
		Entities: map[inventory.EntityType]SourceReport{},
	}

	for i, kind := range kinds {
		res := itemResults[i]
		if res.err != nil {
			ix.log.Warn("category indexing failed", "kind", kind, "error", res.err)
			report.Items[kind] = SourceReport{Err: res.err}
			continue
		}
		snap.Items[kind] = res.records
		for _, rec := range res.records {
			if s := inventory.NormalizeSerial(rec.Field("otherserial")); s != "" {
				snap.Serials[s] = rec
			}
			if s := inventory.NormalizeSerial(rec.Field("serial")); s != "" {
				snap.Serials[s] = rec
			}
			if contact := rec.Field("contact"); contact != "" {
				snap.Contacts[contact] = struct{}{}
			}
		}
		report.Items[kind] = SourceReport{Count: len(res.records)}
		ix.log.Info("category indexed", "kind", kind, "count", len(res.records))
	}

	for i, entity := range entityTypes {
		res := entityResults[i]
		if res.err != nil {
			ix.log.Warn("entity indexing failed", "entity", entity, "error", res.err)
			report.Entities[entity] = SourceReport{Count: len(res.labels), Err: res.err}
			continue
		}
		snap.Entities[entity] = res.labels
		report.Entities[entity] = SourceReport{Count: len(res.labels)}
		ix.log.Info("entity indexed", "entity", entity, "count", len(res.labels))
	}
	report.Contacts = len(snap.Contacts)
	report.Took = time.Since(started)

	ix.store.Publish(snap)
	ix.log.Info("reindex finished",
		"serials", len(snap.Serials),
		"contacts", report.Contacts,
		"complete", report.Complete(),
		"took", report.Took,
	)
	return report
}

// fetchEntityTable pages one reference table until a short page. A fetch
// error aborts only this table; labels accumulated so far are discarded with
// it so display fallback stays consistent.
func (ix *Indexer) fetchEntityTable(ctx context.Context, entity inventory.EntityType) (map[string]string, error) {
	labels := map[string]string{}
	for offset := 0; ; offset += ix.entityWindow {
		rows, err := ix.catalog.ListEntities(ctx, entity, offset, ix.entityWindow)
		if err != nil {
			return labels, err
		}
		for _, row := range rows {
			id, ok := entityRowID(row)
			if !ok {
				ix.log.Warn("entity row without id skipped", "entity", entity)
				continue
			}
			labels[id] = inventory.EntityLabel(entity, row)
		}
		if len(rows) < ix.entityWindow {
			return labels, nil
		}
	}
}

func entityRowID(row map[string]any) (string, bool) {
	switch v := row["id"].(type) {
	case float64:
		return strconv.Itoa(int(v)), true
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	default:
		return "", false
	}
}

// RequestReindex schedules a reindex without blocking. When one is already
// running the request coalesces into a single follow-up run; two builds
// never execute concurrently. onDone receives every completed run's report.
func (ix *Indexer) RequestReindex(ctx context.Context, onDone func(Report)) {
	ix.mu.Lock()
	if ix.running {
		ix.queued = true
		ix.mu.Unlock()
		ix.log.Debug("reindex request coalesced")
		return
	}
	ix.running = true
	ix.mu.Unlock()

	go func() {
		for {
			report := ix.Reindex(ctx)
			if onDone != nil {
				onDone(report)
			}
			ix.mu.Lock()
			if ix.queued {
				ix.queued = false
				ix.mu.Unlock()
				continue
			}
			ix.running = false
			ix.mu.Unlock()
			return
		}
	}()
}
