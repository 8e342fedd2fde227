package app

import (
	"context"

	"github.com/vinnienasta1/ProITech-pub/internal/buffer"
	"github.com/vinnienasta1/ProITech-pub/internal/filter"
	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/mutate"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/glpi"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
	"github.com/vinnienasta1/ProITech-pub/internal/resolve"
)

// App wires the components together. There is no hidden global state: every
// component receives its collaborators here, once, at startup.
type App struct {
	Log     *logger.Logger
	Config  Config
	Fields  *inventory.FieldTable
	Client  *glpi.Client
	Store   *index.Store
	Indexer *index.Indexer
	Resolve *resolve.Resolver
	Buffer  *buffer.Buffer
	Filter  *filter.Evaluator
	Mutator *mutate.Coordinator
}

// New constructs the full component graph. onEntryChange propagates buffer
// transitions to whatever presentation sits on top; nil is fine.
func New(log *logger.Logger, cfg Config, onEntryChange func(buffer.Entry)) (*App, error) {
	fields, err := cfg.FieldTable()
	if err != nil {
		return nil, err
	}
	client, err := glpi.NewClient(log, cfg.GLPIConfig())
	if err != nil {
		return nil, err
	}
	store := index.NewStore()
	indexer := index.NewIndexer(log, client, store, index.IndexerOptions{
		ItemPageSize: cfg.ItemPageSize,
		EntityWindow: cfg.EntityWindow,
	})
	resolver := resolve.NewResolver(log, store, client, cfg.IndexingEnabled)
	buf := buffer.New(log, resolver, onEntryChange)
	return &App{
		Log:     log,
		Config:  cfg,
		Fields:  fields,
		Client:  client,
		Store:   store,
		Indexer: indexer,
		Resolve: resolver,
		Buffer:  buf,
		Filter:  filter.NewEvaluator(fields, store),
		Mutator: mutate.NewCoordinator(log, client, store),
	}, nil
}

// Start authenticates and, when indexing is enabled, kicks off the initial
// background reindex.
func (a *App) Start(ctx context.Context) error {
	if err := a.Client.InitSession(ctx); err != nil {
		return err
	}
	if a.Config.IndexingEnabled() {
		a.Indexer.RequestReindex(ctx, nil)
	}
	return nil
}

// Shutdown drains the buffer and tears the session down, best effort.
func (a *App) Shutdown(ctx context.Context) {
	a.Buffer.Close()
	if err := a.Client.KillSession(ctx); err != nil {
		a.Log.Warn("session teardown failed", "error", err)
	}
}

// Catalog returns the full item listing for filter evaluation: the snapshot
// when one exists, live fetches otherwise. Per-category errors in the live
// path skip that category.
func (a *App) Catalog(ctx context.Context) []inventory.Record {
	var records []inventory.Record
	if snap := a.Store.Current(); snap != nil && a.Config.IndexingEnabled() {
		for _, kind := range inventory.Kinds() {
			records = append(records, snap.Items[kind]...)
		}
		return records
	}
	for _, kind := range inventory.Kinds() {
		page, err := a.Client.ListItems(ctx, kind, 0, a.Config.ItemPageSize)
		if err != nil {
			a.Log.Warn("catalog fetch failed for category", "kind", kind, "error", err)
			continue
		}
		records = append(records, page...)
	}
	return records
}
