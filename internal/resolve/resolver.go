package resolve

import (
	"context"
	"errors"
	"strings"

	"github.com/vinnienasta1/ProITech-pub/internal/index"
	"github.com/vinnienasta1/ProITech-pub/internal/inventory"
	"github.com/vinnienasta1/ProITech-pub/internal/platform/logger"
)

// ErrEmptyInput rejects input that normalizes to nothing, before any
// network call.
var ErrEmptyInput = errors.New("empty identifier after normalization")

// Catalog is the live-query fallback used when indexing is disabled or no
// snapshot exists yet.
type Catalog interface {
	ListItems(ctx context.Context, kind inventory.Kind, offset, count int) ([]inventory.Record, error)
}

// Outcome is one resolution result. Zero, one or many matches; the caller
// decides how to treat each case.
type Outcome struct {
	Input      string
	Normalized string
	Matches    []inventory.Record
}

// Resolver matches one normalized identifier against the catalog by
// substring over normalized otherserial/serial values. Matching is a full
// scan: the serial index's exact-lookup keys do not cover the "contains"
// semantics partial inputs need.
type Resolver struct {
	log          *logger.Logger
	store        *index.Store
	catalog      Catalog
	useIndexing  func() bool
	livePageSize int
}

func NewResolver(log *logger.Logger, store *index.Store, catalog Catalog, useIndexing func() bool) *Resolver {
	if useIndexing == nil {
		useIndexing = func() bool { return true }
	}
	return &Resolver{
		log:          log.With("service", "Resolver"),
		store:        store,
		catalog:      catalog,
		useIndexing:  useIndexing,
		livePageSize: index.DefaultItemPageSize,
	}
}

// Resolve scans all three categories for records whose normalized
// otherserial or serial contains the normalized query. Per-category fetch
// failures in the live path are logged and skipped, never fatal to the scan.
func (r *Resolver) Resolve(ctx context.Context, rawInput string) (Outcome, error) {
	normalized := inventory.NormalizeSerial(rawInput)
	if normalized == "" {
		return Outcome{Input: rawInput}, ErrEmptyInput
	}
	out := Outcome{Input: rawInput, Normalized: normalized}

	snap := r.store.Current()
	if r.useIndexing() && snap != nil {
		for _, kind := range inventory.Kinds() {
			out.Matches = append(out.Matches, matchRecords(snap.Items[kind], normalized)...)
		}
		return out, nil
	}

	for _, kind := range inventory.Kinds() {
		records, err := r.catalog.ListItems(ctx, kind, 0, r.livePageSize)
		if err != nil {
			r.log.Warn("live scan failed for category", "kind", kind, "error", err)
			continue
		}
		out.Matches = append(out.Matches, matchRecords(records, normalized)...)
	}
	return out, nil
}

func matchRecords(records []inventory.Record, normalized string) []inventory.Record {
	var matches []inventory.Record
	for _, rec := range records {
		otherserial := inventory.NormalizeSerial(rec.Field("otherserial"))
		serial := inventory.NormalizeSerial(rec.Field("serial"))
		if (otherserial != "" && strings.Contains(otherserial, normalized)) ||
			(serial != "" && strings.Contains(serial, normalized)) {
			matches = append(matches, rec)
		}
	}
	return matches
}
