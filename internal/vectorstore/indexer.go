package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/catalog"
)

// ErrRebuildInProgress is returned when a rebuild is already running.
// Rebuilds embed the entire catalog, so overlapping runs would double
// the provider bill for no benefit.
var ErrRebuildInProgress = errors.New("index rebuild already in progress")

// defaultIndexBatch is how many products are added per store call during
// a rebuild. Embedding providers batch internally as well; this bound
// keeps memory flat and gives the log a heartbeat.
const defaultIndexBatch = 128

// RebuildResult summarizes a completed rebuild.
type RebuildResult struct {
	// ID identifies this rebuild run in logs and responses.
	ID string `json:"id"`

	// Documents is the number of products indexed.
	Documents int `json:"documents"`

	// Duration is the wall-clock rebuild time.
	Duration time.Duration `json:"duration"`
}

// Indexer builds the product index wholesale from the catalog.
//
// There is no incremental update path: the catalog is immutable after
// load, so the index either reflects the last successful full rebuild or
// gets rebuilt from scratch.
type Indexer struct {
	store     Store
	catalog   *catalog.Catalog
	batchSize int
	logger    *zap.Logger

	rebuilding atomic.Bool
}

// NewIndexer creates an indexer over the given store and catalog.
// batchSize <= 0 falls back to the default.
func NewIndexer(store Store, cat *catalog.Catalog, batchSize int, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = defaultIndexBatch
	}
	return &Indexer{
		store:     store,
		catalog:   cat,
		batchSize: batchSize,
		logger:    logger,
	}
}

// EnsureBuilt rebuilds the index only when it is missing or empty, so a
// warm persisted index survives restarts untouched.
func (ix *Indexer) EnsureBuilt(ctx context.Context) error {
	count, err := ix.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("checking index: %w", err)
	}
	if count > 0 {
		DocumentsIndexed.Set(float64(count))
		ix.logger.Info("product index already built",
			zap.Int("documents", count),
		)
		return nil
	}

	ix.logger.Info("product index empty, building from catalog")
	_, err = ix.Rebuild(ctx)
	return err
}

// Rebuild drops the collection and re-indexes the full catalog.
//
// The operation is blocking and non-resumable: a failure partway leaves
// a partial index and the caller must run Rebuild again. Concurrent
// rebuilds are rejected with ErrRebuildInProgress.
func (ix *Indexer) Rebuild(ctx context.Context) (*RebuildResult, error) {
	if !ix.rebuilding.CompareAndSwap(false, true) {
		return nil, ErrRebuildInProgress
	}
	defer ix.rebuilding.Store(false)

	id := uuid.New().String()
	start := time.Now()

	ix.logger.Info("index rebuild started",
		zap.String("rebuild_id", id),
		zap.Int("products", ix.catalog.Len()),
	)

	if err := ix.store.Reset(ctx); err != nil {
		RebuildsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resetting index: %w", err)
	}

	products := ix.catalog.All()
	indexed := 0

	for batchStart := 0; batchStart < len(products); batchStart += ix.batchSize {
		end := batchStart + ix.batchSize
		if end > len(products) {
			end = len(products)
		}

		docs := make([]Document, 0, end-batchStart)
		for i := batchStart; i < end; i++ {
			docs = append(docs, productDocument(&products[i]))
		}

		if _, err := ix.store.AddDocuments(ctx, docs); err != nil {
			RebuildsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("indexing products %d-%d: %w", batchStart, end, err)
		}
		indexed = end

		ix.logger.Debug("index rebuild progress",
			zap.String("rebuild_id", id),
			zap.Int("indexed", indexed),
			zap.Int("total", len(products)),
		)
	}

	duration := time.Since(start)
	RebuildsTotal.WithLabelValues("success").Inc()
	RebuildDuration.Observe(duration.Seconds())
	DocumentsIndexed.Set(float64(indexed))

	ix.logger.Info("index rebuild complete",
		zap.String("rebuild_id", id),
		zap.Int("documents", indexed),
		zap.Duration("duration", duration),
	)

	return &RebuildResult{
		ID:        id,
		Documents: indexed,
		Duration:  duration,
	}, nil
}

// productDocument converts a catalog product into an index document.
func productDocument(p *catalog.Product) Document {
	return Document{
		ID:      p.ID,
		Content: p.EmbeddingText(),
		Metadata: map[string]interface{}{
			MetaID:       p.ID,
			MetaName:     p.Name,
			MetaCategory: p.Category,
			MetaPrice:    p.Price,
			MetaRating:   p.Rating,
			MetaImage:    p.ImageURL,
			MetaLink:     p.ProductURL,
		},
	}
}
