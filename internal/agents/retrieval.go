package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// defaultPerCategoryLimit is how many candidates each category query
// returns before merging.
const defaultPerCategoryLimit = 18

// RetrievalAgent turns an intent into index queries and merges the hits.
type RetrievalAgent struct {
	store            vectorstore.Store
	perCategoryLimit int
	logger           *zap.Logger
}

// NewRetrievalAgent creates a retrieval agent. perCategoryLimit <= 0
// falls back to the default.
func NewRetrievalAgent(store vectorstore.Store, perCategoryLimit int, logger *zap.Logger) *RetrievalAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perCategoryLimit <= 0 {
		perCategoryLimit = defaultPerCategoryLimit
	}
	return &RetrievalAgent{
		store:            store,
		perCategoryLimit: perCategoryLimit,
		logger:           logger,
	}
}

// Retrieve runs one similarity query per intent category, constrained by
// the budget ceiling, and merges the results: deduped by product id
// (best score wins), ordered by score descending.
//
// No categories means nothing to retrieve; the caller gets an empty
// candidate list, not an error.
func (a *RetrievalAgent) Retrieve(ctx context.Context, query string, intent Intent, budget *float64) ([]ScoredProduct, error) {
	if len(intent.Categories) == 0 {
		return nil, nil
	}

	best := make(map[string]ScoredProduct)

	for _, category := range intent.Categories {
		filters := map[string]interface{}{
			vectorstore.MetaCategory: category,
		}
		if budget != nil && *budget > 0 {
			filters[vectorstore.FilterMaxPrice] = *budget
		}

		results, err := a.search(ctx, query, a.perCategoryLimit, filters)
		if err != nil {
			return nil, fmt.Errorf("retrieving category %s: %w", category, err)
		}

		for _, r := range results {
			p := scoredProductFromResult(r)
			if p.ID == "" {
				continue
			}
			if existing, ok := best[p.ID]; !ok || p.Score > existing.Score {
				best[p.ID] = p
			}
		}
	}

	merged := make([]ScoredProduct, 0, len(best))
	for _, p := range best {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })

	a.logger.Debug("retrieval complete",
		zap.String("query", query),
		zap.Strings("categories", intent.Categories),
		zap.Int("candidates", len(merged)),
	)

	return merged, nil
}

// Search answers the direct vector-store search endpoint: an optional
// category filter and no budget.
func (a *RetrievalAgent) Search(ctx context.Context, query, category string, limit int) ([]ScoredProduct, error) {
	if limit <= 0 {
		limit = a.perCategoryLimit
	}

	var filters map[string]interface{}
	if category != "" {
		filters = map[string]interface{}{vectorstore.MetaCategory: category}
	}

	results, err := a.search(ctx, query, limit, filters)
	if err != nil {
		return nil, err
	}

	products := make([]ScoredProduct, 0, len(results))
	for _, r := range results {
		products = append(products, scoredProductFromResult(r))
	}
	return products, nil
}

// search wraps the store call with metrics.
func (a *RetrievalAgent) search(ctx context.Context, query string, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	start := time.Now()
	results, err := a.store.SearchWithFilters(ctx, query, k, filters)
	vectorstore.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		vectorstore.SearchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	vectorstore.SearchesTotal.WithLabelValues("success").Inc()
	return results, nil
}
