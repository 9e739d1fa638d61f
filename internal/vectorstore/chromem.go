package vectorstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("shopd.vectorstore.chromem")

// postFilterOverfetch widens chromem queries so results survive the
// client-side price filter. chromem's where clause is string-equality
// only, so the price ceiling is applied after the similarity query.
const postFilterOverfetch = 5

// ChromemConfig holds configuration for the chromem-go embedded database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Default: "./data/vectorstore"
	Path string `koanf:"path"`

	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`

	// Collection is the product collection name. Default: "products".
	Collection string `koanf:"collection"`

	// VectorSize is the expected embedding dimension. Must match the
	// embedder's output dimension. Default: 768 (Gemini embedding-001).
	VectorSize int `koanf:"vector_size"`
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "./data/vectorstore"
	}
	if c.Collection == "" {
		c.Collection = "products"
	}
	if c.VectorSize == 0 {
		c.VectorSize = 768
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return ValidateCollectionName(c.Collection)
}

// ChromemStore implements Store using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: in-memory with gob persistence, exact cosine similarity,
// no external service. For a ~5,500 product catalog this is more than
// fast enough.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	config   ChromemConfig
	logger   *zap.Logger
}

// NewChromemStore creates a ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	expandedPath, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(expandedPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", expandedPath, err)
	}

	db, err := chromem.NewPersistentDB(expandedPath, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("creating chromem DB: %w", err)
	}

	store := &ChromemStore{
		db:       db,
		embedder: embedder,
		config:   config,
		logger:   logger,
	}

	logger.Info("chromem store initialized",
		zap.String("path", expandedPath),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
		zap.String("collection", config.Collection),
	)

	return store, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// embeddingFunc bridges the Embedder interface to chromem.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// collection returns the configured collection or nil when absent.
// The embedding function must always be passed: chromem-go falls back to
// a default OpenAI embedder when given nil for persisted collections.
func (s *ChromemStore) collection() *chromem.Collection {
	return s.db.GetCollection(s.config.Collection, s.embeddingFunc())
}

// AddDocuments embeds and stores documents in the product collection.
func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
	defer span.End()

	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}

	collection, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("getting/creating collection %s: %w", s.config.Collection, err)
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("document at index %d has no ID", i)
		}
		ids[i] = doc.ID
		texts[i] = doc.Content
	}

	embeddings, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        ids[i],
			Content:   doc.Content,
			Metadata:  convertMetadataToString(doc.Metadata),
			Embedding: embeddings[i],
		}
	}

	// Concurrency of 1: embeddings are already computed above.
	if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	span.SetAttributes(attribute.Int("documents_added", len(ids)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(docs)),
	)

	return ids, nil
}

// Search performs similarity search without filters.
func (s *ChromemStore) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	return s.SearchWithFilters(ctx, query, k, nil)
}

// SearchWithFilters performs similarity search with metadata filters.
//
// Exact-match filters are pushed into chromem's where clause. The
// FilterMaxPrice ceiling is applied client-side after the query, with
// over-fetch so the requested k survives filtering.
func (s *ChromemStore) SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.SearchWithFilters")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", s.config.Collection),
		attribute.Int("k", k),
	)

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	collection := s.collection()
	if collection == nil {
		// An index that was never built answers with nothing to sell.
		return []SearchResult{}, nil
	}

	docCount := collection.Count()
	if docCount == 0 {
		return []SearchResult{}, nil
	}

	exactFilters, maxPrice := splitPriceFilter(filters)

	// chromem requires nResults <= doc count.
	fetch := k
	if maxPrice > 0 {
		fetch = k * postFilterOverfetch
	}
	if fetch > docCount {
		fetch = docCount
	}

	results, err := collection.Query(ctx, query, fetch, convertMetadataToString(exactFilters), nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, r := range results {
		sr := SearchResult{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: convertMetadataFromString(r.Metadata),
		}
		if maxPrice > 0 && sr.Price() > maxPrice {
			continue
		}
		searchResults = append(searchResults, sr)
		if len(searchResults) == k {
			break
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("searched chromem collection",
		zap.String("collection", s.config.Collection),
		zap.Int("k", k),
		zap.Float64("max_price", maxPrice),
		zap.Int("results", len(searchResults)),
	)

	return searchResults, nil
}

// Count returns the number of documents in the product collection.
func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	collection := s.collection()
	if collection == nil {
		return 0, nil
	}
	return collection.Count(), nil
}

// Reset drops and recreates the product collection.
func (s *ChromemStore) Reset(ctx context.Context) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Reset")
	defer span.End()

	span.SetAttributes(attribute.String("collection", s.config.Collection))

	if s.collection() != nil {
		if err := s.db.DeleteCollection(s.config.Collection); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("deleting collection %s: %w", s.config.Collection, err)
		}
	}

	if _, err := s.db.CreateCollection(s.config.Collection, nil, s.embeddingFunc()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("creating collection %s: %w", s.config.Collection, err)
	}

	span.SetStatus(codes.Ok, "success")

	s.logger.Info("chromem collection reset",
		zap.String("collection", s.config.Collection),
	)

	return nil
}

// Info returns metadata about the product collection.
func (s *ChromemStore) Info(ctx context.Context) (*CollectionInfo, error) {
	collection := s.collection()
	if collection == nil {
		return nil, ErrCollectionNotFound
	}
	return &CollectionInfo{
		Name:       s.config.Collection,
		PointCount: collection.Count(),
		VectorSize: s.config.VectorSize,
	}, nil
}

// Close closes the ChromemStore.
// chromem-go persists on write; no explicit close is needed.
func (s *ChromemStore) Close() error {
	s.logger.Info("chromem store closed")
	return nil
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
