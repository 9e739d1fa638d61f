// Package vectorstore manages the product similarity index.
//
// The index holds one embedded document per catalog product and answers
// nearest-neighbor queries with optional metadata filters. Two backends
// implement the Store interface: an embedded chromem-go database (default,
// zero external services) and a Qdrant server over gRPC.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors for vector store operations.
var (
	// ErrCollectionNotFound is returned when the collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrConnectionFailed indicates the backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// FilterMaxPrice is the reserved filter key for an inclusive price
// ceiling. Its value must be a float64; every other filter key is an
// exact-match condition on document metadata.
const FilterMaxPrice = "max_price"

// collectionNamePattern validates collection names: lowercase letters,
// numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: must match ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// CollectionInfo contains metadata about the product collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the interface for product index operations.
//
// Each store manages a single collection configured at construction.
// Implementations:
//   - ChromemStore: embedded chromem-go (default)
//   - QdrantStore: external Qdrant gRPC client
type Store interface {
	// AddDocuments embeds and stores documents, returning their IDs.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search performs similarity search, returning up to k results
	// ordered by similarity score (highest first). An empty index yields
	// an empty slice, not an error.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// SearchWithFilters performs similarity search with metadata filters.
	// The FilterMaxPrice key applies a numeric price ceiling; all other
	// keys must match document metadata exactly.
	SearchWithFilters(ctx context.Context, query string, k int, filters map[string]interface{}) ([]SearchResult, error)

	// Count returns the number of documents in the collection. A missing
	// collection counts as zero.
	Count(ctx context.Context) (int, error)

	// Reset drops the collection and recreates it empty. Used as the
	// first step of a full index rebuild.
	Reset(ctx context.Context) error

	// Info returns collection metadata.
	// Returns ErrCollectionNotFound if the collection doesn't exist.
	Info(ctx context.Context) (*CollectionInfo, error)

	// Close releases backend resources.
	Close() error
}
