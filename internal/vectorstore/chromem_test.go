package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// chromemTestEmbedder returns deterministic normalized vectors.
type chromemTestEmbedder struct {
	vectorSize int
}

func (e *chromemTestEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.makeEmbedding(text)
	}
	return embeddings, nil
}

func (e *chromemTestEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.makeEmbedding(text), nil
}

// makeEmbedding creates a normalized embedding based on text hash.
func (e *chromemTestEmbedder) makeEmbedding(text string) []float32 {
	embedding := make([]float32, e.vectorSize)
	hash := 0
	for _, c := range text {
		hash = (hash*31 + int(c)) % 1000
	}
	var sumSq float32
	for i := range embedding {
		embedding[i] = float32((hash+i)%100) / 100.0
		sumSq += embedding[i] * embedding[i]
	}
	// chromem expects normalized vectors.
	if sumSq > 0 {
		norm := float32(1.0) / sqrt32(sumSq)
		for i := range embedding {
			embedding[i] *= norm
		}
	}
	return embedding
}

func sqrt32(x float32) float32 {
	if x <= 0 {
		return 0
	}
	z := x / 2
	for i := 0; i < 10; i++ {
		z = (z + x/z) / 2
	}
	return z
}

func newTestChromemStore(t *testing.T) *vectorstore.ChromemStore {
	t.Helper()

	config := vectorstore.ChromemConfig{
		Path:       t.TempDir(),
		Collection: "products_test",
		VectorSize: 64,
	}

	store, err := vectorstore.NewChromemStore(config, &chromemTestEmbedder{vectorSize: 64}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// productDocs builds index documents the way the indexer does.
func productDocs() []vectorstore.Document {
	return []vectorstore.Document{
		{
			ID:      "B001",
			Content: "USB-C braided charging cable",
			Metadata: map[string]interface{}{
				vectorstore.MetaID:       "B001",
				vectorstore.MetaName:     "USB-C Cable",
				vectorstore.MetaCategory: "Computers&Accessories",
				vectorstore.MetaPrice:    399.0,
				vectorstore.MetaRating:   4.2,
			},
		},
		{
			ID:      "B002",
			Content: "Smart watch with fitness tracking",
			Metadata: map[string]interface{}{
				vectorstore.MetaID:       "B002",
				vectorstore.MetaName:     "Smart Watch",
				vectorstore.MetaCategory: "Electronics",
				vectorstore.MetaPrice:    1999.0,
				vectorstore.MetaRating:   4.0,
			},
		},
		{
			ID:      "B003",
			Content: "Kitchen blender for smoothies",
			Metadata: map[string]interface{}{
				vectorstore.MetaID:       "B003",
				vectorstore.MetaName:     "Blender",
				vectorstore.MetaCategory: "Home&Kitchen",
				vectorstore.MetaPrice:    899.0,
				vectorstore.MetaRating:   4.5,
			},
		},
	}
}

func TestChromemConfig_ApplyDefaults(t *testing.T) {
	config := vectorstore.ChromemConfig{}
	config.ApplyDefaults()

	assert.Equal(t, "./data/vectorstore", config.Path)
	assert.Equal(t, "products", config.Collection)
	assert.Equal(t, 768, config.VectorSize)
}

func TestChromemConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    vectorstore.ChromemConfig
		wantError bool
	}{
		{
			name:      "valid config",
			config:    vectorstore.ChromemConfig{Path: "/tmp/test", Collection: "products", VectorSize: 768},
			wantError: false,
		},
		{
			name:      "zero vector size",
			config:    vectorstore.ChromemConfig{Path: "/tmp/test", Collection: "products"},
			wantError: true,
		},
		{
			name:      "invalid collection name",
			config:    vectorstore.ChromemConfig{Path: "/tmp/test", Collection: "Not Valid!", VectorSize: 768},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewChromemStore_RequiresEmbedder(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Path: t.TempDir()}, nil, zap.NewNop())
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestChromemStore_AddDocuments(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	ids, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)
	assert.Equal(t, []string{"B001", "B002", "B003"}, ids)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestChromemStore_AddDocuments_Empty(t *testing.T) {
	store := newTestChromemStore(t)

	_, err := store.AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyDocuments)
}

func TestChromemStore_AddDocuments_MissingID(t *testing.T) {
	store := newTestChromemStore(t)

	_, err := store.AddDocuments(context.Background(), []vectorstore.Document{
		{Content: "no id"},
	})
	assert.Error(t, err)
}

func TestChromemStore_Search(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	// The query text matches a stored document exactly, so the hash
	// embedder gives it similarity 1.0 and it ranks first.
	results, err := store.Search(ctx, "Smart watch with fitness tracking", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "B002", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 0.001)
}

func TestChromemStore_SearchEmptyIndex(t *testing.T) {
	store := newTestChromemStore(t)

	results, err := store.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_SearchInvalidInputs(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.Search(ctx, "", 5)
	assert.Error(t, err)

	_, err = store.Search(ctx, "query", 0)
	assert.Error(t, err)
}

func TestChromemStore_SearchWithFilters_Category(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	results, err := store.SearchWithFilters(ctx, "something useful", 10, map[string]interface{}{
		vectorstore.MetaCategory: "Electronics",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "B002", results[0].ID)
}

func TestChromemStore_SearchWithFilters_MaxPrice(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	results, err := store.SearchWithFilters(ctx, "something useful", 10, map[string]interface{}{
		vectorstore.FilterMaxPrice: 1000.0,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.LessOrEqual(t, r.Price(), 1000.0)
	}
}

func TestChromemStore_SearchWithFilters_CategoryAndPrice(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	results, err := store.SearchWithFilters(ctx, "something useful", 10, map[string]interface{}{
		vectorstore.MetaCategory:   "Electronics",
		vectorstore.FilterMaxPrice: 100.0,
	})
	require.NoError(t, err)
	assert.Empty(t, results, "nothing in Electronics under the ceiling")
}

func TestChromemStore_MetadataRoundTrip(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	results, err := store.Search(ctx, "Kitchen blender for smoothies", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "Blender", r.MetaString(vectorstore.MetaName))
	assert.Equal(t, 899.0, r.Price(), "price survives string storage as a float")
	assert.Equal(t, 4.5, r.Rating())
}

func TestChromemStore_Reset(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	require.NoError(t, store.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChromemStore_Info(t *testing.T) {
	store := newTestChromemStore(t)
	ctx := context.Background()

	_, err := store.Info(ctx)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)

	_, err = store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)

	info, err := store.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "products_test", info.Name)
	assert.Equal(t, 3, info.PointCount)
	assert.Equal(t, 64, info.VectorSize)
}

func TestChromemStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	config := vectorstore.ChromemConfig{Path: dir, Collection: "products_test", VectorSize: 64}
	embedder := &chromemTestEmbedder{vectorSize: 64}
	ctx := context.Background()

	store, err := vectorstore.NewChromemStore(config, embedder, zap.NewNop())
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, productDocs())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopen from the same path: the index must survive.
	reopened, err := vectorstore.NewChromemStore(config, embedder, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
