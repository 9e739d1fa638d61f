package vectorstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

func TestNewStore(t *testing.T) {
	embedder := &chromemTestEmbedder{vectorSize: 64}

	t.Run("chromem provider", func(t *testing.T) {
		store, err := vectorstore.NewStore(vectorstore.Config{
			Provider: vectorstore.ProviderChromem,
			Chromem:  vectorstore.ChromemConfig{Path: t.TempDir()},
		}, embedder, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &vectorstore.ChromemStore{}, store)
	})

	t.Run("empty provider defaults to chromem", func(t *testing.T) {
		store, err := vectorstore.NewStore(vectorstore.Config{
			Chromem: vectorstore.ChromemConfig{Path: t.TempDir()},
		}, embedder, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &vectorstore.ChromemStore{}, store)
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := vectorstore.NewStore(vectorstore.Config{Provider: "pinecone"}, embedder, zap.NewNop())
		assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := vectorstore.Config{Provider: "pinecone"}
	assert.ErrorIs(t, cfg.Validate(), vectorstore.ErrInvalidConfig)

	cfg = vectorstore.Config{
		Provider: vectorstore.ProviderChromem,
		Chromem:  vectorstore.ChromemConfig{Path: "/tmp/x", Collection: "products", VectorSize: 768},
	}
	assert.NoError(t, cfg.Validate())
}
