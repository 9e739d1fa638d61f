package vectorstore

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider identifiers for the store factory.
const (
	ProviderChromem = "chromem"
	ProviderQdrant  = "qdrant"
)

// Config selects and configures a store backend.
type Config struct {
	// Provider is "chromem" (default, embedded) or "qdrant".
	Provider string `koanf:"provider"`

	Chromem ChromemConfig `koanf:"chromem"`
	Qdrant  QdrantConfig  `koanf:"qdrant"`
}

// Validate checks the selected provider's configuration.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderChromem, "":
		return c.Chromem.Validate()
	case ProviderQdrant:
		return c.Qdrant.Validate()
	default:
		return fmt.Errorf("%w: unsupported provider %q (supported: chromem, qdrant)", ErrInvalidConfig, c.Provider)
	}
}

// NewStore creates a Store for the configured provider.
//
// chromem is the default: embedded, persisted to local disk, no external
// service. qdrant requires a reachable Qdrant server and filters prices
// server-side.
func NewStore(cfg Config, embedder Embedder, logger *zap.Logger) (Store, error) {
	switch cfg.Provider {
	case ProviderChromem, "":
		return NewChromemStore(cfg.Chromem, embedder, logger)
	case ProviderQdrant:
		return NewQdrantStore(cfg.Qdrant, embedder, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q (supported: chromem, qdrant)", ErrInvalidConfig, cfg.Provider)
	}
}
