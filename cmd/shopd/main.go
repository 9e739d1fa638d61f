// Shopd is a retrieval-augmented product search assistant.
//
// It loads a product catalog from CSV, indexes it into a vector store,
// and answers natural-language shopping queries over HTTP by combining
// LLM intent extraction, vector retrieval, and LLM response generation.
//
// Configuration is loaded from a YAML file and environment variables.
// See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	shopd
//
//	# Configure via flags and environment
//	GEMINI_API_KEY=... shopd -config ./config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/agents"
	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/config"
	"github.com/fyrsmithlabs/shopd/internal/embeddings"
	shopdhttp "github.com/fyrsmithlabs/shopd/internal/http"
	"github.com/fyrsmithlabs/shopd/internal/llm"
	"github.com/fyrsmithlabs/shopd/internal/logging"
	"github.com/fyrsmithlabs/shopd/internal/prompts"
	"github.com/fyrsmithlabs/shopd/internal/telemetry"
	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  shopd           Start the shopd server\n")
			fmt.Fprintf(os.Stderr, "  shopd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Local development credentials; missing .env is fine.
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("shopd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the shopd server and blocks until context is cancelled.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize logger and telemetry
//  3. Load catalog, connect embedding provider and vector store
//  4. Ensure the product index is built
//  5. Wire prompt manager and agent pipeline
//  6. Start HTTP server
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting shopd",
		zap.Int("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.Path),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	tel, err := telemetry.New(ctx, cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()
	logger = logging.WithOTEL(logger, tel.LoggerProvider())

	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info("Dependencies initialized",
		zap.Int("products", deps.catalog.Len()),
		zap.String("embedding_model", cfg.Embeddings.Model))

	svcs, err := initServices(ctx, cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	srv, err := shopdhttp.NewServer(
		svcs.assistant,
		svcs.retrieval,
		deps.indexer,
		deps.catalog,
		logger,
		&shopdhttp.Config{Port: cfg.Server.Port},
	)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// dependencies holds infrastructure dependencies.
type dependencies struct {
	catalog  *catalog.Catalog
	embedder *embeddings.Service
	store    vectorstore.Store
	indexer  *vectorstore.Indexer
	logger   *zap.Logger
}

// Close releases infrastructure resources.
func (d *dependencies) Close() {
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("vector store close failed", zap.Error(err))
		}
	}
}

// services holds the agent pipeline.
type services struct {
	prompts   *prompts.Manager
	assistant *agents.Assistant
	retrieval *agents.RetrievalAgent
}

// Close releases service resources.
func (s *services) Close() {
	if s.prompts != nil {
		_ = s.prompts.Close()
	}
}

// initDependencies loads the catalog, connects the embedding provider and
// vector store, and ensures the product index is built.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	cat, err := catalog.Load(cfg.Catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	logger.Info("Catalog loaded",
		zap.Int("products", cat.Len()),
		zap.Int("categories", len(cat.Categories())))

	embedder, err := embeddings.NewService(ctx, cfg.Embeddings)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	indexer := vectorstore.NewIndexer(store, cat, cfg.Retrieval.RebuildBatchSize, logger)
	if err := indexer.EnsureBuilt(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build product index: %w", err)
	}

	return &dependencies{
		catalog:  cat,
		embedder: embedder,
		store:    store,
		indexer:  indexer,
		logger:   logger,
	}, nil
}

// initServices wires the prompt manager and agent pipeline.
func initServices(ctx context.Context, cfg *config.Config, deps *dependencies, logger *zap.Logger) (*services, error) {
	pm, err := prompts.NewManager(cfg.Prompts.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	if cfg.Prompts.Watch {
		if err := pm.Watch(); err != nil {
			logger.Warn("prompt watching disabled", zap.Error(err))
		}
	}

	llmClient, err := llm.NewService(ctx, cfg.LLM)
	if err != nil {
		_ = pm.Close()
		return nil, fmt.Errorf("failed to create llm service: %w", err)
	}

	intentAgent := agents.NewIntentAgent(llmClient, pm, deps.catalog, logger)
	retrievalAgent := agents.NewRetrievalAgent(deps.store, cfg.Retrieval.PerCategoryLimit, logger)
	responseAgent := agents.NewResponseAgent(llmClient, pm, deps.catalog, logger)
	assistant := agents.NewAssistant(intentAgent, retrievalAgent, responseAgent, logger)

	return &services{
		prompts:   pm,
		assistant: assistant,
		retrieval: retrievalAgent,
	}, nil
}
