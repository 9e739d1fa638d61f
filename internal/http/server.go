// Package http provides the HTTP API for shopd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/agents"
	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/llm"
	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// Search limits for GET /vector-store/search.
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Assistant answers shopping queries end to end.
type Assistant interface {
	Generate(ctx context.Context, query string, budget *float64) (agents.Answer, error)
}

// Searcher runs direct vector store queries.
type Searcher interface {
	Search(ctx context.Context, query, category string, limit int) ([]agents.ScoredProduct, error)
}

// Rebuilder rebuilds the product index.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*vectorstore.RebuildResult, error)
}

// Server provides HTTP endpoints for shopd.
type Server struct {
	echo      *echo.Echo
	assistant Assistant
	searcher  Searcher
	rebuilder Rebuilder
	catalog   *catalog.Catalog
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(assistant Assistant, searcher Searcher, rebuilder Rebuilder, cat *catalog.Catalog, logger *zap.Logger, cfg *Config) (*Server, error) {
	if assistant == nil {
		return nil, fmt.Errorf("assistant cannot be nil")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher cannot be nil")
	}
	if rebuilder == nil {
		return nil, fmt.Errorf("rebuilder cannot be nil")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Port: 8000}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(metricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		assistant: assistant,
		searcher:  searcher,
		rebuilder: rebuilder,
		catalog:   cat,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/generate", s.handleGenerate)
	s.echo.GET("/vector-store/search", s.handleSearch)
	s.echo.POST("/vector-store/rebuild", s.handleRebuild)
	s.echo.GET("/categories", s.handleCategories)
	s.echo.GET("/products/:category", s.handleProducts)
}

// GenerateRequest is the request body for POST /generate.
type GenerateRequest struct {
	Prompt string   `json:"prompt"`
	Budget *float64 `json:"budget,omitempty"`
}

// SearchResponse is the response body for GET /vector-store/search.
type SearchResponse struct {
	Query    string                 `json:"query"`
	Category string                 `json:"category,omitempty"`
	Results  []agents.ScoredProduct `json:"results"`
}

// RebuildResponse is the response body for POST /vector-store/rebuild.
type RebuildResponse struct {
	Status    string  `json:"status"`
	ID        string  `json:"id"`
	Documents int     `json:"documents"`
	Seconds   float64 `json:"seconds"`
}

// CategoriesResponse is the response body for GET /categories.
type CategoriesResponse struct {
	Categories []catalog.CategoryName `json:"categories"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// RootResponse is the response body for GET /.
type RootResponse struct {
	Service  string `json:"service"`
	Products int    `json:"products"`
}

// handleRoot describes the service.
func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Service:  "shopd",
		Products: s.catalog.Len(),
	})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleGenerate answers a natural-language shopping query.
func (s *Server) handleGenerate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid generate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Prompt == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "prompt field is required")
	}
	// A zero or negative budget means "no budget": the pipeline falls back
	// to whatever ceiling intent analysis detects in the query text.
	if req.Budget != nil && *req.Budget <= 0 {
		req.Budget = nil
	}

	answer, err := s.assistant.Generate(c.Request().Context(), req.Prompt, req.Budget)
	if err != nil {
		return s.upstreamError(c, "generate failed", err)
	}

	return c.JSON(http.StatusOK, answer)
}

// handleSearch runs a direct vector store query.
func (s *Server) handleSearch(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter is required")
	}

	category := c.QueryParam("category")
	if category != "" && !s.catalog.HasCategory(category) {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown category: %s", category))
	}

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, err := s.searcher.Search(c.Request().Context(), query, category, limit)
	if err != nil {
		return s.upstreamError(c, "search failed", err)
	}
	if results == nil {
		results = []agents.ScoredProduct{}
	}

	return c.JSON(http.StatusOK, SearchResponse{
		Query:    query,
		Category: category,
		Results:  results,
	})
}

// handleRebuild re-indexes the whole catalog.
func (s *Server) handleRebuild(c echo.Context) error {
	result, err := s.rebuilder.Rebuild(c.Request().Context())
	if err != nil {
		if errors.Is(err, vectorstore.ErrRebuildInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "rebuild already in progress")
		}
		return s.upstreamError(c, "rebuild failed", err)
	}

	return c.JSON(http.StatusOK, RebuildResponse{
		Status:    "ok",
		ID:        result.ID,
		Documents: result.Documents,
		Seconds:   result.Duration.Seconds(),
	})
}

// handleCategories lists catalog categories with display names.
func (s *Server) handleCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, CategoriesResponse{
		Categories: s.catalog.CategoriesWithNames(),
	})
}

// handleProducts returns one page of a category's products.
func (s *Server) handleProducts(c echo.Context) error {
	category := c.Param("category")

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "page must be a positive integer")
		}
		page = parsed
	}

	pageSize := catalog.DefaultPageSize
	if raw := c.QueryParam("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "page_size must be a positive integer")
		}
		pageSize = parsed
	}

	result, err := s.catalog.ProductsByCategory(category, page, pageSize)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown category: %s", category))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "listing products failed")
	}

	return c.JSON(http.StatusOK, result)
}

// upstreamError maps pipeline failures onto HTTP status codes. Embedding
// and model transport failures are the caller-visible 502 case; anything
// else is a plain 500.
func (s *Server) upstreamError(c echo.Context, msg string, err error) error {
	s.logger.Error(msg,
		zap.Error(err),
		zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
	if errors.Is(err, vectorstore.ErrEmbeddingFailed) ||
		errors.Is(err, vectorstore.ErrConnectionFailed) ||
		errors.Is(err, llm.ErrGenerationFailed) {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream provider unavailable")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msg)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
