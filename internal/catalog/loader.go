package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Sentinel errors for catalog loading.
var (
	// ErrNoProducts is returned when the CSV contains no data rows.
	ErrNoProducts = errors.New("catalog contains no products")

	// ErrMissingColumn is returned when a required CSV column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// Required CSV columns. Everything else lands in Product.Extra.
var requiredColumns = []string{"product_id", "product_name", "category"}

// mappedColumns are the columns parsed into dedicated Product fields.
var mappedColumns = map[string]bool{
	"product_id":          true,
	"product_name":        true,
	"category":            true,
	"actual_price":        true,
	"discounted_price":    true,
	"rating":              true,
	"rating_count":        true,
	"about_product":       true,
	"img_link":            true,
	"product_link":        true,
}

// LoaderConfig configures catalog loading.
type LoaderConfig struct {
	// Path is the CSV file to load.
	Path string `koanf:"path"`

	// PriceRate converts catalog prices into the display currency.
	// Default: 1.0 (no conversion).
	PriceRate float64 `koanf:"price_rate"`

	// CurrencySymbol prefixes formatted prices. Default: "R$".
	CurrencySymbol string `koanf:"currency_symbol"`

	// CategoryNames overrides derived display names, keyed by category id.
	CategoryNames map[string]string `koanf:"category_names"`
}

// ApplyDefaults sets default values for unset fields.
func (c *LoaderConfig) ApplyDefaults() {
	if c.PriceRate == 0 {
		c.PriceRate = 1.0
	}
	if c.CurrencySymbol == "" {
		c.CurrencySymbol = "R$"
	}
}

// Validate validates the configuration.
func (c *LoaderConfig) Validate() error {
	if c.Path == "" {
		return errors.New("catalog path required")
	}
	if c.PriceRate < 0 {
		return fmt.Errorf("price rate must be positive, got %f", c.PriceRate)
	}
	return nil
}

// Load reads the catalog CSV at cfg.Path into an immutable Catalog.
//
// Rows missing an id or name are skipped with a warning. Prices that fail
// to parse become 0 rather than aborting the load; a ~5,500 row hobby
// dataset is full of stray currency strings.
func Load(cfg LoaderConfig, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", cfg.Path, err)
	}
	defer f.Close()

	products, err := parseCSV(f, cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	cat := newCatalog(products, cfg, logger)

	logger.Info("catalog loaded",
		zap.String("path", cfg.Path),
		zap.Int("products", len(products)),
		zap.Int("categories", len(cat.categories)),
	)

	return cat, nil
}

// parseCSV decodes the catalog rows from r.
func parseCSV(r io.Reader, cfg LoaderConfig, logger *zap.Logger) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range requiredColumns {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var products []Product
	seen := make(map[string]bool)
	line := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.Warn("skipping malformed csv row", zap.Int("line", line), zap.Error(err))
			continue
		}

		id := field(row, "product_id")
		name := field(row, "product_name")
		if id == "" || name == "" {
			logger.Warn("skipping row without id or name", zap.Int("line", line))
			continue
		}
		if seen[id] {
			// The source dataset repeats products per review row.
			continue
		}
		seen[id] = true

		rawCategory := field(row, "category")
		category := rawCategory
		if idx := strings.IndexByte(rawCategory, '|'); idx >= 0 {
			category = rawCategory[:idx]
		}

		rating, _ := strconv.ParseFloat(field(row, "rating"), 64)
		ratingCount := int(ParsePrice(field(row, "rating_count")))

		p := Product{
			ID:              id,
			Name:            name,
			Category:        category,
			RawCategory:     rawCategory,
			Price:           ParsePrice(field(row, "actual_price")) * cfg.PriceRate,
			DiscountedPrice: ParsePrice(field(row, "discounted_price")) * cfg.PriceRate,
			Rating:          rating,
			RatingCount:     ratingCount,
			Description:     field(row, "about_product"),
			ImageURL:        field(row, "img_link"),
			ProductURL:      field(row, "product_link"),
		}

		for colName, idx := range cols {
			if mappedColumns[colName] || idx >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[idx]); v != "" {
				if p.Extra == nil {
					p.Extra = make(map[string]string)
				}
				p.Extra[colName] = v
			}
		}

		products = append(products, p)
	}

	return products, nil
}
