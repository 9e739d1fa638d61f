package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrCategoryNotFound is returned when a category identifier is unknown.
var ErrCategoryNotFound = errors.New("category not found")

// Pagination bounds for ProductsByCategory.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CategoryName pairs a category identifier with its display name.
type CategoryName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Page is one page of products for a category.
type Page struct {
	Products      []Product `json:"products"`
	Page          int       `json:"page"`
	PageSize      int       `json:"page_size"`
	TotalPages    int       `json:"total_pages"`
	TotalProducts int       `json:"total_products"`
}

// Catalog is the in-memory product catalog. It is read-only after Load,
// so concurrent reads need no locking.
type Catalog struct {
	products   []Product
	byID       map[string]*Product
	byCategory map[string][]*Product
	categories []string
	names      map[string]string
	currency   string
	logger     *zap.Logger
}

func newCatalog(products []Product, cfg LoaderConfig, logger *zap.Logger) *Catalog {
	c := &Catalog{
		products:   products,
		byID:       make(map[string]*Product, len(products)),
		byCategory: make(map[string][]*Product),
		names:      make(map[string]string),
		currency:   cfg.CurrencySymbol,
		logger:     logger,
	}

	for i := range products {
		p := &products[i]
		c.byID[p.ID] = p
		c.byCategory[p.Category] = append(c.byCategory[p.Category], p)
	}

	for id := range c.byCategory {
		c.categories = append(c.categories, id)
		if override, ok := cfg.CategoryNames[id]; ok {
			c.names[id] = override
		} else {
			c.names[id] = DisplayName(id)
		}
	}
	sort.Strings(c.categories)

	return c
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.products)
}

// All returns every product in load order. The returned slice is shared;
// callers must not mutate it.
func (c *Catalog) All() []Product {
	return c.products
}

// ByID looks up a product by its identifier.
func (c *Catalog) ByID(id string) (*Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Categories returns all category identifiers, sorted.
func (c *Catalog) Categories() []string {
	return c.categories
}

// HasCategory reports whether the category identifier exists.
func (c *Catalog) HasCategory(id string) bool {
	_, ok := c.byCategory[id]
	return ok
}

// CategoryName returns the display name for a category identifier.
// Unknown identifiers fall back to the derived display name.
func (c *Catalog) CategoryName(id string) string {
	if name, ok := c.names[id]; ok {
		return name
	}
	return DisplayName(id)
}

// CategoriesWithNames returns all categories with display names, sorted by id.
func (c *Catalog) CategoriesWithNames() []CategoryName {
	out := make([]CategoryName, 0, len(c.categories))
	for _, id := range c.categories {
		out = append(out, CategoryName{ID: id, Name: c.names[id]})
	}
	return out
}

// CategoryPromptList renders "id: name" lines for the intent prompt,
// so the model maps user language onto real category identifiers.
func (c *Catalog) CategoryPromptList() string {
	var b strings.Builder
	for _, id := range c.categories {
		fmt.Fprintf(&b, "%s: %s\n", id, c.names[id])
	}
	return b.String()
}

// FormatPrice renders a price with the catalog's currency symbol.
func (c *Catalog) FormatPrice(price float64) string {
	return FormatPrice(c.currency, price)
}

// ProductsByCategory returns one page of the category's products.
//
// page is 1-based; out-of-range pages return an empty product list with
// correct totals. pageSize falls back to DefaultPageSize when zero or
// negative and is capped at MaxPageSize.
func (c *Catalog) ProductsByCategory(category string, page, pageSize int) (*Page, error) {
	items, ok := c.byCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, category)
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	products := make([]Product, 0, end-start)
	for _, p := range items[start:end] {
		products = append(products, *p)
	}

	return &Page{
		Products:      products,
		Page:          page,
		PageSize:      pageSize,
		TotalPages:    totalPages,
		TotalProducts: total,
	}, nil
}

// Summary renders a compact stock overview for a category, used as LLM
// context during response generation. At most limit products are listed;
// maxPrice > 0 filters out products above the ceiling.
func (c *Catalog) Summary(category string, limit int, maxPrice float64) string {
	items, ok := c.byCategory[category]
	if !ok {
		return ""
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Category %s (%s):\n", c.names[category], category)

	count := 0
	for _, p := range items {
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		fmt.Fprintf(&b, "- %s | price: %s | rating: %.1f | image: %s\n",
			p.Name, c.FormatPrice(p.Price), p.Rating, p.ImageURL)
		count++
		if count >= limit {
			break
		}
	}
	if count == 0 {
		return ""
	}
	return b.String()
}
