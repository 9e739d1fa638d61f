package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testCatalog builds a catalog with n products in the Electronics
// category plus one Home&Kitchen product.
func testCatalog(t *testing.T, n int) *Catalog {
	t.Helper()

	products := make([]Product, 0, n+1)
	for i := 1; i <= n; i++ {
		products = append(products, Product{
			ID:       fmt.Sprintf("E%03d", i),
			Name:     fmt.Sprintf("Gadget %d", i),
			Category: "Electronics",
			Price:    float64(i * 100),
			Rating:   4.0,
		})
	}
	products = append(products, Product{
		ID:       "H001",
		Name:     "Blender",
		Category: "Home&Kitchen",
		Price:    899,
		Rating:   4.5,
	})

	cfg := LoaderConfig{Path: "test.csv"}
	cfg.ApplyDefaults()
	return newCatalog(products, cfg, zap.NewNop())
}

func TestProductsByCategory(t *testing.T) {
	cat := testCatalog(t, 45)

	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantCount  int
		wantPage   int
		wantPages  int
		wantFirst  string
	}{
		{name: "first page default size", page: 1, pageSize: 20, wantCount: 20, wantPage: 1, wantPages: 3, wantFirst: "E001"},
		{name: "middle page", page: 2, pageSize: 20, wantCount: 20, wantPage: 2, wantPages: 3, wantFirst: "E021"},
		{name: "last partial page", page: 3, pageSize: 20, wantCount: 5, wantPage: 3, wantPages: 3, wantFirst: "E041"},
		{name: "out of range page is empty", page: 9, pageSize: 20, wantCount: 0, wantPage: 9, wantPages: 3},
		{name: "zero page clamps to first", page: 0, pageSize: 20, wantCount: 20, wantPage: 1, wantPages: 3, wantFirst: "E001"},
		{name: "zero page size uses default", page: 1, pageSize: 0, wantCount: DefaultPageSize, wantPage: 1, wantPages: 3, wantFirst: "E001"},
		{name: "oversized page size capped", page: 1, pageSize: 500, wantCount: 45, wantPage: 1, wantPages: 1, wantFirst: "E001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := cat.ProductsByCategory("Electronics", tt.page, tt.pageSize)
			require.NoError(t, err)

			assert.Len(t, page.Products, tt.wantCount)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, 45, page.TotalProducts)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Products[0].ID)
			}
		})
	}
}

func TestProductsByCategoryUnknown(t *testing.T) {
	cat := testCatalog(t, 3)

	_, err := cat.ProductsByCategory("Toys", 1, 20)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategories(t *testing.T) {
	cat := testCatalog(t, 3)

	assert.Equal(t, []string{"Electronics", "Home&Kitchen"}, cat.Categories())
	assert.True(t, cat.HasCategory("Electronics"))
	assert.False(t, cat.HasCategory("Toys"))
}

func TestCategoriesWithNames(t *testing.T) {
	cat := testCatalog(t, 1)

	names := cat.CategoriesWithNames()
	require.Len(t, names, 2)
	assert.Equal(t, CategoryName{ID: "Electronics", Name: "Electronics"}, names[0])
	assert.Equal(t, CategoryName{ID: "Home&Kitchen", Name: "Home & Kitchen"}, names[1])
}

func TestCategoryPromptList(t *testing.T) {
	cat := testCatalog(t, 1)

	list := cat.CategoryPromptList()
	assert.Contains(t, list, "Electronics: Electronics\n")
	assert.Contains(t, list, "Home&Kitchen: Home & Kitchen\n")
}

func TestSummary(t *testing.T) {
	cat := testCatalog(t, 10)

	t.Run("limits entries", func(t *testing.T) {
		summary := cat.Summary("Electronics", 3, 0)
		assert.Equal(t, 3, strings.Count(summary, "- Gadget"))
	})

	t.Run("price ceiling filters", func(t *testing.T) {
		summary := cat.Summary("Electronics", 18, 250)
		assert.Contains(t, summary, "Gadget 1")
		assert.Contains(t, summary, "Gadget 2")
		assert.NotContains(t, summary, "Gadget 3")
	})

	t.Run("unknown category empty", func(t *testing.T) {
		assert.Empty(t, cat.Summary("Toys", 18, 0))
	})

	t.Run("nothing within budget empty", func(t *testing.T) {
		assert.Empty(t, cat.Summary("Electronics", 18, 1))
	})
}

func TestFormatPriceUsesCurrency(t *testing.T) {
	cat := testCatalog(t, 1)
	assert.Equal(t, "R$ 899.00", cat.FormatPrice(899))
}
