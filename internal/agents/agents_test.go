package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/prompts"
	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// fakeLLM returns canned replies in order, or an error.
type fakeLLM struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[f.calls%len(f.replies)]
	f.calls++
	return reply, nil
}

// fakeStore returns canned search results per category filter.
type fakeStore struct {
	byCategory map[string][]vectorstore.SearchResult
	err        error
	filters    []map[string]interface{}
}

func (f *fakeStore) AddDocuments(context.Context, []vectorstore.Document) ([]string, error) {
	return nil, nil
}

func (f *fakeStore) Search(ctx context.Context, query string, k int) ([]vectorstore.SearchResult, error) {
	return f.SearchWithFilters(ctx, query, k, nil)
}

func (f *fakeStore) SearchWithFilters(_ context.Context, _ string, k int, filters map[string]interface{}) ([]vectorstore.SearchResult, error) {
	f.filters = append(f.filters, filters)
	if f.err != nil {
		return nil, f.err
	}
	category, _ := filters[vectorstore.MetaCategory].(string)
	results := f.byCategory[category]
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (f *fakeStore) Count(context.Context) (int, error)                    { return 0, nil }
func (f *fakeStore) Reset(context.Context) error                          { return nil }
func (f *fakeStore) Info(context.Context) (*vectorstore.CollectionInfo, error) { return nil, nil }
func (f *fakeStore) Close() error                                         { return nil }

var _ vectorstore.Store = (*fakeStore)(nil)

// testCatalog loads a small three-category catalog.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	csv := "product_id,product_name,category,actual_price,rating,about_product,img_link,product_link\n" +
		"B001,USB-C Cable,Computers&Accessories|Cables,₹399,4.2,Braided cable.,https://img/1.jpg,https://shop/1\n" +
		"B002,Smart Watch,Electronics|Wearables,\"₹1,999\",4.0,Fitness tracking.,https://img/2.jpg,https://shop/2\n" +
		"B003,Blender,Home&Kitchen|Appliances,₹899,4.5,Kitchen blender.,https://img/3.jpg,https://shop/3\n"

	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cat, err := catalog.Load(catalog.LoaderConfig{Path: path}, zap.NewNop())
	require.NoError(t, err)
	return cat
}

// testPrompts creates a manager over minimal templates that echo their
// variables, so tests can assert on what reached the model.
func testPrompts(t *testing.T) *prompts.Manager {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		prompts.PromptIntentAnalysis:     "QUERY: {{.query}}\nCATEGORIES:\n{{.available_categories}}",
		prompts.PromptResponseGeneration: "QUERY: {{.query}}{{.budget_info}}\nCATEGORY: {{.relevant_category_name}}\nSTOCK:\n{{.context}}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".tmpl"), []byte(content), 0o644))
	}

	m, err := prompts.NewManager(dir, zap.NewNop())
	require.NoError(t, err)
	return m
}

func searchResult(id, name, category string, price, rating float64, score float32) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		ID:      id,
		Content: fmt.Sprintf("%s description", name),
		Score:   score,
		Metadata: map[string]interface{}{
			vectorstore.MetaID:       id,
			vectorstore.MetaName:     name,
			vectorstore.MetaCategory: category,
			vectorstore.MetaPrice:    price,
			vectorstore.MetaRating:   rating,
			vectorstore.MetaImage:    "https://img/" + id + ".jpg",
			vectorstore.MetaLink:     "https://shop/" + id,
		},
	}
}

func floatPtr(v float64) *float64 { return &v }
