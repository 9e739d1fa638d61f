package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

func newTestAssistant(t *testing.T, client *fakeLLM, store *fakeStore) *Assistant {
	t.Helper()

	cat := testCatalog(t)
	pm := testPrompts(t)
	t.Cleanup(func() { pm.Close() })

	logger := zap.NewNop()
	return NewAssistant(
		NewIntentAgent(client, pm, cat, logger),
		NewRetrievalAgent(store, 18, logger),
		NewResponseAgent(client, pm, cat, logger),
		logger,
	)
}

func TestAssistantGenerate(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"budget": 2000, "categories": ["Electronics"]}`,
		"Try this!\n[ITEM]\nNAME: Smart Watch\n[/ITEM]",
	}}
	store := &fakeStore{byCategory: map[string][]vectorstore.SearchResult{
		"Electronics": {
			searchResult("B002", "Smart Watch", "Electronics", 1999, 4.0, 0.91),
		},
	}}

	assistant := newTestAssistant(t, client, store)
	answer, err := assistant.Generate(context.Background(), "a watch under 2000", nil)
	require.NoError(t, err)

	assert.Contains(t, answer.Response, "[ITEM]")
	assert.Equal(t, []string{"Electronics"}, answer.QueriedCategories)
	require.NotNil(t, answer.DetectedBudget)
	assert.Equal(t, 2000.0, *answer.DetectedBudget)
	require.Len(t, answer.Products, 1)
	assert.Equal(t, "B002", answer.Products[0].ID)

	// Retrieval carried the detected budget to the store.
	require.Len(t, store.filters, 1)
	assert.Equal(t, 2000.0, store.filters[0][vectorstore.FilterMaxPrice])
}

func TestAssistantGenerateRequestBudgetWins(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"budget": 2000, "categories": ["Electronics"]}`,
		"Nothing to suggest.",
	}}
	store := &fakeStore{byCategory: map[string][]vectorstore.SearchResult{}}

	assistant := newTestAssistant(t, client, store)
	answer, err := assistant.Generate(context.Background(), "a watch", floatPtr(500))
	require.NoError(t, err)

	require.NotNil(t, answer.DetectedBudget)
	assert.Equal(t, 500.0, *answer.DetectedBudget)
	assert.Equal(t, 500.0, store.filters[0][vectorstore.FilterMaxPrice])
}

func TestAssistantGenerateEmptyIntent(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"budget": null, "categories": []}`,
		"We only carry electronics, cables and kitchen gear, sorry!",
	}}
	store := &fakeStore{}

	assistant := newTestAssistant(t, client, store)
	answer, err := assistant.Generate(context.Background(), "a submarine", nil)
	require.NoError(t, err)

	assert.NotNil(t, answer.QueriedCategories, "queried_categories serializes as [], never null")
	assert.Empty(t, answer.QueriedCategories)
	assert.NotNil(t, answer.Products)
	assert.Empty(t, answer.Products)
	assert.Nil(t, answer.DetectedBudget)
	assert.Empty(t, store.filters, "no categories, no store queries")
}

func TestAssistantGenerateRetrievalError(t *testing.T) {
	client := &fakeLLM{replies: []string{
		`{"budget": null, "categories": ["Electronics"]}`,
	}}
	store := &fakeStore{err: vectorstore.ErrEmbeddingFailed}

	assistant := newTestAssistant(t, client, store)
	_, err := assistant.Generate(context.Background(), "a watch", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrEmbeddingFailed)
}
