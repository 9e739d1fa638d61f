// Package agents implements the four-step answer pipeline: intent
// extraction, vector retrieval, candidate filtering, and response
// generation. Each step forwards work to a hosted service and reshapes
// the reply; there is no state carried between requests.
package agents

import (
	"github.com/fyrsmithlabs/shopd/internal/vectorstore"
)

// Intent is the shopping intent inferred from a query. It lives for a
// single request and is never persisted.
type Intent struct {
	// Categories are valid catalog category identifiers, best first.
	Categories []string `json:"categories"`

	// Budget is the detected price ceiling, nil when none was mentioned.
	Budget *float64 `json:"budget,omitempty"`
}

// ScoredProduct is a product hit from the vector index with its
// similarity score. It is the structured half of every answer.
type ScoredProduct struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Rating     float64 `json:"rating"`
	ImageURL   string  `json:"image_url,omitempty"`
	ProductURL string  `json:"product_url,omitempty"`
	Score      float32 `json:"score"`
}

// scoredProductFromResult rebuilds a product record from index metadata.
func scoredProductFromResult(r vectorstore.SearchResult) ScoredProduct {
	return ScoredProduct{
		ID:         r.MetaString(vectorstore.MetaID),
		Name:       r.MetaString(vectorstore.MetaName),
		Category:   r.MetaString(vectorstore.MetaCategory),
		Price:      r.Price(),
		Rating:     r.Rating(),
		ImageURL:   r.MetaString(vectorstore.MetaImage),
		ProductURL: r.MetaString(vectorstore.MetaLink),
		Score:      r.Score,
	}
}

// Answer is the pipeline's reply to one query.
type Answer struct {
	// Response is the generated natural-language reply, verbatim from
	// the model including [ITEM] and [FILTER] tags for the UI.
	Response string `json:"response"`

	// DetectedBudget is the effective price ceiling used for retrieval:
	// the request budget when given, otherwise the inferred one.
	DetectedBudget *float64 `json:"detected_budget"`

	// QueriedCategories are the category identifiers retrieval ran
	// against. Empty (not null) when intent found no match.
	QueriedCategories []string `json:"queried_categories"`

	// Products is the model-selected subset of retrieved candidates.
	Products []ScoredProduct `json:"products"`
}
