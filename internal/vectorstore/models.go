package vectorstore

// Metadata keys stored alongside each product document.
const (
	MetaID       = "id"
	MetaName     = "name"
	MetaCategory = "category"
	MetaPrice    = "price"
	MetaRating   = "rating"
	MetaImage    = "image_url"
	MetaLink     = "product_url"
)

// Document represents a document to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document (the product id).
	ID string

	// Content is the text that gets embedded.
	Content string

	// Metadata contains key-value pairs for filtering and for rebuilding
	// product records from search hits. See the Meta* constants.
	Metadata map[string]interface{}
}

// SearchResult represents a search result from the vector store.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the document text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the document metadata.
	Metadata map[string]interface{}
}

// Price returns the numeric price from result metadata, or 0 when absent
// or unparseable.
func (r *SearchResult) Price() float64 {
	return metadataFloat(r.Metadata, MetaPrice)
}

// Rating returns the numeric rating from result metadata, or 0.
func (r *SearchResult) Rating() float64 {
	return metadataFloat(r.Metadata, MetaRating)
}

// MetaString returns a string metadata value, or "" when absent.
func (r *SearchResult) MetaString(key string) string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata[key].(string); ok {
		return s
	}
	return ""
}
