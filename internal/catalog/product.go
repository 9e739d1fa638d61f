// Package catalog loads the product catalog from CSV and exposes
// category lookup, pagination, and LLM context summaries.
package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Product is a single catalog row. Products are immutable once loaded.
type Product struct {
	// ID is the unique product identifier (product_id column).
	ID string `json:"id"`

	// Name is the product display name.
	Name string `json:"name"`

	// Category is the top-level category identifier, derived from the
	// first segment of the raw category path.
	Category string `json:"category"`

	// RawCategory is the full pipe-separated category path from the CSV.
	RawCategory string `json:"raw_category,omitempty"`

	// Price is the listed price (actual_price) after currency conversion.
	Price float64 `json:"price"`

	// DiscountedPrice is the discounted price after currency conversion.
	DiscountedPrice float64 `json:"discounted_price"`

	// Rating is the average review rating (0 when unrated).
	Rating float64 `json:"rating"`

	// RatingCount is the number of reviews behind Rating.
	RatingCount int `json:"rating_count"`

	// Description is the about_product column.
	Description string `json:"description"`

	// ImageURL links to the product image.
	ImageURL string `json:"image_url"`

	// ProductURL links to the product page.
	ProductURL string `json:"product_url"`

	// Extra holds catalog columns not mapped to a dedicated field.
	Extra map[string]string `json:"extra,omitempty"`
}

// EmbeddingText returns the text that represents this product in the
// vector index: name, category path, and description.
func (p *Product) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(p.Name)
	if p.RawCategory != "" {
		b.WriteString("\nCategory: ")
		b.WriteString(strings.ReplaceAll(p.RawCategory, "|", " > "))
	}
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.Description)
	}
	return b.String()
}

// ParsePrice parses a raw catalog price string such as "₹1,099" or
// "R$ 59.90" into a float. Currency symbols, spaces, and thousands
// separators are stripped. Returns 0 for empty or unparseable input.
func ParsePrice(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// DisplayName converts a category identifier into a human-readable name.
// Camel-case boundaries become spaces and ampersands are padded, so
// "Computers&Accessories" renders as "Computers & Accessories".
// Overrides from configuration take precedence over this derivation.
func DisplayName(id string) string {
	var b strings.Builder
	runes := []rune(id)
	for i, r := range runes {
		switch {
		case r == '&':
			b.WriteString(" & ")
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FormatPrice renders a converted price with the given currency symbol,
// e.g. FormatPrice("R$", 59.9) -> "R$ 59.90".
func FormatPrice(symbol string, price float64) string {
	return fmt.Sprintf("%s %.2f", symbol, price)
}
