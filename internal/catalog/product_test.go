package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "rupee symbol with thousands separator", raw: "₹1,099", want: 1099},
		{name: "currency prefix with decimals", raw: "R$ 59.90", want: 59.90},
		{name: "plain number", raw: "499", want: 499},
		{name: "decimal number", raw: "399.99", want: 399.99},
		{name: "empty string", raw: "", want: 0},
		{name: "no digits", raw: "n/a", want: 0},
		{name: "multiple dots unparseable", raw: "1.2.3", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.raw))
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "ampersand padded", id: "Computers&Accessories", want: "Computers & Accessories"},
		{name: "camel case split", id: "HomeImprovement", want: "Home Improvement"},
		{name: "single word unchanged", id: "Electronics", want: "Electronics"},
		{name: "camel case with ampersand", id: "Health&PersonalCare", want: "Health & Personal Care"},
		{name: "empty string", id: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.id))
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$ 59.90", FormatPrice("R$", 59.9))
	assert.Equal(t, "$ 1099.00", FormatPrice("$", 1099))
}

func TestProductEmbeddingText(t *testing.T) {
	p := Product{
		Name:        "USB-C Cable",
		RawCategory: "Computers&Accessories|Accessories|Cables",
		Description: "Braided fast-charging cable.",
	}

	text := p.EmbeddingText()
	assert.Contains(t, text, "USB-C Cable")
	assert.Contains(t, text, "Category: Computers&Accessories > Accessories > Cables")
	assert.Contains(t, text, "Braided fast-charging cable.")
}

func TestProductEmbeddingTextMinimal(t *testing.T) {
	p := Product{Name: "Bare Product"}
	assert.Equal(t, "Bare Product", p.EmbeddingText())
}
