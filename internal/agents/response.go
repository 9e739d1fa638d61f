package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/llm"
	"github.com/fyrsmithlabs/shopd/internal/prompts"
)

// nothingFoundMarker tells the response prompt no stock matched.
const nothingFoundMarker = "NOTHING_FOUND"

// itemBlockPattern extracts [ITEM]...[/ITEM] blocks from the reply.
var itemBlockPattern = regexp.MustCompile(`(?s)\[ITEM\](.*?)\[/ITEM\]`)

// itemNamePattern extracts the NAME line inside an item block.
var itemNamePattern = regexp.MustCompile(`(?m)^\s*NAME:\s*(.+?)\s*$`)

// ResponseAgent sends retrieved candidates back to the model to select a
// final subset and produce the natural-language reply.
type ResponseAgent struct {
	llm     llm.Client
	prompts *prompts.Manager
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewResponseAgent creates a response agent.
func NewResponseAgent(client llm.Client, pm *prompts.Manager, cat *catalog.Catalog, logger *zap.Logger) *ResponseAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResponseAgent{
		llm:     client,
		prompts: pm,
		catalog: cat,
		logger:  logger,
	}
}

// Respond generates the final reply for the query given the retrieved
// candidates. It returns the model's prose verbatim plus the structured
// subset of candidates the model selected via [ITEM] tags.
func (a *ResponseAgent) Respond(ctx context.Context, query string, intent Intent, budget *float64, candidates []ScoredProduct) (string, []ScoredProduct, error) {
	budgetInfo := ""
	if budget != nil && *budget > 0 {
		budgetInfo = fmt.Sprintf(" (with a budget of up to %s)", a.catalog.FormatPrice(*budget))
	}

	categoryName := "our categories"
	if len(intent.Categories) > 0 {
		categoryName = a.catalog.CategoryName(intent.Categories[0])
	}

	prompt, err := a.prompts.Render(prompts.PromptResponseGeneration, map[string]any{
		"query":                  query,
		"context":                a.buildContext(intent, budget, candidates),
		"budget_info":            budgetInfo,
		"relevant_category_name": categoryName,
	})
	if err != nil {
		return "", nil, fmt.Errorf("rendering response prompt: %w", err)
	}

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("generating response: %w", err)
	}

	selected := a.matchSelectedProducts(reply, candidates)

	a.logger.Debug("response generated",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
	)

	return reply, selected, nil
}

// buildContext renders the retrieved candidates as the stock block the
// response prompt consumes. When retrieval came back empty but intent
// named categories, a catalog overview of those categories stands in so
// the model can still point at in-budget stock.
func (a *ResponseAgent) buildContext(intent Intent, budget *float64, candidates []ScoredProduct) string {
	if len(candidates) > 0 {
		var b strings.Builder
		for _, p := range candidates {
			fmt.Fprintf(&b, "- %s | price: %s | rating: %.1f | image: %s\n",
				p.Name, a.catalog.FormatPrice(p.Price), p.Rating, p.ImageURL)
		}
		return b.String()
	}

	ceiling := 0.0
	if budget != nil {
		ceiling = *budget
	}
	var b strings.Builder
	for _, category := range intent.Categories {
		b.WriteString(a.catalog.Summary(category, defaultPerCategoryLimit, ceiling))
	}
	if b.Len() == 0 {
		return nothingFoundMarker
	}
	return b.String()
}

// matchSelectedProducts maps the NAME lines of [ITEM] blocks back onto
// the candidate list. Names the model invented are dropped: the
// structured payload only ever contains real catalog products.
func (a *ResponseAgent) matchSelectedProducts(reply string, candidates []ScoredProduct) []ScoredProduct {
	blocks := itemBlockPattern.FindAllStringSubmatch(reply, -1)
	if len(blocks) == 0 {
		return nil
	}

	byName := make(map[string]ScoredProduct, len(candidates))
	for _, p := range candidates {
		byName[normalizeName(p.Name)] = p
	}

	var selected []ScoredProduct
	seen := make(map[string]bool)

	for _, block := range blocks {
		nameMatch := itemNamePattern.FindStringSubmatch(block[1])
		if nameMatch == nil {
			continue
		}
		name := normalizeName(nameMatch[1])

		p, ok := byName[name]
		if !ok {
			p, ok = a.fuzzyMatch(name, candidates)
		}
		if !ok {
			a.logger.Debug("response listed unknown product", zap.String("name", nameMatch[1]))
			continue
		}
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		selected = append(selected, p)
	}

	return selected
}

// fuzzyMatch resolves truncated names: models routinely shorten the long
// marketplace titles in this catalog.
func (a *ResponseAgent) fuzzyMatch(name string, candidates []ScoredProduct) (ScoredProduct, bool) {
	for _, p := range candidates {
		candidateName := normalizeName(p.Name)
		if strings.HasPrefix(candidateName, name) || strings.HasPrefix(name, candidateName) {
			return p, true
		}
	}
	return ScoredProduct{}, false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
