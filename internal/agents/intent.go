package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shopd/internal/catalog"
	"github.com/fyrsmithlabs/shopd/internal/llm"
	"github.com/fyrsmithlabs/shopd/internal/prompts"
)

// maxIntentCategories caps how many inferred categories retrieval will
// fan out to.
const maxIntentCategories = 5

// IntentAgent maps a shopping query onto catalog categories and an
// optional budget by asking the completion model.
type IntentAgent struct {
	llm     llm.Client
	prompts *prompts.Manager
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewIntentAgent creates an intent agent.
func NewIntentAgent(client llm.Client, pm *prompts.Manager, cat *catalog.Catalog, logger *zap.Logger) *IntentAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntentAgent{
		llm:     client,
		prompts: pm,
		catalog: cat,
		logger:  logger,
	}
}

// Analyze infers the query's intent.
//
// A missing prompt template is a configuration error and is returned.
// A failed LLM call or an unparseable reply degrades to the empty
// intent: no categories, no budget, logged but never an error. The
// pipeline still answers; it just has nothing to retrieve.
func (a *IntentAgent) Analyze(ctx context.Context, query string) (Intent, error) {
	prompt, err := a.prompts.Render(prompts.PromptIntentAnalysis, map[string]any{
		"query":                query,
		"available_categories": a.catalog.CategoryPromptList(),
	})
	if err != nil {
		return Intent{}, fmt.Errorf("rendering intent prompt: %w", err)
	}

	reply, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("intent analysis failed, using empty intent",
			zap.String("query", query),
			zap.Error(err),
		)
		return Intent{}, nil
	}

	intent, err := parseIntent(reply)
	if err != nil {
		a.logger.Warn("unparseable intent reply, using empty intent",
			zap.String("query", query),
			zap.String("reply", reply),
			zap.Error(err),
		)
		return Intent{}, nil
	}

	return a.validate(intent), nil
}

// intentPayload is the JSON document the intent prompt asks for.
type intentPayload struct {
	Budget     *float64 `json:"budget"`
	Categories []string `json:"categories"`
}

// parseIntent decodes the model's JSON reply, tolerating markdown code
// fences around the document.
func parseIntent(reply string) (Intent, error) {
	cleaned := stripCodeFences(reply)

	var payload intentPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Intent{}, fmt.Errorf("decoding intent JSON: %w", err)
	}

	return Intent{
		Categories: payload.Categories,
		Budget:     payload.Budget,
	}, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// validate drops unknown categories, dedupes, and caps the fan-out.
// A negative or zero budget is treated as absent.
func (a *IntentAgent) validate(intent Intent) Intent {
	out := Intent{}

	seen := make(map[string]bool, len(intent.Categories))
	for _, id := range intent.Categories {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if !a.catalog.HasCategory(id) {
			a.logger.Debug("intent referenced unknown category", zap.String("category", id))
			continue
		}
		out.Categories = append(out.Categories, id)
		if len(out.Categories) == maxIntentCategories {
			break
		}
	}

	if intent.Budget != nil && *intent.Budget > 0 {
		out.Budget = intent.Budget
	}

	return out
}
