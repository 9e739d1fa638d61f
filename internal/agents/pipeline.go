package agents

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var assistantTracer = otel.Tracer("github.com/fyrsmithlabs/shopd/internal/agents")

// Assistant runs the full query pipeline: intent analysis, vector
// retrieval, and response generation.
type Assistant struct {
	intent    *IntentAgent
	retrieval *RetrievalAgent
	response  *ResponseAgent
	logger    *zap.Logger
}

// NewAssistant wires the three agents together.
func NewAssistant(intent *IntentAgent, retrieval *RetrievalAgent, response *ResponseAgent, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{
		intent:    intent,
		retrieval: retrieval,
		response:  response,
		logger:    logger,
	}
}

// Generate answers a shopping query. An explicit budget takes precedence
// over any budget the intent analysis detects in the query text.
func (a *Assistant) Generate(ctx context.Context, query string, budget *float64) (Answer, error) {
	ctx, span := assistantTracer.Start(ctx, "assistant.generate")
	defer span.End()
	span.SetAttributes(attribute.Int("query.length", len(query)))

	intent, err := a.intent.Analyze(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "intent analysis failed")
		return Answer{}, fmt.Errorf("analyzing intent: %w", err)
	}

	effectiveBudget := intent.Budget
	if budget != nil && *budget > 0 {
		effectiveBudget = budget
	}

	span.SetAttributes(attribute.Int("intent.categories", len(intent.Categories)))

	candidates, err := a.retrieval.Retrieve(ctx, query, intent, effectiveBudget)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return Answer{}, fmt.Errorf("retrieving products: %w", err)
	}

	reply, selected, err := a.response.Respond(ctx, query, intent, effectiveBudget, candidates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "response generation failed")
		return Answer{}, err
	}

	queried := intent.Categories
	if queried == nil {
		queried = []string{}
	}
	if selected == nil {
		selected = []ScoredProduct{}
	}

	a.logger.Info("query answered",
		zap.Strings("categories", queried),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(selected)),
	)

	return Answer{
		Response:          reply,
		DetectedBudget:    effectiveBudget,
		QueriedCategories: queried,
		Products:          selected,
	}, nil
}
