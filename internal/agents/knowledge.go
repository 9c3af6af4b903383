package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/knowledge"
	"github.com/h7seiji/Modular-Chatbot/internal/llm"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// KnowledgeAgentName is the registry key of the knowledge handler.
const KnowledgeAgentName = "KnowledgeAgent"

// retrievalLimit is how many help articles feed the answer prompt.
const retrievalLimit = 4

// productTerms score highest: the message is explicitly about the product.
var productTerms = []string{
	"infinitepay", "infinite pay", "card machine", "payment processor",
	"maquininha", "taxa", "tarifa", "pix", "cartão",
}

var questionTerms = []string{"what", "how", "why", "when", "where", "can you", "do you know"}

var helpTerms = []string{"help", "explain", "tell me", "information about", "guide"}

// KnowledgeAgent answers product questions by retrieving help articles from
// the knowledge index and synthesizing an answer with the generative API.
type KnowledgeAgent struct {
	KeywordAgent
	index  *knowledge.Index
	llm    llm.Client
	logger zerolog.Logger
}

// NewKnowledgeAgent creates the knowledge handler.
func NewKnowledgeAgent(index *knowledge.Index, client llm.Client, logger zerolog.Logger) *KnowledgeAgent {
	return &KnowledgeAgent{
		KeywordAgent: NewKeywordAgent(KnowledgeAgentName, []string{
			"what", "how", "why", "when", "where", "explain", "tell me",
			"information", "help", "support", "guide", "tutorial", "documentation",
			"infinitepay", "payment", "card", "machine", "fee", "rate", "service",
			"account", "transaction", "billing", "pricing", "plan", "feature",
			"setup", "configuration", "integration", "api", "webhook", "pix",
		}),
		index:  index,
		llm:    client,
		logger: logger,
	}
}

// CanHandle layers domain-specific scoring over the keyword default:
// product-specific terms dominate, then boosted keyword hits, then question
// and help-seeking phrasing.
func (a *KnowledgeAgent) CanHandle(message string) float64 {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, term := range productTerms {
		if strings.Contains(lower, term) {
			return 0.95
		}
	}

	keywordScore := a.KeywordAgent.CanHandle(message)
	if keywordScore > 0.2 {
		score := keywordScore + 0.3
		if score > 0.9 {
			score = 0.9
		}
		return score
	}

	for _, term := range questionTerms {
		if strings.Contains(lower, term) {
			return 0.7
		}
	}
	for _, term := range helpTerms {
		if strings.Contains(lower, term) {
			return 0.6
		}
	}

	return keywordScore
}

const knowledgeSystemPrompt = `You are a support assistant for InfinitePay, a payment solutions provider. Answer using only the provided help articles. If the articles do not cover the question, say so and suggest contacting support. Answer in the language of the question.`

// Process implements Agent. Retrieval failures and generative-API faults
// degrade to an apologetic response with Metadata["error"]=true; context
// cancellation propagates.
func (a *KnowledgeAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	start := time.Now()

	docs, err := a.index.Search(ctx, message, retrievalLimit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Error().Err(err).
			Str("agent", KnowledgeAgentName).
			Str("conversation_id", conv.ConversationID).
			Msg("knowledge retrieval failed")
		docs = nil
	}

	var prompt strings.Builder
	if len(docs) > 0 {
		prompt.WriteString("Help articles:\n\n")
		for _, doc := range docs {
			fmt.Fprintf(&prompt, "## %s\n%s\n\n", doc.Title, doc.Content)
		}
	}
	fmt.Fprintf(&prompt, "Question: %s", message)

	text, err := a.llm.Generate(ctx, llm.Request{
		System:      knowledgeSystemPrompt,
		Prompt:      prompt.String(),
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		a.logger.Error().Err(err).
			Str("agent", KnowledgeAgentName).
			Str("conversation_id", conv.ConversationID).
			Dur("execution_time", time.Since(start)).
			Msg("generative API error")

		return &models.AgentResponse{
			Content:       "I'm sorry, I couldn't look that up right now. Please try again in a moment.",
			SourceAgent:   KnowledgeAgentName,
			ExecutionTime: time.Since(start).Seconds(),
			Metadata:      map[string]any{"error": true, "query_type": "knowledge"},
		}, nil
	}

	sources := make([]string, 0, len(docs))
	for _, doc := range docs {
		sources = append(sources, doc.URL)
	}

	a.logger.Info().
		Str("agent", KnowledgeAgentName).
		Str("conversation_id", conv.ConversationID).
		Dur("execution_time", time.Since(start)).
		Int("documents", len(docs)).
		Msg("processed knowledge query")

	return &models.AgentResponse{
		Content:       strings.TrimSpace(text),
		SourceAgent:   KnowledgeAgentName,
		ExecutionTime: time.Since(start).Seconds(),
		Metadata:      map[string]any{"query_type": "knowledge", "documents": len(docs)},
		Sources:       sources,
	}, nil
}
