package agents

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/llm"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// MathAgentName is the registry key of the math handler.
const MathAgentName = "MathAgent"

var (
	mathKeywordRegex = regexp.MustCompile(`(?i)(how much|calculate|result\s*of|solve|evaluate)`)
	mathPhraseRegex  = regexp.MustCompile(`(?i)(what\s*is|what's)`)
	// mathExprRegex matches numbers joined by arithmetic operators.
	mathExprRegex = regexp.MustCompile(`[\d]+(?:\s*[xX\*\+\-\/]\s*[\d]+)+`)
	digitRegex    = regexp.MustCompile(`\d`)
)

// mathScore returns a confidence in [0,1] that message is a math question.
// Explicit operator expressions outrank bare keyword hits.
func mathScore(message string) float64 {
	message = strings.TrimSpace(message)

	hasExpr := mathExprRegex.MatchString(message)
	hasKeywords := mathKeywordRegex.MatchString(message) || mathPhraseRegex.MatchString(message)

	switch {
	case hasExpr && hasKeywords:
		return 1.0
	case hasExpr:
		return 0.8
	case hasKeywords && digitRegex.MatchString(message):
		return 0.5
	}
	return 0.0
}

const mathSystemPrompt = `You are a helpful math assistant. Solve the given mathematical problem step by step.

Provide:
1. A clear step-by-step solution
2. The final answer
3. If it is a word problem, explain your reasoning

Be precise and show your work. If the question is not mathematical, politely redirect to math-related topics.`

// MathAgent answers mathematical questions by delegating to the generative
// API with a low-temperature, step-by-step prompt.
type MathAgent struct {
	KeywordAgent
	llm    llm.Client
	logger zerolog.Logger
}

// NewMathAgent creates the math handler on the given LLM client.
func NewMathAgent(client llm.Client, logger zerolog.Logger) *MathAgent {
	return &MathAgent{
		KeywordAgent: NewKeywordAgent(MathAgentName, []string{
			"calculate", "math", "mathematics", "equation", "solve", "compute",
			"+", "-", "*", "/", "=", "equals", "sum", "difference", "product",
			"quotient", "percentage", "percent", "square", "root", "power",
			"algebra", "geometry", "trigonometry", "calculus", "statistics",
		}),
		llm:    client,
		logger: logger,
	}
}

// CanHandle overrides the keyword default with arithmetic pattern scoring.
func (a *MathAgent) CanHandle(message string) float64 {
	return mathScore(message)
}

// Process implements Agent. Generative-API faults degrade to an apologetic
// response with Metadata["error"]=true; context cancellation and deadline
// overruns propagate to the coordinator.
func (a *MathAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	start := time.Now()

	text, err := a.llm.Generate(ctx, llm.Request{
		System:      mathSystemPrompt,
		Prompt:      message,
		Temperature: 0.1,
		TopP:        0.8,
		MaxTokens:   1024,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		a.logger.Error().Err(err).
			Str("agent", MathAgentName).
			Str("conversation_id", conv.ConversationID).
			Dur("execution_time", time.Since(start)).
			Msg("generative API error")

		return &models.AgentResponse{
			Content:       "I'm sorry, I couldn't work through that calculation right now. Please try again.",
			SourceAgent:   MathAgentName,
			ExecutionTime: time.Since(start).Seconds(),
			Metadata:      map[string]any{"error": true, "query_type": "mathematical"},
		}, nil
	}

	a.logger.Info().
		Str("agent", MathAgentName).
		Str("conversation_id", conv.ConversationID).
		Dur("execution_time", time.Since(start)).
		Int("response_length", len(text)).
		Msg("processed math query")

	return &models.AgentResponse{
		Content:       strings.TrimSpace(text),
		SourceAgent:   MathAgentName,
		ExecutionTime: time.Since(start).Seconds(),
		Metadata:      map[string]any{"query_type": "mathematical", "temperature": 0.1},
	}, nil
}
