package agents

import (
	"context"
	"strings"
	"time"

	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// MockMathAgent is the offline math handler used when no generative-API
// credentials are configured. It keeps the default keyword scoring.
type MockMathAgent struct {
	KeywordAgent
}

// NewMockMathAgent creates the offline math handler.
func NewMockMathAgent() *MockMathAgent {
	return &MockMathAgent{
		KeywordAgent: NewKeywordAgent(MathAgentName, []string{
			"calculate", "math", "+", "-", "*", "/", "=",
		}),
	}
}

// Process implements Agent with canned responses.
func (a *MockMathAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	start := time.Now()

	var content string
	switch {
	case strings.Contains(message, "+"):
		content = "I can help with addition! (This is a mock response)"
	case strings.Contains(message, "*") || strings.Contains(strings.ToLower(message), "x"):
		content = "I can help with multiplication! (This is a mock response)"
	case strings.Contains(message, "-"):
		content = "I can help with subtraction! (This is a mock response)"
	case strings.Contains(message, "/"):
		content = "I can help with division! (This is a mock response)"
	default:
		content = "I can help with mathematical calculations! (This is a mock response)"
	}

	return &models.AgentResponse{
		Content:       content,
		SourceAgent:   MathAgentName,
		ExecutionTime: time.Since(start).Seconds(),
		Metadata:      map[string]any{"query_type": "mathematical", "mock": true},
	}, nil
}

// MockKnowledgeAgent is the offline knowledge handler.
type MockKnowledgeAgent struct {
	KeywordAgent
}

// NewMockKnowledgeAgent creates the offline knowledge handler.
func NewMockKnowledgeAgent() *MockKnowledgeAgent {
	return &MockKnowledgeAgent{
		KeywordAgent: NewKeywordAgent(KnowledgeAgentName, []string{
			"what", "how", "help", "infinitepay", "fees",
		}),
	}
}

// Process implements Agent with canned responses.
func (a *MockKnowledgeAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	start := time.Now()
	lower := strings.ToLower(message)

	var content string
	switch {
	case strings.Contains(lower, "fees"):
		content = "InfinitePay card machine fees vary by plan. (This is a mock response)"
	case strings.Contains(lower, "infinitepay"):
		content = "InfinitePay is a payment solution provider. (This is a mock response)"
	default:
		content = "I can help with InfinitePay information! (This is a mock response)"
	}

	return &models.AgentResponse{
		Content:       content,
		SourceAgent:   KnowledgeAgentName,
		ExecutionTime: time.Since(start).Seconds(),
		Metadata:      map[string]any{"query_type": "knowledge", "mock": true},
		Sources:       []string{"https://ajuda.infinitepay.io/pt-BR/ (mock)"},
	}, nil
}
