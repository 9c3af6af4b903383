// Package agents implements the capability-confidence dispatch protocol: the
// Agent contract, the default keyword scorer, the specialized handlers, and
// the RouterAgent coordinator.
package agents

import (
	"context"
	"strings"

	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// Agent is the contract every handler implements.
//
// CanHandle must be pure, fast, and side-effect free, returning a confidence
// in [0,1]. Process may perform network I/O and must honor ctx; handlers are
// encouraged to convert their own internal faults into a degraded response
// with Metadata["error"]=true rather than returning an error, but the
// coordinator does not enforce this.
type Agent interface {
	Name() string
	CanHandle(message string) float64
	Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error)
}

// KeywordAgent provides the default keyword-based confidence scheme:
// min(matched/total, 1.0) over case-insensitive substring matches. It is
// embedded by handlers that want the default or a base to build on.
type KeywordAgent struct {
	name     string
	keywords []string
}

// NewKeywordAgent creates the base scorer for a named handler.
func NewKeywordAgent(name string, keywords []string) KeywordAgent {
	return KeywordAgent{name: name, keywords: keywords}
}

// Name returns the handler name used as its registry key.
func (a KeywordAgent) Name() string {
	return a.name
}

// CanHandle implements the default keyword scoring scheme.
func (a KeywordAgent) CanHandle(message string) float64 {
	if len(a.keywords) == 0 {
		return 0.0
	}

	lower := strings.ToLower(message)
	matches := 0
	for _, kw := range a.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}

	score := float64(matches) / float64(len(a.keywords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}
