package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/metrics"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// RouterAgent errors.
var (
	// ErrNoAgents means the registry is empty; a configuration fault.
	ErrNoAgents = errors.New("no agents registered")
	// ErrHandlerTimeout means a handler exceeded the uniform deadline.
	ErrHandlerTimeout = errors.New("handler deadline exceeded")
	// ErrUnknownAgent means a dispatch named an unregistered handler.
	ErrUnknownAgent = errors.New("unknown agent")
)

// alternativeThreshold is the exclusive confidence floor for listing a
// non-selected handler as an alternative.
const alternativeThreshold = 0.1

// DefaultProcessTimeout is the uniform deadline applied to handler Process
// calls when none is configured.
const DefaultProcessTimeout = 30 * time.Second

// RouterAgent selects a handler per message based on confidence scores and
// forwards processing to it. The registry preserves registration order; ties
// resolve to the earliest-registered handler. Registration happens at startup
// only, after which the registry is immutable and safe to share without
// locking.
type RouterAgent struct {
	agents  []Agent
	byName  map[string]Agent
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRouterAgent creates an empty coordinator. A zero timeout selects
// DefaultProcessTimeout.
func NewRouterAgent(timeout time.Duration, logger zerolog.Logger) *RouterAgent {
	if timeout <= 0 {
		timeout = DefaultProcessTimeout
	}
	return &RouterAgent{
		byName:  make(map[string]Agent),
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a handler to the registry. Re-registering a name replaces the
// handler but keeps its original position. Must not be called after serving
// starts.
func (r *RouterAgent) Register(agent Agent) {
	name := agent.Name()
	if _, exists := r.byName[name]; exists {
		for i, a := range r.agents {
			if a.Name() == name {
				r.agents[i] = agent
				break
			}
		}
	} else {
		r.agents = append(r.agents, agent)
	}
	r.byName[name] = agent
	r.logger.Info().Str("agent", name).Msg("registered agent")
}

// AgentCount returns the number of registered handlers.
func (r *RouterAgent) AgentCount() int {
	return len(r.agents)
}

// Name identifies the coordinator in workflow traces.
func (r *RouterAgent) Name() string {
	return "RouterAgent"
}

// CanHandle always returns 1.0: the coordinator can delegate any message,
// provided the registry is non-empty.
func (r *RouterAgent) CanHandle(message string) float64 {
	return 1.0
}

// Route scores every registered handler against message and returns the
// decision. The maximum score wins; on ties the earliest-registered handler
// among the tied set is chosen. Alternatives holds every other handler whose
// score exceeded the threshold.
func (r *RouterAgent) Route(message string, conv *models.ConversationContext) (*models.AgentDecision, error) {
	if len(r.agents) == 0 {
		return nil, ErrNoAgents
	}

	scores := make([]float64, len(r.agents))
	best := 0
	for i, agent := range r.agents {
		scores[i] = agent.CanHandle(message)
		if scores[i] > scores[best] {
			best = i
		}
	}

	selected := r.agents[best].Name()
	confidence := scores[best]

	alternatives := []string{}
	for i, agent := range r.agents {
		if i != best && scores[i] > alternativeThreshold {
			alternatives = append(alternatives, agent.Name())
		}
	}

	metrics.RoutingDecisions.WithLabelValues(selected).Inc()

	return &models.AgentDecision{
		SelectedAgent: selected,
		Confidence:    confidence,
		Reasoning:     fmt.Sprintf("Selected %s with confidence %.2f", selected, confidence),
		Alternatives:  alternatives,
	}, nil
}

// Dispatch forwards processing to the named handler under the uniform
// deadline. A deadline overrun returns ErrHandlerTimeout; any other handler
// error propagates unchanged, so total failures stay visible instead of
// being silently rerouted.
func (r *RouterAgent) Dispatch(ctx context.Context, name, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	agent, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, name)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := agent.Process(ctx, message, conv)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.HandlerFailures.WithLabelValues(name, "timeout").Inc()
			return nil, fmt.Errorf("%s: %w", name, ErrHandlerTimeout)
		}
		metrics.HandlerFailures.WithLabelValues(name, "error").Inc()
		return nil, err
	}
	return resp, nil
}

// Process routes message and forwards it to the selected handler. Routing is
// stateless and cheap, so the decision is recomputed rather than cached; a
// caller that needs the decision and the response to agree must call Route
// and Dispatch itself.
func (r *RouterAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	decision, err := r.Route(message, conv)
	if err != nil {
		return nil, err
	}
	return r.Dispatch(ctx, decision.SelectedAgent, message, conv)
}
