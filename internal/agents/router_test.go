package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// stubAgent returns a fixed score and response, counting invocations.
type stubAgent struct {
	name       string
	score      float64
	resp       *models.AgentResponse
	err        error
	scoreCalls int
	procCalls  int
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) CanHandle(message string) float64 {
	s.scoreCalls++
	return s.score
}

func (s *stubAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	s.procCalls++
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &models.AgentResponse{Content: "ok", SourceAgent: s.name}, nil
}

// blockingAgent waits for ctx cancellation and reports it.
type blockingAgent struct {
	name string
}

func (b *blockingAgent) Name() string { return b.name }

func (b *blockingAgent) CanHandle(message string) float64 { return 1.0 }

func (b *blockingAgent) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// keywordStub is a KeywordAgent with a trivial Process, for routing scenarios
// that exercise the default scoring scheme.
type keywordStub struct {
	KeywordAgent
}

func (k *keywordStub) Process(ctx context.Context, message string, conv *models.ConversationContext) (*models.AgentResponse, error) {
	return &models.AgentResponse{Content: "ok", SourceAgent: k.Name()}, nil
}

func newTestRouter(t *testing.T, agents ...Agent) *RouterAgent {
	t.Helper()
	r := NewRouterAgent(0, zerolog.Nop())
	for _, a := range agents {
		r.Register(a)
	}
	return r
}

func TestRouteEmptyRegistry(t *testing.T) {
	r := newTestRouter(t)
	decision, err := r.Route("hello", nil)
	assert.Nil(t, decision)
	assert.ErrorIs(t, err, ErrNoAgents)
}

func TestRouteSelectsMaxScore(t *testing.T) {
	low := &stubAgent{name: "Low", score: 0.3}
	high := &stubAgent{name: "High", score: 0.9}
	r := newTestRouter(t, low, high)

	decision, err := r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "High", decision.SelectedAgent)
	assert.Equal(t, 0.9, decision.Confidence)
	assert.Equal(t, 1, low.scoreCalls)
	assert.Equal(t, 1, high.scoreCalls)
}

func TestRouteTieBreaksOnRegistrationOrder(t *testing.T) {
	a := &stubAgent{name: "A", score: 0.5}
	b := &stubAgent{name: "B", score: 0.5}

	r := newTestRouter(t, a, b)
	decision, err := r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", decision.SelectedAgent)

	// Same scores, reversed registration order.
	r = newTestRouter(t, b, a)
	decision, err = r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "B", decision.SelectedAgent)
}

func TestRouteAlternativesThreshold(t *testing.T) {
	r := newTestRouter(t,
		&stubAgent{name: "Winner", score: 0.9},
		&stubAgent{name: "Contender", score: 0.5},
		&stubAgent{name: "AtThreshold", score: 0.1},
		&stubAgent{name: "Below", score: 0.05},
	)

	decision, err := r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Winner", decision.SelectedAgent)
	// Strictly above 0.1 qualifies; exactly 0.1 does not. The winner is
	// never listed among its own alternatives.
	assert.Equal(t, []string{"Contender"}, decision.Alternatives)
}

func TestRouteReasoningFormat(t *testing.T) {
	r := newTestRouter(t, &stubAgent{name: "MathAgent", score: 0.85})

	decision, err := r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "Selected MathAgent with confidence 0.85", decision.Reasoning)
}

func TestRouteKeywordScenario(t *testing.T) {
	// Calc matches "+" only (1/3); Questions matches "what" (1/2) and wins.
	calc := &keywordStub{NewKeywordAgent("Calc", []string{"calculate", "+", "-"})}
	questions := &keywordStub{NewKeywordAgent("Questions", []string{"what", "how"})}
	r := newTestRouter(t, calc, questions)

	decision, err := r.Route("What is 5 + 3?", nil)
	require.NoError(t, err)
	assert.Equal(t, "Questions", decision.SelectedAgent)
	assert.Equal(t, 0.5, decision.Confidence)
	assert.Equal(t, []string{"Calc"}, decision.Alternatives)
}

func TestCoordinatorCanHandle(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, 1.0, r.CanHandle("anything"))
	assert.Equal(t, "RouterAgent", r.Name())
}

func TestRegisterReplacesByName(t *testing.T) {
	first := &stubAgent{name: "A", score: 0.2}
	second := &stubAgent{name: "A", score: 0.8}
	other := &stubAgent{name: "B", score: 0.5}

	r := newTestRouter(t, first, other, second)
	assert.Equal(t, 2, r.AgentCount())

	// The replacement keeps the original registry position, so a tie with B
	// still resolves to A.
	decision, err := r.Route("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "A", decision.SelectedAgent)
	assert.Equal(t, 0.8, decision.Confidence)
}

func TestDispatchUnknownAgent(t *testing.T) {
	r := newTestRouter(t, &stubAgent{name: "A", score: 1.0})

	_, err := r.Dispatch(context.Background(), "Nope", "hello", nil)
	assert.ErrorIs(t, err, ErrUnknownAgent)
}

func TestDispatchTimeout(t *testing.T) {
	r := NewRouterAgent(20*time.Millisecond, zerolog.Nop())
	r.Register(&blockingAgent{name: "Slow"})

	start := time.Now()
	_, err := r.Dispatch(context.Background(), "Slow", "hello", nil)
	assert.ErrorIs(t, err, ErrHandlerTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	r := newTestRouter(t, &stubAgent{name: "A", score: 1.0, err: boom})

	_, err := r.Dispatch(context.Background(), "A", "hello", nil)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrHandlerTimeout)
}

func TestProcessRoutesAndDispatches(t *testing.T) {
	want := &models.AgentResponse{Content: "answer", SourceAgent: "High"}
	low := &stubAgent{name: "Low", score: 0.2}
	high := &stubAgent{name: "High", score: 0.9, resp: want}
	r := newTestRouter(t, low, high)

	resp, err := r.Process(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, want, resp)
	assert.Equal(t, 1, high.procCalls)
	assert.Equal(t, 0, low.procCalls)
}

func TestScoresWithinBounds(t *testing.T) {
	kw := NewKeywordAgent("KW", []string{"alpha", "beta", "gamma"})
	messages := []string{
		"", "alpha", "alpha beta gamma", "alpha alpha alpha",
		"unrelated text", "ALPHA BETA",
	}
	for _, msg := range messages {
		score := kw.CanHandle(msg)
		assert.GreaterOrEqual(t, score, 0.0, "message %q", msg)
		assert.LessOrEqual(t, score, 1.0, "message %q", msg)
	}

	assert.Equal(t, 0.0, NewKeywordAgent("Empty", nil).CanHandle("anything"))
}
