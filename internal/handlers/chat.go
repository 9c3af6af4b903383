package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/h7seiji/Modular-Chatbot/internal/agents"
	"github.com/h7seiji/Modular-Chatbot/internal/metrics"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
	"github.com/h7seiji/Modular-Chatbot/internal/validation"
)

// Chat handles POST /chat: gate the input, route it, dispatch to the selected
// handler, persist the turn best-effort, and return the workflow trace.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid JSON body")
		return
	}

	// Structural validation and identifier formats reject before any routing.
	if err := validation.ValidateMessage(req.Message); err != nil {
		metrics.ValidationFailures.WithLabelValues(err.Code).Inc()
		h.Error(w, http.StatusBadRequest, codeValidationError, err.Message)
		return
	}

	// Injection detection: the matched pattern class is logged internally,
	// never returned to the caller.
	if flagged, reason := validation.DetectInjection(req.Message); flagged {
		metrics.InjectionsBlocked.WithLabelValues(reason).Inc()
		h.logger.Warn().
			Str("type", "security").
			Str("event", "injection_detected").
			Str("pattern_class", reason).
			Str("user_id", maskID(req.UserID, 4)).
			Int("message_length", len(req.Message)).
			Msg("prompt injection attempt detected")
		h.Error(w, http.StatusBadRequest, codeSecurityViolation, "potentially malicious content detected")
		return
	}

	if !validation.ValidateUserID(req.UserID) {
		metrics.ValidationFailures.WithLabelValues(validation.CodeInvalidUserID).Inc()
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid user ID format")
		return
	}
	if !validation.ValidateConversationID(req.ConversationID) {
		metrics.ValidationFailures.WithLabelValues(validation.CodeInvalidConversationID).Inc()
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid conversation ID format")
		return
	}

	// Only sanitized text ever reaches a handler.
	message := validation.Sanitize(req.Message)

	// Request-scoped context holds only the incoming turn; handlers wanting
	// full history retrieve it explicitly.
	userMsg := models.NewUserMessage(message)
	conv := models.NewConversationContext(req.ConversationID, req.UserID, userMsg)

	decision, err := h.router.Route(message, conv)
	if err != nil {
		if errors.Is(err, agents.ErrNoAgents) {
			h.Error(w, http.StatusServiceUnavailable, codeServiceUnavailable, "no agents available")
			return
		}
		h.logger.Error().Err(err).Msg("routing failed")
		h.Error(w, http.StatusInternalServerError, codeInternalError, "failed to process chat request")
		return
	}

	h.logger.Info().
		Str("agent", h.router.Name()).
		Str("conversation_id", maskID(req.ConversationID, 8)).
		Str("user_id", maskID(req.UserID, 4)).
		Str("decision", decision.SelectedAgent).
		Float64("confidence", decision.Confidence).
		Msg("message routed")

	// Dispatch to the decided handler directly so the reported workflow
	// always matches the handler that ran.
	resp, err := h.router.Dispatch(r.Context(), decision.SelectedAgent, message, conv)
	if err != nil {
		if errors.Is(err, agents.ErrHandlerTimeout) {
			h.logger.Error().Err(err).
				Str("agent", decision.SelectedAgent).
				Str("conversation_id", maskID(req.ConversationID, 8)).
				Msg("handler timed out")
			h.Error(w, http.StatusGatewayTimeout, codeHandlerTimeout, "the selected agent took too long to respond")
			return
		}
		h.logger.Error().Err(err).
			Str("agent", decision.SelectedAgent).
			Str("conversation_id", maskID(req.ConversationID, 8)).
			Msg("handler processing failed")
		h.Error(w, http.StatusInternalServerError, codeInternalError, "failed to process chat request")
		return
	}

	// Best-effort persistence: a store failure degrades to "not saved",
	// never to a failed request.
	h.persistTurn(r, conv, userMsg, resp)

	h.logger.Info().
		Str("agent", h.router.Name()).
		Str("conversation_id", maskID(req.ConversationID, 8)).
		Str("user_id", maskID(req.UserID, 4)).
		Dur("total_time", time.Since(start)).
		Msg("chat request completed")

	h.JSON(w, http.StatusOK, models.ChatResponse{
		Response:            resp.Content,
		SourceAgentResponse: fmt.Sprintf("%s (confidence: %.2f)", resp.SourceAgent, decision.Confidence),
		AgentWorkflow: []models.WorkflowStep{
			{
				Agent:    h.router.Name(),
				Decision: fmt.Sprintf("Routed to %s with %.2f confidence", decision.SelectedAgent, decision.Confidence),
			},
			{
				Agent:    decision.SelectedAgent,
				Decision: fmt.Sprintf("Processed query in %.3fs", resp.ExecutionTime),
			},
		},
	})
}

// persistTurn appends the user and agent turns to the durable conversation,
// creating it on first contact.
func (h *Handler) persistTurn(r *http.Request, conv *models.ConversationContext, userMsg models.Message, resp *models.AgentResponse) {
	ctx := r.Context()

	if existing := h.store.Retrieve(ctx, conv.ConversationID); existing == nil {
		h.store.Store(ctx, conv, h.ttl)
	} else {
		h.store.AppendMessage(ctx, conv.ConversationID, userMsg, h.ttl)
	}
	h.store.AppendMessage(ctx, conv.ConversationID, models.NewAgentMessage(resp.Content, resp.SourceAgent), h.ttl)
}
