// Package handlers implements the HTTP endpoints: chat, health, and
// conversation management. All error responses use the generic envelope and
// never expose internal detail.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/agents"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
	"github.com/h7seiji/Modular-Chatbot/internal/store"
)

const version = "0.1.0"

// Error codes used in the generic envelope.
const (
	codeValidationError    = "VALIDATION_ERROR"
	codeSecurityViolation  = "SECURITY_VIOLATION"
	codeNotFound           = "NOT_FOUND"
	codeServiceUnavailable = "SERVICE_UNAVAILABLE"
	codeHandlerTimeout     = "HANDLER_TIMEOUT"
	codeInternalError      = "INTERNAL_SERVER_ERROR"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	router *agents.RouterAgent
	store  *store.ConversationStore
	ttl    time.Duration
	logger zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(router *agents.RouterAgent, convStore *store.ConversationStore, ttl time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{router: router, store: convStore, ttl: ttl, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends the generic error envelope. message must be safe to show the
// caller; internal detail belongs in logs only.
func (h *Handler) Error(w http.ResponseWriter, status int, code, message string) {
	h.JSON(w, status, models.ErrorEnvelope{
		Error: models.ErrorBody{
			Code:    code,
			Message: message,
			Details: nil,
		},
		RequestID: newRequestID(),
		Timestamp: time.Now().UTC(),
	})
}

// newRequestID returns a sortable unique id for error correlation.
func newRequestID() string {
	return "req_" + ulid.Make().String()
}

// maskID truncates an identifier for logging so logs never carry full user
// or conversation ids.
func maskID(id string, keep int) string {
	if len(id) > keep {
		return id[:keep] + "***"
	}
	return "***"
}
