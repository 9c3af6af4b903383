package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/h7seiji/Modular-Chatbot/internal/validation"
)

// ConversationListResponse is the body of GET /conversations/{userID}.
type ConversationListResponse struct {
	UserID        string   `json:"user_id"`
	Conversations []string `json:"conversations"`
	Count         int      `json:"count"`
}

// ListConversations returns the ids of all conversations belonging to a user.
// The order is unspecified.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !validation.ValidateUserID(userID) {
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid user ID format")
		return
	}

	ids := h.store.ListForUser(r.Context(), userID)
	h.JSON(w, http.StatusOK, ConversationListResponse{
		UserID:        userID,
		Conversations: ids,
		Count:         len(ids),
	})
}

// DeleteConversation removes a conversation and its membership in the user's
// set. Unknown conversation ids yield 404, not an error.
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	conversationID := chi.URLParam(r, "conversationID")

	if !validation.ValidateUserID(userID) {
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid user ID format")
		return
	}
	if !validation.ValidateConversationID(conversationID) {
		h.Error(w, http.StatusBadRequest, codeValidationError, "invalid conversation ID format")
		return
	}

	if !h.store.Delete(r.Context(), conversationID, userID) {
		h.Error(w, http.StatusNotFound, codeNotFound, "conversation not found")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
