package http

import (
	"net/http"

	"github.com/agentput/agentput/internal/domain/conversation"
	"github.com/agentput/agentput/internal/middleware"
)

// callerID returns the resolved identity, or writes a 401 when the route
// requires one and none was attached.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := middleware.UserFrom(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "identity required")
		return "", false
	}
	return u.ID, true
}

// CreateConversation handles POST /api/v1/conversations
func (h *Handlers) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[conversation.CreateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	conv, err := h.Conversations.Create(r.Context(), userID, req)
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// GetConversation handles GET /api/v1/conversations/{id}
func (h *Handlers) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	conv, err := h.Conversations.Get(r.Context(), userID, urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// ListConversations handles GET /api/v1/conversations
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	convs, err := h.Conversations.List(r.Context(), userID, parsePage(r, h.Limits.DefaultPageSize))
	if err != nil {
		writeDomainError(w, err, "list conversations")
		return
	}
	if convs == nil {
		convs = []conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// TransitionConversation handles POST /api/v1/conversations/{id}/transition
func (h *Handlers) TransitionConversation(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[conversation.TransitionRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	conv, err := h.Conversations.Transition(r.Context(), urlParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/v1/conversations/{id}
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.Conversations.Delete(r.Context(), userID, urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
