package http

import (
	"net/http"

	"github.com/agentput/agentput/internal/domain/event"
)

// AppendEvent handles POST /api/v1/conversations/{id}/events. This is the
// engine-facing write path; it is not owner-scoped.
func (h *Handlers) AppendEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[event.AppendRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	ev, err := h.Events.Append(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// ListEvents handles GET /api/v1/conversations/{id}/events
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	events, err := h.Events.List(r.Context(), userID, urlParam(r, "id"), parseAfter(r))
	if err != nil {
		writeDomainError(w, err, "conversation not found")
		return
	}
	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
