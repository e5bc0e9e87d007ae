package http

import (
	"net/http"

	"github.com/agentput/agentput/internal/domain/agent"
	"github.com/agentput/agentput/internal/middleware"
)

// CreateAgent handles POST /api/v1/agents
func (h *Handlers) CreateAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[agent.CreateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	createdBy := ""
	if u := middleware.UserFrom(r.Context()); u != nil {
		createdBy = u.ID
	}
	a, err := h.Agents.Create(r.Context(), createdBy, req)
	if err != nil {
		writeDomainError(w, err, "create agent")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAgent handles GET /api/v1/agents/{id}
func (h *Handlers) GetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.Agents.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ListAgents handles GET /api/v1/agents
func (h *Handlers) ListAgents(w http.ResponseWriter, r *http.Request) {
	items, err := h.Agents.List(r.Context(), parsePage(r, h.Limits.DefaultPageSize))
	if err != nil {
		writeDomainError(w, err, "list agents")
		return
	}
	if items == nil {
		items = []agent.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListAvailableAgents handles GET /api/v1/agents/available/list
func (h *Handlers) ListAvailableAgents(w http.ResponseWriter, r *http.Request) {
	items, err := h.Agents.ListAvailable(r.Context())
	if err != nil {
		writeDomainError(w, err, "list agents")
		return
	}
	if items == nil {
		items = []agent.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// UpdateAgent handles PUT /api/v1/agents/{id}
func (h *Handlers) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[agent.UpdateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	a, err := h.Agents.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAgent handles DELETE /api/v1/agents/{id}
func (h *Handlers) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	if err := h.Agents.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "agent not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
