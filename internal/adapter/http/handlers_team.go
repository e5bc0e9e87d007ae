package http

import (
	"net/http"

	"github.com/agentput/agentput/internal/domain/team"
	"github.com/agentput/agentput/internal/middleware"
)

// CreateTeam handles POST /api/v1/teams
func (h *Handlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[team.CreateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	createdBy := ""
	if u := middleware.UserFrom(r.Context()); u != nil {
		createdBy = u.ID
	}
	t, err := h.Teams.Create(r.Context(), createdBy, req)
	if err != nil {
		writeDomainError(w, err, "create team")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GetTeam handles GET /api/v1/teams/{id}
func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.Teams.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ListTeams handles GET /api/v1/teams
func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	items, err := h.Teams.List(r.Context(), parsePage(r, h.Limits.DefaultPageSize))
	if err != nil {
		writeDomainError(w, err, "list teams")
		return
	}
	if items == nil {
		items = []team.ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// UpdateTeam handles PUT /api/v1/teams/{id}
func (h *Handlers) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[team.UpdateRequest](w, r, h.Limits.MaxRequestBodySize)
	if !ok {
		return
	}
	t, err := h.Teams.Update(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTeam handles DELETE /api/v1/teams/{id}
func (h *Handlers) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.Teams.Delete(r.Context(), urlParam(r, "id")); err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveTeam handles GET /api/v1/teams/{id}/resolve
func (h *Handlers) ResolveTeam(w http.ResponseWriter, r *http.Request) {
	resolved, err := h.Teams.Resolve(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "team not found")
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}
