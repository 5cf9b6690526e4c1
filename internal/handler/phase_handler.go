package handler

import (
	"net/http"

	"github.com/freeeve/campaign-trail/internal/service"
)

// PhaseHandler serves the phase history of a game.
type PhaseHandler struct {
	gameSvc *service.GameService
}

// NewPhaseHandler creates a PhaseHandler.
func NewPhaseHandler(gameSvc *service.GameService) *PhaseHandler {
	return &PhaseHandler{gameSvc: gameSvc}
}

// ListPhases handles GET /api/v1/games/{id}/phases
func (h *PhaseHandler) ListPhases(w http.ResponseWriter, r *http.Request) {
	phases, err := h.gameSvc.ListPhases(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if phases == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, phases)
}

// PhaseActions handles GET /api/v1/games/{id}/phases/{phaseId}/actions
func (h *PhaseHandler) PhaseActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.gameSvc.PhaseActions(r.Context(), r.PathValue("id"), r.PathValue("phaseId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if actions == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, actions)
}
