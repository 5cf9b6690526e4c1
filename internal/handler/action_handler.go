package handler

import (
	"net/http"

	"github.com/freeeve/campaign-trail/internal/middleware"
	"github.com/freeeve/campaign-trail/internal/service"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// ActionHandler handles the per-phase player actions.
type ActionHandler struct {
	phaseSvc *service.PhaseService
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(phaseSvc *service.PhaseService) *ActionHandler {
	return &ActionHandler{phaseSvc: phaseSvc}
}

type floorRequest struct {
	Row   int `json:"row"`
	Col   int `json:"col"`
	Floor int `json:"floor"`
}

// ToggleFloor handles POST /api/v1/games/{id}/floors
func (h *ActionHandler) ToggleFloor(w http.ResponseWriter, r *http.Request) {
	var req floorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	gs, err := h.phaseSvc.ToggleFloor(r.Context(), r.PathValue("id"),
		middleware.PlayerIDFromContext(r.Context()), req.Row, req.Col, req.Floor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(gs))
}

// RecordPoll handles POST /api/v1/games/{id}/polls
func (h *ActionHandler) RecordPoll(w http.ResponseWriter, r *http.Request) {
	var region campaign.PollRegion
	if err := decodeJSON(r, &region); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	poll, gs, err := h.phaseSvc.RecordPoll(r.Context(), r.PathValue("id"),
		middleware.PlayerIDFromContext(r.Context()), region)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"poll":  poll,
		"state": newStateView(gs),
	})
}

// SetFactCheck handles POST /api/v1/games/{id}/factcheck
func (h *ActionHandler) SetFactCheck(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind campaign.FactCheck `json:"kind"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	gs, err := h.phaseSvc.SetFactCheck(r.Context(), r.PathValue("id"),
		middleware.PlayerIDFromContext(r.Context()), req.Kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(gs))
}

// MarkDone handles POST /api/v1/games/{id}/done
func (h *ActionHandler) MarkDone(w http.ResponseWriter, r *http.Request) {
	gs, err := h.phaseSvc.MarkDone(r.Context(), r.PathValue("id"), middleware.PlayerIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(gs))
}

// UnmarkDone handles DELETE /api/v1/games/{id}/done
func (h *ActionHandler) UnmarkDone(w http.ResponseWriter, r *http.Request) {
	gs, err := h.phaseSvc.UnmarkDone(r.Context(), r.PathValue("id"), middleware.PlayerIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(gs))
}
