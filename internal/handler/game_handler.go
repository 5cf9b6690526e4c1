package handler

import (
	"net/http"

	"github.com/freeeve/campaign-trail/internal/middleware"
	"github.com/freeeve/campaign-trail/internal/service"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// GameHandler handles game lifecycle endpoints.
type GameHandler struct {
	gameSvc  *service.GameService
	phaseSvc *service.PhaseService
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, phaseSvc *service.PhaseService) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, phaseSvc: phaseSvc}
}

// CreateGame handles POST /api/v1/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PlayerIDFromContext(r.Context())
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color,omitempty"` // red, blue or random
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	game, err := h.gameSvc.CreateGame(r.Context(), req.Name, userID, req.Color)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}

// ListGames handles GET /api/v1/games
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PlayerIDFromContext(r.Context())
	games, err := h.gameSvc.ListGames(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if games == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGame handles GET /api/v1/games/{id}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameSvc.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// JoinGame handles POST /api/v1/games/{id}/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PlayerIDFromContext(r.Context())
	game, err := h.gameSvc.JoinGame(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// StartGame handles POST /api/v1/games/{id}/start
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PlayerIDFromContext(r.Context())
	game, err := h.gameSvc.StartGame(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// DeleteGame handles DELETE /api/v1/games/{id}
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	userID := middleware.PlayerIDFromContext(r.Context())
	if err := h.gameSvc.DeleteGame(r.Context(), r.PathValue("id"), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// stateView is the game state plus values clients would otherwise derive.
type stateView struct {
	*campaign.GameState
	PhaseName  string         `json:"phase_name"`
	Opinion    float64        `json:"opinion"`
	CanAdvance bool           `json:"can_advance"`
	GameOver   bool           `json:"game_over"`
	Winner     campaign.Color `json:"winner,omitempty"`
	Notation   string         `json:"notation"`
}

func newStateView(gs *campaign.GameState) stateView {
	v := stateView{
		GameState:  gs,
		PhaseName:  gs.PhaseNumber.String(),
		Opinion:    gs.CurrentOpinion(),
		CanAdvance: gs.CanAdvance(),
		GameOver:   gs.IsGameOver(),
		Notation:   campaign.EncodeBoard(gs.Board),
	}
	if v.GameOver {
		v.Winner = gs.Winner()
	}
	return v
}

// GetState handles GET /api/v1/games/{id}/state
func (h *GameHandler) GetState(w http.ResponseWriter, r *http.Request) {
	gs, err := h.phaseSvc.State(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStateView(gs))
}
