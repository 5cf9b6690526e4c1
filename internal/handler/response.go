package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/service"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrGameNotFound, http.StatusNotFound},
	{service.ErrPhaseNotFound, http.StatusNotFound},
	{service.ErrNotInGame, http.StatusForbidden},
	{service.ErrNotCreator, http.StatusForbidden},
	{service.ErrInvalidSeat, http.StatusBadRequest},
	{campaign.ErrInvalidCell, http.StatusBadRequest},
	{campaign.ErrInvalidRegion, http.StatusBadRequest},
	{campaign.ErrEmptyPollRegion, http.StatusBadRequest},
	{campaign.ErrInvalidFactCheck, http.StatusBadRequest},
	{campaign.ErrInvalidColor, http.StatusBadRequest},
	{service.ErrGameNotWaiting, http.StatusConflict},
	{service.ErrGameNotActive, http.StatusConflict},
	{service.ErrGameFull, http.StatusConflict},
	{service.ErrAlreadyJoined, http.StatusConflict},
	{service.ErrNotEnoughPlayers, http.StatusConflict},
	{campaign.ErrFloorOwnedByOpponent, http.StatusConflict},
	{campaign.ErrInsufficientCoins, http.StatusConflict},
	{campaign.ErrPhaseGateNotSatisfied, http.StatusConflict},
	{campaign.ErrWrongPhase, http.StatusConflict},
	{campaign.ErrPlayerDone, http.StatusConflict},
	{campaign.ErrAlreadyPolled, http.StatusConflict},
	{campaign.ErrGameOver, http.StatusConflict},
}

// statusFor maps a service or engine error to an HTTP status.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// writeServiceError writes err with the status it maps to. Unexpected
// errors are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
