package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// PlayerHeader carries the caller's player ID.
const PlayerHeader = "X-Player-ID"

type contextKey string

const playerIDKey contextKey = "player_id"

// maxPlayerIDLen bounds the header so it fits the user_id columns.
const maxPlayerIDLen = 64

var (
	ErrMissingPlayerID = errors.New("missing player id")
	ErrInvalidPlayerID = errors.New("invalid player id")
)

// ValidatePlayerID trims id and rejects empty, oversized and bot- ids.
// The bot- prefix is reserved for seats the server fills itself.
func ValidatePlayerID(id string) (string, error) {
	id = strings.TrimSpace(id)
	switch {
	case id == "":
		return "", ErrMissingPlayerID
	case len(id) > maxPlayerIDLen, strings.HasPrefix(id, "bot-"):
		return "", ErrInvalidPlayerID
	}
	return id, nil
}

// PlayerID stores the caller's player ID from the X-Player-ID header in the
// request context. Requests without a valid one get a 401.
func PlayerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := ValidatePlayerID(r.Header.Get(PlayerHeader))
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPlayerID(r.Context(), id)))
	})
}

// WithPlayerID returns a context carrying the player ID.
func WithPlayerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, playerIDKey, id)
}

// PlayerIDFromContext returns the caller's player ID, or empty string.
func PlayerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(playerIDKey).(string)
	return id
}
