package model

import (
	"encoding/json"
	"time"
)

// Game statuses.
const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

// Game is a campaign between two seats, red and blue.
type Game struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CreatorID    string       `json:"creator_id"`
	Status       string       `json:"status"`
	Winner       string       `json:"winner,omitempty"` // red, blue, or empty for a draw
	BoardSize    int          `json:"board_size"`
	MaxRoads     int          `json:"max_roads"`
	MaxTurns     int          `json:"max_turns"`
	PhaseSeconds int          `json:"phase_seconds"`
	CreatedAt    time.Time    `json:"created_at"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	Players      []GamePlayer `json:"players,omitempty"`
}

// PhaseDuration is the time each phase stays open before it is forced.
func (g *Game) PhaseDuration() time.Duration {
	return time.Duration(g.PhaseSeconds) * time.Second
}

// GamePlayer is a seat in a game.
type GamePlayer struct {
	GameID   string    `json:"game_id"`
	UserID   string    `json:"user_id"`
	Color    string    `json:"color"`
	IsBot    bool      `json:"is_bot"`
	JoinedAt time.Time `json:"joined_at"`
}

// PlayerFor returns the seat held by userID, or nil.
func (g *Game) PlayerFor(userID string) *GamePlayer {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerByColor returns the seat with the given color, or nil.
func (g *Game) PlayerByColor(color string) *GamePlayer {
	for i := range g.Players {
		if g.Players[i].Color == color {
			return &g.Players[i]
		}
	}
	return nil
}

// Phase is a persisted snapshot of one phase of one turn.
type Phase struct {
	ID          string          `json:"id"`
	GameID      string          `json:"game_id"`
	Turn        int             `json:"turn"`
	PhaseNumber int             `json:"phase_number"`
	StateBefore json.RawMessage `json:"state_before"`
	StateAfter  json.RawMessage `json:"state_after,omitempty"`
	Deadline    time.Time       `json:"deadline"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Action kinds logged per phase.
const (
	ActionToggleFloor = "toggle_floor"
	ActionPoll        = "poll"
	ActionFactCheck   = "fact_check"
	ActionDone        = "done"
	ActionUndone      = "undone"
	ActionBot         = "bot"
)

// Action is an accepted player action, kept for replay and audit.
type Action struct {
	ID        string          `json:"id"`
	PhaseID   string          `json:"phase_id"`
	UserID    string          `json:"user_id"`
	Color     string          `json:"color"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
