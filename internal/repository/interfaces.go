package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/freeeve/campaign-trail/internal/model"
)

// GameRepository defines game and seat data operations.
type GameRepository interface {
	Create(ctx context.Context, g *model.Game) (*model.Game, error)
	FindByID(ctx context.Context, id string) (*model.Game, error)
	ListOpen(ctx context.Context) ([]model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
	ListActive(ctx context.Context) ([]model.Game, error)
	JoinGame(ctx context.Context, gameID, userID, color string, isBot bool) error
	SetActive(ctx context.Context, gameID string) error
	SetFinished(ctx context.Context, gameID, winner string) error
	Delete(ctx context.Context, gameID string) error
}

// PhaseRepository defines phase snapshot and action log operations.
type PhaseRepository interface {
	CreatePhase(ctx context.Context, gameID string, turn, phaseNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error)
	CurrentPhase(ctx context.Context, gameID string) (*model.Phase, error)
	ListPhases(ctx context.Context, gameID string) ([]model.Phase, error)
	ResolvePhase(ctx context.Context, phaseID string, stateAfter json.RawMessage) error
	SaveAction(ctx context.Context, a model.Action) error
	ActionsByPhase(ctx context.Context, phaseID string) ([]model.Action, error)
	ListExpired(ctx context.Context) ([]model.Phase, error)
}

// GameCache defines live game state operations (Redis).
type GameCache interface {
	SetGameState(ctx context.Context, gameID string, state json.RawMessage) error
	GetGameState(ctx context.Context, gameID string) (json.RawMessage, error)
	SetTimer(ctx context.Context, gameID string, deadline time.Time) error
	ClearTimer(ctx context.Context, gameID string) error
	DeleteGameData(ctx context.Context, gameID string) error
}
