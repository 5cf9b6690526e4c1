package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/model"
	"github.com/freeeve/campaign-trail/internal/repository"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNotWaiting   = errors.New("game is not in waiting status")
	ErrGameNotActive    = errors.New("game is not active")
	ErrGameFull         = errors.New("game already has two players")
	ErrAlreadyJoined    = errors.New("already joined this game")
	ErrNotCreator       = errors.New("only the creator can do that")
	ErrNotEnoughPlayers = errors.New("need two players to start")
	ErrNotInGame        = errors.New("you are not in this game")
	ErrInvalidSeat      = errors.New("color must be red, blue or random")
	ErrPhaseNotFound    = errors.New("phase not found")
)

// GameOptions are the defaults new games are created with.
type GameOptions struct {
	Settings      campaign.Settings
	PhaseDuration time.Duration
	BotFill       bool // seat a bot when a game starts with one player
}

// GameService handles game lifecycle operations.
type GameService struct {
	gameRepo  repository.GameRepository
	phaseRepo repository.PhaseRepository
	phaseSvc  *PhaseService
	opts      GameOptions
	newID     func() string
}

// NewGameService creates a GameService.
func NewGameService(gameRepo repository.GameRepository, phaseRepo repository.PhaseRepository, phaseSvc *PhaseService, opts GameOptions) *GameService {
	if opts.Settings == (campaign.Settings{}) {
		opts.Settings = campaign.DefaultSettings()
	}
	if opts.PhaseDuration <= 0 {
		opts.PhaseDuration = 2 * time.Minute
	}
	return &GameService{
		gameRepo:  gameRepo,
		phaseRepo: phaseRepo,
		phaseSvc:  phaseSvc,
		opts:      opts,
		newID:     uuid.NewString,
	}
}

// CreateGame creates a waiting game and seats the creator. seat is red,
// blue, or random/empty for a coin flip.
func (s *GameService) CreateGame(ctx context.Context, name, creatorID, seat string) (*model.Game, error) {
	color, err := s.pickSeat(seat)
	if err != nil {
		return nil, err
	}

	game, err := s.gameRepo.Create(ctx, &model.Game{
		ID:           s.newID(),
		Name:         name,
		CreatorID:    creatorID,
		BoardSize:    s.opts.Settings.Size,
		MaxRoads:     s.opts.Settings.MaxRoadsAllowed,
		MaxTurns:     s.opts.Settings.MaxTurns,
		PhaseSeconds: int(s.opts.PhaseDuration / time.Second),
	})
	if err != nil {
		return nil, err
	}
	if err := s.gameRepo.JoinGame(ctx, game.ID, creatorID, string(color), false); err != nil {
		return nil, err
	}

	log.Info().Str("gameId", game.ID).Str("creator", creatorID).Str("color", string(color)).Msg("Game created")
	return s.gameRepo.FindByID(ctx, game.ID)
}

func (s *GameService) pickSeat(seat string) (campaign.Color, error) {
	switch seat {
	case "", "random":
		rng, err := s.phaseSvc.newRand()
		if err != nil {
			return campaign.None, err
		}
		return campaign.AllColors()[rng.Intn(2)], nil
	}
	color := campaign.Color(seat)
	if !color.Valid() {
		return campaign.None, fmt.Errorf("%w: %q", ErrInvalidSeat, seat)
	}
	return color, nil
}

// findGame loads a game or returns ErrGameNotFound.
func (s *GameService) findGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// JoinGame takes the free seat of a waiting game.
func (s *GameService) JoinGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.findGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != model.StatusWaiting {
		return nil, ErrGameNotWaiting
	}
	if game.PlayerFor(userID) != nil {
		return nil, ErrAlreadyJoined
	}
	color, ok := freeSeat(game)
	if !ok {
		return nil, ErrGameFull
	}
	if err := s.gameRepo.JoinGame(ctx, gameID, userID, string(color), false); err != nil {
		return nil, err
	}
	return s.gameRepo.FindByID(ctx, gameID)
}

func freeSeat(game *model.Game) (campaign.Color, bool) {
	for _, c := range campaign.AllColors() {
		if game.PlayerByColor(string(c)) == nil {
			return c, true
		}
	}
	return campaign.None, false
}

// BotUserID is the user ID a bot takes in a seat.
func BotUserID(color campaign.Color) string {
	return "bot-" + string(color)
}

// StartGame generates the board, creates the first phase and activates the
// game. With bot fill on, a missing opponent is replaced by a bot.
func (s *GameService) StartGame(ctx context.Context, gameID, userID string) (*model.Game, error) {
	game, err := s.findGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status != model.StatusWaiting {
		return nil, ErrGameNotWaiting
	}
	if game.CreatorID != userID {
		return nil, ErrNotCreator
	}

	if color, open := freeSeat(game); open {
		if !s.opts.BotFill {
			return nil, ErrNotEnoughPlayers
		}
		if err := s.gameRepo.JoinGame(ctx, gameID, BotUserID(color), string(color), true); err != nil {
			return nil, fmt.Errorf("seat bot: %w", err)
		}
		if game, err = s.findGame(ctx, gameID); err != nil {
			return nil, err
		}
	}

	rng, err := s.phaseSvc.newRand()
	if err != nil {
		return nil, err
	}
	gs, err := campaign.NewGameState(campaign.Settings{
		Size:            game.BoardSize,
		MaxRoadsAllowed: game.MaxRoads,
		MaxTurns:        game.MaxTurns,
	}, rng)
	if err != nil {
		return nil, err
	}
	for _, p := range game.Players {
		gs.Players.Get(campaign.Color(p.Color)).ID = p.UserID
	}

	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return nil, fmt.Errorf("marshal initial state: %w", err)
	}
	if err := s.gameRepo.SetActive(ctx, gameID); err != nil {
		return nil, err
	}
	deadline := s.phaseSvc.now().Add(game.PhaseDuration())
	if _, err := s.phaseRepo.CreatePhase(ctx, gameID, gs.TurnNumber, int(gs.PhaseNumber), stateJSON, deadline); err != nil {
		return nil, err
	}
	if err := s.phaseSvc.InitializeGame(ctx, gameID, stateJSON, deadline); err != nil {
		return nil, err
	}

	log.Info().Str("gameId", gameID).Int("size", gs.Board.Size).Int("roads", gs.Board.RoadCount()).
		Time("deadline", deadline).Msg("Game started")
	return s.gameRepo.FindByID(ctx, gameID)
}

// GetGame returns a game by ID.
func (s *GameService) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	return s.findGame(ctx, gameID)
}

// ListGames returns open games, or with filter "mine" the user's games.
func (s *GameService) ListGames(ctx context.Context, userID, filter string) ([]model.Game, error) {
	if filter == "mine" {
		return s.gameRepo.ListByUser(ctx, userID)
	}
	return s.gameRepo.ListOpen(ctx)
}

// ListPhases returns the phase snapshots of a game.
func (s *GameService) ListPhases(ctx context.Context, gameID string) ([]model.Phase, error) {
	if _, err := s.findGame(ctx, gameID); err != nil {
		return nil, err
	}
	return s.phaseRepo.ListPhases(ctx, gameID)
}

// PhaseActions returns the action log of one phase of a game.
func (s *GameService) PhaseActions(ctx context.Context, gameID, phaseID string) ([]model.Action, error) {
	phases, err := s.ListPhases(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, p := range phases {
		if p.ID == phaseID {
			return s.phaseRepo.ActionsByPhase(ctx, phaseID)
		}
	}
	return nil, ErrPhaseNotFound
}

// DeleteGame removes a game. Only its creator may delete it.
func (s *GameService) DeleteGame(ctx context.Context, gameID, userID string) error {
	game, err := s.findGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.CreatorID != userID {
		return ErrNotCreator
	}
	if err := s.phaseSvc.CleanupGame(ctx, gameID); err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("Failed to clear cached game data")
	}
	return s.gameRepo.Delete(ctx, gameID)
}
