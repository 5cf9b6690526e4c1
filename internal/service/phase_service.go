package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/bot"
	"github.com/freeeve/campaign-trail/internal/logger"
	"github.com/freeeve/campaign-trail/internal/model"
	"github.com/freeeve/campaign-trail/internal/random"
	"github.com/freeeve/campaign-trail/internal/repository"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// botTimeout bounds one round of bot submissions.
const botTimeout = 30 * time.Second

// PhaseService applies player actions to live games and moves them through
// phases, either as soon as both players have acted or when the deadline
// passes.
type PhaseService struct {
	gameRepo    repository.GameRepository
	phaseRepo   repository.PhaseRepository
	cache       repository.GameCache
	broadcaster Broadcaster
	strategy    bot.Strategy

	newSeed  func() (int64, error)
	now      func() time.Time
	runAsync func(func())

	// gameLocks serializes every state change of a game. The keyspace
	// listener, the poller and player requests can all race on one game.
	gameLocks sync.Map
}

// NewPhaseService creates a PhaseService.
func NewPhaseService(
	gameRepo repository.GameRepository,
	phaseRepo repository.PhaseRepository,
	cache repository.GameCache,
	broadcaster Broadcaster,
) *PhaseService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &PhaseService{
		gameRepo:    gameRepo,
		phaseRepo:   phaseRepo,
		cache:       cache,
		broadcaster: broadcaster,
		strategy:    bot.GreedyStrategy{},
		newSeed:     random.NewSeed,
		now:         time.Now,
		runAsync:    func(f func()) { go f() },
	}
}

// SetBotStrategy sets the strategy bot seats play with.
func (s *PhaseService) SetBotStrategy(st bot.Strategy) {
	s.strategy = st
}

func (s *PhaseService) gameLock(gameID string) *sync.Mutex {
	v, _ := s.gameLocks.LoadOrStore(gameID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// newRand returns a freshly seeded RNG for one state transition.
func (s *PhaseService) newRand() (*rand.Rand, error) {
	seed, err := s.newSeed()
	if err != nil {
		return nil, err
	}
	return campaign.NewRand(seed), nil
}

// InitializeGame stores the first state and timer of a started game, then
// lets bots play the opening phase.
func (s *PhaseService) InitializeGame(ctx context.Context, gameID string, stateJSON json.RawMessage, deadline time.Time) error {
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, gameID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}
	s.broadcaster.BroadcastGameEvent(gameID, EventGameStarted, map[string]any{
		"deadline": deadline.Format(time.RFC3339),
	})
	s.scheduleBots(gameID)
	return nil
}

// CleanupGame drops a game's live data.
func (s *PhaseService) CleanupGame(ctx context.Context, gameID string) error {
	defer s.gameLocks.Delete(gameID)
	return s.cache.DeleteGameData(ctx, gameID)
}

// RecoverActiveGames rehydrates Redis state for all active games from
// Postgres. Called on startup so a Redis restart does not lose games.
func (s *PhaseService) RecoverActiveGames(ctx context.Context) error {
	games, err := s.gameRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active games: %w", err)
	}
	if len(games) == 0 {
		log.Info().Msg("No active games to recover")
		return nil
	}
	log.Info().Int("count", len(games)).Msg("Recovering active games after restart")

	for _, game := range games {
		l := logger.ForGame(game.ID)
		phase, err := s.phaseRepo.CurrentPhase(ctx, game.ID)
		if err != nil {
			l.Error().Err(err).Msg("Failed to get current phase during recovery")
			continue
		}
		if phase == nil {
			l.Warn().Msg("Active game has no current phase, skipping")
			continue
		}

		cached, err := s.cache.GetGameState(ctx, game.ID)
		if err != nil {
			l.Error().Err(err).Msg("Failed to read cached state")
			continue
		}
		if cached == nil {
			if err := s.cache.SetGameState(ctx, game.ID, phase.StateBefore); err != nil {
				l.Error().Err(err).Msg("Failed to restore game state")
				continue
			}
		}
		if s.now().Before(phase.Deadline) {
			if err := s.cache.SetTimer(ctx, game.ID, phase.Deadline); err != nil {
				l.Error().Err(err).Msg("Failed to restore timer")
			}
		}
		s.scheduleBots(game.ID)

		l.Info().Int("turn", phase.Turn).Int("phase", phase.PhaseNumber).
			Bool("fromCache", cached != nil).Time("deadline", phase.Deadline).
			Msg("Recovered game state")
	}
	return nil
}

// State returns the live state of a game, or the final state once it has
// finished.
func (s *PhaseService) State(ctx context.Context, gameID string) (*campaign.GameState, error) {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	switch game.Status {
	case model.StatusWaiting:
		return nil, ErrGameNotActive
	case model.StatusFinished:
		return s.finalState(ctx, gameID)
	}
	phase, err := s.phaseRepo.CurrentPhase(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if phase == nil {
		return nil, fmt.Errorf("active game %s has no current phase", gameID)
	}
	return s.loadState(ctx, gameID, phase)
}

func (s *PhaseService) finalState(ctx context.Context, gameID string) (*campaign.GameState, error) {
	phases, err := s.phaseRepo.ListPhases(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if len(phases) == 0 || phases[len(phases)-1].StateAfter == nil {
		return nil, fmt.Errorf("finished game %s has no final state", gameID)
	}
	return decodeState(phases[len(phases)-1].StateAfter)
}

// loadState reads the cached state, falling back to the phase snapshot.
func (s *PhaseService) loadState(ctx context.Context, gameID string, phase *model.Phase) (*campaign.GameState, error) {
	stateJSON, err := s.cache.GetGameState(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("get cached state: %w", err)
	}
	if stateJSON == nil {
		stateJSON = phase.StateBefore
	}
	return decodeState(stateJSON)
}

func decodeState(data json.RawMessage) (*campaign.GameState, error) {
	var gs campaign.GameState
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &gs, nil
}

// actionFunc mutates a copy of the state on behalf of color.
type actionFunc func(gs *campaign.GameState, color campaign.Color, rng campaign.Rand) error

// ToggleFloor buys or releases a floor during advertising.
func (s *PhaseService) ToggleFloor(ctx context.Context, gameID, userID string, row, col, floor int) (*campaign.GameState, error) {
	payload := map[string]int{"row": row, "col": col, "floor": floor}
	return s.act(ctx, gameID, userID, model.ActionToggleFloor, payload,
		func(gs *campaign.GameState, color campaign.Color, _ campaign.Rand) error {
			return gs.ToggleFloorInfluence(row, col, floor, color)
		})
}

// RecordPoll runs the player's poll for this turn.
func (s *PhaseService) RecordPoll(ctx context.Context, gameID, userID string, region campaign.PollRegion) (campaign.Poll, *campaign.GameState, error) {
	var poll campaign.Poll
	gs, err := s.act(ctx, gameID, userID, model.ActionPoll, region,
		func(gs *campaign.GameState, color campaign.Color, rng campaign.Rand) error {
			var err error
			poll, err = gs.RecordPoll(color, region, rng)
			return err
		})
	return poll, gs, err
}

// SetFactCheck records the player's response to the opponent's poll.
func (s *PhaseService) SetFactCheck(ctx context.Context, gameID, userID string, kind campaign.FactCheck) (*campaign.GameState, error) {
	return s.act(ctx, gameID, userID, model.ActionFactCheck, map[string]campaign.FactCheck{"kind": kind},
		func(gs *campaign.GameState, color campaign.Color, _ campaign.Rand) error {
			return gs.SetFactCheck(color, kind)
		})
}

// MarkDone finishes the player's advertising or funding phase.
func (s *PhaseService) MarkDone(ctx context.Context, gameID, userID string) (*campaign.GameState, error) {
	return s.act(ctx, gameID, userID, model.ActionDone, nil,
		func(gs *campaign.GameState, color campaign.Color, _ campaign.Rand) error {
			return gs.MarkDone(color)
		})
}

// UnmarkDone reopens the player's phase while the opponent is still acting.
func (s *PhaseService) UnmarkDone(ctx context.Context, gameID, userID string) (*campaign.GameState, error) {
	return s.act(ctx, gameID, userID, model.ActionUndone, nil,
		func(gs *campaign.GameState, color campaign.Color, _ campaign.Rand) error {
			return gs.UnmarkDone(color)
		})
}

// SubmitBotActions lets every bot seat that has not acted play the current
// phase.
func (s *PhaseService) SubmitBotActions(ctx context.Context, gameID string) error {
	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("find game for bots: %w", err)
	}
	if game == nil || game.Status != model.StatusActive {
		return nil
	}
	for _, p := range game.Players {
		if !p.IsBot {
			continue
		}
		gs, err := s.State(ctx, gameID)
		if errors.Is(err, ErrGameNotActive) {
			return nil
		}
		if err != nil {
			return err
		}
		color := campaign.Color(p.Color)
		if gs.IsGameOver() || bot.HasActed(gs, color) {
			continue
		}
		_, err = s.act(ctx, gameID, p.UserID, model.ActionBot, map[string]string{"strategy": s.strategy.Name()}, s.strategy.Play)
		if err != nil && !errors.Is(err, ErrGameNotActive) {
			return fmt.Errorf("bot %s: %w", color, err)
		}
	}
	return nil
}

// act applies fn to a copy of the live state. Nothing is stored when fn
// fails. When both players have then acted, the game advances.
func (s *PhaseService) act(ctx context.Context, gameID, userID, kind string, payload any, fn actionFunc) (*campaign.GameState, error) {
	gs, advanced, err := s.actLocked(ctx, gameID, userID, kind, payload, fn)
	if err != nil {
		return nil, err
	}
	if advanced && !gs.IsGameOver() {
		s.scheduleBots(gameID)
	}
	return gs, nil
}

func (s *PhaseService) actLocked(ctx context.Context, gameID, userID, kind string, payload any, fn actionFunc) (*campaign.GameState, bool, error) {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	if game == nil {
		return nil, false, ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		return nil, false, ErrGameNotActive
	}
	seat := game.PlayerFor(userID)
	if seat == nil {
		return nil, false, ErrNotInGame
	}
	color := campaign.Color(seat.Color)

	phase, err := s.phaseRepo.CurrentPhase(ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	if phase == nil {
		return nil, false, ErrGameNotActive
	}
	current, err := s.loadState(ctx, gameID, phase)
	if err != nil {
		return nil, false, err
	}
	rng, err := s.newRand()
	if err != nil {
		return nil, false, err
	}

	gs := current.Clone()
	if err := fn(gs, color, rng); err != nil {
		return nil, false, err
	}

	action := model.Action{PhaseID: phase.ID, UserID: userID, Color: string(color), Kind: kind}
	if payload != nil {
		if action.Payload, err = json.Marshal(payload); err != nil {
			return nil, false, fmt.Errorf("marshal action: %w", err)
		}
	}

	if gs.CanAdvance() {
		if err := s.advanceLocked(ctx, game, phase, gs, rng, false); err != nil {
			return nil, false, err
		}
		s.logAction(ctx, action)
		return gs, true, nil
	}

	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return nil, false, fmt.Errorf("marshal state: %w", err)
	}
	if err := s.cache.SetGameState(ctx, gameID, stateJSON); err != nil {
		return nil, false, err
	}
	s.logAction(ctx, action)
	log.Debug().Str("gameId", gameID).Str("color", string(color)).Str("kind", kind).Msg("Action applied")
	s.broadcaster.BroadcastGameEvent(gameID, EventStateChanged, map[string]any{
		"color": color,
		"kind":  kind,
	})
	return gs, false, nil
}

// logAction appends an applied action to the phase log. It runs only after
// the resulting state is stored, so the log never holds an action whose
// state was lost. A failed append is logged and the action stands.
func (s *PhaseService) logAction(ctx context.Context, action model.Action) {
	if err := s.phaseRepo.SaveAction(ctx, action); err != nil {
		log.Error().Err(err).Str("phaseId", action.PhaseID).Str("color", action.Color).
			Str("kind", action.Kind).Msg("Failed to log applied action")
	}
}

// ResolvePhase force-advances a game whose current phase is past its
// deadline. Missing actions get their defaults.
func (s *PhaseService) ResolvePhase(ctx context.Context, gameID string) error {
	advanced, over, err := s.resolveLocked(ctx, gameID)
	if err != nil {
		return err
	}
	if advanced && !over {
		s.scheduleBots(gameID)
	}
	return nil
}

func (s *PhaseService) resolveLocked(ctx context.Context, gameID string) (advanced, over bool, err error) {
	mu := s.gameLock(gameID)
	mu.Lock()
	defer mu.Unlock()

	game, err := s.gameRepo.FindByID(ctx, gameID)
	if err != nil {
		return false, false, fmt.Errorf("find game: %w", err)
	}
	if game == nil {
		return false, false, ErrGameNotFound
	}
	if game.Status != model.StatusActive {
		log.Info().Str("gameId", gameID).Str("status", game.Status).Msg("Skipping resolution for non-active game")
		return false, false, nil
	}

	phase, err := s.phaseRepo.CurrentPhase(ctx, gameID)
	if err != nil {
		return false, false, fmt.Errorf("get current phase: %w", err)
	}
	if phase == nil {
		return false, false, nil
	}
	if s.now().Before(phase.Deadline) {
		log.Debug().Str("gameId", gameID).Time("deadline", phase.Deadline).Msg("Phase deadline not yet reached, skipping")
		return false, false, nil
	}

	gs, err := s.loadState(ctx, gameID, phase)
	if err != nil {
		return false, false, err
	}
	rng, err := s.newRand()
	if err != nil {
		return false, false, err
	}
	log.Info().Str("gameId", gameID).Str("phaseId", phase.ID).Int("turn", gs.TurnNumber).
		Str("phase", gs.PhaseNumber.String()).AnErr("gate", gs.GateError()).Msg("Deadline passed, forcing phase")

	if err := s.advanceLocked(ctx, game, phase, gs, rng, true); err != nil {
		return false, false, err
	}
	return true, gs.IsGameOver(), nil
}

// advanceLocked moves gs to its next phase and persists the transition.
// gs is modified in place. Callers hold the game lock.
func (s *PhaseService) advanceLocked(ctx context.Context, game *model.Game, phase *model.Phase, gs *campaign.GameState, rng campaign.Rand, forced bool) error {
	from := gs.PhaseNumber
	var err error
	if forced {
		err = gs.ForceAdvancePhase(rng)
	} else {
		err = gs.AdvancePhase(rng)
	}
	if err != nil {
		return err
	}

	stateJSON, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.phaseRepo.ResolvePhase(ctx, phase.ID, stateJSON); err != nil {
		return fmt.Errorf("resolve phase: %w", err)
	}

	if gs.IsGameOver() {
		winner := gs.Winner()
		log.Info().Str("gameId", game.ID).Str("winner", string(winner)).
			Float64("opinion", gs.CurrentOpinion()).Msg("Game finished")
		if err := s.gameRepo.SetFinished(ctx, game.ID, string(winner)); err != nil {
			return fmt.Errorf("set finished: %w", err)
		}
		s.broadcaster.BroadcastGameEvent(game.ID, EventGameEnded, map[string]any{
			"winner":  winner,
			"opinion": gs.CurrentOpinion(),
		})
		return s.cache.DeleteGameData(ctx, game.ID)
	}

	deadline := s.now().Add(game.PhaseDuration())
	if _, err := s.phaseRepo.CreatePhase(ctx, game.ID, gs.TurnNumber, int(gs.PhaseNumber), stateJSON, deadline); err != nil {
		return fmt.Errorf("create next phase: %w", err)
	}
	if err := s.cache.SetGameState(ctx, game.ID, stateJSON); err != nil {
		return fmt.Errorf("set new state: %w", err)
	}
	if err := s.cache.SetTimer(ctx, game.ID, deadline); err != nil {
		return fmt.Errorf("set timer: %w", err)
	}

	log.Info().Str("gameId", game.ID).Str("from", from.String()).Int("turn", gs.TurnNumber).
		Str("phase", gs.PhaseNumber.String()).Bool("forced", forced).
		Float64("opinion", gs.CurrentOpinion()).Time("deadline", deadline).
		Msg("Game advanced to next phase")

	s.broadcaster.BroadcastGameEvent(game.ID, EventPhaseChanged, map[string]any{
		"turn":     gs.TurnNumber,
		"phase":    int(gs.PhaseNumber),
		"name":     gs.PhaseNumber.String(),
		"opinion":  gs.CurrentOpinion(),
		"deadline": deadline.Format(time.RFC3339),
	})
	return nil
}

// scheduleBots runs bot submissions outside the caller's lock.
func (s *PhaseService) scheduleBots(gameID string) {
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), botTimeout)
		defer cancel()
		if err := s.SubmitBotActions(ctx, gameID); err != nil {
			log.Error().Err(err).Str("gameId", gameID).Msg("Failed to submit bot actions")
		}
	})
}
