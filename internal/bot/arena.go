package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/model"
	"github.com/freeeve/campaign-trail/internal/random"
	"github.com/freeeve/campaign-trail/internal/repository"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// ArenaConfig configures a single bot-vs-bot game.
type ArenaConfig struct {
	GameName string
	Red      string // strategy name
	Blue     string // strategy name
	Settings campaign.Settings
	Seed     int64 // 0 = random
	DryRun   bool  // skip DB writes
}

// ArenaResult describes the outcome of a completed arena game.
type ArenaResult struct {
	GameID       string    `json:"game_id,omitempty"`
	Seed         int64     `json:"seed"`
	Winner       string    `json:"winner"` // red, blue, or "" for a draw
	FinalOpinion float64   `json:"final_opinion"`
	TurnOpinions []float64 `json:"turn_opinions"` // end-of-turn red opinion, turn 1 first
	TotalPhases  int       `json:"total_phases"`
	ForcedPhases int       `json:"forced_phases"`
}

// RunGame plays a full game between two strategies. Pass nil repos with
// DryRun to keep everything in memory.
func RunGame(
	ctx context.Context,
	cfg ArenaConfig,
	gameRepo repository.GameRepository,
	phaseRepo repository.PhaseRepository,
) (*ArenaResult, error) {
	if cfg.Settings == (campaign.Settings{}) {
		cfg.Settings = campaign.DefaultSettings()
	}
	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, err
		}
	}
	rng := campaign.NewRand(seed)

	strategies := map[campaign.Color]Strategy{
		campaign.Red:  StrategyByName(cfg.Red),
		campaign.Blue: StrategyByName(cfg.Blue),
	}

	gs, err := campaign.NewGameState(cfg.Settings, rng)
	if err != nil {
		return nil, err
	}
	gs.Players.Red.ID = arenaUserID(campaign.Red, strategies[campaign.Red])
	gs.Players.Blue.ID = arenaUserID(campaign.Blue, strategies[campaign.Blue])

	result := &ArenaResult{Seed: seed}
	if !cfg.DryRun {
		if result.GameID, err = createArenaGame(ctx, cfg, gs, gameRepo); err != nil {
			return nil, fmt.Errorf("create arena game: %w", err)
		}
	}

	for !gs.IsGameOver() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.TotalPhases++

		var phaseID string
		if !cfg.DryRun {
			stateBefore, err := json.Marshal(gs)
			if err != nil {
				return nil, fmt.Errorf("marshal state before: %w", err)
			}
			deadline := time.Now().Add(time.Hour)
			phase, err := phaseRepo.CreatePhase(ctx, result.GameID, gs.TurnNumber, int(gs.PhaseNumber), stateBefore, deadline)
			if err != nil {
				return nil, fmt.Errorf("create phase: %w", err)
			}
			phaseID = phase.ID
		}

		for _, color := range campaign.AllColors() {
			if err := strategies[color].Play(gs, color, rng); err != nil {
				return nil, fmt.Errorf("%s %s on turn %d %s: %w", color, strategies[color].Name(), gs.TurnNumber, gs.PhaseNumber, err)
			}
			if !cfg.DryRun {
				action := model.Action{
					PhaseID: phaseID,
					UserID:  gs.Players.Get(color).ID,
					Color:   string(color),
					Kind:    model.ActionBot,
				}
				if err := phaseRepo.SaveAction(ctx, action); err != nil {
					return nil, fmt.Errorf("save action: %w", err)
				}
			}
		}

		if !cfg.DryRun {
			stateAfter, err := json.Marshal(gs)
			if err != nil {
				return nil, fmt.Errorf("marshal state after: %w", err)
			}
			if err := phaseRepo.ResolvePhase(ctx, phaseID, stateAfter); err != nil {
				return nil, fmt.Errorf("resolve phase in DB: %w", err)
			}
		}

		leaving := gs.PhaseNumber
		if err := gs.AdvancePhase(rng); err != nil {
			if !errors.Is(err, campaign.ErrPhaseGateNotSatisfied) {
				return nil, err
			}
			result.ForcedPhases++
			log.Debug().Err(err).Int("turn", gs.TurnNumber).Str("phase", gs.PhaseNumber.String()).Msg("Forcing arena phase")
			if err := gs.ForceAdvancePhase(rng); err != nil {
				return nil, err
			}
		}
		if leaving == campaign.PhaseFactChecking {
			result.TurnOpinions = append(result.TurnOpinions, gs.CurrentOpinion())
		}
	}

	result.Winner = string(gs.Winner())
	result.FinalOpinion = gs.CurrentOpinion()
	if !cfg.DryRun {
		if err := gameRepo.SetFinished(ctx, result.GameID, result.Winner); err != nil {
			return nil, fmt.Errorf("set finished: %w", err)
		}
	}
	log.Info().Str("gameId", result.GameID).Str("winner", result.Winner).
		Float64("opinion", result.FinalOpinion).Int64("seed", seed).Msg("Arena game finished")
	return result, nil
}

func arenaUserID(color campaign.Color, s Strategy) string {
	return fmt.Sprintf("botmatch-%s-%s", color, s.Name())
}

func createArenaGame(ctx context.Context, cfg ArenaConfig, gs *campaign.GameState, gameRepo repository.GameRepository) (string, error) {
	name := cfg.GameName
	if name == "" {
		name = "botmatch"
	}
	game, err := gameRepo.Create(ctx, &model.Game{
		ID:           uuid.NewString(),
		Name:         name,
		CreatorID:    gs.Players.Red.ID,
		BoardSize:    cfg.Settings.Size,
		MaxRoads:     cfg.Settings.MaxRoadsAllowed,
		MaxTurns:     cfg.Settings.MaxTurns,
		PhaseSeconds: int(time.Hour / time.Second),
	})
	if err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}
	for _, color := range campaign.AllColors() {
		if err := gameRepo.JoinGame(ctx, game.ID, gs.Players.Get(color).ID, string(color), true); err != nil {
			return "", fmt.Errorf("join %s bot: %w", color, err)
		}
	}
	if err := gameRepo.SetActive(ctx, game.ID); err != nil {
		return "", err
	}
	return game.ID, nil
}
