package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// Orchestrator plays a full game between two remote bots through the
// HTTP and WebSocket API.
type Orchestrator struct {
	baseURL    string
	strategies map[campaign.Color]Strategy
	eventWait  time.Duration
	rng        campaign.Rand
	bots       []*BotPlayer
}

// BotPlayer wraps a Client with its seat.
type BotPlayer struct {
	Client   *Client
	Color    campaign.Color
	Strategy Strategy
}

// NewOrchestrator creates an Orchestrator. eventWait bounds how long it
// waits for the server to move to the next phase.
func NewOrchestrator(baseURL string, red, blue Strategy, eventWait time.Duration, seed int64) *Orchestrator {
	return &Orchestrator{
		baseURL:    baseURL,
		strategies: map[campaign.Color]Strategy{campaign.Red: red, campaign.Blue: blue},
		eventWait:  eventWait,
		rng:        campaign.NewRand(seed),
	}
}

// Run creates a game, seats both bots, starts it and plays until it ends.
// It returns the winner.
func (o *Orchestrator) Run(ctx context.Context) (campaign.Color, error) {
	suffix := time.Now().Format("150405.000")
	for _, color := range campaign.AllColors() {
		st := o.strategies[color]
		c := NewClient(fmt.Sprintf("remote-%s-%s-%s", color, st.Name(), suffix), o.baseURL)
		o.bots = append(o.bots, &BotPlayer{Client: c, Color: color, Strategy: st})
	}

	creator := o.bots[0].Client
	game, err := creator.CreateGame("Remote Bot Game", o.bots[0].Color)
	if err != nil {
		return campaign.None, fmt.Errorf("create game: %w", err)
	}
	log.Info().Str("gameId", game.ID).Msg("Game created")

	if _, err := o.bots[1].Client.JoinGame(game.ID); err != nil {
		return campaign.None, fmt.Errorf("join %s: %w", o.bots[1].Client.PlayerID(), err)
	}

	// Subscribe before starting so no phase event is missed.
	if err := creator.ConnectWS(game.ID); err != nil {
		return campaign.None, fmt.Errorf("ws connect: %w", err)
	}
	defer creator.CloseWS()
	if _, err := o.waitForEvent(ctx, creator, "connected"); err != nil {
		return campaign.None, fmt.Errorf("ws handshake: %w", err)
	}

	if err := creator.StartGame(game.ID); err != nil {
		return campaign.None, fmt.Errorf("start game: %w", err)
	}
	log.Info().Str("gameId", game.ID).Msg("Game started")

	return o.playLoop(ctx, game.ID)
}

// playLoop submits both bots' moves for each phase, then waits for the
// server to advance.
func (o *Orchestrator) playLoop(ctx context.Context, gameID string) (campaign.Color, error) {
	for {
		if err := ctx.Err(); err != nil {
			return campaign.None, err
		}

		gs, err := o.bots[0].Client.State(gameID)
		if err != nil {
			return campaign.None, fmt.Errorf("get state: %w", err)
		}
		if gs.IsGameOver() {
			return gs.Winner(), nil
		}
		log.Info().Int("turn", gs.TurnNumber).Str("phase", gs.PhaseNumber.String()).
			Float64("opinion", gs.CurrentOpinion()).Msg("Processing phase")

		for _, bp := range o.bots {
			if err := o.submit(gameID, bp); err != nil {
				log.Warn().Err(err).Str("player", bp.Client.PlayerID()).Msg("Submission failed, continuing")
			}
		}

		event, err := o.waitForEvent(ctx, o.bots[0].Client, "phase_changed", "game_ended")
		if err != nil {
			return campaign.None, fmt.Errorf("wait for event: %w", err)
		}
		if event.Type == "game_ended" {
			winner, _ := event.Data["winner"].(string)
			log.Info().Str("winner", winner).Msg("Game ended")
			return campaign.Color(winner), nil
		}
	}
}

// submit fetches the state as bp sees it, plays bp's strategy on a copy
// and sends the resulting moves to the server.
func (o *Orchestrator) submit(gameID string, bp *BotPlayer) error {
	c := bp.Client
	gs, err := c.State(gameID)
	if err != nil {
		return err
	}
	if gs.IsGameOver() || HasActed(gs, bp.Color) {
		return nil
	}
	next := gs.Clone()
	if err := bp.Strategy.Play(next, bp.Color, o.rng); err != nil {
		return err
	}

	switch gs.PhaseNumber {
	case campaign.PhaseAdvertising:
		for _, f := range changedFloors(gs.Board, next.Board, bp.Color) {
			if err := c.ToggleFloor(gameID, f.row, f.col, f.floor); err != nil {
				log.Debug().Err(err).Str("player", c.PlayerID()).Int("row", f.row).Int("col", f.col).
					Int("floor", f.floor).Msg("Skipping floor")
			}
		}
		return c.MarkDone(gameID)
	case campaign.PhasePolling:
		poll, ok := next.Players.Get(bp.Color).PollForTurn(gs.TurnNumber)
		if !ok {
			poll = campaign.DummyPoll(gs.Board.Size)
		}
		return c.RecordPoll(gameID, poll.Region)
	case campaign.PhaseFactChecking:
		return c.SetFactCheck(gameID, next.Players.Get(bp.Color).FactCheck)
	case campaign.PhaseFunding:
		return c.MarkDone(gameID)
	}
	return nil
}

// changedFloors lists floors whose ownership by color differs between two
// boards, releases first so coins are refunded before purchases.
func changedFloors(before, after *campaign.Board, color campaign.Color) []floorRef {
	var released, bought []floorRef
	for r := 0; r < before.Size; r++ {
		for c := 0; c < before.Size; c++ {
			a, b := before.At(r, c), after.At(r, c)
			if !a.IsBuilding() {
				continue
			}
			for i := range a.Floors {
				was, is := a.Floors[i].Influence == color, b.Floors[i].Influence == color
				switch {
				case was && !is:
					released = append(released, floorRef{row: r, col: c, floor: i})
				case !was && is:
					bought = append(bought, floorRef{row: r, col: c, floor: i})
				}
			}
		}
	}
	return append(released, bought...)
}

// waitForEvent blocks until one of the given event types is received or context cancels.
func (o *Orchestrator) waitForEvent(ctx context.Context, c *Client, eventTypes ...string) (WSEvent, error) {
	typeSet := make(map[string]bool)
	for _, t := range eventTypes {
		typeSet[t] = true
	}

	timeout := time.After(o.eventWait)
	for {
		select {
		case <-ctx.Done():
			return WSEvent{}, ctx.Err()
		case <-timeout:
			return WSEvent{}, fmt.Errorf("timeout waiting for events %v", eventTypes)
		case event, ok := <-c.Events():
			if !ok {
				return WSEvent{}, fmt.Errorf("ws connection closed")
			}
			if typeSet[event.Type] {
				return event, nil
			}
			log.Debug().Str("type", event.Type).Msg("Ignoring event")
		}
	}
}
