// Package bot plays a campaign seat without a human: strategies submit a
// phase's actions directly against a game state, and the arena runs whole
// bot-vs-bot games headless.
package bot

import (
	"errors"

	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// Strategy submits one seat's actions for the current phase of gs.
// Play never advances the phase.
type Strategy interface {
	Name() string
	Play(gs *campaign.GameState, color campaign.Color, rng campaign.Rand) error
}

// StrategyByName returns the strategy registered under name. Unknown names
// get the greedy strategy.
func StrategyByName(name string) Strategy {
	switch name {
	case "random":
		return RandomStrategy{}
	default:
		return GreedyStrategy{}
	}
}

// HasActed reports whether color has nothing left to submit this phase.
func HasActed(gs *campaign.GameState, color campaign.Color) bool {
	p := gs.Players.Get(color)
	if p == nil {
		return true
	}
	switch gs.PhaseNumber {
	case campaign.PhaseAdvertising, campaign.PhaseFunding:
		return p.PhaseAction == campaign.ActionDone
	case campaign.PhasePolling:
		_, ok := p.PollForTurn(gs.TurnNumber)
		return ok
	case campaign.PhaseFactChecking:
		return p.FactCheck.Valid()
	}
	return true
}

// pollOrFallback polls region, falling back to the whole board when the
// region holds no roads.
func pollOrFallback(gs *campaign.GameState, color campaign.Color, region campaign.PollRegion, rng campaign.Rand) error {
	if err := gs.Board.ValidatePollRegion(region); errors.Is(err, campaign.ErrEmptyPollRegion) {
		region = campaign.WholeBoard(gs.Board.Size)
	}
	_, err := gs.RecordPoll(color, region, rng)
	return err
}

// RandomStrategy buys random affordable floors, polls a random region and
// picks a random fact-check.
type RandomStrategy struct{}

func (RandomStrategy) Name() string { return "random" }

// Play implements Strategy.
func (RandomStrategy) Play(gs *campaign.GameState, color campaign.Color, rng campaign.Rand) error {
	if gs.IsGameOver() || HasActed(gs, color) {
		return nil
	}
	switch gs.PhaseNumber {
	case campaign.PhaseAdvertising:
		candidates := openFloors(gs)
		for range rng.Intn(len(candidates) + 1) {
			c := candidates[rng.Intn(len(candidates))]
			if gs.CanAfford(c.row, c.col, c.floor, color) != nil {
				continue
			}
			cell := gs.Board.At(c.row, c.col)
			if cell.Floors[c.floor].Influence != campaign.None {
				continue
			}
			if err := gs.ToggleFloorInfluence(c.row, c.col, c.floor, color); err != nil {
				return err
			}
		}
		return gs.MarkDone(color)
	case campaign.PhasePolling:
		n := gs.Board.Size
		r0, r1 := rng.Intn(n), rng.Intn(n)
		c0, c1 := rng.Intn(n), rng.Intn(n)
		region := campaign.PollRegion{
			StartRow: min(r0, r1), EndRow: max(r0, r1),
			StartCol: min(c0, c1), EndCol: max(c0, c1),
		}
		return pollOrFallback(gs, color, region, rng)
	case campaign.PhaseFactChecking:
		kinds := []campaign.FactCheck{campaign.FactCheckTrust, campaign.FactCheckDoubt, campaign.FactCheckAccuse}
		return gs.SetFactCheck(color, kinds[rng.Intn(len(kinds))])
	case campaign.PhaseFunding:
		return gs.MarkDone(color)
	}
	return nil
}

type floorRef struct {
	row, col, floor int
	cost            int
}

// openFloors lists every unowned floor, row-major, bottom floor first.
func openFloors(gs *campaign.GameState) []floorRef {
	var out []floorRef
	for r, row := range gs.Board.Cells {
		for c, cell := range row {
			if !cell.IsBuilding() {
				continue
			}
			for f, floor := range cell.Floors {
				if floor.Influence == campaign.None {
					out = append(out, floorRef{row: r, col: c, floor: f, cost: cell.FloorCost(f)})
				}
			}
		}
	}
	return out
}
