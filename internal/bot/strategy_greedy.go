package bot

import (
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// maxPurchases bounds how many floors one advertising phase may buy.
const maxPurchases = 16

// GreedyStrategy buys the floors with the best share gain per coin, polls
// the whole board, and challenges the opponent's poll whenever the board
// shows it misses the truth by enough to win the challenge.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return "greedy" }

// Play implements Strategy.
func (g GreedyStrategy) Play(gs *campaign.GameState, color campaign.Color, rng campaign.Rand) error {
	if gs.IsGameOver() || HasActed(gs, color) {
		return nil
	}
	switch gs.PhaseNumber {
	case campaign.PhaseAdvertising:
		return g.advertise(gs, color)
	case campaign.PhasePolling:
		return pollOrFallback(gs, color, campaign.WholeBoard(gs.Board.Size), rng)
	case campaign.PhaseFactChecking:
		return gs.SetFactCheck(color, g.factCheck(gs, color))
	case campaign.PhaseFunding:
		return gs.MarkDone(color)
	}
	return nil
}

func (GreedyStrategy) advertise(gs *campaign.GameState, color campaign.Color) error {
	player := gs.Players.Get(color)
	for range maxPurchases {
		base := Share(gs.Board, color)
		var best *floorRef
		bestScore := 0.0
		for _, c := range openFloors(gs) {
			if c.cost > player.Coins {
				continue
			}
			gain := shareWith(gs.Board, c, color) - base
			score := gain / float64(max(c.cost, 1))
			if score > bestScore {
				bestScore = score
				ref := c
				best = &ref
			}
		}
		if best == nil {
			break
		}
		if err := gs.ToggleFloorInfluence(best.row, best.col, best.floor, color); err != nil {
			return err
		}
	}
	return gs.MarkDone(color)
}

// factCheck picks the largest challenge that would succeed against the
// opponent's poll this turn, or trust.
func (GreedyStrategy) factCheck(gs *campaign.GameState, color campaign.Color) campaign.FactCheck {
	opp := gs.Players.Get(color.Opponent())
	poll, ok := opp.PollForTurn(gs.TurnNumber)
	if !ok {
		return campaign.FactCheckTrust
	}
	truth := campaign.SampleRegion(gs.Board, campaign.WholeBoard(gs.Board.Size), true, nil)
	for _, kind := range []campaign.FactCheck{campaign.FactCheckAccuse, campaign.FactCheckDoubt} {
		if campaign.ChallengeSucceeds(kind, truth, poll.RedPercent) {
			return kind
		}
	}
	return campaign.FactCheckTrust
}

// Share is color's mean share of road opinion on b.
func Share(b *campaign.Board, color campaign.Color) float64 {
	red := campaign.SampleRegion(b, campaign.WholeBoard(b.Size), true, nil)
	if color == campaign.Blue {
		return 1 - red
	}
	return red
}

// shareWith evaluates Share as if color owned floor c.
func shareWith(b *campaign.Board, c floorRef, color campaign.Color) float64 {
	floor := &b.Cells[c.row][c.col].Floors[c.floor]
	prev := floor.Influence
	floor.Influence = color
	s := Share(b, color)
	floor.Influence = prev
	return s
}
