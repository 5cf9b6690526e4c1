package campaign

import (
	"errors"
	"fmt"
)

// GateError explains why the current phase cannot advance, or returns nil.
// Every failure wraps ErrPhaseGateNotSatisfied; a negative balance also
// wraps ErrInsufficientCoins.
func (gs *GameState) GateError() error {
	if gs.IsGameOver() {
		return ErrGameOver
	}
	var errs []error
	for _, color := range AllColors() {
		p := gs.Players.Get(color)
		if p.Coins < 0 {
			errs = append(errs, fmt.Errorf("%s balance %d: %w", color, p.Coins, ErrInsufficientCoins))
		}
		if !gs.hasActed(p) {
			errs = append(errs, fmt.Errorf("%s has not acted in %s phase", color, gs.PhaseNumber))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrPhaseGateNotSatisfied}, errs...)...)
}

func (gs *GameState) hasActed(p *PlayerInfo) bool {
	switch gs.PhaseNumber {
	case PhaseAdvertising, PhaseFunding:
		return p.PhaseAction == ActionDone
	case PhasePolling:
		return len(p.PollHistory) > gs.TurnNumber
	case PhaseFactChecking:
		return p.FactCheck.Valid()
	}
	return false
}

// CanAdvance reports whether both players have satisfied the phase gate.
func (gs *GameState) CanAdvance() bool {
	return gs.GateError() == nil
}

// AdvancePhase resolves the current phase and moves to the next one. When
// the gate is not satisfied the state is left untouched.
func (gs *GameState) AdvancePhase(rng Rand) error {
	if err := gs.GateError(); err != nil {
		return err
	}
	gs.advance(rng)
	return nil
}

// ForceAdvancePhase resolves the phase regardless of the gate, filling in
// defaults for players who did not act: a neutral whole-board poll in the
// polling phase and trust in the fact-checking phase. A player left in debt
// after advertising has floors released until solvent. Used when a phase
// deadline expires.
func (gs *GameState) ForceAdvancePhase(rng Rand) error {
	if gs.IsGameOver() {
		return ErrGameOver
	}
	if gs.PhaseNumber == PhaseAdvertising {
		gs.settleDebts()
	}
	gs.advance(rng)
	return nil
}

// settleDebts sells back floors, row-major and top floor first, for any
// player whose balance is negative.
func (gs *GameState) settleDebts() {
	for _, color := range AllColors() {
		p := gs.Players.Get(color)
		for r := 0; r < gs.Board.Size && p.Coins < 0; r++ {
			for c := 0; c < gs.Board.Size && p.Coins < 0; c++ {
				cell := &gs.Board.Cells[r][c]
				for f := cell.Height() - 1; f >= 0 && p.Coins < 0; f-- {
					if cell.Floors[f].Influence == color {
						cell.Floors[f].Influence = None
						p.Coins += cell.FloorCost(f)
					}
				}
			}
		}
	}
}

func (gs *GameState) advance(rng Rand) {
	gs.ensureOpinionRecord()
	rec := gs.CurrentOpinionRecord()

	switch gs.PhaseNumber {
	case PhaseAdvertising:
		rec.RedPublicOpinion[1] = rec.RedPublicOpinion[0]

	case PhasePolling:
		gs.fillMissingPolls()
		rec.RedPublicOpinion[2] = gs.pollingOpinion()

	case PhaseFactChecking:
		truth := SampleRegion(gs.Board, WholeBoard(gs.Board.Size), true, rng)
		rec.TrueRedPercent = &truth
		opinion := rec.RedPublicOpinion[2]
		for _, color := range AllColors() {
			p := gs.Players.Get(color)
			if !p.FactCheck.Valid() {
				p.FactCheck = FactCheckTrust
			}
			challenged, _ := gs.Players.Get(color.Opponent()).PollForTurn(gs.TurnNumber)
			opinion += ResolveFactCheck(p.FactCheck, truth, challenged.RedPercent, color)
		}
		opinion = clamp01(opinion)
		rec.RedPublicOpinion[3] = opinion
		gs.Board.ClearInfluence()
		gs.Players.Red.Coins, gs.Players.Blue.Coins = CoinsForOpinion(opinion)

	case PhaseFunding:
		carried := rec.RedPublicOpinion[3]
		for _, color := range AllColors() {
			p := gs.Players.Get(color)
			p.FactCheck = FactCheckNone
		}
		gs.TurnNumber++
		gs.PublicOpinionHistory = append(gs.PublicOpinionHistory, baselineOpinion(carried))
	}

	gs.PhaseNumber = gs.PhaseNumber%PhasesPerTurn + 1
	gs.clampCounters()
	gs.Players.Red.PhaseAction = ActionNone
	gs.Players.Blue.PhaseAction = ActionNone
}

// pollingOpinion averages the red and blue polls of the previous and the
// current turn, smoothing sampling noise across turns.
func (gs *GameState) pollingOpinion() float64 {
	sum := 0.0
	for _, turn := range []int{gs.TurnNumber - 1, gs.TurnNumber} {
		for _, color := range AllColors() {
			poll, ok := gs.Players.Get(color).PollForTurn(turn)
			if !ok {
				poll = DummyPoll(gs.Board.Size)
			}
			sum += poll.RedPercent
		}
	}
	return clamp01(sum / 4)
}

func (gs *GameState) fillMissingPolls() {
	for _, color := range AllColors() {
		p := gs.Players.Get(color)
		if len(p.PollHistory) <= gs.TurnNumber {
			p.padPollHistory(gs.TurnNumber, gs.Board.Size)
			p.PollHistory = append(p.PollHistory, DummyPoll(gs.Board.Size))
		}
	}
}

// ensureOpinionRecord pads the history so the current turn has a record.
func (gs *GameState) ensureOpinionRecord() {
	for len(gs.PublicOpinionHistory) <= gs.TurnNumber {
		carried := 0.5
		if n := len(gs.PublicOpinionHistory); n > 0 {
			carried = gs.PublicOpinionHistory[n-1].RedPublicOpinion[PhasesPerTurn-1]
		}
		gs.PublicOpinionHistory = append(gs.PublicOpinionHistory, baselineOpinion(carried))
	}
}

func (gs *GameState) clampCounters() {
	gs.TurnNumber = max(gs.TurnNumber, 0)
	gs.PhaseNumber = min(max(gs.PhaseNumber, PhaseAdvertising), PhaseFunding)
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
