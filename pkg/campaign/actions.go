package campaign

import "fmt"

// Player actions validate everything before touching state, so a returned
// error always leaves the GameState unchanged.

func (gs *GameState) actingPlayer(color Color, phase Phase) (*PlayerInfo, error) {
	if gs.IsGameOver() {
		return nil, ErrGameOver
	}
	p := gs.Players.Get(color)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	if gs.PhaseNumber != phase {
		return nil, fmt.Errorf("%w: %s during %s", ErrWrongPhase, phase, gs.PhaseNumber)
	}
	return p, nil
}

// building returns the building at (row, col) and checks floorIndex.
func (gs *GameState) building(row, col, floorIndex int) (*Cell, error) {
	cell := gs.Board.At(row, col)
	if cell == nil {
		return nil, fmt.Errorf("%w: (%d,%d) out of bounds", ErrInvalidCell, row, col)
	}
	if !cell.IsBuilding() {
		return nil, fmt.Errorf("%w: (%d,%d) is a road", ErrInvalidCell, row, col)
	}
	if floorIndex < 0 || floorIndex >= cell.Height() {
		return nil, fmt.Errorf("%w: floor %d of %d-storey building at (%d,%d)",
			ErrInvalidCell, floorIndex, cell.Height(), row, col)
	}
	return cell, nil
}

// ToggleFloorInfluence buys an unowned floor for color, or sells back a
// floor color already owns, adjusting coins by the floor's cost. Balances
// may go negative; the phase gate refuses to advance until they recover.
func (gs *GameState) ToggleFloorInfluence(row, col, floorIndex int, color Color) error {
	p, err := gs.actingPlayer(color, PhaseAdvertising)
	if err != nil {
		return err
	}
	if p.PhaseAction == ActionDone {
		return ErrPlayerDone
	}
	cell, err := gs.building(row, col, floorIndex)
	if err != nil {
		return err
	}
	floor := &cell.Floors[floorIndex]
	cost := cell.FloorCost(floorIndex)
	switch floor.Influence {
	case color:
		floor.Influence = None
		p.Coins += cost
	case None:
		floor.Influence = color
		p.Coins -= cost
	default:
		return fmt.Errorf("%w: floor %d at (%d,%d)", ErrFloorOwnedByOpponent, floorIndex, row, col)
	}
	return nil
}

// CanAfford reports, without changing anything, whether color could buy
// the floor and stay solvent. It returns ErrInsufficientCoins when the
// purchase would leave a negative balance.
func (gs *GameState) CanAfford(row, col, floorIndex int, color Color) error {
	p := gs.Players.Get(color)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	cell, err := gs.building(row, col, floorIndex)
	if err != nil {
		return err
	}
	if cost := cell.FloorCost(floorIndex); p.Coins < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCoins, cost, p.Coins)
	}
	return nil
}

// RecordPoll runs a sampled poll over region for color and appends it to
// the player's history at the current turn.
func (gs *GameState) RecordPoll(color Color, region PollRegion, rng Rand) (Poll, error) {
	p, err := gs.actingPlayer(color, PhasePolling)
	if err != nil {
		return Poll{}, err
	}
	if err := region.Validate(gs.Board.Size); err != nil {
		return Poll{}, err
	}
	if p.PhaseAction == ActionPolled || len(p.PollHistory) > gs.TurnNumber {
		return Poll{}, ErrAlreadyPolled
	}
	poll := Poll{
		Region:     region,
		RedPercent: SampleRegion(gs.Board, region, false, rng),
	}
	p.padPollHistory(gs.TurnNumber, gs.Board.Size)
	p.PollHistory = append(p.PollHistory, poll)
	p.PhaseAction = ActionPolled
	return poll, nil
}

// padPollHistory fills skipped turns with neutral polls so index = turn.
func (p *PlayerInfo) padPollHistory(turn, size int) {
	for len(p.PollHistory) < turn {
		p.PollHistory = append(p.PollHistory, DummyPoll(size))
	}
}

// SetFactCheck records color's response to the opponent's poll. It can be
// changed until the phase advances.
func (gs *GameState) SetFactCheck(color Color, kind FactCheck) error {
	p, err := gs.actingPlayer(color, PhaseFactChecking)
	if err != nil {
		return err
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFactCheck, kind)
	}
	p.FactCheck = kind
	p.PhaseAction = ActionFactChecked
	return nil
}

// MarkDone ends color's advertising or funding phase.
func (gs *GameState) MarkDone(color Color) error {
	p, err := gs.donePlayer(color)
	if err != nil {
		return err
	}
	p.PhaseAction = ActionDone
	return nil
}

// UnmarkDone reopens color's advertising or funding phase.
func (gs *GameState) UnmarkDone(color Color) error {
	p, err := gs.donePlayer(color)
	if err != nil {
		return err
	}
	p.PhaseAction = ActionNone
	return nil
}

func (gs *GameState) donePlayer(color Color) (*PlayerInfo, error) {
	phase := gs.PhaseNumber
	if phase != PhaseAdvertising && phase != PhaseFunding {
		phase = PhaseAdvertising
	}
	return gs.actingPlayer(color, phase)
}
