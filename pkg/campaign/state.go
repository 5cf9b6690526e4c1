package campaign

import (
	"fmt"
	"math"
)

// Phase is one of the four steps of a turn.
type Phase int

const (
	PhaseAdvertising  Phase = 1
	PhasePolling      Phase = 2
	PhaseFactChecking Phase = 3
	PhaseFunding      Phase = 4
)

func (p Phase) String() string {
	switch p {
	case PhaseAdvertising:
		return "advertising"
	case PhasePolling:
		return "polling"
	case PhaseFactChecking:
		return "fact_checking"
	case PhaseFunding:
		return "funding"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// PhasesPerTurn is the number of phases in a turn.
const PhasesPerTurn = 4

// Coin income: BaseIncome plus floor(share * OpinionIncome), where share is
// the color's side of public opinion.
const (
	BaseIncome    = 10
	OpinionIncome = 10

	// incomeEpsilon keeps 0.7*10 from flooring to 6.
	incomeEpsilon = 1e-9
)

// Settings fixes the shape of a game at creation.
type Settings struct {
	Size            int `json:"size"`
	MaxRoadsAllowed int `json:"max_roads_allowed"`
	MaxTurns        int `json:"max_turns"`
}

// DefaultSettings returns a 5x5 board, at most 12 roads, 3 turns.
func DefaultSettings() Settings {
	return Settings{Size: 5, MaxRoadsAllowed: 12, MaxTurns: 3}
}

// Validate rejects boards too small to hold a road block and non-positive
// turn counts.
func (s Settings) Validate() error {
	if s.Size < 2 {
		return fmt.Errorf("%w: size %d < 2", ErrInvalidSettings, s.Size)
	}
	if s.MaxRoadsAllowed < 0 {
		return fmt.Errorf("%w: max roads %d < 0", ErrInvalidSettings, s.MaxRoadsAllowed)
	}
	if s.MaxTurns < 1 {
		return fmt.Errorf("%w: max turns %d < 1", ErrInvalidSettings, s.MaxTurns)
	}
	return nil
}

// Opinion is the public-opinion record for one turn. RedPublicOpinion has
// one slot per phase; TrueRedPercent is nil until fact-checking resolves.
type Opinion struct {
	RedPublicOpinion [PhasesPerTurn]float64 `json:"red_public_opinion"`
	TrueRedPercent   *float64               `json:"true_red_percent"`
}

func baselineOpinion(value float64) Opinion {
	return Opinion{RedPublicOpinion: [PhasesPerTurn]float64{value, value, value, value}}
}

// GameState is the complete mutable aggregate for one game.
type GameState struct {
	Board                *Board    `json:"board"`
	TurnNumber           int       `json:"turn_number"`
	PhaseNumber          Phase     `json:"phase_number"`
	MaxTurns             int       `json:"max_turns"`
	PublicOpinionHistory []Opinion `json:"public_opinion_history"` // index 0 is the turn-0 baseline
	Players              Players   `json:"players"`
}

// NewGameState generates a board and returns a game at turn 1, phase 1 with
// neutral opinion and both players funded as if opinion were 0.5.
func NewGameState(settings Settings, rng Rand) (*GameState, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	gs := &GameState{
		Board:       GenerateBoard(settings.Size, settings.MaxRoadsAllowed, rng),
		TurnNumber:  1,
		PhaseNumber: PhaseAdvertising,
		MaxTurns:    settings.MaxTurns,
		PublicOpinionHistory: []Opinion{
			baselineOpinion(0.5),
			baselineOpinion(0.5),
		},
	}
	redCoins, blueCoins := CoinsForOpinion(0.5)
	gs.Players.Red = newPlayer(redCoins, settings.Size)
	gs.Players.Blue = newPlayer(blueCoins, settings.Size)
	return gs, nil
}

func newPlayer(coins, size int) PlayerInfo {
	return PlayerInfo{
		Coins:       coins,
		PollHistory: []Poll{DummyPoll(size)},
	}
}

// CoinsForOpinion returns each side's funding for a resolved red opinion.
func CoinsForOpinion(redOpinion float64) (red, blue int) {
	red = BaseIncome + int(math.Floor(redOpinion*OpinionIncome+incomeEpsilon))
	blue = BaseIncome + int(math.Floor((1-redOpinion)*OpinionIncome+incomeEpsilon))
	return red, blue
}

// IsGameOver reports whether the final turn has been played.
func (gs *GameState) IsGameOver() bool {
	return gs.TurnNumber > gs.MaxTurns
}

// CurrentOpinionRecord returns the opinion record of the current turn, or
// nil if the history is empty.
func (gs *GameState) CurrentOpinionRecord() *Opinion {
	if len(gs.PublicOpinionHistory) == 0 {
		return nil
	}
	idx := min(gs.TurnNumber, len(gs.PublicOpinionHistory)-1)
	return &gs.PublicOpinionHistory[max(idx, 0)]
}

// CurrentOpinion returns the red public opinion for the current phase slot.
func (gs *GameState) CurrentOpinion() float64 {
	rec := gs.CurrentOpinionRecord()
	if rec == nil {
		return 0.5
	}
	return rec.RedPublicOpinion[phaseSlot(gs.PhaseNumber)]
}

// Winner returns the color favored by public opinion once the game is over,
// or None while it is still running or on an exact tie.
func (gs *GameState) Winner() Color {
	if !gs.IsGameOver() {
		return None
	}
	op := gs.CurrentOpinion()
	switch {
	case op > 0.5:
		return Red
	case op < 0.5:
		return Blue
	}
	return None
}

// Clone returns a deep copy; mutating it leaves gs untouched.
func (gs *GameState) Clone() *GameState {
	c := &GameState{
		Board:       gs.Board.Clone(),
		TurnNumber:  gs.TurnNumber,
		PhaseNumber: gs.PhaseNumber,
		MaxTurns:    gs.MaxTurns,
		Players: Players{
			Red:  gs.Players.Red.clone(),
			Blue: gs.Players.Blue.clone(),
		},
	}
	if gs.PublicOpinionHistory != nil {
		c.PublicOpinionHistory = make([]Opinion, len(gs.PublicOpinionHistory))
		for i, op := range gs.PublicOpinionHistory {
			if op.TrueRedPercent != nil {
				v := *op.TrueRedPercent
				op.TrueRedPercent = &v
			}
			c.PublicOpinionHistory[i] = op
		}
	}
	return c
}

func phaseSlot(p Phase) int {
	return min(max(int(p), 1), PhasesPerTurn) - 1
}
