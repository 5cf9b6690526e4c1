package campaign

// PhaseAction records what a player has submitted for the current phase.
// It is cleared on every phase transition.
type PhaseAction string

const (
	ActionNone        PhaseAction = ""
	ActionDone        PhaseAction = "done"
	ActionPolled      PhaseAction = "polled"
	ActionFactChecked PhaseAction = "fact_checked"
)

// PlayerInfo is one side's resources and submissions.
type PlayerInfo struct {
	ID          string      `json:"id"`
	Coins       int         `json:"coins"`
	PhaseAction PhaseAction `json:"phase_action"`
	FactCheck   FactCheck   `json:"fact_check"`
	PollHistory []Poll      `json:"poll_history"` // index = turn number; 0 is the neutral baseline
}

// Assigned reports whether a player occupies this seat.
func (p *PlayerInfo) Assigned() bool {
	return p.ID != ""
}

// PollForTurn returns the poll recorded for turn, if any.
func (p *PlayerInfo) PollForTurn(turn int) (Poll, bool) {
	if turn < 0 || turn >= len(p.PollHistory) {
		return Poll{}, false
	}
	return p.PollHistory[turn], true
}

func (p PlayerInfo) clone() PlayerInfo {
	if p.PollHistory != nil {
		h := make([]Poll, len(p.PollHistory))
		copy(h, p.PollHistory)
		p.PollHistory = h
	}
	return p
}

// Players holds both seats.
type Players struct {
	Red  PlayerInfo `json:"red"`
	Blue PlayerInfo `json:"blue"`
}

// Get returns the seat for color, or nil for an invalid color.
func (p *Players) Get(color Color) *PlayerInfo {
	switch color {
	case Red:
		return &p.Red
	case Blue:
		return &p.Blue
	}
	return nil
}

// ColorOf returns the color seated by playerID, or None.
func (p *Players) ColorOf(playerID string) Color {
	if playerID == "" {
		return None
	}
	switch playerID {
	case p.Red.ID:
		return Red
	case p.Blue.ID:
		return Blue
	}
	return None
}
