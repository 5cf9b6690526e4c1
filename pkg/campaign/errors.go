package campaign

import "errors"

var (
	ErrInvalidCell           = errors.New("invalid cell")
	ErrFloorOwnedByOpponent  = errors.New("floor owned by opponent")
	ErrInsufficientCoins     = errors.New("insufficient coins")
	ErrPhaseGateNotSatisfied = errors.New("phase gate not satisfied")
	ErrEmptyPollRegion       = errors.New("poll region contains no roads")

	ErrInvalidRegion    = errors.New("invalid poll region")
	ErrInvalidColor     = errors.New("invalid player color")
	ErrInvalidFactCheck = errors.New("invalid fact check")
	ErrWrongPhase       = errors.New("action not allowed in current phase")
	ErrPlayerDone       = errors.New("player already marked done")
	ErrAlreadyPolled    = errors.New("player already polled this turn")
	ErrGameOver         = errors.New("game is over")
	ErrInvalidSettings  = errors.New("invalid game settings")
)
