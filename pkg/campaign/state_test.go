package campaign

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func newTestGame(t *testing.T, board string) *GameState {
	t.Helper()
	gs, err := NewGameState(DefaultSettings(), NewRand(1))
	if err != nil {
		t.Fatalf("NewGameState: %v", err)
	}
	if board != "" {
		gs.Board = MustDecodeBoard(board)
	}
	return gs
}

func firstBuilding(t *testing.T, b *Board) (int, int) {
	t.Helper()
	for r := 0; r < b.Size; r++ {
		for c := 0; c < b.Size; c++ {
			if b.Cells[r][c].IsBuilding() {
				return r, c
			}
		}
	}
	t.Fatal("board has no buildings")
	return 0, 0
}

func TestNewGameState_Defaults(t *testing.T) {
	gs := newTestGame(t, "")
	if gs.TurnNumber != 1 || gs.PhaseNumber != PhaseAdvertising {
		t.Errorf("start at turn %d phase %d, want 1/1", gs.TurnNumber, gs.PhaseNumber)
	}
	if gs.MaxTurns != 3 {
		t.Errorf("max turns = %d, want 3", gs.MaxTurns)
	}
	if len(gs.PublicOpinionHistory) != 2 {
		t.Fatalf("opinion history length = %d, want 2", len(gs.PublicOpinionHistory))
	}
	for i, op := range gs.PublicOpinionHistory {
		if op.TrueRedPercent != nil {
			t.Errorf("history[%d].TrueRedPercent should be nil", i)
		}
		for slot, v := range op.RedPublicOpinion {
			if v != 0.5 {
				t.Errorf("history[%d] slot %d = %v, want 0.5", i, slot, v)
			}
		}
	}
	for _, color := range AllColors() {
		p := gs.Players.Get(color)
		if p.Coins != 15 {
			t.Errorf("%s coins = %d, want 15", color, p.Coins)
		}
		if len(p.PollHistory) != 1 || p.PollHistory[0].RedPercent != 0.5 {
			t.Errorf("%s poll history = %+v, want neutral baseline", color, p.PollHistory)
		}
	}
	if gs.Board.HasSquareRoad() || gs.Board.RoadCount() > 12 {
		t.Errorf("generated board violates invariants:\n%s", gs.Board)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		s  Settings
		ok bool
	}{
		{DefaultSettings(), true},
		{Settings{Size: 1, MaxRoadsAllowed: 1, MaxTurns: 3}, false},
		{Settings{Size: 5, MaxRoadsAllowed: -1, MaxTurns: 3}, false},
		{Settings{Size: 5, MaxRoadsAllowed: 12, MaxTurns: 0}, false},
		{Settings{Size: 7, MaxRoadsAllowed: 20, MaxTurns: 10}, true},
	}
	for _, tt := range tests {
		err := tt.s.Validate()
		if tt.ok != (err == nil) {
			t.Errorf("Validate(%+v) = %v", tt.s, err)
		}
		if err != nil && !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("Validate(%+v) should wrap ErrInvalidSettings", tt.s)
		}
	}
	if _, err := NewGameState(Settings{Size: 0}, NewRand(1)); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("NewGameState with bad settings: %v", err)
	}
}

func TestCoinsForOpinion(t *testing.T) {
	tests := []struct {
		opinion   float64
		red, blue int
	}{
		{0.7, 17, 13},
		{0.5, 15, 15},
		{0.55, 15, 14},
		{0, 10, 20},
		{1, 20, 10},
		{0.333, 13, 16},
	}
	for _, tt := range tests {
		red, blue := CoinsForOpinion(tt.opinion)
		if red != tt.red || blue != tt.blue {
			t.Errorf("CoinsForOpinion(%v) = %d/%d, want %d/%d", tt.opinion, red, blue, tt.red, tt.blue)
		}
	}
}

func TestGameState_CloneIndependent(t *testing.T) {
	gs := newTestGame(t, "")
	gs.PublicOpinionHistory[1].TrueRedPercent = new(float64)
	c := gs.Clone()

	r, col := firstBuilding(t, gs.Board)
	c.Board.Cells[r][col].Floors[0].Influence = Red
	c.Players.Red.PollHistory[0].RedPercent = 0.9
	c.Players.Blue.Coins = -4
	*c.PublicOpinionHistory[1].TrueRedPercent = 0.8
	c.PublicOpinionHistory[0].RedPublicOpinion[0] = 0.1

	if gs.Board.Cells[r][col].Floors[0].Influence != None {
		t.Error("clone shares board floors")
	}
	if gs.Players.Red.PollHistory[0].RedPercent != 0.5 {
		t.Error("clone shares poll history")
	}
	if gs.Players.Blue.Coins != 15 {
		t.Error("clone shares player coins")
	}
	if *gs.PublicOpinionHistory[1].TrueRedPercent != 0 {
		t.Error("clone shares true percent pointer")
	}
	if gs.PublicOpinionHistory[0].RedPublicOpinion[0] != 0.5 {
		t.Error("clone shares opinion history")
	}
}

func TestGameState_JSONRoundTrip(t *testing.T) {
	gs := newTestGame(t, "")
	rng := NewRand(3)
	playTurn(t, gs, rng, FactCheckDoubt, FactCheckTrust)

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back GameState
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(gs, &back) {
		t.Error("decoded state differs from original")
	}
	again, _ := json.Marshal(&back)
	if string(again) != string(data) {
		t.Errorf("re-encoded state differs:\n%s\n%s", data, again)
	}
	if back.PublicOpinionHistory[1].TrueRedPercent == nil {
		t.Error("true red percent lost in round trip")
	}
	if back.PublicOpinionHistory[2].TrueRedPercent != nil {
		t.Error("unresolved true red percent should stay null")
	}
}
