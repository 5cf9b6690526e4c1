package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/freeeve/campaign-trail/internal/model"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// testEnv wires the services to in-memory stores with a fixed clock,
// deterministic seeds and synchronous bot scheduling.
type testEnv struct {
	gameRepo    *mockGameRepo
	phaseRepo   *mockPhaseRepo
	cache       *mockCache
	broadcaster *recordingBroadcaster
	phaseSvc    *PhaseService
	gameSvc     *GameService
	clock       time.Time
}

func newTestEnv(t *testing.T, botFill bool) *testEnv {
	t.Helper()
	env := &testEnv{
		gameRepo:    newMockGameRepo(),
		phaseRepo:   newMockPhaseRepo(),
		cache:       newMockCache(),
		broadcaster: &recordingBroadcaster{},
		clock:       time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	env.phaseSvc = NewPhaseService(env.gameRepo, env.phaseRepo, env.cache, env.broadcaster)
	var seed int64
	env.phaseSvc.newSeed = func() (int64, error) {
		seed++
		return seed, nil
	}
	env.phaseSvc.now = func() time.Time { return env.clock }
	env.phaseSvc.runAsync = func(f func()) { f() }

	env.gameSvc = NewGameService(env.gameRepo, env.phaseRepo, env.phaseSvc, GameOptions{
		Settings:      campaign.DefaultSettings(),
		PhaseDuration: 2 * time.Minute,
		BotFill:       botFill,
	})
	var id int
	env.gameSvc.newID = func() string {
		id++
		return fmt.Sprintf("game-%d", id)
	}
	return env
}

// startHumanGame starts a game with alice as red and bob as blue.
func (env *testEnv) startHumanGame(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	game, err := env.gameSvc.CreateGame(ctx, "Test Game", "alice", "red")
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := env.gameSvc.JoinGame(ctx, game.ID, "bob"); err != nil {
		t.Fatalf("join game: %v", err)
	}
	if _, err := env.gameSvc.StartGame(ctx, game.ID, "alice"); err != nil {
		t.Fatalf("start game: %v", err)
	}
	return game.ID
}

func TestCreateGame(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	game, err := env.gameSvc.CreateGame(ctx, "Test Game", "alice", "blue")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	if game.Status != model.StatusWaiting {
		t.Errorf("expected status waiting, got %s", game.Status)
	}
	if game.BoardSize != 5 || game.MaxRoads != 12 || game.MaxTurns != 3 {
		t.Errorf("unexpected settings %d/%d/%d", game.BoardSize, game.MaxRoads, game.MaxTurns)
	}
	if game.PhaseDuration() != 2*time.Minute {
		t.Errorf("expected 2m phases, got %s", game.PhaseDuration())
	}
	if len(game.Players) != 1 || game.Players[0].Color != "blue" || game.Players[0].UserID != "alice" {
		t.Errorf("expected creator seated as blue, got %+v", game.Players)
	}
}

func TestCreateGameRandomSeat(t *testing.T) {
	env := newTestEnv(t, false)
	for _, seat := range []string{"", "random"} {
		game, err := env.gameSvc.CreateGame(context.Background(), "g", "alice", seat)
		if err != nil {
			t.Fatalf("CreateGame(%q) failed: %v", seat, err)
		}
		if !campaign.Color(game.Players[0].Color).Valid() {
			t.Errorf("seat %q gave color %q", seat, game.Players[0].Color)
		}
	}
}

func TestCreateGameInvalidSeat(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.gameSvc.CreateGame(context.Background(), "g", "alice", "green")
	if !errors.Is(err, ErrInvalidSeat) {
		t.Errorf("expected ErrInvalidSeat, got %v", err)
	}
}

func TestJoinGame(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	game, _ := env.gameSvc.CreateGame(ctx, "g", "alice", "red")

	joined, err := env.gameSvc.JoinGame(ctx, game.ID, "bob")
	if err != nil {
		t.Fatalf("JoinGame failed: %v", err)
	}
	bob := joined.PlayerFor("bob")
	if bob == nil || bob.Color != "blue" {
		t.Fatalf("expected bob seated as blue, got %+v", joined.Players)
	}

	if _, err := env.gameSvc.JoinGame(ctx, game.ID, "bob"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("expected ErrAlreadyJoined, got %v", err)
	}
	if _, err := env.gameSvc.JoinGame(ctx, game.ID, "carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
	if _, err := env.gameSvc.JoinGame(ctx, "missing", "carol"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestStartGame(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	gameID := env.startHumanGame(t)

	game, err := env.gameSvc.GetGame(ctx, gameID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if game.Status != model.StatusActive || game.StartedAt == nil {
		t.Errorf("expected active game with start time, got %s", game.Status)
	}

	phases, _ := env.gameSvc.ListPhases(ctx, gameID)
	if len(phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(phases))
	}
	if phases[0].Turn != 1 || phases[0].PhaseNumber != int(campaign.PhaseAdvertising) {
		t.Errorf("expected turn 1 advertising, got %d/%d", phases[0].Turn, phases[0].PhaseNumber)
	}
	if want := env.clock.Add(2 * time.Minute); !phases[0].Deadline.Equal(want) {
		t.Errorf("expected deadline %s, got %s", want, phases[0].Deadline)
	}
	if env.cache.timers[gameID].IsZero() {
		t.Error("expected timer to be set")
	}

	gs, err := env.phaseSvc.State(ctx, gameID)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if gs.Players.Red.ID != "alice" || gs.Players.Blue.ID != "bob" {
		t.Errorf("expected alice/bob seats, got %q/%q", gs.Players.Red.ID, gs.Players.Blue.ID)
	}
	if gs.Board.Size != 5 || gs.Board.RoadCount() > 12 {
		t.Errorf("unexpected board: size %d, %d roads", gs.Board.Size, gs.Board.RoadCount())
	}
	if env.broadcaster.count(EventGameStarted) != 1 {
		t.Error("expected a game_started event")
	}

	if _, err := env.gameSvc.StartGame(ctx, gameID, "alice"); !errors.Is(err, ErrGameNotWaiting) {
		t.Errorf("expected ErrGameNotWaiting on second start, got %v", err)
	}
}

func TestStartGameErrors(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	game, _ := env.gameSvc.CreateGame(ctx, "g", "alice", "red")

	if _, err := env.gameSvc.StartGame(ctx, game.ID, "alice"); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}
	env.gameSvc.JoinGame(ctx, game.ID, "bob")
	if _, err := env.gameSvc.StartGame(ctx, game.ID, "bob"); !errors.Is(err, ErrNotCreator) {
		t.Errorf("expected ErrNotCreator, got %v", err)
	}
	if _, err := env.gameSvc.StartGame(ctx, "missing", "alice"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestStartGameBotFill(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	game, _ := env.gameSvc.CreateGame(ctx, "g", "alice", "red")

	started, err := env.gameSvc.StartGame(ctx, game.ID, "alice")
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	seat := started.PlayerByColor("blue")
	if seat == nil || !seat.IsBot || seat.UserID != BotUserID(campaign.Blue) {
		t.Fatalf("expected bot in blue seat, got %+v", started.Players)
	}

	gs, err := env.phaseSvc.State(ctx, game.ID)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if gs.Players.Blue.PhaseAction != campaign.ActionDone {
		t.Errorf("expected bot to finish advertising, got %q", gs.Players.Blue.PhaseAction)
	}
	if gs.PhaseNumber != campaign.PhaseAdvertising {
		t.Errorf("expected game to wait for alice, got %s", gs.PhaseNumber)
	}
	if env.phaseRepo.actionCount() != 1 {
		t.Errorf("expected 1 logged bot action, got %d", env.phaseRepo.actionCount())
	}
}

func TestListGames(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.gameSvc.CreateGame(ctx, "one", "alice", "red")
	env.gameSvc.CreateGame(ctx, "two", "bob", "red")
	env.startHumanGame(t)

	open, err := env.gameSvc.ListGames(ctx, "carol", "")
	if err != nil {
		t.Fatalf("ListGames failed: %v", err)
	}
	if len(open) != 2 {
		t.Errorf("expected 2 open games, got %d", len(open))
	}

	mine, _ := env.gameSvc.ListGames(ctx, "bob", "mine")
	if len(mine) != 2 {
		t.Errorf("expected bob in 2 games, got %d", len(mine))
	}
}

func TestPhaseActions(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	gameID := env.startHumanGame(t)

	gs, _ := env.phaseSvc.State(ctx, gameID)
	row, col := firstBuilding(t, gs)
	if _, err := env.phaseSvc.ToggleFloor(ctx, gameID, "alice", row, col, 0); err != nil {
		t.Fatalf("ToggleFloor failed: %v", err)
	}
	env.phaseSvc.MarkDone(ctx, gameID, "bob")

	phases, _ := env.gameSvc.ListPhases(ctx, gameID)
	actions, err := env.gameSvc.PhaseActions(ctx, gameID, phases[0].ID)
	if err != nil {
		t.Fatalf("PhaseActions failed: %v", err)
	}
	if len(actions) != 2 || actions[0].Kind != model.ActionToggleFloor || actions[1].Kind != model.ActionDone {
		t.Fatalf("expected toggle then done, got %+v", actions)
	}
	if actions[0].Color != "red" || string(actions[0].Payload) == "" {
		t.Errorf("expected red toggle with payload, got %+v", actions[0])
	}
	for _, a := range actions {
		if a.PhaseID != phases[0].ID {
			t.Errorf("action %s logged on phase %s", a.ID, a.PhaseID)
		}
	}

	if _, err := env.gameSvc.PhaseActions(ctx, gameID, "phase-999"); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("expected ErrPhaseNotFound, got %v", err)
	}
}

func TestDeleteGame(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	gameID := env.startHumanGame(t)

	if err := env.gameSvc.DeleteGame(ctx, gameID, "bob"); !errors.Is(err, ErrNotCreator) {
		t.Errorf("expected ErrNotCreator, got %v", err)
	}
	if err := env.gameSvc.DeleteGame(ctx, gameID, "alice"); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}
	if _, err := env.gameSvc.GetGame(ctx, gameID); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound after delete, got %v", err)
	}
	if env.cache.states[gameID] != nil {
		t.Error("expected cached state to be removed")
	}
}
