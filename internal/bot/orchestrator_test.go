package bot_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/freeeve/campaign-trail/internal/bot"
	"github.com/freeeve/campaign-trail/internal/handler"
	"github.com/freeeve/campaign-trail/internal/middleware"
	"github.com/freeeve/campaign-trail/internal/repository/memory"
	"github.com/freeeve/campaign-trail/internal/service"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// newTestServer serves the full API on the in-memory store.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	hub := handler.NewHub()
	phaseSvc := service.NewPhaseService(store, store, memory.NewCache(), hub)
	gameSvc := service.NewGameService(store, store, phaseSvc, service.GameOptions{
		Settings:      campaign.Settings{Size: 4, MaxRoadsAllowed: 6, MaxTurns: 2},
		PhaseDuration: time.Hour,
	})

	gameHandler := handler.NewGameHandler(gameSvc, phaseSvc)
	actionHandler := handler.NewActionHandler(phaseSvc)

	api := http.NewServeMux()
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("GET /games/{id}/state", gameHandler.GetState)
	api.HandleFunc("POST /games/{id}/floors", actionHandler.ToggleFloor)
	api.HandleFunc("POST /games/{id}/polls", actionHandler.RecordPoll)
	api.HandleFunc("POST /games/{id}/factcheck", actionHandler.SetFactCheck)
	api.HandleFunc("POST /games/{id}/done", actionHandler.MarkDone)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", middleware.PlayerID(api)))
	mux.HandleFunc("GET /api/v1/ws", handler.NewWSHandler(hub).ServeWS)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOrchestratorPlaysFullGame(t *testing.T) {
	srv := newTestServer(t)
	orch := bot.NewOrchestrator(srv.URL, bot.GreedyStrategy{}, bot.RandomStrategy{}, 5*time.Second, 7)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	winner, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if winner != campaign.None && !winner.Valid() {
		t.Errorf("unexpected winner %q", winner)
	}
}

func TestClientErrorsCarryStatus(t *testing.T) {
	srv := newTestServer(t)
	c := bot.NewClient("alice", srv.URL)

	if _, err := c.GetGame("missing"); err == nil {
		t.Fatal("expected error for missing game")
	}
	if _, err := c.CreateGame("g", campaign.Color("green")); err == nil {
		t.Fatal("expected error for invalid seat")
	}

	game, err := c.CreateGame("g", campaign.Red)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := c.StartGame(game.ID); err == nil {
		t.Error("expected start to fail with one seat filled")
	}

	rejected := bot.NewClient("bot-red", srv.URL)
	if _, err := rejected.JoinGame(game.ID); err == nil {
		t.Error("expected bot- ids to be rejected")
	}
}

func TestClientStateAfterStart(t *testing.T) {
	srv := newTestServer(t)
	alice := bot.NewClient("alice", srv.URL)
	bob := bot.NewClient("bob", srv.URL)

	game, err := alice.CreateGame("g", campaign.Red)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := bob.JoinGame(game.ID); err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if err := alice.StartGame(game.ID); err != nil {
		t.Fatalf("StartGame: %v", err)
	}

	gs, err := bob.State(game.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if gs.TurnNumber != 1 || gs.PhaseNumber != campaign.PhaseAdvertising {
		t.Errorf("expected turn 1 advertising, got %d/%s", gs.TurnNumber, gs.PhaseNumber)
	}
	if gs.Players.Red.ID != "alice" || gs.Players.Blue.ID != "bob" {
		t.Errorf("unexpected seats %q/%q", gs.Players.Red.ID, gs.Players.Blue.ID)
	}
	if gs.Board == nil || gs.Board.Size != 4 {
		t.Fatalf("expected 4x4 board, got %+v", gs.Board)
	}

	if err := alice.MarkDone(game.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := alice.SetFactCheck(game.ID, campaign.FactCheckTrust); err == nil {
		t.Error("expected fact check during advertising to fail")
	}
	gs, err = alice.State(game.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if gs.Players.Red.PhaseAction != campaign.ActionDone {
		t.Errorf("expected red done, got %q", gs.Players.Red.PhaseAction)
	}
	if gs.PhaseNumber != campaign.PhaseAdvertising {
		t.Errorf("expected phase to wait for blue, got %s", gs.PhaseNumber)
	}
}
