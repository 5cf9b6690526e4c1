package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/bot"
	"github.com/freeeve/campaign-trail/internal/config"
	"github.com/freeeve/campaign-trail/internal/handler"
	"github.com/freeeve/campaign-trail/internal/logger"
	"github.com/freeeve/campaign-trail/internal/middleware"
	"github.com/freeeve/campaign-trail/internal/repository"
	"github.com/freeeve/campaign-trail/internal/repository/memory"
	"github.com/freeeve/campaign-trail/internal/repository/postgres"
	redisrepo "github.com/freeeve/campaign-trail/internal/repository/redis"
	"github.com/freeeve/campaign-trail/internal/service"
)

// stores are the repositories the services run on.
type stores struct {
	games  repository.GameRepository
	phases repository.PhaseRepository
	cache  repository.GameCache
	rdb    *redis.Client // nil without Redis; the deadline poller still runs
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn().Msg("Using in-memory store, games are lost on restart")
		store := memory.NewStore()
		return &stores{games: store, phases: store, cache: memory.NewCache(), close: func() {}}, nil
	}

	db, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	redisClient, err := redisrepo.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := redisClient.EnableExpiryEvents(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to set Redis keyspace notifications (timer expiry falls back to polling)")
	}
	return &stores{
		games:  postgres.NewGameRepo(db),
		phases: postgres.NewPhaseRepo(db),
		cache:  redisClient,
		rdb:    redisClient.Underlying(),
		close: func() {
			redisClient.Close()
			db.Close()
		},
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Config load failed")
	}
	logFile, err := logger.Init(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("Logger init failed")
	}
	defer logFile.Close()
	log.Info().Str("store", cfg.Store).Interface("settings", cfg.Settings()).
		Dur("phaseDuration", cfg.PhaseDuration).Bool("botFill", cfg.BotFill).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Store connection failed")
	}
	defer st.close()

	// WebSocket hub
	wsHub := handler.NewHub()

	// Services
	phaseSvc := service.NewPhaseService(st.games, st.phases, st.cache, wsHub)
	phaseSvc.SetBotStrategy(bot.StrategyByName(cfg.BotStrategy))
	gameSvc := service.NewGameService(st.games, st.phases, phaseSvc, service.GameOptions{
		Settings:      cfg.Settings(),
		PhaseDuration: cfg.PhaseDuration,
		BotFill:       cfg.BotFill,
	})

	// Timer listener (auto-resolve on expiry)
	timerListener := service.NewTimerListener(st.rdb, phaseSvc, st.phases)

	// Handlers
	gameHandler := handler.NewGameHandler(gameSvc, phaseSvc)
	actionHandler := handler.NewActionHandler(phaseSvc)
	phaseHandler := handler.NewPhaseHandler(gameSvc)
	wsHandler := handler.NewWSHandler(wsHub)

	// Router
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"store":       cfg.Store,
			"connections": wsHub.ConnectionCount(),
			"dropped":     wsHub.Dropped(),
		})
	})

	api := http.NewServeMux()
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("GET /games/{id}/state", gameHandler.GetState)
	api.HandleFunc("POST /games/{id}/floors", actionHandler.ToggleFloor)
	api.HandleFunc("POST /games/{id}/polls", actionHandler.RecordPoll)
	api.HandleFunc("POST /games/{id}/factcheck", actionHandler.SetFactCheck)
	api.HandleFunc("POST /games/{id}/done", actionHandler.MarkDone)
	api.HandleFunc("DELETE /games/{id}/done", actionHandler.UnmarkDone)
	api.HandleFunc("GET /games/{id}/phases", phaseHandler.ListPhases)
	api.HandleFunc("GET /games/{id}/phases/{phaseId}/actions", phaseHandler.PhaseActions)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", middleware.PlayerID(api)))

	// WebSocket (player via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	root := middleware.Chain(mux, middleware.Logger, middleware.Recover, middleware.CORS(cfg.CORSOrigins), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Rehydrate live state after a restart
	if err := phaseSvc.RecoverActiveGames(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	go timerListener.Start(ctx)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}
	log.Info().Msg("Server stopped")
}
