package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/bot"
)

func main() {
	url := flag.String("url", "http://localhost:8009", "server base URL")
	red := flag.String("red", "greedy", "red strategy (greedy, random)")
	blue := flag.String("blue", "random", "blue strategy (greedy, random)")
	eventWait := flag.Duration("event-wait", 5*time.Minute, "how long to wait for the server to advance a phase")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for the bots' own choices")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	orch := bot.NewOrchestrator(*url, bot.StrategyByName(*red), bot.StrategyByName(*blue), *eventWait, *seed)
	winner, err := orch.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Bot orchestrator failed")
	}
	if winner == "" {
		log.Info().Msg("Bot game completed in a draw")
		return
	}
	log.Info().Str("winner", string(winner)).Msg("Bot game completed")
}
