package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/repository"
	redisrepo "github.com/freeeve/campaign-trail/internal/repository/redis"
)

const defaultPollInterval = 10 * time.Second

// TimerListener forces phases whose deadline has passed. Redis keyspace
// expiry events on timer keys are the fast path; a Postgres poll over
// expired phases catches anything the events miss.
type TimerListener struct {
	rdb          *redis.Client
	phaseSvc     *PhaseService
	phaseRepo    repository.PhaseRepository
	pollInterval time.Duration
}

// NewTimerListener creates a TimerListener. rdb may be nil to run the
// poller alone.
func NewTimerListener(rdb *redis.Client, phaseSvc *PhaseService, phaseRepo repository.PhaseRepository) *TimerListener {
	return &TimerListener{rdb: rdb, phaseSvc: phaseSvc, phaseRepo: phaseRepo, pollInterval: defaultPollInterval}
}

// Start listens for expiry events and polls until ctx is done.
func (t *TimerListener) Start(ctx context.Context) {
	if t.rdb != nil {
		go t.listenKeyspace(ctx)
	}
	t.pollExpiredPhases(ctx)
}

func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

func (t *TimerListener) pollExpiredPhases(ctx context.Context) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	log.Info().Dur("interval", t.pollInterval).Msg("Phase deadline poller started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Phase deadline poller stopped")
			return
		case <-ticker.C:
			t.checkExpiredPhases(ctx)
		}
	}
}

func (t *TimerListener) checkExpiredPhases(ctx context.Context) {
	phases, err := t.phaseRepo.ListExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired phases")
		return
	}
	for _, p := range phases {
		log.Info().Str("gameId", p.GameID).Int("turn", p.Turn).Int("phase", p.PhaseNumber).
			Time("deadline", p.Deadline).Msg("Poller resolving expired phase")
		if err := t.phaseSvc.ResolvePhase(ctx, p.GameID); err != nil {
			log.Error().Err(err).Str("gameId", p.GameID).Msg("Phase resolution failed from poller")
		}
	}
}

// handleExpiry resolves the game behind an expired timer key and ignores
// every other key.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	gameID, ok := redisrepo.GameIDFromTimerKey(key)
	if !ok {
		return
	}
	log.Info().Str("gameId", gameID).Msg("Timer expired, triggering phase resolution")
	if err := t.phaseSvc.ResolvePhase(ctx, gameID); err != nil {
		log.Error().Err(err).Str("gameId", gameID).Msg("Phase resolution failed after timer expiry")
	}
}
