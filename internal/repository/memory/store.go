// Package memory implements the repositories in process memory. It backs
// STORE=memory for local play without Postgres or Redis.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/freeeve/campaign-trail/internal/model"
)

// Store holds games, seats, phases and actions. It implements
// repository.GameRepository and repository.PhaseRepository.
type Store struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
	phases  []*model.Phase
	actions []model.Action
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (s *Store) withPlayers(g *model.Game) model.Game {
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), s.players[g.ID]...)
	return cp
}

func (s *Store) Create(_ context.Context, g *model.Game) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return nil, fmt.Errorf("create game: duplicate id %s", g.ID)
	}
	cp := *g
	cp.Status = model.StatusWaiting
	cp.CreatedAt = time.Now()
	cp.Players = nil
	s.games[cp.ID] = &cp
	out := cp
	return &out, nil
}

// FindByID returns nil, nil when the game does not exist.
func (s *Store) FindByID(_ context.Context, id string) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, nil
	}
	out := s.withPlayers(g)
	return &out, nil
}

// list returns matching games, newest first.
func (s *Store) list(keep func(*model.Game) bool) []model.Game {
	var result []model.Game
	for _, g := range s.games {
		if keep(g) {
			result = append(result, s.withPlayers(g))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) ListOpen(_ context.Context) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(g *model.Game) bool { return g.Status == model.StatusWaiting }), nil
}

func (s *Store) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(g *model.Game) bool {
		for _, p := range s.players[g.ID] {
			if p.UserID == userID {
				return true
			}
		}
		return g.CreatorID == userID
	}), nil
}

func (s *Store) ListActive(_ context.Context) ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(func(g *model.Game) bool { return g.Status == model.StatusActive }), nil
}

func (s *Store) JoinGame(_ context.Context, gameID, userID, color string, isBot bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return fmt.Errorf("join game: game %s not found", gameID)
	}
	for _, p := range s.players[gameID] {
		if p.UserID == userID || p.Color == color {
			return fmt.Errorf("join game: seat %s or user %s already taken", color, userID)
		}
	}
	s.players[gameID] = append(s.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		Color:    color,
		IsBot:    isBot,
		JoinedAt: time.Now(),
	})
	return nil
}

func (s *Store) SetActive(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok || g.Status != model.StatusWaiting {
		return fmt.Errorf("set active: game %s is not waiting", gameID)
	}
	now := time.Now()
	g.Status = model.StatusActive
	g.StartedAt = &now
	return nil
}

func (s *Store) SetFinished(_ context.Context, gameID, winner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return fmt.Errorf("set finished: game %s not found", gameID)
	}
	now := time.Now()
	g.Status = model.StatusFinished
	g.Winner = winner
	g.FinishedAt = &now
	return nil
}

// Delete removes a game with its seats, phases and actions.
func (s *Store) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	delete(s.players, gameID)

	dropped := make(map[string]bool)
	phases := s.phases[:0]
	for _, p := range s.phases {
		if p.GameID == gameID {
			dropped[p.ID] = true
			continue
		}
		phases = append(phases, p)
	}
	s.phases = phases

	actions := s.actions[:0]
	for _, a := range s.actions {
		if !dropped[a.PhaseID] {
			actions = append(actions, a)
		}
	}
	s.actions = actions
	return nil
}

func (s *Store) CreatePhase(_ context.Context, gameID string, turn, phaseNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Phase{
		ID:          uuid.NewString(),
		GameID:      gameID,
		Turn:        turn,
		PhaseNumber: phaseNumber,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	s.phases = append(s.phases, p)
	out := *p
	return &out, nil
}

// CurrentPhase returns the latest unresolved phase, or nil.
func (s *Store) CurrentPhase(_ context.Context, gameID string) (*model.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.phases) - 1; i >= 0; i-- {
		if p := s.phases[i]; p.GameID == gameID && p.ResolvedAt == nil {
			out := *p
			return &out, nil
		}
	}
	return nil, nil
}

// ListPhases returns a game's phases in creation order.
func (s *Store) ListPhases(_ context.Context, gameID string) ([]model.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Phase
	for _, p := range s.phases {
		if p.GameID == gameID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (s *Store) ResolvePhase(_ context.Context, phaseID string, stateAfter json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.phases {
		if p.ID == phaseID {
			now := time.Now()
			p.StateAfter = stateAfter
			p.ResolvedAt = &now
			return nil
		}
	}
	return fmt.Errorf("resolve phase: %s not found", phaseID)
}

func (s *Store) SaveAction(_ context.Context, a model.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	s.actions = append(s.actions, a)
	return nil
}

func (s *Store) ActionsByPhase(_ context.Context, phaseID string) ([]model.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.Action
	for _, a := range s.actions {
		if a.PhaseID == phaseID {
			result = append(result, a)
		}
	}
	return result, nil
}

// ListExpired returns unresolved phases of active games past their deadline.
func (s *Store) ListExpired(_ context.Context) ([]model.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var result []model.Phase
	for _, p := range s.phases {
		g, ok := s.games[p.GameID]
		if ok && g.Status == model.StatusActive && p.ResolvedAt == nil && p.Deadline.Before(now) {
			result = append(result, *p)
		}
	}
	return result, nil
}
