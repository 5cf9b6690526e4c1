package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/campaign-trail/internal/model"
)

type mockGameRepo struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	players map[string][]model.GamePlayer
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{
		games:   make(map[string]*model.Game),
		players: make(map[string][]model.GamePlayer),
	}
}

func (m *mockGameRepo) Create(_ context.Context, g *model.Game) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[g.ID]; ok {
		return nil, fmt.Errorf("duplicate game id %s", g.ID)
	}
	cp := *g
	cp.Status = model.StatusWaiting
	cp.CreatedAt = time.Now()
	m.games[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockGameRepo) FindByID(_ context.Context, id string) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	cp.Players = append([]model.GamePlayer(nil), m.players[id]...)
	return &cp, nil
}

func (m *mockGameRepo) list(keep func(g *model.Game) bool) []model.Game {
	var result []model.Game
	for _, g := range m.games {
		if keep(g) {
			cp := *g
			cp.Players = append([]model.GamePlayer(nil), m.players[g.ID]...)
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockGameRepo) ListOpen(_ context.Context) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(g *model.Game) bool { return g.Status == model.StatusWaiting }), nil
}

func (m *mockGameRepo) ListByUser(_ context.Context, userID string) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(g *model.Game) bool {
		if g.CreatorID == userID {
			return true
		}
		for _, p := range m.players[g.ID] {
			if p.UserID == userID {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockGameRepo) ListActive(_ context.Context) ([]model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(func(g *model.Game) bool { return g.Status == model.StatusActive }), nil
}

func (m *mockGameRepo) JoinGame(_ context.Context, gameID, userID, color string, isBot bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.players[gameID] {
		if p.Color == color || p.UserID == userID {
			return fmt.Errorf("seat %s taken", color)
		}
	}
	m.players[gameID] = append(m.players[gameID], model.GamePlayer{
		GameID:   gameID,
		UserID:   userID,
		Color:    color,
		IsBot:    isBot,
		JoinedAt: time.Now(),
	})
	return nil
}

func (m *mockGameRepo) SetActive(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok || g.Status != model.StatusWaiting {
		return fmt.Errorf("game %s is not waiting", gameID)
	}
	now := time.Now()
	g.Status = model.StatusActive
	g.StartedAt = &now
	return nil
}

func (m *mockGameRepo) SetFinished(_ context.Context, gameID, winner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[gameID]; ok {
		now := time.Now()
		g.Status = model.StatusFinished
		g.Winner = winner
		g.FinishedAt = &now
	}
	return nil
}

func (m *mockGameRepo) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.players, gameID)
	return nil
}

type mockPhaseRepo struct {
	mu         sync.Mutex
	phases     []*model.Phase
	actions    []model.Action
	seq        int
	resolveErr error // returned by ResolvePhase when set
}

func newMockPhaseRepo() *mockPhaseRepo {
	return &mockPhaseRepo{}
}

func (m *mockPhaseRepo) CreatePhase(_ context.Context, gameID string, turn, phaseNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p := &model.Phase{
		ID:          fmt.Sprintf("phase-%d", m.seq),
		GameID:      gameID,
		Turn:        turn,
		PhaseNumber: phaseNumber,
		StateBefore: stateBefore,
		Deadline:    deadline,
		CreatedAt:   time.Now(),
	}
	m.phases = append(m.phases, p)
	cp := *p
	return &cp, nil
}

func (m *mockPhaseRepo) CurrentPhase(_ context.Context, gameID string) (*model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.phases) - 1; i >= 0; i-- {
		if p := m.phases[i]; p.GameID == gameID && p.ResolvedAt == nil {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockPhaseRepo) ListPhases(_ context.Context, gameID string) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Phase
	for _, p := range m.phases {
		if p.GameID == gameID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhaseRepo) ResolvePhase(_ context.Context, phaseID string, stateAfter json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolveErr != nil {
		return m.resolveErr
	}
	for _, p := range m.phases {
		if p.ID == phaseID {
			now := time.Now()
			p.StateAfter = stateAfter
			p.ResolvedAt = &now
			return nil
		}
	}
	return fmt.Errorf("phase %s not found", phaseID)
}

func (m *mockPhaseRepo) SaveAction(_ context.Context, a model.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = fmt.Sprintf("action-%d", len(m.actions)+1)
	a.CreatedAt = time.Now()
	m.actions = append(m.actions, a)
	return nil
}

func (m *mockPhaseRepo) ActionsByPhase(_ context.Context, phaseID string) ([]model.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Action
	for _, a := range m.actions {
		if a.PhaseID == phaseID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockPhaseRepo) ListExpired(_ context.Context) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Phase
	for _, p := range m.phases {
		if p.ResolvedAt == nil && p.Deadline.Before(time.Now()) {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockPhaseRepo) failResolve(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveErr = err
}

func (m *mockPhaseRepo) actionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}

type mockCache struct {
	mu     sync.Mutex
	states map[string]json.RawMessage
	timers map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		states: make(map[string]json.RawMessage),
		timers: make(map[string]time.Time),
	}
}

func (c *mockCache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = state
	return nil
}

func (c *mockCache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[gameID], nil
}

func (c *mockCache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[gameID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, gameID)
	return nil
}

func (c *mockCache) DeleteGameData(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, gameID)
	delete(c.timers, gameID)
	return nil
}

type recordedEvent struct {
	gameID string
	kind   string
	data   any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBroadcaster) BroadcastGameEvent(gameID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{gameID: gameID, kind: eventType, data: data})
}

func (b *recordingBroadcaster) count(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}
