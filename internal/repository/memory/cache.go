package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache keeps live game state and phase timers. It implements
// repository.GameCache. Timers are stored but never fire; the deadline
// poller resolves expired phases.
type Cache struct {
	mu     sync.RWMutex
	states map[string]json.RawMessage
	timers map[string]time.Time
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{
		states: make(map[string]json.RawMessage),
		timers: make(map[string]time.Time),
	}
}

func (c *Cache) SetGameState(_ context.Context, gameID string, state json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[gameID] = append(json.RawMessage(nil), state...)
	return nil
}

// GetGameState returns nil, nil when no state is cached.
func (c *Cache) GetGameState(_ context.Context, gameID string) (json.RawMessage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states[gameID], nil
}

func (c *Cache) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[gameID] = deadline
	return nil
}

// Timer returns the deadline stored for a game.
func (c *Cache) Timer(gameID string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.timers[gameID]
	return t, ok
}

func (c *Cache) ClearTimer(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, gameID)
	return nil
}

func (c *Cache) DeleteGameData(_ context.Context, gameID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, gameID)
	delete(c.timers, gameID)
	return nil
}
