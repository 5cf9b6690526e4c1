package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "campaign:"
	stateSuffix = ":state"
	timerSuffix = ":timer"
)

func stateKey(gameID string) string { return keyPrefix + gameID + stateSuffix }
func timerKey(gameID string) string { return keyPrefix + gameID + timerSuffix }

// GameIDFromTimerKey extracts the game ID from an expired timer key.
func GameIDFromTimerKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, timerSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), timerSuffix)
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}

// SetGameState stores the live game state JSON.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	if err := c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err(); err != nil {
		return fmt.Errorf("set game state: %w", err)
	}
	return nil
}

// GetGameState retrieves the live game state JSON, or nil if none is cached.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// phaseGracePeriod keeps the timer alive a little past the displayed deadline.
const phaseGracePeriod = 5 * time.Second

// SetTimer creates a timer key whose expiry triggers deadline resolution.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + phaseGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// DeleteGameData removes all Redis data for a game.
func (c *Client) DeleteGameData(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, stateKey(gameID), timerKey(gameID)).Err()
}
