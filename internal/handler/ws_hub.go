package handler

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// eventConnected greets a new connection. Game events are defined by the
// service package.
const eventConnected = "connected"

// WSEvent is one server-to-client frame.
type WSEvent struct {
	Type   string `json:"type"`
	GameID string `json:"game_id"`
	Data   any    `json:"data"`
}

// ClientMessage is a client-to-server frame: {"action":"subscribe","game_id":...}.
type ClientMessage struct {
	Action string `json:"action"`
	GameID string `json:"game_id"`
}

// WSConn is one socket. games is guarded by the owning Hub's lock.
type WSConn struct {
	conn     *websocket.Conn
	playerID string
	send     chan []byte
	games    map[string]struct{}
}

// Hub fans game events out to the sockets watching each game.
type Hub struct {
	mu      sync.RWMutex
	conns   map[*WSConn]struct{}
	rooms   map[string]map[*WSConn]struct{}
	dropped atomic.Int64
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*WSConn]struct{}),
		rooms: make(map[string]map[*WSConn]struct{}),
	}
}

// Register tracks a new connection.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister forgets c, leaves every room it joined and closes its queue.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	for gameID := range c.games {
		h.leaveLocked(c, gameID)
	}
	close(c.send)
}

// maxSubscriptions caps how many games one socket may watch.
const maxSubscriptions = 16

// Subscribe puts c in the room of gameID. It reports false when c already
// watches maxSubscriptions other games.
func (h *Hub) Subscribe(c *WSConn, gameID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := c.games[gameID]; !ok && len(c.games) >= maxSubscriptions {
		return false
	}
	room := h.rooms[gameID]
	if room == nil {
		room = make(map[*WSConn]struct{})
		h.rooms[gameID] = room
	}
	room[c] = struct{}{}
	if c.games == nil {
		c.games = make(map[string]struct{})
	}
	c.games[gameID] = struct{}{}
	return true
}

// Unsubscribe takes c out of the room of gameID.
func (h *Hub) Unsubscribe(c *WSConn, gameID string) {
	h.mu.Lock()
	h.leaveLocked(c, gameID)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(c *WSConn, gameID string) {
	delete(c.games, gameID)
	room := h.rooms[gameID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// BroadcastGameEvent implements service.Broadcaster. Slow sockets lose the
// event rather than block the game.
func (h *Hub) BroadcastGameEvent(gameID, eventType string, data any) {
	frame, err := json.Marshal(WSEvent{Type: eventType, GameID: gameID, Data: data})
	if err != nil {
		log.Error().Err(err).Str("gameId", gameID).Str("type", eventType).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[gameID] {
		select {
		case c.send <- frame:
		default:
			h.dropped.Add(1)
			log.Warn().Str("playerId", c.playerID).Str("gameId", gameID).Str("type", eventType).
				Msg("Dropping WebSocket event, send queue full")
		}
	}
}

// ConnectionCount returns the number of open sockets.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// GameSubscriberCount returns how many sockets watch gameID.
func (h *Hub) GameSubscriberCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}

// Dropped returns how many events were discarded for full send queues.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
