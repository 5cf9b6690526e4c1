package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/middleware"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	maxMsgSize  = 4096
	sendBufSize = 256
)

// eventError reports a rejected client message back to that client only.
const eventError = "error"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are checked by the CORS middleware.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHandler upgrades spectators and players to event streams.
type WSHandler struct {
	hub *Hub
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// ServeWS handles GET /api/v1/ws?player=<id>[&game=<id>]. Browsers cannot
// set headers on the upgrade, so the player ID travels in the query.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playerID, err := middleware.ValidatePlayerID(q.Get("player"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("playerId", playerID).Msg("WebSocket upgrade failed")
		return
	}

	c := &WSConn{conn: conn, playerID: playerID, send: make(chan []byte, sendBufSize)}
	h.hub.Register(c)
	// Queue the greeting before joining so it is always the first frame.
	h.reply(c, eventConnected, "", map[string]any{"player_id": playerID})
	if gameID := q.Get("game"); gameID != "" {
		h.hub.Subscribe(c, gameID)
	}

	go h.writePump(c)
	go h.readPump(c)

	log.Info().Str("playerId", playerID).Int("total", h.hub.ConnectionCount()).Msg("WebSocket client connected")
}

// reply queues a frame for c alone.
func (h *WSHandler) reply(c *WSConn, eventType, gameID string, data any) {
	frame, err := json.Marshal(WSEvent{Type: eventType, GameID: gameID, Data: data})
	if err != nil {
		log.Error().Err(err).Str("playerId", c.playerID).Str("type", eventType).Msg("Failed to marshal WebSocket reply")
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

// readPump handles subscribe and unsubscribe requests until the socket closes.
func (h *WSHandler) readPump(c *WSConn) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		log.Info().Str("playerId", c.playerID).Msg("WebSocket client disconnected")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			var syntax *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntax) || errors.As(err, &typeErr) {
				h.reply(c, eventError, "", map[string]any{"message": "malformed message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("playerId", c.playerID).Msg("WebSocket unexpected close")
			}
			return
		}

		switch {
		case msg.GameID == "":
			h.reply(c, eventError, "", map[string]any{"message": "game_id is required"})
		case msg.Action == "subscribe":
			if !h.hub.Subscribe(c, msg.GameID) {
				h.reply(c, eventError, msg.GameID, map[string]any{"message": "too many subscriptions"})
			}
		case msg.Action == "unsubscribe":
			h.hub.Unsubscribe(c, msg.GameID)
		default:
			h.reply(c, eventError, msg.GameID, map[string]any{"message": "unknown action " + msg.Action})
		}
	}
}

// writePump drains c.send one event per frame and keeps the socket alive.
func (h *WSHandler) writePump(c *WSConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
