package bot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/campaign-trail/internal/model"
	"github.com/freeeve/campaign-trail/pkg/campaign"
)

// WSEvent mirrors handler.WSEvent for client-side deserialization.
type WSEvent struct {
	Type   string         `json:"type"`
	GameID string         `json:"game_id"`
	Data   map[string]any `json:"data"`
}

// Client is an HTTP+WebSocket client for a single remote player.
type Client struct {
	playerID string
	baseURL  string
	wsConn   *websocket.Conn
	events   chan WSEvent
	httpC    *http.Client
	mu       sync.Mutex
	closedWS bool
}

// NewClient creates a client acting as playerID against the given server URL.
func NewClient(playerID, baseURL string) *Client {
	return &Client{
		playerID: playerID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		events:   make(chan WSEvent, 64),
		httpC:    &http.Client{Timeout: 30 * time.Second},
	}
}

// PlayerID returns the ID sent with every request.
func (c *Client) PlayerID() string { return c.playerID }

// CreateGame creates a game seated on color and returns it.
func (c *Client) CreateGame(name string, color campaign.Color) (*model.Game, error) {
	var game model.Game
	body := map[string]string{"name": name, "color": string(color)}
	if err := c.do(http.MethodPost, "/api/v1/games", body, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// JoinGame takes the free seat of a game.
func (c *Client) JoinGame(gameID string) (*model.Game, error) {
	var game model.Game
	if err := c.do(http.MethodPost, "/api/v1/games/"+gameID+"/join", nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// StartGame starts a game (creator only).
func (c *Client) StartGame(gameID string) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/start", nil, nil)
}

// GetGame fetches game details.
func (c *Client) GetGame(gameID string) (*model.Game, error) {
	var game model.Game
	if err := c.do(http.MethodGet, "/api/v1/games/"+gameID, nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

// State fetches the live state of a game.
func (c *Client) State(gameID string) (*campaign.GameState, error) {
	var gs campaign.GameState
	if err := c.do(http.MethodGet, "/api/v1/games/"+gameID+"/state", nil, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// ToggleFloor buys or releases a floor.
func (c *Client) ToggleFloor(gameID string, row, col, floor int) error {
	body := map[string]int{"row": row, "col": col, "floor": floor}
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/floors", body, nil)
}

// RecordPoll polls a region.
func (c *Client) RecordPoll(gameID string, region campaign.PollRegion) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/polls", region, nil)
}

// SetFactCheck answers the opponent's poll.
func (c *Client) SetFactCheck(gameID string, kind campaign.FactCheck) error {
	body := map[string]campaign.FactCheck{"kind": kind}
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/factcheck", body, nil)
}

// MarkDone ends the player's advertising or funding phase.
func (c *Client) MarkDone(gameID string) error {
	return c.do(http.MethodPost, "/api/v1/games/"+gameID+"/done", nil, nil)
}

// ConnectWS opens a WebSocket connection subscribed to gameID.
func (c *Client) ConnectWS(gameID string) error {
	q := url.Values{"player": {c.playerID}, "game": {gameID}}
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/v1/ws?" + q.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial: %w", err)
	}
	c.wsConn = conn

	go c.readWSLoop()
	return nil
}

// Events returns the channel of incoming WebSocket events.
func (c *Client) Events() <-chan WSEvent { return c.events }

// CloseWS closes the WebSocket connection.
func (c *Client) CloseWS() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn != nil && !c.closedWS {
		c.closedWS = true
		c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func (c *Client) readWSLoop() {
	defer close(c.events)
	for {
		_, msg, err := c.wsConn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closed := c.closedWS
			c.mu.Unlock()
			if !closed {
				log.Debug().Err(err).Str("player", c.playerID).Msg("WS read error")
			}
			return
		}
		var event WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			continue
		}
		c.events <- event
	}
}

// do sends a request and decodes the response into out when non-nil.
func (c *Client) do(method, path string, payload, out any) error {
	data := []byte("{}")
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("X-Player-ID", c.playerID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpC.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
