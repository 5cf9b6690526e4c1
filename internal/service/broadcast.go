package service

// Event types pushed to game subscribers.
const (
	EventGameStarted  = "game_started"
	EventStateChanged = "state_changed"
	EventPhaseChanged = "phase_changed"
	EventGameEnded    = "game_ended"
)

// Broadcaster sends real-time events to connected clients.
// Implemented by the WebSocket hub.
type Broadcaster interface {
	BroadcastGameEvent(gameID string, eventType string, data any)
}

// NoopBroadcaster drops every event.
type NoopBroadcaster struct{}

func (NoopBroadcaster) BroadcastGameEvent(string, string, any) {}
