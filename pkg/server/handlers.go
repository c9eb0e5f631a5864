package server

import (
	"buckeuchre/pkg/game"
)

// EventHandler defines the interface for handling events
type EventHandler interface {
	HandleEvent(event *GameEvent)
}

// Broadcaster is implemented by the transport layer. After every accepted
// transition it receives one redacted view per seat; how those views reach
// the connected clients is the transport's business.
type Broadcaster interface {
	BroadcastGameState(gameID string, views map[int]*game.GameState)
}

// NotificationHandler fans redacted per-seat views out to the broadcaster.
type NotificationHandler struct {
	server *Server
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(server *Server) *NotificationHandler {
	return &NotificationHandler{server: server}
}

// HandleEvent builds one view per seat and hands them to the broadcaster.
// A trick-shown event carries a display override; it is broadcast like any
// other state, the override only differing in what the current trick shows.
func (nh *NotificationHandler) HandleEvent(event *GameEvent) {
	if nh.server.broadcaster == nil || event.State == nil {
		return
	}

	views := make(map[int]*game.GameState, game.NumSeats)
	for seat := 0; seat < game.NumSeats; seat++ {
		views[seat] = event.State.RedactFor(seat)
	}
	nh.server.broadcaster.BroadcastGameState(event.GameID, views)
}

// PersistenceHandler saves accepted states so a restarted server can resume.
type PersistenceHandler struct {
	server *Server
}

// NewPersistenceHandler creates a new persistence handler
func NewPersistenceHandler(server *Server) *PersistenceHandler {
	return &PersistenceHandler{server: server}
}

// HandleEvent persists the event's state asynchronously. Display overrides
// are views, not authoritative states, and are never written.
func (ph *PersistenceHandler) HandleEvent(event *GameEvent) {
	if event.Type == GameEventTypeTrickShown {
		return
	}
	ph.server.saveGameStateAsync(event.GameID, string(event.Type))
}
