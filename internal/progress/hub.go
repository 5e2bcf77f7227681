// Package progress broadcasts pipeline stage transitions to WebSocket
// subscribers so a client can watch a session move through the
// pipeline without polling.
package progress

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event is one stage transition pushed to subscribers.
type Event struct {
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	State     string `json:"state"` // "started" or "finished"
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"ts"`
}

// Hub manages active WebSocket subscriptions keyed by user. A user may
// watch from several tabs; each tab is one connection.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{active: make(map[string]map[*websocket.Conn]struct{})}
}

// Register adds a subscription for a user.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.active[userID]; !ok {
		h.active[userID] = make(map[*websocket.Conn]struct{})
	}
	h.active[userID][conn] = struct{}{}
	slog.Info("progress subscription registered", "user_id", userID)
}

// Unregister removes a subscription for a user.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.active[userID]; ok {
		if _, exists := conns[conn]; exists {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.active, userID)
			}
			slog.Info("progress subscription unregistered", "user_id", userID)
		}
	}
}

// SubscriberCount returns the number of active connections for a user.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// Broadcast pushes an event to every subscriber of the given user.
// Write failures are logged and ignored: progress is advisory and must
// never block or fail the pipeline.
func (h *Hub) Broadcast(userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("failed to marshal progress event", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.active[userID]))
	for conn := range h.active[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			slog.Debug("progress write failed", "user_id", userID, "error", err)
		}
		cancel()
	}
}

// SessionNotifier adapts the hub to the orchestrator's Notifier
// interface for one user's pipeline run.
type SessionNotifier struct {
	Hub    *Hub
	UserID string
}

// StageStarted broadcasts a stage start event.
func (n *SessionNotifier) StageStarted(sessionID, stage string) {
	n.Hub.Broadcast(n.UserID, Event{
		SessionID: sessionID,
		Stage:     stage,
		State:     "started",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// StageFinished broadcasts a stage completion or failure event.
func (n *SessionNotifier) StageFinished(sessionID, stage string, err error) {
	ev := Event{
		SessionID: sessionID,
		Stage:     stage,
		State:     "finished",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	n.Hub.Broadcast(n.UserID, ev)
}
