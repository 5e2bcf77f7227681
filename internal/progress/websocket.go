package progress

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aura-labs/aura/internal/identity"
	"github.com/coder/websocket"
)

// WebSocketHandler upgrades /ws/progress connections and parks them on
// the hub until the client disconnects.
type WebSocketHandler struct {
	hub           *Hub
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the progress WebSocket handler.
func NewWebSocketHandler(hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, allowedOrigin: allowedOrigin, isDev: isDev}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || h.allowedOrigin == "" || strings.HasPrefix(origin, h.allowedOrigin)
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.isDev,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "user_id", userID, "error", err)
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// Progress is push-only; drain the read side until the peer closes so
	// control frames keep flowing.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			if !errors.Is(err, io.EOF) && websocket.CloseStatus(err) < 0 && ctx.Err() == nil {
				slog.Debug("progress read ended", "user_id", userID, "error", err)
			}
			_ = conn.Close(websocket.StatusNormalClosure, "done")
			return
		}
	}
}
