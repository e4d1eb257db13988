// Package transport exposes SessionCoordinator over a websocket
// connection (spec.md §6): one goroutine per connection, JSON frames
// in both directions, welcome sent immediately on upgrade.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/beaconmesh/indoor-positioning-server/internal/session"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP connections to websockets and dispatches each
// inbound frame through a session.Coordinator.
type Handler struct {
	logger      *slog.Logger
	coordinator *session.Coordinator
}

// NewHandler constructs a websocket Handler bound to coordinator.
func NewHandler(logger *slog.Logger, coordinator *session.Coordinator) *Handler {
	return &Handler{logger: logger, coordinator: coordinator}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	conn := &safeConn{conn: rawConn}

	sessionID, welcome := h.coordinator.Open()
	defer h.coordinator.Close(sessionID)
	defer conn.close()

	if err := conn.writeJSON(welcome); err != nil {
		h.logger.Debug("welcome write failed", "sessionId", sessionID, "error", err)
		return
	}

	rawConn.SetReadDeadline(time.Now().Add(pongWait))
	rawConn.SetPongHandler(func(string) error {
		rawConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go h.pingLoop(conn, done)
	defer close(done)

	ctx := r.Context()
	for {
		var msg session.InboundMessage
		if err := rawConn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "sessionId", sessionID, "error", err)
			}
			return
		}

		resp := h.dispatch(ctx, sessionID, msg)
		if err := conn.writeJSON(resp); err != nil {
			h.logger.Debug("websocket write failed", "sessionId", sessionID, "error", err)
			return
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, sessionID string, msg session.InboundMessage) (resp any) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("session dispatch panic", "sessionId", sessionID, "panic", r)
			resp = session.ErrorResponse{Type: "error", Status: "error", Message: "internal error"}
		}
	}()
	return h.coordinator.Dispatch(ctx, sessionID, msg)
}

func (h *Handler) pingLoop(conn *safeConn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.writePing(); err != nil {
				return
			}
		}
	}
}

// safeConn serializes every write to the underlying websocket
// connection. gorilla/websocket permits at most one concurrent writer;
// without this, the read loop's response writes and pingLoop's
// keepalive pings (running on separate goroutines) can interleave and
// corrupt the frame stream.
type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *safeConn) writePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *safeConn) close() error {
	return c.conn.Close()
}
