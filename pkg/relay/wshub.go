package relay

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// envelope is the wire frame for every push.
type envelope struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// command is what clients send over the socket.
type command struct {
	Action      string `json:"action"`
	OperationID string `json:"operation_id"`
}

type hubConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Hub is a WebSocket-backed Pusher. Each connected client gets a generated
// session ID; pushes address that ID.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*hubConn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns: make(map[string]*hubConn),
	}
}

// Push delivers a payload to the session's socket. Write access per
// connection is serialized; gorilla connections do not allow concurrent writers.
func (h *Hub) Push(sessionID, topic string, payload any) error {
	h.mu.RLock()
	hc, exists := h.conns[sessionID]
	h.mu.RUnlock()
	if !exists {
		return fmt.Errorf("no websocket session: %s", sessionID)
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.conn.WriteJSON(envelope{Topic: topic, Payload: payload})
}

// Handler returns an HTTP handler that upgrades the request to a WebSocket,
// then serves register/unregister commands until the client disconnects. All
// bindings made by the connection are removed when it closes.
func (h *Hub) Handler(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("WebSocket upgrade failed", "error", err)
			return
		}

		sessionID := uuid.New().String()
		h.mu.Lock()
		h.conns[sessionID] = &hubConn{conn: conn}
		h.mu.Unlock()
		slog.Debug("WebSocket session opened", "sessionId", sessionID)

		registered := make(map[string]bool)
		defer func() {
			for operationID := range registered {
				service.UnregisterSession(operationID)
			}
			h.mu.Lock()
			delete(h.conns, sessionID)
			h.mu.Unlock()
			conn.Close()
			slog.Debug("WebSocket session closed", "sessionId", sessionID)
		}()

		for {
			var cmd command
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("WebSocket read failed", "sessionId", sessionID, "error", err)
				}
				return
			}

			switch cmd.Action {
			case "register":
				if cmd.OperationID == "" {
					continue
				}
				service.RegisterSession(cmd.OperationID, sessionID)
				registered[cmd.OperationID] = true
			case "unregister":
				if cmd.OperationID == "" {
					continue
				}
				service.UnregisterSession(cmd.OperationID)
				delete(registered, cmd.OperationID)
			default:
				slog.Debug("Unknown websocket command", "action", cmd.Action)
			}
		}
	}
}
