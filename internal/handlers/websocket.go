package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WebSocketHandler streams job lifecycle events to connected UIs. Each
// connection gets its own event subscription; the connection's writer
// goroutine is the only one touching the socket.
type WebSocketHandler struct {
	events interfaces.EventService
	logger arbor.ILogger
}

// NewWebSocketHandler creates the websocket handler
func NewWebSocketHandler(events interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		events: events,
		logger: logger,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.logger.Debug().Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	events, cancel := h.events.Subscribe()

	// Reader: we never expect client messages, but the read loop is what
	// notices a closed connection and feeds the pong handler.
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	go h.writeLoop(conn, events, r.RemoteAddr)
}

func (h *WebSocketHandler) writeLoop(conn *websocket.Conn, events <-chan *models.Event, remote string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		h.logger.Debug().Str("remote", remote).Msg("WebSocket client disconnected")
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
