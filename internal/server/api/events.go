package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Event is one catalog-change notification pushed to connected clients.
type Event struct {
	Type      string `json:"type"` // upload, delete, update
	FileID    string `json:"fileId"`
	Timestamp string `json:"timestamp"`
}

// EventHub fans catalog-change events out to websocket clients so the
// front end can refresh without polling.
type EventHub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // same policy as the wide-open CORS config
			},
		},
	}
}

// Publish sends the event to every connected client. Clients that fail
// to accept the write are dropped.
func (h *EventHub) Publish(event, fileID string) {
	msg := Event{
		Type:      event,
		FileID:    fileID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(msg); err != nil {
			slog.Warn("dropping slow event client", "error", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// HandleEvents handles GET /api/events, upgrading to a websocket that
// receives catalog-change events until the client disconnects.
func (h *EventHub) HandleEvents(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	slog.Info("event client connected", "clients", count)

	// Drain the connection; clients only listen, so the first read
	// error means they are gone.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
			slog.Info("event client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}

// ClientCount reports the number of connected event clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
