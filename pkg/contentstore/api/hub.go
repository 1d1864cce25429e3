package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Websocket message types
const (
	MessageSnapshot     = "SNAPSHOT"     // Full document after a change
	MessageNotification = "NOTIFICATION" // User-facing notice, e.g. quota exceeded
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Message is the envelope written to websocket clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans store snapshots and notifications out to websocket clients. It
// implements contentstore.Notifier, and PublishDocument is a
// contentstore.Listener.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool
}

// NewHub creates a hub with no clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: make(map[*client]struct{})}
}

// Notify broadcasts a notification and logs it.
func (h *Hub) Notify(ctx context.Context, note contentstore.Notification) {
	level := slog.LevelInfo
	switch note.Level {
	case contentstore.NotificationError:
		level = slog.LevelError
	case contentstore.NotificationWarning:
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, note.Message, "blocking", note.Blocking)

	msg, err := encode(MessageNotification, note)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode notification", "err", err)
		return
	}
	h.broadcast(msg, false)
}

// PublishDocument broadcasts doc and remembers it for clients that connect later.
func (h *Hub) PublishDocument(doc *contentstore.Document) {
	msg, err := encode(MessageSnapshot, doc)
	if err != nil {
		h.logger.Error("failed to encode snapshot", "err", err)
		return
	}
	h.broadcast(msg, true)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS upgrades the request and streams messages until the client leaves.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg []byte, remember bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if remember {
		h.latest = msg
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// lagging client
			h.logger.Warn("websocket client too slow, disconnecting")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards inbound messages; it exists to notice disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read failed", "err", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Payload: raw})
}
