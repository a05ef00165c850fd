package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexwar/internal/editor"
)

const (
	maxStreamConns = 16
	sendBuffer     = 256
	catchUp        = 50
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// streamMsg is one frame on the event stream.
type streamMsg struct {
	Type  string       `json:"type"` // "event"
	Event editor.Event `json:"event"`
}

// client is one websocket subscriber with a single write goroutine.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// hub fans session events out to websocket clients. broadcast never blocks:
// a client whose buffer is full is dropped.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{clients: make(map[*client]struct{}), logger: logger}
}

func (h *hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) >= maxStreamConns {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(e editor.Event) {
	data, err := json.Marshal(streamMsg{Type: "event", Event: e})
	if err != nil {
		h.logger.Warn("event not encodable", "seq", e.Seq, "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("stream client too slow, dropping")
			delete(h.clients, c)
			c.close()
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// handleStream upgrades to a websocket, replays recent events and then pushes
// every new session event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.hub.count() >= maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}

	// Register under the session lock so no event falls between the
	// catch-up and the live feed.
	s.mu.Lock()
	recent := s.Session.Events(catchUp)
	ok := s.hub.add(c)
	s.mu.Unlock()
	if !ok {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many stream connections"))
		conn.Close()
		return
	}
	s.logger.Info("stream client connected", "remote", clientIP(r))

	go s.writeLoop(c, recent)
	s.readLoop(c)
	s.hub.remove(c)
	s.logger.Info("stream client disconnected", "remote", clientIP(r))
}

// writeLoop drains the client's buffer onto the socket.
func (s *Server) writeLoop(c *client, recent []editor.Event) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for _, e := range recent {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(streamMsg{Type: "event", Event: e}); err != nil {
			c.close()
			return
		}
	}
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
		}
	}
}

// readLoop discards client frames until the connection goes away.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
