package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBuffer     = 16
	maxInboundSize = 1024
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans messages out to every connected websocket client. A client whose
// buffer is full is dropped rather than allowed to stall the broadcaster.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewHub accepts upgrades from the server's own origin and from the listed
// origins. A "*" entry is ignored: the feed is cookie-authenticated, so a
// browser origin must be named explicitly. Requests without an Origin header
// come from non-browser clients and are accepted.
func NewHub(log logger.Logger, allowedOrigins []string) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		log: log,
	}
}

func normalizeOrigin(scheme, host string) string {
	return strings.ToLower(scheme + "://" + host)
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSuffix(strings.TrimSpace(o), "/")
		if o == "" || o == "*" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			set[normalizeOrigin(u.Scheme, u.Host)] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		_, ok := set[normalizeOrigin(u.Scheme, u.Host)]
		return ok
	}
}

// ServeWS upgrades the request and blocks until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(c)

	conn.SetReadLimit(maxInboundSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	return nil
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast sends v as a JSON text frame to all clients.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Errorw("broadcast marshal failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			h.log.Warnw("dropping slow websocket client", "remote", c.conn.RemoteAddr().String())
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
