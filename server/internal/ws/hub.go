package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cfacal/cfacal/pkg/types"
	"github.com/cfacal/cfacal/server/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before the connection is
	// treated as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

// Event names.
const (
	EventSnapshot    = "snapshot"
	EventCalculation = "calculation"
)

// Message is the JSON envelope of every frame sent to clients. Data is a
// []store.Summary for snapshots and a *types.Report for calculations.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub manages WebSocket clients. It pushes every finished calculation as it
// happens and a summary snapshot of the store every interval.
type Hub struct {
	store    *store.Store
	interval time.Duration
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// send is never closed; done signals the write pump to stop so concurrent
// broadcasts cannot race a close.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// New creates a Hub that reads snapshots from st. checkOrigin may be nil to
// accept every origin.
func New(st *store.Store, interval time.Duration, checkOrigin func(*http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		store:    st,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		clients: make(map[*client]struct{}),
	}
}

// OriginChecker accepts requests whose Origin header is in allowed, or that
// carry no Origin at all. An empty list accepts everything.
func OriginChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run broadcasts a snapshot every interval until ctx is cancelled, then
// closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if data, err := h.snapshot(); err == nil {
				h.broadcast(data)
			}
		}
	}
}

// Publish pushes rep to every connected client.
func (h *Hub) Publish(rep *types.Report) {
	data, err := json.Marshal(Message{Event: EventCalculation, Data: rep})
	if err != nil {
		slog.Warn("ws: encode report failed", "err", err)
		return
	}
	h.broadcast(data)
}

// ServeHTTP upgrades the connection and serves the client until it closes.
// The current snapshot is sent immediately on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
	h.register(c)
	defer h.unregister(c)

	if data, err := h.snapshot(); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}

	go c.writePump()
	c.readPump()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case <-c.done:
		case c.send <- data:
		default:
			// Slow client.
			h.unregister(c)
		}
	}
}

func (h *Hub) snapshot() ([]byte, error) {
	return json.Marshal(Message{Event: EventSnapshot, Data: h.store.Summaries()})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.stop()
		delete(h.clients, c)
	}
}

// writePump forwards queued messages to the connection and sends pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
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

// readPump consumes control frames and detects disconnects.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
