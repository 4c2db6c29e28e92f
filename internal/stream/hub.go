// Package stream broadcasts pendulum snapshots to websocket subscribers.
// Only encoded frames leave the simulation goroutine.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/san-kum/pendsim/internal/physics"
)

const (
	sendBuffer = 64
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
	writeWait  = 5 * time.Second
)

// Frame is the JSON message sent for every committed tick.
type Frame struct {
	Tick      uint64         `json:"tick"`
	T         float64        `json:"t"`
	Pendulums []physics.View `json:"pendulums"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub is a tick observer and an http.Handler for the /ws endpoint.
type Hub struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
	minGap   time.Duration
	lastSent time.Time
	sent     uint64
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// SetMaxRate caps broadcasts to hz frames per second. Zero removes the cap.
func (h *Hub) SetMaxRate(hz float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hz <= 0 {
		h.minGap = 0
		return
	}
	h.minGap = time.Duration(float64(time.Second) / hz)
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Sent is the number of frames broadcast so far.
func (h *Hub) Sent() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sent
}

func (h *Hub) OnTick(tick uint64, _, t float64, views []physics.View) {
	now := time.Now()
	h.mu.Lock()
	if len(h.clients) == 0 || (h.minGap > 0 && now.Sub(h.lastSent) < h.minGap) {
		h.mu.Unlock()
		return
	}
	h.lastSent = now
	h.mu.Unlock()

	msg, err := json.Marshal(Frame{Tick: tick, T: t, Pendulums: views})
	if err != nil {
		h.logger.Error("encode frame", zap.Uint64("tick", tick), zap.Error(err))
		return
	}
	h.Broadcast(msg)
}

// Broadcast queues msg for every client. A client whose buffer is full is
// dropped.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent++
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow subscriber", zap.String("client", c.id))
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), id: r.RemoteAddr}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("subscriber connected", zap.String("client", c.id))

	go h.readLoop(c)
	go h.writeLoop(c)
}

// readLoop discards inbound messages; it exists to notice disconnects and
// to process pongs.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.Info("subscriber disconnected", zap.String("client", c.id))
	}()
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Mux serves the hub on /ws and a plain health check on /healthz.
func Mux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
