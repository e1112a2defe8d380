package hub

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/yeonjoon13/flight-map/internal/viewport"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 4

	TypeMarkers = "markers"
)

var errHubClosed = errors.New("hub closed")

// Envelope wraps every message pushed to browsers.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Encoder renders a marker layer as the payload of a markers message.
type Encoder func(layer *viewport.MarkerLayer) ([]byte, error)

// Hub fans installed marker layers out to websocket clients. A client that
// connects receives the latest layer straight away.
type Hub struct {
	encode   Encoder
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	clients  map[*client]struct{}
	latest   []byte
	revision uint64
	closed   bool
}

func New(encode Encoder, logger zerolog.Logger) *Hub {
	return &Hub{
		encode: encode,
		logger: logger.With().Str("component", "hub").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// LayerInstalled implements markers.Listener. Layers older than the one
// already broadcast are ignored.
func (h *Hub) LayerInstalled(revision uint64, layer *viewport.MarkerLayer) {
	payload, err := h.encode(layer)
	if err != nil {
		h.logger.Error().Err(err).Uint64("revision", revision).Msg("Encoding marker layer")
		return
	}
	msg, err := json.Marshal(Envelope{Type: TypeMarkers, Payload: payload})
	if err != nil {
		h.logger.Error().Err(err).Msg("Encoding envelope")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || (h.latest != nil && revision <= h.revision) {
		return
	}
	h.latest = msg
	h.revision = revision
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn().Str("remote", c.remote).Msg("Client too slow, dropping")
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
	}
	if err := h.register(c); err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.logger.Info().Str("remote", c.remote).Msg("Client connected")

	go c.writeLoop()
	c.readLoop()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) register(c *client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errHubClosed
	}
	h.clients[c] = struct{}{}
	if h.latest != nil {
		c.send <- h.latest
	}
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.removeLocked(c)
		h.logger.Info().Str("remote", c.remote).Msg("Client disconnected")
	}
}

// removeLocked closes c's queue; its writer then closes the connection.
func (h *Hub) removeLocked(c *client) {
	delete(h.clients, c)
	close(c.send)
}
