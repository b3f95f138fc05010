package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	subscriberSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// offer queues payload without blocking. It reports false when the queue is full.
func (s *subscriber) offer(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return true
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// StreamHub pushes every newly saved record to connected WebSocket clients.
// Slow clients that fall behind are disconnected.
type StreamHub struct {
	subscribers cmap.ConcurrentMap[string, *subscriber]
	logger      zerolog.Logger
}

// NewStreamHub creates an empty hub.
func NewStreamHub(logger zerolog.Logger) *StreamHub {
	return &StreamHub{
		subscribers: cmap.New[*subscriber](),
		logger:      logger,
	}
}

// Notify broadcasts record to every subscriber.
func (h *StreamHub) Notify(record models.LocationData) {
	if h.subscribers.Count() == 0 {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode streamed location")
		return
	}

	for item := range h.subscribers.IterBuffered() {
		if !item.Val.offer(payload) {
			h.logger.Warn().Str("subscriber", item.Key).Msg("Dropping slow stream subscriber")
			h.remove(item.Key)
		}
	}
}

// Count returns the number of connected subscribers.
func (h *StreamHub) Count() int {
	return h.subscribers.Count()
}

// Close disconnects every subscriber.
func (h *StreamHub) Close() {
	for _, id := range h.subscribers.Keys() {
		h.remove(id)
	}
}

func (h *StreamHub) remove(id string) {
	if sub, ok := h.subscribers.Pop(id); ok {
		sub.close()
	}
}

func (h *StreamHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to upgrade stream connection")
		return
	}

	id := uuid.NewString()
	sub := &subscriber{conn: conn, send: make(chan []byte, subscriberSize)}
	h.subscribers.Set(id, sub)
	h.logger.Info().Str("subscriber", id).Str("remote", r.RemoteAddr).Msg("Stream subscriber connected")

	go h.writePump(id, sub)
	h.readPump(id, sub)
}

// readPump discards client messages and notices when the peer goes away.
func (h *StreamHub) readPump(id string, sub *subscriber) {
	defer h.remove(id)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("subscriber", id).Msg("Stream subscriber read error")
			}
			return
		}
	}
}

func (h *StreamHub) writePump(id string, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
		h.logger.Info().Str("subscriber", id).Msg("Stream subscriber disconnected")
	}()

	for {
		select {
		case payload, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.remove(id)
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(id)
				return
			}
		}
	}
}
