package events

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"solana-blog-pass/internal/address"
	"solana-blog-pass/internal/domain"
	"solana-blog-pass/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	subscriberSize = 64
)

// Hub streams notifications to websocket subscribers.
// Slow subscribers that fill their buffer are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn   *websocket.Conn
	state  address.Pubkey // zero means all blogs
	send   chan *domain.Notification
	closed chan struct{}
	once   sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.closed)
	})
}

// HubOption configures Hub.
type HubOption func(*Hub)

// WithAllowedOrigins sets the Origin values accepted on upgrade, compared
// case-insensitively. "*" accepts any origin. Without this option only
// requests from the serving host, or without an Origin header, are accepted.
func WithAllowedOrigins(origins ...string) HubOption {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		h.upgrader.CheckOrigin = originChecker(origins)
	}
}

// NewHub creates a hub.
func NewHub(logger logrus.FieldLogger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		logger: logger.WithField("component", "events.hub"),
		subs:   make(map[*subscriber]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimSuffix(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[strings.ToLower(origin)]
	}
}

// Publish queues n for every matching subscriber. It never blocks.
func (h *Hub) Publish(_ context.Context, n *domain.Notification) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.subs {
		if !s.state.IsZero() && s.state != n.State {
			continue
		}
		select {
		case s.send <- n:
		default:
			h.logger.WithField("state", s.state.String()).Warn("subscriber buffer full, dropping connection")
			s.close()
		}
	}
	return nil
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request and streams notifications as JSON text frames.
// The optional "state" query parameter filters by blog state address.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var filter address.Pubkey
	if raw := r.URL.Query().Get("state"); raw != "" {
		pk, err := address.Parse(raw)
		if err != nil {
			http.Error(w, "invalid state address", http.StatusBadRequest)
			return
		}
		filter = pk
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	s := &subscriber{
		conn:   conn,
		state:  filter,
		send:   make(chan *domain.Notification, subscriberSize),
		closed: make(chan struct{}),
	}
	h.add(s)
	defer h.remove(s)

	go h.readLoop(s)
	h.writeLoop(s)
}

func (h *Hub) add(s *subscriber) {
	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	observability.UpdateSubscribers(n)
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	delete(h.subs, s)
	n := len(h.subs)
	h.mu.Unlock()
	observability.UpdateSubscribers(n)

	s.close()
	_ = s.conn.Close()
}

// readLoop drains client frames so control messages are processed.
func (h *Hub) readLoop(s *subscriber) {
	defer s.close()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(n); err != nil {
				h.logger.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.closed:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// Compile-time interface check.
var _ Publisher = (*Hub)(nil)
