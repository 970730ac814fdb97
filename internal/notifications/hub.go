// Package notifications delivers follow, like and comment events to connected
// websocket clients, fanning out across instances through Redis pub/sub.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"instaclone/internal/middleware"
	"instaclone/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	// ErrServerFull is returned by Register once maxTotalConns sockets are open.
	ErrServerFull = errors.New("server connection limit reached")
	// ErrUserFull is returned by Register once a user holds maxConnsPerUser sockets.
	ErrUserFull = errors.New("user connection limit reached")
)

// Hub maps userID -> set of Clients on this instance.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	log        *observability.WSLogger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
		log:   observability.NewWSLogger(hubName, middleware.Logger),
	}
}

const hubName = "notifications"

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := context.Background()
	if h.closed || h.totalConns >= maxTotalConns {
		h.log.LogRejected(ctx, userID, ErrServerFull)
		return nil, ErrServerFull
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		h.log.LogRejected(ctx, userID, ErrUserFull)
		return nil, ErrUserFull
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.log.LogConnect(ctx, userID, len(m))
	return client, nil
}

// UnregisterClient removes client from the hub. Unknown clients are ignored.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.WebSocketConnectionsTotal.Dec()
		h.log.LogDisconnect(context.Background(), client.UserID, len(m), "closed")
	}
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to all connections for userID and reports how many
// clients it was queued for.
func (h *Hub) Broadcast(userID uint, message string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := h.conns[userID]
	data := []byte(message)
	for c := range clients {
		c.TrySend(data)
	}
	return len(clients)
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether a user has at least one socket on this instance.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// ConnectionCount returns the number of open sockets on this instance.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring connects the Notifier to this hub: it subscribes to the Redis
// notification channels and forwards messages to matching local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, h.route)
}

func (h *Hub) route(channel, payload string) {
	if channel == BroadcastChannel {
		h.BroadcastAll(payload)
		return
	}
	userID, ok := parseUserChannel(channel)
	if !ok {
		middleware.Logger.Warn("invalid notification channel", slog.String("channel", channel))
		return
	}
	h.Broadcast(userID, payload)
}

func parseUserChannel(channel string) (uint, bool) {
	raw, found := strings.CutPrefix(channel, userChannelPrefix)
	if !found {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Shutdown closes every websocket connection with a going-away frame.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.log.LogLifecycle(ctx, "shutdown", map[string]interface{}{"connections": h.totalConns})

	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				middleware.Logger.Debug("failed to write close message", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
			if err := client.Conn.Close(); err != nil {
				middleware.Logger.Debug("failed to close websocket", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
			}
		}
	}
	observability.WebSocketConnectionsTotal.Sub(float64(h.totalConns))
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
