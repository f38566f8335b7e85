package notifications

import (
	"context"
	"errors"
	"sync"

	"postchain/internal/ledger"
	"postchain/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total event-stream connections.
const maxTotalConns = 10000

// Hub fans committed ledger events out to WebSocket subscribers. Events
// arrive via the Redis subscription so every server instance sees commits
// made by its peers.
type Hub struct {
	mu       sync.RWMutex
	conns    map[*Client]struct{}
	cancelFn context.CancelFunc
}

// NewHub creates a new Hub instance for event streaming.
func NewHub() *Hub {
	return &Hub{conns: make(map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "event hub" }

// Register adds a connection to the hub. Returns the Client or an error if
// the connection limit is exceeded.
func (h *Hub) Register(principal string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conns) >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		principal: principal,
	}
	h.conns[client] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client]; !ok {
		return
	}
	delete(h.conns, client)
	close(client.send)
	observability.WebSocketConnectionsTotal.Dec()
}

// Broadcast sends a raw event payload to every subscriber. Slow clients
// whose buffers are full are skipped rather than blocking the fan-out.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.conns {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// StartWiring connects the Notifier to this hub: every event published to
// the Redis events channel is broadcast to local subscribers.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	ctx, cancel := context.WithCancel(ctx)
	h.cancelFn = cancel
	return n.StartSubscriber(ctx, func(_ *ledger.Event, raw []byte) {
		h.Broadcast(raw)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	if h.cancelFn != nil {
		h.cancelFn()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.conns {
		close(client.send)
		_ = client.conn.Close()
		delete(h.conns, client)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}
