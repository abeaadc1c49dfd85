// Package realtime pushes "something changed" nudges to connected clients over websockets.
// Messages never carry notification state; clients refetch on receipt.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	// EventNotificationsChanged tells a client to refetch its notifications.
	EventNotificationsChanged = "notifications_changed"
)

// Publisher fans a nudge out to every instance (Redis pub/sub).
type Publisher interface {
	PublishAccountEvent(ctx context.Context, accountID uuid.UUID, event string) error
}

// Subscriber subscribes to one account's channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeAccount(accountID uuid.UUID, handler func(event string)) (cancel func(), err error)
}

// Hub maintains account_id -> set of connections. With Redis configured, nudges are
// published and every instance delivers them to its local connections from the subscription.
type Hub struct {
	accounts map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func()
	mu       sync.RWMutex
	logger   *zap.Logger
	pub      Publisher
	sub      Subscriber
}

// NewHub creates a hub. pub and sub may be nil for a single-instance deployment.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		accounts: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		pub:      pub,
		sub:      sub,
	}
}

// Register adds a connection. The first connection of an account opens its Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.accounts[c.AccountID] == nil
	if first {
		h.accounts[c.AccountID] = make(map[string]*Client)
	}
	h.accounts[c.AccountID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("account_id", c.AccountID.String()))

	if first && h.sub != nil {
		h.subscribe(c.AccountID)
	}
}

// subscribe opens the account channel without holding mu. The subscription is dropped when the
// account has no connections left by the time it is ready, or when another one is already in place.
func (h *Hub) subscribe(accountID uuid.UUID) {
	cancel, err := h.sub.SubscribeAccount(accountID, func(event string) {
		h.deliver(accountID, event)
	})
	if err != nil {
		h.logger.Warn("subscribe account channel failed", zap.Error(err), zap.String("account_id", accountID.String()))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.accounts[accountID]; !live {
		cancel()
		return
	}
	if _, ok := h.subs[accountID]; ok {
		cancel()
		return
	}
	h.subs[accountID] = cancel
}

// Unregister removes a connection. The last connection of an account closes its subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.accounts[c.AccountID]
	if !ok {
		return
	}
	if _, ok := m[c.ID]; !ok {
		return
	}
	delete(m, c.ID)
	close(c.send)
	if len(m) == 0 {
		delete(h.accounts, c.AccountID)
		if cancel, ok := h.subs[c.AccountID]; ok {
			cancel()
			delete(h.subs, c.AccountID)
		}
	}
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("account_id", c.AccountID.String()))
}

// deliver sends event to the account's local connections.
func (h *Hub) deliver(accountID uuid.UUID, event string) {
	msg := WSMessage{Event: event, Data: json.RawMessage(`{}`)}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.accounts[accountID] {
		select {
		case c.send <- msg:
		default:
			// buffer full; the client's next poll catches up
		}
	}
}

// Nudge tells each account's clients that their notifications changed. With a publisher the
// delivery happens through the subscription, including on this instance.
func (h *Hub) Nudge(ctx context.Context, accountIDs ...uuid.UUID) error {
	var firstErr error
	for _, id := range accountIDs {
		if h.pub == nil {
			h.deliver(id, EventNotificationsChanged)
			continue
		}
		if err := h.pub.PublishAccountEvent(ctx, id, EventNotificationsChanged); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Connections returns the number of live connections for an account.
func (h *Hub) Connections(accountID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accounts[accountID])
}
