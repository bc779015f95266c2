package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/RudinMaxim/BarberMarket/common"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrHubClosed = errors.New("notification hub is closed")

func Channel(userID uuid.UUID) string {
	return "notifications:" + userID.String()
}

// Hub publishes notifications on per-user Redis channels and lets live
// views subscribe to them.
type Hub struct {
	client *redis.Client
	log    *zap.Logger

	mu     sync.Mutex
	subs   map[*redis.PubSub]func()
	closed bool
}

func NewHub(client *redis.Client, log *zap.Logger) *Hub {
	return &Hub{client: client, log: log, subs: make(map[*redis.PubSub]func())}
}

func (h *Hub) Publish(ctx context.Context, n common.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return h.client.Publish(ctx, Channel(n.UserID), data).Err()
}

// Subscribe streams the user's notifications until the returned func is
// called, ctx ends or the hub is closed. The channel is closed in every case
// and the func is safe to call more than once.
func (h *Hub) Subscribe(ctx context.Context, userID uuid.UUID) (<-chan common.Notification, func(), error) {
	ps := h.client.Subscribe(ctx, Channel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan common.Notification, 16)
	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			h.mu.Lock()
			delete(h.subs, ps)
			h.mu.Unlock()
			if err := ps.Close(); err != nil {
				h.log.Debug("Pubsub close failed", zap.Error(err))
			}
		})
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = ps.Close()
		return nil, nil, ErrHubClosed
	}
	h.subs[ps] = unsubscribe
	h.mu.Unlock()

	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				unsubscribe()
				return
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n, err := decode(msg.Payload)
				if err != nil {
					h.log.Warn("Dropping malformed notification", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- n:
				case <-done:
					return
				case <-ctx.Done():
					unsubscribe()
					return
				}
			}
		}
	}()

	return out, unsubscribe, nil
}

func decode(payload string) (common.Notification, error) {
	var n common.Notification
	err := json.Unmarshal([]byte(payload), &n)
	return n, err
}

// Close ends every live subscription. Later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	pending := make([]func(), 0, len(h.subs))
	for _, unsubscribe := range h.subs {
		pending = append(pending, unsubscribe)
	}
	h.mu.Unlock()

	for _, unsubscribe := range pending {
		unsubscribe()
	}
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
