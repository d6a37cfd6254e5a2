package system

import (
	"encoding/json"
	"sync"

	"go-bizsuite/internal/common/models"

	"go.uber.org/zap"
)

const subscriberBuffer = 16

type subscriber struct {
	orgID string
	send  chan []byte
}

// Hub fans events out to websocket subscribers of the event's organization.
// Events with an empty OrgID go to every subscriber. A subscriber that does
// not keep up loses events rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a listener for orgID. The returned cancel func must be
// called once the listener is gone; it closes the channel.
func (h *Hub) Subscribe(orgID string) (<-chan []byte, func()) {
	sub := &subscriber{orgID: orgID, send: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.send)
		})
	}
}

func (h *Hub) Publish(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("event encode failed", zap.String("type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if event.OrgID != "" && sub.orgID != event.OrgID {
			continue
		}
		select {
		case sub.send <- payload:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				zap.String("type", event.Type), zap.String("org_id", sub.orgID))
		}
	}
}

// Subscribers counts live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
