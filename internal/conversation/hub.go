// ABOUTME: In-memory fan-out hub for conversation lifecycle events
// ABOUTME: Publishes state changes to every subscribed realtime client, best-effort only

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/interview-gateway/internal/store"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Event names pushed over the realtime channel.
const (
	EventConversationHistory = "conversation_history"
	EventNewConversation     = "new_conversation"
	EventConversationUpdated = "conversation_updated"
	EventError               = "error"
)

// Event is the envelope delivered to realtime clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// HistoryPayload carries a full conversation snapshot.
type HistoryPayload struct {
	Conversations []*store.Conversation `json:"conversations"`
	Total         int                   `json:"total"`
}

// ErrorPayload carries a user-facing error message to a single client.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Hub provides single-topic in-memory pub/sub for conversation events.
// Delivery is best-effort: there is no replay and no queue, and a client
// disconnected at broadcast time simply misses the event.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	logger      *slog.Logger
}

// NewHub creates a hub. Pass nil logger for default.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subscribers: make(map[string]chan Event),
		logger:      logger.With("component", "hub"),
	}
}

// Subscribe registers a subscriber and returns its event channel and
// subscription ID. The subscription is cleaned up when ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context) (<-chan Event, string) {
	subID := uuid.New().String()
	ch := make(chan Event, subscriberBufferSize)

	h.mu.Lock()
	h.subscribers[subID] = ch
	h.mu.Unlock()

	h.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		h.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends an event to every subscriber. Non-blocking: events are
// dropped for subscribers whose channels are full.
func (h *Hub) Publish(event Event) {
	h.mu.RLock()
	targets := make([]chan Event, 0, len(h.subscribers))
	for _, ch := range h.subscribers {
		targets = append(targets, ch)
	}
	h.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- event:
		default:
			h.logger.Debug("dropped event for slow subscriber", "event_type", event.Type)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(subID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subscribers[subID]
	if !ok {
		return
	}
	delete(h.subscribers, subID)
	close(ch)

	h.logger.Debug("subscriber removed", "sub_id", subID)
}

// SubscriberCount returns the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close shuts down the hub and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for subID, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, subID)
	}

	h.logger.Debug("hub closed")
}
