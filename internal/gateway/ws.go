// ABOUTME: WebSocket handler for the realtime conversation channel
// ABOUTME: Sends history on connect, fans out hub events, and serves request_answer messages

package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/2389/interview-gateway/internal/conversation"
	"github.com/2389/interview-gateway/internal/store"
)

// clientMessage is a message received from a realtime client.
type clientMessage struct {
	Type           string `json:"type"`
	ConversationID int    `json:"conversation_id"`
}

// handleWebSocket handles GET /ws. Each connection gets a hub subscription
// and a single writer goroutine; error replies to client requests go to the
// requesting connection only, never the broadcast channel.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		g.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.New().String()[:8]
	logger := g.logger.With("client_id", clientID)
	logger.Info("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, subID := g.hub.Subscribe(ctx)
	defer g.hub.Unsubscribe(subID)

	// Full state snapshot before any fan-out, so a new client never sees an
	// update for a record it doesn't know about.
	snapshot := conversation.Event{
		Type:    conversation.EventConversationHistory,
		Payload: g.service.Snapshot(),
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		logger.Warn("sending history snapshot failed", "error", err)
		_ = conn.Close()
		return
	}

	// All writes after the snapshot go through the writer goroutine.
	replies := make(chan conversation.Event, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer func() { _ = conn.Close() }()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				if err := conn.WriteJSON(ev); err != nil {
					logger.Debug("broadcast write failed, dropping connection", "error", err)
					return
				}
			case ev := <-replies:
				if err := conn.WriteJSON(ev); err != nil {
					logger.Debug("reply write failed, dropping connection", "error", err)
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "request_answer":
			g.handleRequestAnswer(ctx, msg.ConversationID, replies, logger)
		default:
			logger.Debug("unknown client message", "type", msg.Type)
			sendReply(replies, errorEvent("unknown message type"), logger)
		}
	}

	cancel()
	<-writerDone
	logger.Info("client disconnected")
}

// handleRequestAnswer runs the deferred-answer flow for a realtime client.
// Success is broadcast by the service as conversation_updated; failures are
// reported to the requesting client only.
func (g *Gateway) handleRequestAnswer(ctx context.Context, id int, replies chan<- conversation.Event, logger *slog.Logger) {
	if id == 0 {
		sendReply(replies, errorEvent("missing conversation id"), logger)
		return
	}

	_, err := g.service.GenerateDeferredAnswer(ctx, id)
	if err == nil {
		return
	}

	logger.Warn("deferred answer request failed", "conversation_id", id, "error", err)
	sendReply(replies, errorEvent(deferredErrorMessage(err)), logger)
}

// deferredErrorMessage maps deferred-generation failures to the user-facing
// messages delivered over the channel. Internal details stay in the logs.
func deferredErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, store.ErrAlreadyAnswered):
		return "this question already has an answer"
	case errors.Is(err, conversation.ErrProviderUnavailable):
		return "answer provider not initialized"
	default:
		return "failed to generate answer"
	}
}

func errorEvent(message string) conversation.Event {
	return conversation.Event{
		Type:    conversation.EventError,
		Payload: conversation.ErrorPayload{Message: message},
	}
}

// sendReply queues a per-client event without blocking the read loop.
func sendReply(replies chan<- conversation.Event, ev conversation.Event, logger *slog.Logger) {
	select {
	case replies <- ev:
	default:
		logger.Debug("reply channel full, dropping event", "event_type", ev.Type)
	}
}
