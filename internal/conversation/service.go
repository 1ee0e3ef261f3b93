// ABOUTME: ConversationService orchestrates question intake, answer generation and fan-out
// ABOUTME: Immediate generation degrades provider failures into answer text; deferred generation surfaces them

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/interview-gateway/internal/store"
)

// ErrEmptyQuestion is returned when a submitted question is empty after trimming.
var ErrEmptyQuestion = errors.New("question must not be empty")

// ErrProviderUnavailable is returned by deferred generation when no answer
// provider is configured.
var ErrProviderUnavailable = errors.New("answer provider not configured")

// AnswerProvider generates an answer suggestion for an interviewer question.
type AnswerProvider interface {
	GenerateAnswer(ctx context.Context, question string) (string, error)
}

// Service is the application layer between the gateway, the store, and the
// answer provider. Every successful state change is broadcast through the hub.
type Service struct {
	store  *store.Store
	hub    *Hub
	logger *slog.Logger

	mu       sync.RWMutex
	provider AnswerProvider // nil when no provider is configured
}

// New creates a conversation service. provider may be nil.
func New(st *store.Store, hub *Hub, provider AnswerProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		hub:      hub,
		provider: provider,
		logger:   logger.With("component", "conversation"),
	}
}

// SetProvider swaps the answer provider, typically after a config reload.
// Pass nil to disable answer generation.
func (s *Service) SetProvider(p AnswerProvider) {
	s.mu.Lock()
	s.provider = p
	s.mu.Unlock()
}

// ProviderAvailable reports whether an answer provider is configured.
func (s *Service) ProviderAvailable() bool {
	return s.currentProvider() != nil
}

func (s *Service) currentProvider() AnswerProvider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SubmitQuestion validates and stores a new question, optionally generating
// an answer first. Provider failures on this path are deliberately degraded
// into answer text rather than propagated: the record is always created.
// With no provider configured the record is created unanswered.
func (s *Service) SubmitQuestion(ctx context.Context, question string, generateAnswer bool) (*store.Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	s.logger.Info("question received", "question", truncate(question, 50))

	var answer *string
	if generateAnswer {
		if provider := s.currentProvider(); provider != nil {
			text, err := provider.GenerateAnswer(ctx, question)
			if err != nil {
				s.logger.Error("answer generation failed, storing failure as answer",
					"error", err,
					"question", truncate(question, 50))
				text = fmt.Sprintf("Error generating answer: %v", err)
			}
			answer = &text
		} else {
			s.logger.Warn("no answer provider configured, storing question without answer")
		}
	} else {
		s.logger.Debug("answer generation skipped by request")
	}

	conv := s.store.Append(question, answer)

	s.hub.Publish(Event{Type: EventNewConversation, Payload: conv})

	return conv, nil
}

// ListConversations returns all conversations in creation order.
func (s *Service) ListConversations() []*store.Conversation {
	return s.store.List()
}

// Count returns the number of stored conversations.
func (s *Service) Count() int {
	return s.store.Count()
}

// ClearAll empties the conversation history and broadcasts the empty state.
func (s *Service) ClearAll() {
	s.store.Clear()
	s.logger.Info("conversation history cleared")

	s.hub.Publish(Event{
		Type: EventConversationHistory,
		Payload: HistoryPayload{
			Conversations: []*store.Conversation{},
			Total:         0,
		},
	})
}

// GenerateDeferredAnswer generates an answer for a previously stored
// question-only record. Unlike SubmitQuestion, provider failures here are
// surfaced to the caller; the record stays unanswered.
func (s *Service) GenerateDeferredAnswer(ctx context.Context, id int) (*store.Conversation, error) {
	conv, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if conv.HasAnswer {
		return nil, store.ErrAlreadyAnswered
	}

	provider := s.currentProvider()
	if provider == nil {
		return nil, ErrProviderUnavailable
	}

	text, err := provider.GenerateAnswer(ctx, conv.Question)
	if err != nil {
		return nil, fmt.Errorf("generating answer for conversation %d: %w", id, err)
	}

	updated, err := s.store.SetAnswer(id, text)
	if err != nil {
		// Lost a race with a concurrent generation for the same record.
		return nil, err
	}

	s.hub.Publish(Event{Type: EventConversationUpdated, Payload: updated})

	return updated, nil
}

// Snapshot returns the history payload sent to newly connected clients.
func (s *Service) Snapshot() HistoryPayload {
	conversations := s.store.List()
	return HistoryPayload{
		Conversations: conversations,
		Total:         len(conversations),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
