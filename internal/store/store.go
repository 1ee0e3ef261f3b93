// ABOUTME: In-memory conversation store for interview question/answer history
// ABOUTME: IDs are 1-based sequence positions; a full clear restarts numbering at 1

package store

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no conversation has the requested id.
var ErrNotFound = errors.New("conversation not found")

// ErrAlreadyAnswered is returned when setting an answer on a conversation
// that already has one. Answers transition absent->present at most once.
var ErrAlreadyAnswered = errors.New("conversation already answered")

// Conversation is one question/answer pair with metadata.
// HasAnswer is denormalized for cheap client-side checks and always equals
// Answer != nil.
type Conversation struct {
	ID        int       `json:"id"`
	Question  string    `json:"question"`
	Answer    *string   `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
	HasAnswer bool      `json:"has_answer"`
}

// Store holds all conversations in memory for the process lifetime.
// All mutations are serialized behind a single mutex so that id assignment
// is atomic with respect to other appends. Accessors return copies, so
// callers can serialize records without racing a concurrent SetAnswer.
//
// Clear resets numbering to 1. Clients holding ids from before a clear will
// silently address different records afterwards; this matches the product's
// established behavior and is not altered here.
type Store struct {
	mu            sync.Mutex
	conversations []*Conversation
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Append creates a new conversation with the next 1-based id and returns a
// copy of it. A nil answer creates an unanswered record.
func (s *Store) Append(question string, answer *string) *Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := &Conversation{
		ID:        len(s.conversations) + 1,
		Question:  question,
		Timestamp: time.Now(),
	}
	if answer != nil {
		a := *answer
		conv.Answer = &a
		conv.HasAnswer = true
	}
	s.conversations = append(s.conversations, conv)
	return snapshot(conv)
}

// Get returns a copy of the conversation with the given id, or ErrNotFound.
func (s *Store) Get(id int) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// ids are sequence positions, so the lookup is an index check
	if id < 1 || id > len(s.conversations) {
		return nil, ErrNotFound
	}
	return snapshot(s.conversations[id-1]), nil
}

// List returns copies of all conversations in creation order.
func (s *Store) List() []*Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Conversation, len(s.conversations))
	for i, conv := range s.conversations {
		out[i] = snapshot(conv)
	}
	return out
}

// Count returns the number of stored conversations.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// Clear removes every conversation. The next Append gets id 1.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = nil
}

// SetAnswer records the answer for an unanswered conversation and returns a
// copy of the updated record. Returns ErrNotFound for unknown ids and
// ErrAlreadyAnswered when the record already has an answer.
func (s *Store) SetAnswer(id int, answer string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > len(s.conversations) {
		return nil, ErrNotFound
	}
	conv := s.conversations[id-1]
	if conv.HasAnswer {
		return nil, ErrAlreadyAnswered
	}
	conv.Answer = &answer
	conv.HasAnswer = true
	return snapshot(conv), nil
}

// snapshot returns a copy of the record safe to hand outside the lock.
func snapshot(conv *Conversation) *Conversation {
	out := *conv
	if conv.Answer != nil {
		a := *conv.Answer
		out.Answer = &a
	}
	return &out
}
