// ABOUTME: Tests for the in-memory conversation store
// ABOUTME: Covers id assignment, clear semantics, answer transitions, concurrency

package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendAssignsSequentialIDs(t *testing.T) {
	s := New()

	first := s.Append("What is Go?", nil)
	second := s.Append("What is a goroutine?", nil)
	third := s.Append("What is a channel?", nil)

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, 3, third.ID)
	assert.Equal(t, 3, s.Count())
}

func TestStore_AppendWithAnswer(t *testing.T) {
	s := New()
	answer := "A statically typed language."

	conv := s.Append("What is Go?", &answer)

	require.NotNil(t, conv.Answer)
	assert.Equal(t, answer, *conv.Answer)
	assert.True(t, conv.HasAnswer)
	assert.False(t, conv.Timestamp.IsZero())
}

func TestStore_AppendWithoutAnswer(t *testing.T) {
	s := New()

	conv := s.Append("What is Go?", nil)

	assert.Nil(t, conv.Answer)
	assert.False(t, conv.HasAnswer)
}

func TestStore_GetReturnsRecord(t *testing.T) {
	s := New()
	s.Append("first", nil)
	s.Append("second", nil)

	conv, err := s.Get(2)

	require.NoError(t, err)
	assert.Equal(t, 2, conv.ID)
	assert.Equal(t, "second", conv.Question)
}

func TestStore_GetUnknownIDFails(t *testing.T) {
	s := New()
	s.Append("only one", nil)

	for _, id := range []int{0, -1, 2, 100} {
		_, err := s.Get(id)
		assert.ErrorIs(t, err, ErrNotFound, "id %d", id)
	}
}

func TestStore_ListPreservesCreationOrder(t *testing.T) {
	s := New()
	questions := []string{"one", "two", "three"}
	for _, q := range questions {
		s.Append(q, nil)
	}

	list := s.List()

	require.Len(t, list, 3)
	for i, conv := range list {
		assert.Equal(t, i+1, conv.ID)
		assert.Equal(t, questions[i], conv.Question)
	}
}

func TestStore_ClearResetsNumbering(t *testing.T) {
	s := New()
	s.Append("before clear", nil)
	s.Append("also before clear", nil)

	s.Clear()

	assert.Empty(t, s.List())
	assert.Equal(t, 0, s.Count())

	conv := s.Append("after clear", nil)
	assert.Equal(t, 1, conv.ID)
}

func TestStore_SetAnswerTransitionsOnce(t *testing.T) {
	s := New()
	s.Append("unanswered", nil)

	updated, err := s.SetAnswer(1, "the answer")
	require.NoError(t, err)
	require.NotNil(t, updated.Answer)
	assert.Equal(t, "the answer", *updated.Answer)
	assert.True(t, updated.HasAnswer)

	_, err = s.SetAnswer(1, "a different answer")
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	// First answer is untouched
	conv, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "the answer", *conv.Answer)
}

func TestStore_SetAnswerUnknownIDFails(t *testing.T) {
	s := New()

	_, err := s.SetAnswer(1, "answer")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_HasAnswerMatchesAnswerPresence(t *testing.T) {
	s := New()
	answer := "yes"
	s.Append("answered", &answer)
	s.Append("unanswered", nil)
	_, err := s.SetAnswer(2, "now answered")
	require.NoError(t, err)

	for _, conv := range s.List() {
		assert.Equal(t, conv.Answer != nil, conv.HasAnswer, "conversation %d", conv.ID)
	}
}

func TestStore_ReturnedRecordsAreCopies(t *testing.T) {
	s := New()
	conv := s.Append("immutable?", nil)

	conv.Question = "mutated"
	conv.HasAnswer = true

	stored, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "immutable?", stored.Question)
	assert.False(t, stored.HasAnswer)
}

func TestStore_ConcurrentAppendsAssignUniqueIDs(t *testing.T) {
	s := New()
	const n = 100

	ids := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Append("concurrent question", nil).ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, s.Count())
}
