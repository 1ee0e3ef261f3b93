// ABOUTME: Tests for the conversation service orchestration layer
// ABOUTME: Exercises validation, degraded vs surfaced provider failures, and broadcasts

package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/interview-gateway/internal/store"
)

// fakeProvider is a scriptable AnswerProvider for tests.
type fakeProvider struct {
	answer string
	err    error
	calls  int
}

func (f *fakeProvider) GenerateAnswer(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestService(t *testing.T, provider AnswerProvider) (*Service, *Hub) {
	t.Helper()
	h := NewHub(nil)
	t.Cleanup(h.Close)
	return New(store.New(), h, provider, nil), h
}

func waitForEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubmitQuestion_GeneratesAnswer(t *testing.T) {
	provider := &fakeProvider{answer: "Talk about a time you led a migration."}
	svc, _ := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "Tell me about a challenge you faced", true)
	require.NoError(t, err)

	assert.Equal(t, 1, conv.ID)
	assert.True(t, conv.HasAnswer)
	require.NotNil(t, conv.Answer)
	assert.Equal(t, provider.answer, *conv.Answer)
	assert.Equal(t, 1, provider.calls)
}

func TestSubmitQuestion_EmptyQuestionRejected(t *testing.T) {
	provider := &fakeProvider{answer: "unused"}
	svc, _ := newTestService(t, provider)

	for _, question := range []string{"", "   ", "\n\t"} {
		_, err := svc.SubmitQuestion(context.Background(), question, true)
		assert.ErrorIs(t, err, ErrEmptyQuestion, "question %q", question)
	}

	assert.Equal(t, 0, provider.calls)
	assert.Equal(t, 0, svc.Count())
}

func TestSubmitQuestion_ProviderFailureDegradesToAnswerText(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model overloaded")}
	svc, _ := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "What is your greatest weakness?", true)
	require.NoError(t, err, "provider failure must not fail the submission")

	assert.True(t, conv.HasAnswer)
	require.NotNil(t, conv.Answer)
	assert.Equal(t, "Error generating answer: model overloaded", *conv.Answer)
	assert.Equal(t, 1, svc.Count())
}

func TestSubmitQuestion_SkipGeneration(t *testing.T) {
	provider := &fakeProvider{answer: "unused"}
	svc, _ := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "Why this company?", false)
	require.NoError(t, err)

	assert.False(t, conv.HasAnswer)
	assert.Nil(t, conv.Answer)
	assert.Equal(t, 0, provider.calls, "provider must not be called when generation is skipped")
}

func TestSubmitQuestion_NoProviderStoresUnanswered(t *testing.T) {
	svc, _ := newTestService(t, nil)

	conv, err := svc.SubmitQuestion(context.Background(), "Describe your ideal team", true)
	require.NoError(t, err)

	assert.False(t, conv.HasAnswer)
	assert.Nil(t, conv.Answer)
}

func TestSubmitQuestion_BroadcastsNewConversation(t *testing.T) {
	provider := &fakeProvider{answer: "an answer"}
	svc, h := newTestService(t, provider)

	ch, _ := h.Subscribe(context.Background())

	_, err := svc.SubmitQuestion(context.Background(), "How do you handle conflict?", true)
	require.NoError(t, err)

	ev := waitForEvent(t, ch)
	assert.Equal(t, EventNewConversation, ev.Type)

	conv, ok := ev.Payload.(*store.Conversation)
	require.True(t, ok, "payload should be the stored conversation")
	assert.Equal(t, "How do you handle conflict?", conv.Question)
}

func TestGenerateDeferredAnswer_Success(t *testing.T) {
	provider := &fakeProvider{answer: "Use the STAR method."}
	svc, h := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "Walk me through a project", false)
	require.NoError(t, err)

	ch, _ := h.Subscribe(context.Background())

	updated, err := svc.GenerateDeferredAnswer(context.Background(), conv.ID)
	require.NoError(t, err)

	assert.True(t, updated.HasAnswer)
	require.NotNil(t, updated.Answer)
	assert.Equal(t, provider.answer, *updated.Answer)

	ev := waitForEvent(t, ch)
	assert.Equal(t, EventConversationUpdated, ev.Type)
}

func TestGenerateDeferredAnswer_UnknownID(t *testing.T) {
	svc, _ := newTestService(t, &fakeProvider{answer: "unused"})

	_, err := svc.GenerateDeferredAnswer(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenerateDeferredAnswer_AlreadyAnswered(t *testing.T) {
	provider := &fakeProvider{answer: "first answer"}
	svc, _ := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "What motivates you?", true)
	require.NoError(t, err)

	_, err = svc.GenerateDeferredAnswer(context.Background(), conv.ID)
	assert.ErrorIs(t, err, store.ErrAlreadyAnswered)
	assert.Equal(t, 1, provider.calls, "no second generation for an answered record")
}

func TestGenerateDeferredAnswer_NoProvider(t *testing.T) {
	svc, _ := newTestService(t, nil)

	conv, err := svc.SubmitQuestion(context.Background(), "Where do you see yourself?", false)
	require.NoError(t, err)

	_, err = svc.GenerateDeferredAnswer(context.Background(), conv.ID)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestGenerateDeferredAnswer_ProviderFailureSurfaces(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	svc, _ := newTestService(t, provider)

	conv, err := svc.SubmitQuestion(context.Background(), "Any questions for us?", false)
	require.NoError(t, err)

	_, err = svc.GenerateDeferredAnswer(context.Background(), conv.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.err)

	// The record stays unanswered so the client can retry.
	stored, err := svc.store.Get(conv.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasAnswer)
}

func TestSetProvider_SwapsAtRuntime(t *testing.T) {
	svc, _ := newTestService(t, nil)
	assert.False(t, svc.ProviderAvailable())

	provider := &fakeProvider{answer: "now available"}
	svc.SetProvider(provider)
	assert.True(t, svc.ProviderAvailable())

	conv, err := svc.SubmitQuestion(context.Background(), "Are you available now?", true)
	require.NoError(t, err)
	assert.True(t, conv.HasAnswer)

	svc.SetProvider(nil)
	assert.False(t, svc.ProviderAvailable())
}

func TestClearAll_BroadcastsEmptyHistory(t *testing.T) {
	provider := &fakeProvider{answer: "gone soon"}
	svc, h := newTestService(t, provider)

	_, err := svc.SubmitQuestion(context.Background(), "First question", true)
	require.NoError(t, err)
	_, err = svc.SubmitQuestion(context.Background(), "Second question", true)
	require.NoError(t, err)
	require.Equal(t, 2, svc.Count())

	ch, _ := h.Subscribe(context.Background())

	svc.ClearAll()
	assert.Equal(t, 0, svc.Count())

	ev := waitForEvent(t, ch)
	assert.Equal(t, EventConversationHistory, ev.Type)

	payload, ok := ev.Payload.(HistoryPayload)
	require.True(t, ok)
	assert.Empty(t, payload.Conversations)
	assert.Equal(t, 0, payload.Total)
}

func TestSnapshot_ReflectsStoreContents(t *testing.T) {
	provider := &fakeProvider{answer: "snap"}
	svc, _ := newTestService(t, provider)

	snap := svc.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.Equal(t, 0, snap.Total)

	_, err := svc.SubmitQuestion(context.Background(), "One", true)
	require.NoError(t, err)
	_, err = svc.SubmitQuestion(context.Background(), "Two", false)
	require.NoError(t, err)

	snap = svc.Snapshot()
	assert.Equal(t, 2, snap.Total)
	require.Len(t, snap.Conversations, 2)
	assert.Equal(t, "One", snap.Conversations[0].Question)
	assert.Equal(t, "Two", snap.Conversations[1].Question)
}
