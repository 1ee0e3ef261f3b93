// Package conversation provides the conversation lifecycle service and the
// realtime notification hub.
//
// # Service
//
// The Service coordinates conversation operations between the HTTP/WebSocket
// gateway, the in-memory store, and the answer provider:
//
//	svc := conversation.New(store, hub, provider, logger)
//
// Key operations:
//
//   - SubmitQuestion(ctx, question, generateAnswer): validate, optionally
//     generate an answer, store, broadcast new_conversation
//   - GenerateDeferredAnswer(ctx, id): answer a stored question-only record,
//     broadcast conversation_updated
//   - ListConversations / ClearAll / Snapshot
//
// # Failure asymmetry
//
// The two generation paths treat provider failures differently on purpose:
//
//   - SubmitQuestion degrades a failure into the stored answer text, so the
//     question is never lost
//   - GenerateDeferredAnswer propagates the failure and leaves the record
//     unanswered, so the client can retry
//
// # Hub
//
// The Hub fans conversation events out to every subscribed realtime client.
// Delivery is best-effort: subscribers with full channels drop events, and
// there is no replay for clients that connect late.
package conversation
