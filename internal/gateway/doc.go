// Package gateway exposes the conversation service over HTTP and WebSocket.
//
// # HTTP surface
//
//   - GET    /health             process status, provider availability, config echo
//   - POST   /api/question       submit a question, optionally generating an answer
//   - GET    /api/conversations  full history with total
//   - DELETE /api/conversations  clear all history
//   - POST   /api/reload-config  rebuild the config snapshot and provider
//
// # Realtime channel
//
// GET /ws upgrades to a WebSocket. The server sends a conversation_history
// snapshot on connect, then fans out new_conversation and
// conversation_updated events as state changes. Clients may send
// request_answer messages to trigger deferred answer generation; failures
// come back to the requester alone as error events.
//
// # Lifecycle
//
// New wires config, store, service, hub, and routes; Run serves until the
// context is canceled and then shuts down gracefully. Config reloads swap
// an immutable snapshot and reconstruct the Gemini client from it.
package gateway
