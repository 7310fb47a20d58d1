// Package transport implements the realtime socket client.
//
// The client:
//   - Dials the backend over WebSocket and exchanges JSON event frames
//   - Owns the reconnection policy (attempt cap, delay with capped
//     exponential growth, handshake timeout)
//   - Delivers named server events plus synthesized lifecycle events
//     (connect, disconnect, connect_error, reconnect_attempt,
//     reconnect, reconnect_failed) from a single delivery goroutine
package transport
