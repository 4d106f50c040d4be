// Package transport moves sealed envelopes between client and host.
//
// Two delivery classes exist:
//
//   - Low-latency: one UDP datagram per envelope, fire-and-forget. Used for
//     pointer motion and scrolling, where a late update is worse than a lost
//     one. Send errors are dropped.
//   - Reliable: one TCP connection per envelope carrying exactly one request
//     frame and one response frame. Used for clicks, text, keys, media and
//     volume, where the caller needs to know the outcome.
//
// # Framing
//
// Reliable frames use a 4-byte big-endian length prefix:
//
//	┌──────────────┬──────────────────────────┐
//	│ length (4B)  │ JSON payload (length B)  │
//	└──────────────┴──────────────────────────┘
//
// The request payload is the envelope JSON, the response payload is a
// wire.Response.
//
// Nothing in this package retries, batches or coalesces sends. Low-latency
// and reliable sends share no lock during I/O.
package transport
