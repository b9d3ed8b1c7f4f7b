// Package transport provides the hub socket session.
//
// The transport layer handles:
//   - TCP connections with a connect timeout
//   - Incremental JSON value framing
//   - Heartbeat (lone NUL byte) filtering
//   - Cooperative cancellation of a blocked receive
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      JSON Objects              │
//	├────────────────────────────────┤
//	│  Value Framing + NUL Heartbeat │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// There is no length prefix. The framer scans bytes, tracking brace depth
// and string state, and emits a frame when the outermost object closes.
// Bytes between values that are whitespace are skipped; a 0x00 byte is
// reported as a heartbeat.
//
// # Liveness
//
// The hub sends heartbeats while idle. A receive that sees no bytes for
// ReadTimeout returns ErrReadTimeout; callers treat this as connection loss.
package transport
