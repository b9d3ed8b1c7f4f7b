// Package hub implements the resilient hub controller.
//
// A Controller owns one socket session to the hub at a time and runs a
// single message loop goroutine that connects, receives, dispatches and
// reconnects with exponential backoff. Callers issue commands from any
// goroutine:
//
//	ctrl, err := hub.New(hub.DefaultConfig("192.0.2.10"), listener)
//	connected, err := ctrl.Start(ctx)
//	state, err := ctrl.GetState(3).Wait(ctx)
//
// # Correlation
//
// The hub does not echo request identifiers reliably, so replies are matched
// by kind: zone reports by zone ID, zone lists and system info by a
// singleton key. Concurrent queries for the same key share one result
// handle. Every session teardown cancels all outstanding handles.
//
// # Change notifications
//
// Unsolicited ZonePropertiesChanged pushes go to the Listener only; they
// never complete a pending query. Connectivity changes are reported to the
// same Listener from the loop goroutine, so Listener methods must not block.
package hub
