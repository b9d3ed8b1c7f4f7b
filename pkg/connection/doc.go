// Package connection provides the reconnection policy for the hub session.
//
// # Reconnection Strategy
//
// When connecting fails, the controller waits before trying again:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, ... 512s
//  3. Maximum delay: 900 seconds (15 minutes)
//  4. Continue at 900s until successful
//  5. Reset to 1s on successful connect or on any received message
//
// The delay used for a retry is the one current at the time of the
// failure; the doubled value applies to the next failure.
//
// # Jitter
//
// Jitter is off by default since a controller talks to exactly one hub.
// It can be enabled through BackoffConfig:
//
//	actual_delay = base_delay + random(0, base_delay * jitter)
package connection
