// Package log provides structured protocol capture for the hub session.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, wire, service).
// It is separate from operational logging (slog): a capture is a complete
// machine-readable trace of what went over the socket and why the
// controller changed state.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts = append(opts, hub.WithProtocolLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For production: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/zonehub/hub.zlog")
//
//	// Both: use MultiLogger
//	log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: Raw frame bytes and heartbeats (FrameEvent)
//   - Wire: Decoded messages (MessageEvent)
//   - Service: Controller state changes (StateChangeEvent)
//
// Errors at any layer have a dedicated event type.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .zlog extension.
// The zonehub-log command prints and filters them.
package log
