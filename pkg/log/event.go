package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the hub session (UUID). Empty for events
	// emitted while no session exists.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the hub address (host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// ZoneID is the addressed zone, if any.
	ZoneID *int `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Controller state
	Error       *ErrorEvent       `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the message encoding layer (decoded JSON).
	LayerWire Layer = 1
	// LayerController is the controller layer.
	LayerController Layer = 2
)

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message (request/response/push).
	CategoryMessage Category = 0
	// CategoryHeartbeat indicates a keep-alive byte from the hub.
	CategoryHeartbeat Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// FrameEvent captures raw frame data at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol message at the wire layer.
type MessageEvent struct {
	// Type distinguishes request/response/notification.
	Type MessageType `cbor:"1,keyasint"`

	// MessageID is the diagnostic sequence number (not a correlation key).
	MessageID int64 `cbor:"2,keyasint"`

	// Service is the message's service tag.
	Service string `cbor:"3,keyasint"`

	// Status is the reply status, if the hub sent one.
	Status string `cbor:"4,keyasint,omitempty"`
}

// MessageType distinguishes request/response/notification.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
	// MessageTypeNotification indicates an unsolicited push.
	MessageTypeNotification MessageType = 2
)

// StateChangeEvent captures connection and controller lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityController indicates a controller lifecycle change.
	StateEntityController StateEntity = 1
)

// ErrorEvent captures errors at any layer.
type ErrorEvent struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}

var (
	directionNames   = []string{DirectionIn: "IN", DirectionOut: "OUT"}
	layerNames       = []string{LayerTransport: "TRANSPORT", LayerWire: "WIRE", LayerController: "CONTROLLER"}
	categoryNames    = []string{CategoryMessage: "MESSAGE", CategoryHeartbeat: "HEARTBEAT", CategoryState: "STATE", CategoryError: "ERROR"}
	messageTypeNames = []string{MessageTypeRequest: "REQUEST", MessageTypeResponse: "RESPONSE", MessageTypeNotification: "NOTIFICATION"}
	entityNames      = []string{StateEntityConnection: "CONNECTION", StateEntityController: "CONTROLLER"}
)

// enumName returns names[i], or UNKNOWN when i is out of range.
func enumName(names []string, i uint8) string {
	if int(i) < len(names) {
		return names[i]
	}
	return "UNKNOWN"
}

func (d Direction) String() string   { return enumName(directionNames, uint8(d)) }
func (l Layer) String() string       { return enumName(layerNames, uint8(l)) }
func (c Category) String() string    { return enumName(categoryNames, uint8(c)) }
func (m MessageType) String() string { return enumName(messageTypeNames, uint8(m)) }
func (s StateEntity) String() string { return enumName(entityNames, uint8(s)) }
