package transport

import (
	"context"
	"net"

	"github.com/zonehub/zonehub-go/pkg/wire"
)

// Conn represents one hub session.
// Implemented by Session.
type Conn interface {
	// ID returns the session identifier used in protocol logs.
	ID() string

	// RemoteAddr returns the hub address.
	RemoteAddr() net.Addr

	// Send writes one encoded message.
	Send(data []byte) error

	// SendMessage encodes and writes a message.
	SendMessage(msg *wire.Message) error

	// Receive blocks for the next message; (nil, nil) is a heartbeat.
	Receive() (*wire.Message, error)

	// CancelReceive unblocks a pending Receive.
	CancelReceive()

	// Close closes the session.
	Close() error
}

// Opener opens hub sessions.
// Implemented by Dialer.
type Opener interface {
	Open(ctx context.Context, host string, port int) (Conn, error)
}

// FrameReadWriter provides JSON value frame I/O.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads one value; (nil, nil) is a heartbeat.
	ReadFrame() ([]byte, error)

	// WriteFrame writes one value.
	WriteFrame(data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Opener          = (*Dialer)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
