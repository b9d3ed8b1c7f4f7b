package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/zonehub/zonehub-go/pkg/log"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// Session errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrReadTimeout      = errors.New("read timeout")
	ErrReceiveCancelled = errors.New("receive cancelled")
)

// Default timeouts.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
)

// DialerConfig configures a Dialer.
type DialerConfig struct {
	// ConnectTimeout bounds the TCP dial (default: 10s).
	ConnectTimeout time.Duration

	// ReadTimeout is how long a Receive waits for any byte (default: 60s).
	// The hub heartbeats while idle, so silence means the link is gone.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single Send (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize int

	// ProtocolLogger receives frame events. Nil disables capture.
	ProtocolLogger log.Logger
}

// DefaultDialerConfig returns the default dialer configuration.
func DefaultDialerConfig() DialerConfig {
	return DialerConfig{
		ConnectTimeout: DefaultConnectTimeout,
		ReadTimeout:    DefaultReadTimeout,
		WriteTimeout:   DefaultWriteTimeout,
		MaxMessageSize: DefaultMaxMessageSize,
	}
}

// Dialer opens hub sessions.
type Dialer struct {
	config DialerConfig
}

// NewDialer creates a Dialer, filling zero fields with defaults.
func NewDialer(config DialerConfig) *Dialer {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = DefaultReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	return &Dialer{config: config}
}

// Config returns the effective configuration.
func (d *Dialer) Config() DialerConfig {
	return d.config
}

// Open connects to host:port.
func (d *Dialer) Open(ctx context.Context, host string, port int) (Conn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.ConnectTimeout)
		defer cancel()
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	return NewSession(conn, d.config), nil
}

// Session is one live socket to the hub.
//
// Send may be called from any goroutine. Receive must only be called from
// one goroutine at a time; CancelReceive and Close may be called from any.
type Session struct {
	conn   net.Conn
	framer *Framer
	config DialerConfig
	id     string
	logger log.Logger

	closeOnce sync.Once
	closeCh   chan struct{}
	cancelled atomic.Bool

	writeMu sync.Mutex
	readMu  sync.Mutex
}

// NewSession wraps an established connection. Zero config fields
// disable the corresponding deadline.
func NewSession(conn net.Conn, config DialerConfig) *Session {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	s := &Session{
		conn:    conn,
		framer:  NewFramerWithMaxSize(conn, config.MaxMessageSize),
		config:  config,
		id:      uuid.New().String(),
		logger:  config.ProtocolLogger,
		closeCh: make(chan struct{}),
	}
	if s.logger != nil {
		s.framer.SetLogger(s.logger, s.id)
	}
	return s
}

// ID returns the unique session identifier used in protocol logs.
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the hub address.
func (s *Session) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Send writes one encoded message.
func (s *Session) Send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.closeCh:
		return ErrConnectionClosed
	default:
	}

	if s.config.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	if err := s.framer.WriteFrame(data); err != nil {
		if s.isClosed() {
			return ErrConnectionClosed
		}
		return err
	}
	return nil
}

// SendMessage encodes and sends msg, reporting it to the protocol logger.
func (s *Session) SendMessage(msg *wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := s.Send(data); err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Log(makeMessageEvent(s.id, msg, log.DirectionOut))
	}
	return nil
}

// Receive blocks for the next message. It returns (nil, nil) for a
// heartbeat and a *MalformedError for input that is not a message; the
// session stays open in both cases.
func (s *Session) Receive() (*wire.Message, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.isClosed() {
		return nil, ErrConnectionClosed
	}

	if s.config.ReadTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	} else {
		s.conn.SetReadDeadline(time.Time{})
	}

	// Checked after arming the deadline: a CancelReceive that raced the
	// line above has already set the flag.
	if s.cancelled.Swap(false) {
		return nil, ErrReceiveCancelled
	}

	frame, err := s.framer.ReadFrame()
	if err != nil {
		return nil, s.readError(err)
	}
	if frame == nil {
		return nil, nil
	}

	msg, err := wire.Decode(frame)
	if err != nil {
		s.logError("decode", err)
		return nil, newMalformed(frame, err)
	}

	if s.logger != nil {
		s.logger.Log(makeMessageEvent(s.id, msg, log.DirectionIn))
	}
	return msg, nil
}

// CancelReceive unblocks a pending or imminent Receive, which then returns
// ErrReceiveCancelled.
func (s *Session) CancelReceive() {
	s.cancelled.Store(true)
	s.conn.SetReadDeadline(time.Now())
}

// Close closes the socket. It is safe to call Close multiple times.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) isClosed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}

func (s *Session) readError(err error) error {
	if s.isClosed() {
		return ErrConnectionClosed
	}

	var malformed *MalformedError
	if errors.As(err, &malformed) {
		s.logError("frame", err)
		return err
	}

	if errors.Is(err, os.ErrDeadlineExceeded) {
		if s.cancelled.Swap(false) {
			return ErrReceiveCancelled
		}
		return ErrReadTimeout
	}

	s.logError("receive", err)
	if errors.Is(err, ErrMessageTooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
}

func (s *Session) logError(where string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Direction:    log.DirectionIn,
		Layer:        log.LayerTransport,
		Category:     log.CategoryError,
		Error: &log.ErrorEvent{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: where,
		},
	})
}

// makeMessageEvent creates a wire-layer log event for a decoded message.
func makeMessageEvent(connID string, msg *wire.Message, direction log.Direction) log.Event {
	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		ZoneID:       msg.ZoneID,
		Message: &log.MessageEvent{
			Type:      messageType(msg, direction),
			MessageID: msg.ID,
			Service:   string(msg.Service),
			Status:    msg.Status,
		},
	}
}

func messageType(msg *wire.Message, direction log.Direction) log.MessageType {
	switch {
	case direction == log.DirectionOut:
		return log.MessageTypeRequest
	case msg.Service == wire.ServiceZonePropertiesChanged:
		return log.MessageTypeNotification
	default:
		return log.MessageTypeResponse
	}
}

// Compile-time interface satisfaction check.
var _ Conn = (*Session)(nil)
