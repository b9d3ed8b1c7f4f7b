// Package hubsim provides a scriptable fake hub for tests and local runs.
//
// The simulator listens on TCP, speaks the hub's JSON protocol and keeps a
// small zone table. Tests can mute replies per service, push changes,
// inject raw bytes and drop connections.
package hubsim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/zonehub/zonehub-go/pkg/transport"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// Simulator error codes reported in ErrorCode.
const (
	ErrorCodeInvalidZone     = 2
	ErrorCodeInvalidProperty = 5
)

// DefaultMACAddress is reported by SystemInfo unless changed.
const DefaultMACAddress = "00:26:EC:01:02:03"

// Zone is the simulator's view of one load.
type Zone struct {
	ID         int
	Name       string
	Kind       wire.DeviceKind
	Power      bool
	PowerLevel int
}

// Hub is a fake hub.
type Hub struct {
	addr   string
	ln     net.Listener
	logger *slog.Logger

	mu       sync.Mutex
	zones    map[int]*Zone
	mac      string
	muted    map[wire.Service]bool
	conns    map[net.Conn]struct{}
	requests []*wire.Message
	accepted int
	refuse   bool

	received  chan *wire.Message
	connected chan struct{}

	wg        sync.WaitGroup
	closeOnce sync.Once
	closeCh   chan struct{}
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the simulator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithAddress listens on a fixed address instead of an ephemeral loopback port.
func WithAddress(addr string) Option {
	return func(h *Hub) {
		h.addr = addr
	}
}

// New starts a simulator.
func New(opts ...Option) (*Hub, error) {
	h := &Hub{
		addr:      "127.0.0.1:0",
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		zones:     make(map[int]*Zone),
		mac:       DefaultMACAddress,
		muted:     make(map[wire.Service]bool),
		conns:     make(map[net.Conn]struct{}),
		received:  make(chan *wire.Message, 256),
		connected: make(chan struct{}, 16),
		closeCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return nil, fmt.Errorf("listen failed: %w", err)
	}
	h.ln = ln
	h.logger = h.logger.With("component", "hubsim", "addr", ln.Addr().String())

	h.wg.Add(1)
	go h.acceptLoop()

	return h, nil
}

// Addr returns the listen address.
func (h *Hub) Addr() net.Addr {
	return h.ln.Addr()
}

// HostPort returns the listen host and port.
func (h *Hub) HostPort() (string, int) {
	host, portStr, _ := net.SplitHostPort(h.ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// AddZone adds or replaces a zone.
func (h *Hub) AddZone(z Zone) {
	h.mu.Lock()
	defer h.mu.Unlock()
	zc := z
	h.zones[z.ID] = &zc
}

// Zone returns a copy of a zone.
func (h *Hub) Zone(id int) (Zone, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	z, ok := h.zones[id]
	if !ok {
		return Zone{}, false
	}
	return *z, true
}

// Zones returns all zones ordered by ID.
func (h *Hub) Zones() []Zone {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Zone, 0, len(h.zones))
	for _, z := range h.zones {
		out = append(out, *z)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetMACAddress changes the SystemInfo reply.
func (h *Hub) SetMACAddress(mac string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mac = mac
}

// Mute suppresses (or restores) replies for a service. Requests are still
// recorded.
func (h *Hub) Mute(service wire.Service, muted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.muted[service] = muted
}

// Refuse makes the simulator close new connections immediately.
func (h *Hub) Refuse(refuse bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refuse = refuse
}

// Received delivers every request the simulator decodes.
func (h *Hub) Received() <-chan *wire.Message {
	return h.received
}

// Connected delivers a value for every accepted (not refused) connection.
func (h *Hub) Connected() <-chan struct{} {
	return h.connected
}

// Requests returns the recorded requests for a service.
func (h *Hub) Requests(service wire.Service) []*wire.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*wire.Message
	for _, m := range h.requests {
		if m.Service == service {
			out = append(out, m)
		}
	}
	return out
}

// Accepted returns the number of connections served so far.
func (h *Hub) Accepted() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accepted
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Push sends a ZonePropertiesChanged for the zone's current state.
func (h *Hub) Push(zoneID int) error {
	h.mu.Lock()
	z, ok := h.zones[zoneID]
	var msg *wire.Message
	if ok {
		msg = changeMessage(z)
	}
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("zone %d not found", zoneID)
	}
	return h.Broadcast(msg)
}

// Broadcast sends a message to every open connection.
func (h *Hub) Broadcast(msg *wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	return h.SendRaw(data)
}

// SendRaw writes raw bytes to every open connection.
func (h *Hub) SendRaw(data []byte) error {
	h.mu.Lock()
	conns := make([]net.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	var errs []error
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(time.Second))
		if _, err := c.Write(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Heartbeat sends a lone NUL byte to every open connection.
func (h *Hub) Heartbeat() error {
	return h.SendRaw([]byte{transport.HeartbeatByte})
}

// DropConnections closes every open connection.
func (h *Hub) DropConnections() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.Close()
	}
}

// Close stops the listener and all connections and waits for handlers.
func (h *Hub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.closeCh)
		err = h.ln.Close()
		h.DropConnections()
		h.wg.Wait()
	})
	return err
}

func (h *Hub) acceptLoop() {
	defer h.wg.Done()

	for {
		conn, err := h.ln.Accept()
		if err != nil {
			select {
			case <-h.closeCh:
				return
			default:
			}
			h.logger.Debug("accept failed", "error", err)
			continue
		}

		h.mu.Lock()
		if h.refuse {
			h.mu.Unlock()
			conn.Close()
			continue
		}
		h.conns[conn] = struct{}{}
		h.accepted++
		h.mu.Unlock()

		select {
		case h.connected <- struct{}{}:
		default:
		}

		h.wg.Add(1)
		go h.serve(conn)
	}
}

func (h *Hub) serve(conn net.Conn) {
	defer h.wg.Done()
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	logger := h.logger.With("remote", conn.RemoteAddr().String())
	logger.Debug("client connected")

	framer := transport.NewFramer(conn)
	for {
		frame, err := framer.ReadFrame()
		if err != nil {
			var malformed *transport.MalformedError
			if errors.As(err, &malformed) {
				logger.Debug("ignoring bad input", "error", err)
				continue
			}
			logger.Debug("client disconnected", "error", err)
			return
		}
		if frame == nil {
			continue
		}

		msg, err := wire.Decode(frame)
		if err != nil {
			logger.Debug("ignoring undecodable request", "error", err)
			continue
		}

		h.record(msg)

		for _, reply := range h.handle(msg) {
			if err := writeMessage(conn, reply); err != nil {
				logger.Debug("write failed", "error", err)
				return
			}
		}
	}
}

func (h *Hub) record(msg *wire.Message) {
	h.mu.Lock()
	h.requests = append(h.requests, msg)
	h.mu.Unlock()

	select {
	case h.received <- msg:
	default:
	}
}

func writeMessage(conn net.Conn, msg *wire.Message) error {
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err = conn.Write(data)
	return err
}
