package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zonehub/zonehub-go/pkg/connection"
	"github.com/zonehub/zonehub-go/pkg/future"
	"github.com/zonehub/zonehub-go/pkg/log"
	"github.com/zonehub/zonehub-go/pkg/metrics"
	"github.com/zonehub/zonehub-go/pkg/pending"
	"github.com/zonehub/zonehub-go/pkg/transport"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

// Correlation table names, also used as metric labels.
const (
	tableZones    = "zones"
	tableZoneList = "zone_list"
	tableIdentity = "identity"
)

// Singleton correlation keys.
const (
	zoneListKey = "zone list query"
	identityKey = "identity query"
)

// Controller maintains the hub session and correlates replies.
type Controller struct {
	config   Config
	listener Listener
	opener   transport.Opener
	logger   *slog.Logger
	protoLog log.Logger
	metrics  *metrics.Metrics

	backoff *connection.Backoff
	seq     wire.Sequence

	// Correlation tables, each with its own lock.
	zones    *pending.Table[int, wire.DeviceState]
	zoneList *pending.Table[string, []int]
	identity *pending.Table[string, string]

	// Last known zone states, from reports and pushes. Loop goroutine only.
	known map[int]wire.ZoneChange

	// Senders hold the read lock while writing; teardown takes the write lock.
	sessionMu sync.RWMutex
	session   transport.Conn

	state    atomic.Uint32
	stopping atomic.Bool
	draining atomic.Bool
	wake     chan struct{}

	mu        sync.Mutex
	started   bool
	ctx       context.Context
	cancel    context.CancelFunc
	connected *future.Future[struct{}]
	done      chan struct{}
}

// New creates a Controller. It does not connect until Start.
func New(config Config, listener Listener, opts ...Option) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}

	c := &Controller{
		config:    config,
		listener:  listener,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		zones:     pending.NewTable[int, wire.DeviceState](),
		zoneList:  pending.NewTable[string, []int](),
		identity:  pending.NewTable[string, string](),
		known:     make(map[int]wire.ZoneChange),
		wake:      make(chan struct{}, 1),
		connected: future.New[struct{}](),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("component", "hub", "host", config.Host, "port", config.Port)
	c.backoff = connection.NewBackoffWithConfig(config.backoffConfig())
	if c.opener == nil {
		dc := config.dialerConfig()
		dc.ProtocolLogger = c.protoLog
		c.opener = transport.NewDialer(dc)
	}
	c.state.Store(uint32(connection.StateDisconnected))

	return c, nil
}

// Start launches the message loop. The returned handle resolves on the
// first successful connect and is cancelled if the loop ends before that.
// Cancelling ctx is equivalent to Stop.
func (c *Controller) Start(ctx context.Context) (*future.Future[struct{}], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		if c.stopping.Load() && c.ctx == nil {
			return nil, ErrStopped
		}
		return nil, ErrAlreadyStarted
	}
	c.started = true
	c.ctx, c.cancel = context.WithCancel(ctx)
	context.AfterFunc(c.ctx, c.Stop)

	c.logger.Info("starting controller")
	go c.run()

	return c.connected, nil
}

// Stop requests loop termination, unblocks a pending receive and cancels
// every outstanding handle. It does not wait; use Done for that.
func (c *Controller) Stop() {
	c.stopping.Store(true)

	c.mu.Lock()
	cancel := c.cancel
	if !c.started {
		// Never started: nothing will close done for us.
		c.started = true
		c.connected.Cancel()
		c.setState(connection.StateClosed, "stopped before start")
		close(c.done)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.cancelReceive()
	c.cancelPending()
	c.signalWake()
}

// StopWhenCommandsServed lets the loop exit once no query is outstanding.
// Commands issued before that point are still served.
func (c *Controller) StopWhenCommandsServed() {
	c.draining.Store(true)
	c.cancelReceive()
	c.signalWake()
}

// cancelReceive makes the loop re-run its termination check.
func (c *Controller) cancelReceive() {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	if c.session != nil {
		c.session.CancelReceive()
	}
}

// Done returns a channel that is closed when the loop has exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// State returns the connection state.
func (c *Controller) State() connection.State {
	return connection.State(c.state.Load())
}

// Connected reports whether a session is open.
func (c *Controller) Connected() bool {
	return c.State() == connection.StateConnected
}

// PendingCount returns the number of outstanding queries across all tables.
func (c *Controller) PendingCount() int {
	return c.zones.Len() + c.zoneList.Len() + c.identity.Len()
}

// SetOnOff switches a zone on or off. The command is fire-and-forget: the
// hub confirms through a ZonePropertiesChanged push, and a missing or
// broken session is only logged.
func (c *Controller) SetOnOff(zoneID int, on bool) error {
	c.command(wire.NewSetPower(c.seq.Next(), zoneID, on))
	return nil
}

// SetBrightness sets a dimmer level in [1,100]. Out of range levels fail
// with ErrInvalidArgument without touching the socket; that is the only
// error it returns.
func (c *Controller) SetBrightness(zoneID int, level int) error {
	if level < MinBrightness || level > MaxBrightness {
		return fmt.Errorf("%w: brightness %d outside [%d,%d]", ErrInvalidArgument, level, MinBrightness, MaxBrightness)
	}
	c.command(wire.NewSetPowerLevel(c.seq.Next(), zoneID, level))
	return nil
}

// command sends a set command unless the controller is stopping.
func (c *Controller) command(msg *wire.Message) {
	if c.stopping.Load() {
		c.logger.Debug("controller stopped, command dropped", "service", msg.Service, "zone", zoneAttr(msg))
		return
	}
	c.send(msg)
}

// GetState queries a zone. Concurrent queries for the same zone share one
// handle; the request is written again on every call.
func (c *Controller) GetState(zoneID int) *future.Future[wire.DeviceState] {
	if c.stopping.Load() {
		return future.Cancelled[wire.DeviceState]()
	}
	f, _ := c.zones.GetOrCreate(zoneID)
	if c.abandonIfStopping(c.zones.CancelAll) {
		return f
	}
	c.updatePending()
	c.send(wire.NewReportZoneProperties(c.seq.Next(), zoneID))
	return f
}

// GetZones queries the list of configured zone IDs.
func (c *Controller) GetZones() *future.Future[[]int] {
	if c.stopping.Load() {
		return future.Cancelled[[]int]()
	}
	f, _ := c.zoneList.GetOrCreate(zoneListKey)
	if c.abandonIfStopping(c.zoneList.CancelAll) {
		return f
	}
	c.updatePending()
	c.send(wire.NewListZones(c.seq.Next()))
	return f
}

// GetMACAddress queries the hub's MAC address.
func (c *Controller) GetMACAddress() *future.Future[string] {
	if c.stopping.Load() {
		return future.Cancelled[string]()
	}
	f, _ := c.identity.GetOrCreate(identityKey)
	if c.abandonIfStopping(c.identity.CancelAll) {
		return f
	}
	c.updatePending()
	c.send(wire.NewSystemInfo(c.seq.Next()))
	return f
}

// abandonIfStopping cancels a table when a stop raced the insertion that
// just happened, so no handle outlives the loop.
func (c *Controller) abandonIfStopping(cancelAll func() int) bool {
	if !c.stopping.Load() {
		return false
	}
	c.metrics.RecordCancelled(cancelAll())
	return true
}

// send writes msg on the current session. Failures are logged, never
// returned: the loop notices a broken socket on its next receive, and
// queries stay pending until a reply or teardown.
func (c *Controller) send(msg *wire.Message) {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()

	if c.session == nil {
		c.logger.Debug("no session, request not sent", "service", msg.Service, "id", msg.ID)
		return
	}
	if err := c.session.SendMessage(msg); err != nil {
		c.logger.Debug("send failed", "service", msg.Service, "id", msg.ID, "error", err)
		return
	}
	c.metrics.RecordSent(string(msg.Service))
}

// cancelPending cancels every outstanding handle.
func (c *Controller) cancelPending() int {
	n := c.zones.CancelAll() + c.zoneList.CancelAll() + c.identity.CancelAll()
	if n > 0 {
		c.logger.Debug("cancelled pending requests", "count", n)
	}
	c.metrics.RecordCancelled(n)
	c.updatePending()
	return n
}

func (c *Controller) updatePending() {
	c.metrics.SetPending(tableZones, c.zones.Len())
	c.metrics.SetPending(tableZoneList, c.zoneList.Len())
	c.metrics.SetPending(tableIdentity, c.identity.Len())
}

func (c *Controller) signalWake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// setState records a state transition.
func (c *Controller) setState(s connection.State, reason string) {
	old := connection.State(c.state.Swap(uint32(s)))
	if old == s {
		return
	}
	c.logger.Debug("state changed", "from", old.String(), "to", s.String(), "reason", reason)
	if c.protoLog != nil {
		c.protoLog.Log(log.Event{
			Timestamp: time.Now(),
			Layer:     log.LayerController,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: old.String(),
				NewState: s.String(),
				Reason:   reason,
			},
		})
	}
}
