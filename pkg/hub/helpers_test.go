package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zonehub/zonehub-go/internal/hubsim"
	"github.com/zonehub/zonehub-go/pkg/transport"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

// mockListener records notifications and forwards them to channels so
// tests can wait on them.
type mockListener struct {
	mock.Mock

	connectivity chan bool
	changes      chan wire.ZoneChange
}

func newMockListener() *mockListener {
	l := &mockListener{
		connectivity: make(chan bool, 32),
		changes:      make(chan wire.ZoneChange, 32),
	}
	l.On("ConnectivityChanged", mock.Anything).Maybe().Run(func(args mock.Arguments) {
		l.connectivity <- args.Bool(0)
	})
	l.On("ZoneChanged", mock.Anything, mock.Anything, mock.Anything).Maybe().Run(func(args mock.Arguments) {
		l.changes <- wire.ZoneChange{ZoneID: args.Int(0), Power: args.Bool(1), PowerLevel: args.Int(2)}
	})
	return l
}

func (l *mockListener) ZoneChanged(zoneID int, power bool, level int) {
	l.Called(zoneID, power, level)
}

func (l *mockListener) ConnectivityChanged(connected bool) {
	l.Called(connected)
}

// expectConnectivity waits for the next connectivity notification.
func (l *mockListener) expectConnectivity(t *testing.T, want bool) {
	t.Helper()
	select {
	case got := <-l.connectivity:
		require.Equal(t, want, got, "connectivity notification")
	case <-time.After(waitFor):
		t.Fatalf("no ConnectivityChanged(%v) notification", want)
	}
}

// expectChange waits for the next zone change notification.
func (l *mockListener) expectChange(t *testing.T) wire.ZoneChange {
	t.Helper()
	select {
	case c := <-l.changes:
		return c
	case <-time.After(waitFor):
		t.Fatal("no ZoneChanged notification")
		return wire.ZoneChange{}
	}
}

var errRefused = errors.New("connection refused")

// flakyOpener fails a number of attempts before delegating.
// A negative failure count fails forever.
type flakyOpener struct {
	mu       sync.Mutex
	failures int
	attempts []time.Time
	next     transport.Opener
}

func (o *flakyOpener) Open(ctx context.Context, host string, port int) (transport.Conn, error) {
	o.mu.Lock()
	o.attempts = append(o.attempts, time.Now())
	fail := o.failures != 0
	if o.failures > 0 {
		o.failures--
	}
	o.mu.Unlock()

	if fail {
		return nil, errRefused
	}
	return o.next.Open(ctx, host, port)
}

func (o *flakyOpener) setFailures(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = n
}

func (o *flakyOpener) attemptTimes() []time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Time(nil), o.attempts...)
}

// newSim starts a simulator with a switch at zone 0 and a dimmer at zone 3.
func newSim(t *testing.T) *hubsim.Hub {
	t.Helper()
	h, err := hubsim.New()
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	h.AddZone(hubsim.Zone{ID: 0, Name: "Porch", Kind: wire.DeviceKindSwitch})
	h.AddZone(hubsim.Zone{ID: 3, Name: "Den", Kind: wire.DeviceKindDimmer, Power: true, PowerLevel: 40})
	return h
}

func testConfig(h *hubsim.Hub) Config {
	host, port := h.HostPort()
	cfg := DefaultConfig(host)
	cfg.Port = port
	cfg.ConnectTimeout = time.Second
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = time.Second
	cfg.MinBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 40 * time.Millisecond
	return cfg
}

func newController(t *testing.T, cfg Config, l Listener, opts ...Option) *Controller {
	t.Helper()
	c, err := New(cfg, l, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Stop()
		<-c.Done()
	})
	return c
}

// startConnected starts c and waits for the first connect.
func startConnected(t *testing.T, c *Controller) {
	t.Helper()
	signal, err := c.Start(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	_, err = signal.Wait(ctx)
	require.NoError(t, err)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	t.Cleanup(cancel)
	return ctx
}
