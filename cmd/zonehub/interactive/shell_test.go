package interactive

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonehub/zonehub-go/pkg/connection"
	"github.com/zonehub/zonehub-go/pkg/future"
	"github.com/zonehub/zonehub-go/pkg/wire"
)

type powerCmd struct {
	zoneID int
	on     bool
	level  int
}

type fakeHub struct {
	sent    []powerCmd
	setErr  error
	states  map[int]wire.DeviceState
	zones   []int
	mac     string
	pending int
}

func (h *fakeHub) SetOnOff(zoneID int, on bool) error {
	if h.setErr != nil {
		return h.setErr
	}
	h.sent = append(h.sent, powerCmd{zoneID: zoneID, on: on})
	return nil
}

func (h *fakeHub) SetBrightness(zoneID int, level int) error {
	if h.setErr != nil {
		return h.setErr
	}
	h.sent = append(h.sent, powerCmd{zoneID: zoneID, on: true, level: level})
	return nil
}

func (h *fakeHub) GetState(zoneID int) *future.Future[wire.DeviceState] {
	f := future.New[wire.DeviceState]()
	if s, ok := h.states[zoneID]; ok {
		f.Resolve(s)
	} else {
		f.Fail(&wire.StatusError{Service: wire.ServiceReportZoneProperties, Status: "Error", Code: 2})
	}
	return f
}

func (h *fakeHub) GetZones() *future.Future[[]int] {
	f := future.New[[]int]()
	f.Resolve(h.zones)
	return f
}

func (h *fakeHub) GetMACAddress() *future.Future[string] {
	if h.mac == "" {
		return future.Cancelled[string]()
	}
	f := future.New[string]()
	f.Resolve(h.mac)
	return f
}

func (h *fakeHub) State() connection.State { return connection.StateConnected }
func (h *fakeHub) PendingCount() int       { return h.pending }

func newTestShell(h *fakeHub) (*Shell, *bytes.Buffer) {
	var out bytes.Buffer
	return NewWithWriter(h, "192.0.2.10:2112", &out), &out
}

func TestShellPowerCommands(t *testing.T) {
	h := &fakeHub{}
	s, out := newTestShell(h)
	ctx := context.Background()

	assert.True(t, s.Execute(ctx, "on 3"))
	assert.True(t, s.Execute(ctx, "OFF 4"))
	assert.True(t, s.Execute(ctx, "dim 3 55"))

	assert.Equal(t, []powerCmd{
		{zoneID: 3, on: true},
		{zoneID: 4, on: false},
		{zoneID: 3, on: true, level: 55},
	}, h.sent)
	assert.Contains(t, out.String(), "Sent on to zone 3")
	assert.Contains(t, out.String(), "Sent off to zone 4")
	assert.Contains(t, out.String(), "Sent level 55 to zone 3")
}

func TestShellUsageErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"on", "Usage: on|off <zone>"},
		{"on x", "invalid zone: x"},
		{"off -1", "invalid zone: -1"},
		{"dim 3", "Usage: dim <zone> <level>"},
		{"dim 3 bright", "Invalid level: bright"},
		{"state", "Usage: state <zone>..."},
		{"frobnicate", "Unknown command: frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			h := &fakeHub{}
			s, out := newTestShell(h)
			assert.True(t, s.Execute(context.Background(), tt.line))
			assert.Contains(t, out.String(), tt.want)
			assert.Empty(t, h.sent)
		})
	}
}

func TestShellCommandError(t *testing.T) {
	h := &fakeHub{setErr: errors.New("no hub session")}
	s, out := newTestShell(h)

	s.Execute(context.Background(), "dim 3 0")
	assert.Contains(t, out.String(), "Command failed: no hub session")
}

func TestShellState(t *testing.T) {
	h := &fakeHub{states: map[int]wire.DeviceState{
		3: {ZoneID: 3, Name: "Den", Kind: wire.DeviceKindDimmer, Power: true, PowerLevel: 40},
	}}
	s, out := newTestShell(h)

	s.Execute(context.Background(), "state 3 9")

	assert.Contains(t, out.String(), h.states[3].String())
	assert.Contains(t, out.String(), "zone 9:")
}

func TestShellZonesAndMAC(t *testing.T) {
	h := &fakeHub{zones: []int{7, 0, 3}, mac: "00:26:EC:01:02:03"}
	s, out := newTestShell(h)
	ctx := context.Background()

	s.Execute(ctx, "zones")
	s.Execute(ctx, "mac")

	assert.Contains(t, out.String(), "Zones (3): 0, 3, 7")
	assert.Contains(t, out.String(), "MAC address: 00:26:EC:01:02:03")
	assert.Equal(t, []int{7, 0, 3}, h.zones, "input slice untouched")
}

func TestShellMACCancelled(t *testing.T) {
	s, out := newTestShell(&fakeHub{})
	s.Execute(context.Background(), "mac")
	assert.Contains(t, out.String(), "Query failed: "+future.ErrCancelled.Error())
}

func TestShellNoZones(t *testing.T) {
	s, out := newTestShell(&fakeHub{})
	s.Execute(context.Background(), "zones")
	assert.Contains(t, out.String(), "No zones configured")
}

func TestShellStatusAndQuit(t *testing.T) {
	s, out := newTestShell(&fakeHub{pending: 2})
	ctx := context.Background()

	require.True(t, s.Execute(ctx, "status"))
	assert.Contains(t, out.String(), "192.0.2.10:2112")
	assert.Contains(t, out.String(), connection.StateConnected.String())
	assert.Contains(t, out.String(), "Pending queries:  2")

	assert.True(t, s.Execute(ctx, "   "))
	assert.False(t, s.Execute(ctx, "quit"))
	assert.False(t, s.Execute(ctx, "q"))
}

func TestShellRunWithoutTerminal(t *testing.T) {
	s, _ := newTestShell(&fakeHub{})
	assert.Error(t, s.Run(context.Background()))
}
