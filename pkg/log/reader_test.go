package log

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func writeEvents(t *testing.T, events ...Event) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, ev := range events {
		require.NoError(t, enc.Encode(ev))
	}
	return &buf
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var out []Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, ev)
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{
			Timestamp: base, ConnectionID: "a", Direction: DirectionOut, Layer: LayerWire,
			ZoneID:  intPtr(7),
			Message: &MessageEvent{Type: MessageTypeRequest, MessageID: 1, Service: "ReportZoneProperties"},
		},
		{
			Timestamp: base.Add(time.Second), ConnectionID: "a", Direction: DirectionIn, Layer: LayerWire,
			ZoneID:  intPtr(7),
			Message: &MessageEvent{Type: MessageTypeResponse, Service: "ReportZoneProperties", Status: "Success"},
		},
		{
			Timestamp: base.Add(2 * time.Second), ConnectionID: "b", Direction: DirectionIn, Layer: LayerTransport,
			Category: CategoryHeartbeat, Frame: &FrameEvent{Size: 1},
		},
		{
			Timestamp: base.Add(3 * time.Second), Layer: LayerController, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityConnection, OldState: "CONNECTED", NewState: "DISCONNECTED"},
		},
	}

	in := DirectionIn
	wireLayer := LayerWire
	heartbeat := CategoryHeartbeat
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"connection", Filter{ConnectionID: "a"}, 2},
		{"direction", Filter{Direction: &in}, 2},
		{"layer", Filter{Layer: &wireLayer}, 2},
		{"category", Filter{Category: &heartbeat}, 1},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"zone", Filter{ZoneID: intPtr(7)}, 2},
		{"other zone", Filter{ZoneID: intPtr(8)}, 0},
		{"service", Filter{Service: "ReportZoneProperties", Direction: &in}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStreamReader(writeEvents(t, events...), tt.filter)
			defer r.Close()
			assert.Len(t, readAll(t, r), tt.want)
		})
	}
}

func TestReaderPreservesPayloads(t *testing.T) {
	ev := Event{
		Timestamp:    time.Now().UTC(),
		ConnectionID: "conn",
		Layer:        LayerController,
		Category:     CategoryError,
		Error:        &ErrorEvent{Layer: LayerWire, Message: "bad json", Context: "receive"},
	}

	r := NewStreamReader(writeEvents(t, ev), Filter{})
	got := readAll(t, r)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Error)
	assert.Equal(t, "bad json", got[0].Error.Message)
	assert.Equal(t, LayerWire, got[0].Error.Layer)
	assert.Nil(t, got[0].Message)
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader("/nonexistent/capture.zlog")
	assert.Error(t, err)
}
