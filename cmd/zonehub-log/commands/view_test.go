package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zonehub/zonehub-go/pkg/log"
)

func TestFormatFrameEvent(t *testing.T) {
	event := log.Event{
		Timestamp:    testTime,
		ConnectionID: testConnID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Size: 128,
			Data: []byte(`{"Service":"ListZones"}`),
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[conn:abc12345]",
		"OUT",
		"TRANSPORT",
		"Frame",
		"128 bytes",
		`Data: {"Service":"ListZones"}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatHeartbeatShowsHex(t *testing.T) {
	event := log.Event{
		Timestamp: testTime,
		Direction: log.DirectionIn,
		Layer:     log.LayerTransport,
		Category:  log.CategoryHeartbeat,
		Frame:     &log.FrameEvent{Size: 1, Data: []byte{0x00}},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Heartbeat") {
		t.Errorf("expected Heartbeat label, got: %s", output)
	}
	if !strings.Contains(output, "Data: 00") {
		t.Errorf("expected hex data, got: %s", output)
	}
	if !strings.Contains(output, "[conn:-]") {
		t.Errorf("expected placeholder connection ID, got: %s", output)
	}
}

func TestFormatTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	formatFrameDetails(&buf, &log.FrameEvent{Size: 9000, Data: []byte("{"), Truncated: true})
	if !strings.Contains(buf.String(), "(truncated)") {
		t.Errorf("expected truncation marker, got: %s", buf.String())
	}
}

func TestFormatMessageEvent(t *testing.T) {
	event := sessionEvents()[2]

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"IN  WIRE RESPONSE zone=3",
		"Service: ReportZoneProperties",
		"MessageID: 7",
		"Status: Success",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp: testTime,
		Layer:     log.LayerController,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: "CONNECTED",
			NewState: "DISCONNECTED",
			Reason:   "read timeout",
		},
	})
	output := buf.String()

	for _, want := range []string{"State", "Entity: CONNECTION", "CONNECTED -> DISCONNECTED", "Reason: read timeout"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}

	buf.Reset()
	formatStateChangeDetails(&buf, &log.StateChangeEvent{NewState: "CONNECTING"})
	if !strings.Contains(buf.String(), "  -> CONNECTING") {
		t.Errorf("expected initial transition, got: %s", buf.String())
	}
}

func TestFormatErrorEvent(t *testing.T) {
	var buf bytes.Buffer
	formatEvent(&buf, log.Event{
		Timestamp: testTime,
		Layer:     log.LayerController,
		Category:  log.CategoryError,
		Error: &log.ErrorEvent{
			Layer:   log.LayerWire,
			Message: "malformed message",
			Context: "receive",
		},
	})
	output := buf.String()

	for _, want := range []string{"Error", "Layer: WIRE", "Message: malformed message", "Context: receive"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	// One blank line terminates each event.
	if got := strings.Count(buf.String(), "\n\n"); got != 5 {
		t.Errorf("expected 5 events, got %d:\n%s", got, buf.String())
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Direction: "in", Layer: "wire"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "REQUEST") {
		t.Errorf("outgoing request should be filtered out: %s", output)
	}
	if !strings.Contains(output, "RESPONSE") || !strings.Contains(output, "NOTIFICATION") {
		t.Errorf("expected response and notification: %s", output)
	}
	if strings.Contains(output, "Heartbeat") {
		t.Errorf("transport events should be filtered out: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("/nonexistent/file.zlog", FilterOptions{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunViewBadFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Layer: "physical"}, &buf); err == nil {
		t.Error("expected error for invalid layer")
	}
}
