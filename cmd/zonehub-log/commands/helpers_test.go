package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zonehub/zonehub-go/pkg/log"
)

var testTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

const testConnID = "abc12345-6789-0123-4567-890abcdef012"

func intPtr(v int) *int { return &v }

// createTestLogFile writes events to a capture in a temp dir.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zlog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

// sessionEvents is a short session: connect, a query, its reply, a
// heartbeat and a push.
func sessionEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: testTime,
			Layer:     log.LayerController,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: "CONNECTING",
				NewState: "CONNECTED",
			},
		},
		{
			Timestamp:    testTime.Add(time.Millisecond),
			ConnectionID: testConnID,
			Direction:    log.DirectionOut,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			RemoteAddr:   "192.0.2.10:2112",
			ZoneID:       intPtr(3),
			Message: &log.MessageEvent{
				Type:      log.MessageTypeRequest,
				MessageID: 7,
				Service:   "ReportZoneProperties",
			},
		},
		{
			Timestamp:    testTime.Add(5 * time.Millisecond),
			ConnectionID: testConnID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			ZoneID:       intPtr(3),
			Message: &log.MessageEvent{
				Type:      log.MessageTypeResponse,
				MessageID: 7,
				Service:   "ReportZoneProperties",
				Status:    "Success",
			},
		},
		{
			Timestamp:    testTime.Add(2 * time.Second),
			ConnectionID: testConnID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerTransport,
			Category:     log.CategoryHeartbeat,
			Frame:        &log.FrameEvent{Size: 1, Data: []byte{0x00}},
		},
		{
			Timestamp:    testTime.Add(3 * time.Second),
			ConnectionID: testConnID,
			Direction:    log.DirectionIn,
			Layer:        log.LayerWire,
			Category:     log.CategoryMessage,
			ZoneID:       intPtr(0),
			Message: &log.MessageEvent{
				Type:    log.MessageTypeNotification,
				Service: "ZonePropertiesChanged",
			},
		},
	}
}
