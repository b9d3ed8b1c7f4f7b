package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events into an slog.Logger, mostly at
// debug level. Error events are logged as warnings.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes one record per event.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Error != nil {
		level = slog.LevelWarn
	}
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}
	a.logger.LogAttrs(ctx, level, eventMessage(event), eventAttrs(event)...)
}

// eventMessage names the event for the log line.
func eventMessage(event Event) string {
	switch {
	case event.Category == CategoryHeartbeat:
		return "heartbeat"
	case event.Message != nil:
		return "hub message"
	case event.Frame != nil:
		return "frame"
	case event.StateChange != nil:
		return "state change"
	case event.Error != nil:
		return "protocol error"
	default:
		return "protocol event"
	}
}

func eventAttrs(event Event) []slog.Attr {
	attrs := make([]slog.Attr, 0, 10)
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	attrs = append(attrs,
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	)
	if event.RemoteAddr != "" {
		attrs = append(attrs, slog.String("remote", event.RemoteAddr))
	}
	if event.ZoneID != nil {
		attrs = append(attrs, slog.Int("zone_id", *event.ZoneID))
	}

	if f := event.Frame; f != nil {
		attrs = append(attrs, slog.Int("frame_size", f.Size))
		if f.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	}
	if m := event.Message; m != nil {
		attrs = append(attrs,
			slog.Int64("msg_id", m.MessageID),
			slog.String("msg_type", m.Type.String()),
			slog.String("service", m.Service),
		)
		if m.Status != "" {
			attrs = append(attrs, slog.String("status", m.Status))
		}
	}
	if s := event.StateChange; s != nil {
		attrs = append(attrs,
			slog.String("entity", s.Entity.String()),
			slog.String("old_state", s.OldState),
			slog.String("new_state", s.NewState),
		)
		if s.Reason != "" {
			attrs = append(attrs, slog.String("reason", s.Reason))
		}
	}
	if e := event.Error; e != nil {
		attrs = append(attrs,
			slog.String("error_layer", e.Layer.String()),
			slog.String("error_msg", e.Message),
		)
		if e.Context != "" {
			attrs = append(attrs, slog.String("error_context", e.Context))
		}
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
