package hub

import (
	"log/slog"

	"github.com/zonehub/zonehub-go/pkg/log"
	"github.com/zonehub/zonehub-go/pkg/metrics"
	"github.com/zonehub/zonehub-go/pkg/transport"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the operational logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithProtocolLogger captures frames, messages and state changes.
func WithProtocolLogger(logger log.Logger) Option {
	return func(c *Controller) {
		c.protoLog = logger
	}
}

// WithMetrics records controller metrics. Nil disables them.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithOpener replaces the TCP dialer, e.g. with a test double.
func WithOpener(opener transport.Opener) Option {
	return func(c *Controller) {
		c.opener = opener
	}
}
