package hub

import (
	"errors"
	"fmt"
	"time"

	"github.com/zonehub/zonehub-go/pkg/connection"
	"github.com/zonehub/zonehub-go/pkg/transport"
)

// Controller errors.
var (
	ErrAlreadyStarted  = errors.New("controller already started")
	ErrStopped         = errors.New("controller stopped")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// DefaultPort is the hub's TCP port.
const DefaultPort = 2112

// Brightness bounds accepted by SetBrightness.
const (
	MinBrightness = 1
	MaxBrightness = 100
)

// Config configures a Controller.
type Config struct {
	// Host is the hub address.
	Host string

	// Port is the hub TCP port (default: 2112).
	Port int

	// ConnectTimeout bounds one connection attempt.
	ConnectTimeout time.Duration

	// ReadTimeout is how long the loop waits for any byte before treating
	// the session as lost.
	ReadTimeout time.Duration

	// WriteTimeout bounds one command write.
	WriteTimeout time.Duration

	// MinBackoff is the first reconnect delay (default: 1s).
	MinBackoff time.Duration

	// MaxBackoff caps the reconnect delay (default: 900s).
	MaxBackoff time.Duration

	// BackoffJitter adds up to this fraction of random delay (default: 0).
	BackoffJitter float64
}

// DefaultConfig returns a Config for host with default timeouts.
func DefaultConfig(host string) Config {
	return Config{
		Host:           host,
		Port:           DefaultPort,
		ConnectTimeout: transport.DefaultConnectTimeout,
		ReadTimeout:    transport.DefaultReadTimeout,
		WriteTimeout:   transport.DefaultWriteTimeout,
		MinBackoff:     connection.InitialBackoff,
		MaxBackoff:     connection.MaxBackoff,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MinBackoff < 0 || c.MaxBackoff < 0 {
		return fmt.Errorf("%w: negative backoff", ErrInvalidConfig)
	}
	if c.MinBackoff > 0 && c.MaxBackoff > 0 && c.MaxBackoff < c.MinBackoff {
		return fmt.Errorf("%w: max backoff %s below min backoff %s", ErrInvalidConfig, c.MaxBackoff, c.MinBackoff)
	}
	if c.BackoffJitter < 0 || c.BackoffJitter > 1 {
		return fmt.Errorf("%w: jitter %.2f outside [0,1]", ErrInvalidConfig, c.BackoffJitter)
	}
	return nil
}

func (c *Config) dialerConfig() transport.DialerConfig {
	return transport.DialerConfig{
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
	}
}

func (c *Config) backoffConfig() connection.BackoffConfig {
	return connection.BackoffConfig{
		Initial: c.MinBackoff,
		Max:     c.MaxBackoff,
		Jitter:  c.BackoffJitter,
	}
}

// Listener receives change notifications. Methods are called from the
// controller's loop goroutine and must return promptly.
type Listener interface {
	// ZoneChanged reports a ZonePropertiesChanged push. Properties absent
	// from the push keep the last value seen in a report or push for that
	// zone, and are zero when nothing was seen yet.
	ZoneChanged(zoneID int, power bool, level int)

	// ConnectivityChanged reports a session opening or closing.
	ConnectivityChanged(connected bool)
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are
// skipped.
type ListenerFuncs struct {
	OnZoneChanged         func(zoneID int, power bool, level int)
	OnConnectivityChanged func(connected bool)
}

// ZoneChanged calls OnZoneChanged if set.
func (f ListenerFuncs) ZoneChanged(zoneID int, power bool, level int) {
	if f.OnZoneChanged != nil {
		f.OnZoneChanged(zoneID, power, level)
	}
}

// ConnectivityChanged calls OnConnectivityChanged if set.
func (f ListenerFuncs) ConnectivityChanged(connected bool) {
	if f.OnConnectivityChanged != nil {
		f.OnConnectivityChanged(connected)
	}
}

// Compile-time interface satisfaction check.
var _ Listener = ListenerFuncs{}
