package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zonehub/zonehub-go/pkg/hub"
)

// Config holds the command configuration. Values come from an optional
// YAML file; flags given on the command line override them.
type Config struct {
	ConfigFile  string `yaml:"-"`
	ShowVersion bool   `yaml:"-"`

	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MinBackoff     time.Duration `yaml:"min_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	BackoffJitter  float64       `yaml:"backoff_jitter"`

	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	MetricsAddr string `yaml:"metrics_addr"`
	ProtocolLog string `yaml:"protocol_log"`
	Interactive bool   `yaml:"interactive"`
}

func defaultConfig() Config {
	hc := hub.DefaultConfig("")
	return Config{
		Port:           hc.Port,
		ConnectTimeout: hc.ConnectTimeout,
		ReadTimeout:    hc.ReadTimeout,
		WriteTimeout:   hc.WriteTimeout,
		MinBackoff:     hc.MinBackoff,
		MaxBackoff:     hc.MaxBackoff,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// registerFlags binds cfg to fs.
func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Print the version and exit")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "Hub address")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Hub TCP port")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "Timeout for one connection attempt")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Silence after which the session is dropped")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "Timeout for one command write")
	fs.DurationVar(&cfg.MinBackoff, "min-backoff", cfg.MinBackoff, "First reconnect delay")
	fs.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "Reconnect delay cap")
	fs.Float64Var(&cfg.BackoffJitter, "backoff-jitter", cfg.BackoffJitter, "Random fraction added to reconnect delays (0-1)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve /metrics and /health on this address")
	fs.StringVar(&cfg.ProtocolLog, "protocol-log", cfg.ProtocolLog, "Capture protocol events to this .zlog file")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Enable interactive command mode")
}

// loadConfig parses args. A config file is read first, then every flag
// that was set explicitly is applied on top of it.
func loadConfig(args []string) (Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("zonehub", flag.ContinueOnError)
	registerFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.ConfigFile == "" {
		return cfg, nil
	}

	fileCfg := defaultConfig()
	fileCfg.ConfigFile = cfg.ConfigFile
	if err := readConfigFile(cfg.ConfigFile, &fileCfg); err != nil {
		return Config{}, err
	}

	// Re-parse onto the file values so explicit flags win.
	fs = flag.NewFlagSet("zonehub", flag.ContinueOnError)
	registerFlags(fs, &fileCfg)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return fileCfg, nil
}

func readConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// hubConfig converts the command configuration to a controller Config.
func (c *Config) hubConfig() hub.Config {
	return hub.Config{
		Host:           c.Host,
		Port:           c.Port,
		ConnectTimeout: c.ConnectTimeout,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		MinBackoff:     c.MinBackoff,
		MaxBackoff:     c.MaxBackoff,
		BackoffJitter:  c.BackoffJitter,
	}
}

var errUnknownLogFormat = errors.New("unknown log format")

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// newHandler builds the slog handler selected by format.
func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("%w: %s (use: text, json)", errUnknownLogFormat, format)
	}
}
