// Command zonehub-sim runs a simulated lighting hub.
//
// The simulator answers the hub's JSON control protocol on TCP, pushes
// zone changes to every client and sends periodic heartbeat bytes. It is
// meant for trying zonehub without hardware and for fault injection.
//
// Usage:
//
//	zonehub-sim [flags]
//
// Flags:
//
//	-listen string         Listen address (default "127.0.0.1:2112")
//	-zones string          YAML zone file (default: three built-in zones)
//	-heartbeat duration    Heartbeat interval, 0 to disable (default 30s)
//	-log-level string      Log level: debug, info, warn, error (default "info")
//	-interactive           Enable interactive command mode
//
// Examples:
//
//	# Simulate the default zones
//	zonehub-sim -interactive
//
//	# Simulate a custom house on all interfaces
//	zonehub-sim -listen :2112 -zones house.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zonehub/zonehub-go/internal/hubsim"
	"github.com/zonehub/zonehub-go/pkg/version"
)

// Config holds the simulator configuration.
type Config struct {
	Listen      string
	ZonesFile   string
	Heartbeat   time.Duration
	LogLevel    string
	Interactive bool
	ShowVersion bool
}

var config Config

func init() {
	flag.StringVar(&config.Listen, "listen", "127.0.0.1:2112", "Listen address")
	flag.StringVar(&config.ZonesFile, "zones", "", "YAML zone file")
	flag.DurationVar(&config.Heartbeat, "heartbeat", 30*time.Second, "Heartbeat interval, 0 to disable")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&config.Interactive, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&config.ShowVersion, "version", false, "Print the version and exit")
}

func main() {
	flag.Parse()
	if config.ShowVersion {
		fmt.Println(version.Info("zonehub-sim"))
		return
	}
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "zonehub-sim: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", config.LogLevel, err)
	}

	mac, zones := "", defaultZones()
	if config.ZonesFile != "" {
		var err error
		if mac, zones, err = loadZones(config.ZonesFile); err != nil {
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Route log output through readline so it does not break the prompt.
	var sh *shell
	var logOut io.Writer = os.Stderr
	if config.Interactive {
		var err error
		if sh, err = newShell(nil); err != nil {
			return err
		}
		defer sh.rl.Close()
		logOut = sh.out
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	h, err := hubsim.New(hubsim.WithAddress(config.Listen), hubsim.WithLogger(logger))
	if err != nil {
		return err
	}
	defer h.Close()

	for _, z := range zones {
		h.AddZone(z)
	}
	if mac != "" {
		h.SetMACAddress(mac)
	}
	logger.Info("simulator listening", "addr", h.Addr().String(), "zones", len(zones))

	if config.Heartbeat > 0 {
		go runHeartbeats(ctx, h, config.Heartbeat, logger)
	}
	go logConnections(ctx, h, logger)

	if sh != nil {
		sh.hub = h
		go func() {
			sh.run(ctx)
			cancel()
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// runHeartbeats sends a heartbeat byte to every client at interval.
func runHeartbeats(ctx context.Context, h *hubsim.Hub, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.Heartbeat(); err != nil {
				logger.Debug("heartbeat failed", "error", err)
			}
		}
	}
}

// logConnections logs each accepted client.
func logConnections(ctx context.Context, h *hubsim.Hub, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.Connected():
			logger.Info("client connected", "open", h.ConnectionCount(), "accepted", h.Accepted())
		}
	}
}
