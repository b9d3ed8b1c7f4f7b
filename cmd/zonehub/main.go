// Command zonehub controls a lighting hub over its TCP control port.
//
// It keeps one session to the hub, reconnects with exponential backoff,
// and logs zone changes pushed by the hub.
//
// Usage:
//
//	zonehub [flags]
//
// Flags:
//
//	-config string          YAML configuration file
//	-host string            Hub address
//	-port int               Hub TCP port (default 2112)
//	-read-timeout duration  Silence after which the session is dropped (default 1m0s)
//	-min-backoff duration   First reconnect delay (default 1s)
//	-max-backoff duration   Reconnect delay cap (default 15m0s)
//	-log-level string       Log level: debug, info, warn, error (default "info")
//	-log-format string      Log format: text, json (default "text")
//	-metrics-addr string    Serve /metrics and /health on this address
//	-protocol-log string    Capture protocol events to this .zlog file
//	-interactive            Enable interactive command mode
//	-version                Print the version and exit
//
// Examples:
//
//	# Watch a hub and log every change
//	zonehub -host 192.168.1.40
//
//	# Interactive control with a protocol capture
//	zonehub -host 192.168.1.40 -interactive -protocol-log hub.zlog
//
//	# Settings from a file, with metrics
//	zonehub -config /etc/zonehub.yaml -metrics-addr :9120
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/zonehub/zonehub-go/cmd/zonehub/interactive"
	"github.com/zonehub/zonehub-go/pkg/hub"
	"github.com/zonehub/zonehub-go/pkg/log"
	"github.com/zonehub/zonehub-go/pkg/metrics"
	"github.com/zonehub/zonehub-go/pkg/version"
)

const (
	// shutdownTimeout bounds the metrics server shutdown.
	shutdownTimeout = 5 * time.Second

	captureFlushInterval = time.Second
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.ShowVersion {
		fmt.Println(version.Info("zonehub"))
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "zonehub: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	if cfg.Host == "" {
		return errors.New("no hub address (use -host or the config file)")
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	// Route log output through readline so it does not break the prompt.
	var shell *interactive.Shell
	var logOut io.Writer = os.Stderr
	if cfg.Interactive {
		shell, err = interactive.New(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
		if err != nil {
			return err
		}
		defer shell.Close()
		logOut = shell.Stdout()
	}

	handler, err := newHandler(logOut, cfg.LogFormat, level)
	if err != nil {
		return err
	}
	logger := slog.New(handler)
	release, ok := version.Current()
	logger.Info("zonehub starting", "version", version.Version, "release", ok && !release.Prerelease(), "host", cfg.Host, "port", cfg.Port)

	opts := []hub.Option{hub.WithLogger(logger)}

	protoLog, capture, err := newProtocolLogger(cfg, logger)
	if err != nil {
		return err
	}
	if protoLog != nil {
		opts = append(opts, hub.WithProtocolLogger(protoLog))
	}

	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, hub.WithMetrics(m))
	}

	ctrl, err := hub.New(cfg.hubConfig(), changeLogger(logger), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if _, err := ctrl.Start(gctx); err != nil {
		return err
	}
	captureCtx, stopCapture := context.WithCancel(context.Background())
	defer stopCapture()

	g.Go(func() error {
		<-ctrl.Done()
		logger.Info("controller stopped", "state", ctrl.State())
		// Ends the group when the controller stops on its own.
		stop()
		// The controller no longer logs protocol events.
		stopCapture()
		return nil
	})

	if capture != nil {
		g.Go(func() error {
			return flushCapture(captureCtx, capture, logger)
		})
	}

	if reg != nil {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, reg, logger)
		})
	}

	if shell != nil {
		shell.Attach(ctrl)
		g.Go(func() error {
			err := shell.Run(gctx)
			ctrl.Stop()
			return err
		})
	}

	err = g.Wait()
	ctrl.Stop()
	<-ctrl.Done()
	logger.Info("goodbye")
	return err
}

// changeLogger logs hub notifications.
func changeLogger(logger *slog.Logger) hub.Listener {
	return hub.ListenerFuncs{
		OnZoneChanged: func(zoneID int, power bool, level int) {
			logger.Info("zone changed", "zone", zoneID, "power", power, "level", level)
		},
		OnConnectivityChanged: func(connected bool) {
			logger.Info("hub connectivity changed", "connected", connected)
		},
	}
}

// newProtocolLogger builds the protocol event sink: a .zlog capture when
// requested, plus slog output at debug level. The capture, if any, is
// returned separately so the caller can flush and close it.
func newProtocolLogger(cfg Config, logger *slog.Logger) (log.Logger, *log.FileLogger, error) {
	var loggers []log.Logger
	var capture *log.FileLogger

	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, nil, fmt.Errorf("open protocol log: %w", err)
		}
		logger.Info("capturing protocol events", "path", cfg.ProtocolLog)
		loggers = append(loggers, fl)
		capture = fl
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		loggers = append(loggers, log.NewSlogAdapter(logger.With("component", "protocol")))
	}

	switch len(loggers) {
	case 0:
		return nil, nil, nil
	case 1:
		return loggers[0], capture, nil
	default:
		return log.NewMultiLogger(loggers...), capture, nil
	}
}

// flushCapture flushes the capture periodically until ctx is done, then
// closes it.
func flushCapture(ctx context.Context, fl *log.FileLogger, logger *slog.Logger) error {
	ticker := time.NewTicker(captureFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := fl.Flush(); err != nil {
				logger.Warn("flush protocol log", "error", err)
			}
		case <-ctx.Done():
			if n := fl.Dropped(); n > 0 {
				logger.Warn("protocol events dropped", "count", n)
			}
			return fl.Close()
		}
	}
}

// serveMetrics runs the metrics server until ctx is done.
func serveMetrics(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metrics.Handler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
