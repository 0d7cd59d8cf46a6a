// Command api serves candidate search, place lookup and the ops endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/onnwee/kinmatch/internal/config"
	"github.com/onnwee/kinmatch/internal/middleware"
	"github.com/onnwee/kinmatch/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "kinmatch API server\n\nUsage: api [-config file.yaml]\n\n")
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "YAML config file; environment variables override it")
	flag.Parse()

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config:", err)
		}
		os.Exit(2)
	}

	logger := middleware.NewLogger(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(cfg.Port)))
	if err != nil {
		logger.Error("listen failed", "port", cfg.Port, "error", err)
		os.Exit(1)
	}
	if err := run(ctx, cfg, logger, ln); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run serves on ln until ctx is done and then drains in-flight requests.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, ln net.Listener) error {
	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:        cfg.TracingEnabled,
		ServiceName:    tracing.DefaultServiceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
		Exporter:       cfg.OTelExporter,
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
		SampleRatio:    cfg.OTelSamplingRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if ferr := tp.Shutdown(flushCtx); ferr != nil {
			logger.Warn("tracer shutdown failed", "error", ferr)
		}
	}()

	// Background work such as limiter cleanup stops with the server.
	appCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := newApp(appCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Handler:           app.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String(), "version", version)
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown requested, draining connections", "timeout", shutdownTimeout)
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelDrain()
	if err := server.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
