package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/events"
)

// ListenCommand creates the listen command
func ListenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Stream deploy confirmations of a wallet as JSON lines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Wallet address to listen on",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (defaults to metrics.addr from config)",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many confirmations (0 streams until interrupted)",
			},
		},
		Action: runListenCommand,
	}
}

func runListenCommand(ctx context.Context, cmd *cli.Command) error {
	addr, err := address.Parse(cmd.String("address"))
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr(cmd))
	if err != nil {
		return err
	}

	metricsAddr := cfg.Metrics.Addr
	if cmd.IsSet("metrics-addr") {
		metricsAddr = cmd.String("metrics-addr")
	}

	wsURL, err := events.DeploysURL(cfg.URL, addr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	metrics := events.NewMetrics(reg)

	formatter := NewFormatter()
	out := json.NewEncoder(cmd.Root().Writer)
	limit := cmd.Int("count")
	var mu sync.Mutex
	seen := 0

	listener := events.NewListener(wsURL, events.NewRegistry(metrics), events.ListenerConfig{
		Logger:  logger,
		Metrics: metrics,
		OnEvent: func(ev *events.DeployEvent) {
			if !ev.IsObserverConfirmation() {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if err := out.Encode(formatter.FormatEvent(addr, ev)); err != nil {
				logger.Error().Err(err).Msg("failed to write event")
			}
			seen++
			if limit > 0 && seen >= limit {
				cancel()
			}
		},
	})

	fmt.Fprint(stderr(cmd), formatter.FormatSummary("Listening", []Field{
		{Label: "Address", Value: addr.String()},
		{Label: "Endpoint", Value: wsURL},
	}, ""))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := listener.Run(gctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if metricsAddr != "" {
		startMetricsServer(gctx, g, metricsAddr, reg, logger)
	}

	return g.Wait()
}

// startMetricsServer serves /metrics until ctx ends.
func startMetricsServer(ctx context.Context, g *errgroup.Group, addr string, reg *prometheus.Registry, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
