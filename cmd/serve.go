package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/calbridge/internal/server"
)

func newServeCmd(loadConfig configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start the HTTP server for conversational agents.

Routes:
  POST /webhook      Dialogflow fulfillment (CheckAvailability, BookAppointment)
  GET  /free-slots   Busy events and free slots for ?date= or ?startTime=&endTime=
  POST /schedule     Book an appointment directly
  GET  /healthz, /readyz, /healthz/detailed

Prometheus metrics are served on --metrics-addr when enabled.
The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, loadConfig)
		},
	}
}

func runServe(cmd *cobra.Command, loadConfig configLoader) error {
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger, instrumentationConfig())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), server.DefaultShutdownTimeout)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			logger.Warn("error during shutdown", slog.Any("error", err))
		}
	}()

	if cfg.MetricsEnabled && a.provider.Enabled() && a.provider.MetricsHandler() != nil {
		metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			InstrumentationProvider: a.provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		// Listen up front so a busy port fails startup instead of a goroutine.
		ln, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(ln); err != nil {
				logger.Error("metrics server stopped", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", slog.Any("error", err))
			}
		}()
	}

	srv := server.New(a.dispatcher, server.Config{
		Addr:       cfg.ListenAddr(),
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
		TrustProxy: cfg.TrustProxy,
		Health: server.HealthInfo{
			Version:    version,
			CalendarID: cfg.CalendarID,
			CacheType:  cfg.CacheType,
		},
	}, server.WithLogger(logger), server.WithMetrics(a.provider.Metrics()))

	return srv.Run(ctx)
}
