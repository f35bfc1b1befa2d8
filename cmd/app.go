package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teemow/calbridge/internal/booking"
	"github.com/teemow/calbridge/internal/cache"
	"github.com/teemow/calbridge/internal/calendar"
	"github.com/teemow/calbridge/internal/config"
	"github.com/teemow/calbridge/internal/google"
	"github.com/teemow/calbridge/internal/instrumentation"
	"github.com/teemow/calbridge/internal/logging"
)

// app holds the wired dependencies shared by the commands that talk to the calendar.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	provider   *instrumentation.Provider
	dispatcher *booking.Dispatcher
	closers    []io.Closer
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(w, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

func instrumentationConfig() instrumentation.Config {
	cfg := instrumentation.DefaultConfig()
	cfg.ServiceVersion = version
	return cfg
}

// newApp builds the calendar stack: Google client, then instrumentation,
// then the optional busy cache, then the dispatcher.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, instrCfg instrumentation.Config) (*app, error) {
	provider, err := instrumentation.NewProvider(ctx, instrCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, provider: provider}

	opts, err := google.ClientOptions(ctx, cfg.Credentials())
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	client, err := calendar.NewClient(ctx, opts...)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	metrics := provider.Metrics()
	var api calendar.API = calendar.NewInstrumented(client, metrics)

	busyCache, err := cache.New(ctx, cfg.Cache(), logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("failed to create busy cache: %w", err)
	}
	if busyCache != nil {
		if c, ok := busyCache.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
		api = calendar.NewCached(api, busyCache, metrics, logger)
		logger.Info("busy cache enabled", slog.String("type", cfg.CacheType), slog.Duration("ttl", cfg.CacheTTL))
	}

	a.dispatcher = booking.NewDispatcher(api, cfg.Dispatcher(),
		booking.WithLogger(logger),
		booking.WithMetrics(metrics),
		booking.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrCfg.AuditLogging)),
	)
	return a, nil
}

// Close flushes telemetry and releases cache connections.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.provider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
