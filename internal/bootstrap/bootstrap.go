// Package bootstrap wires configuration into a ready-to-use client: logger,
// metrics, resilience, API client, list store, and mutation coordinator.
package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/ilhamije/receipt-scanner/internal/config"
	"github.com/ilhamije/receipt-scanner/internal/core/normalize"
	"github.com/ilhamije/receipt-scanner/internal/core/ports"
	"github.com/ilhamije/receipt-scanner/internal/core/usecase"
	"github.com/ilhamije/receipt-scanner/internal/export"
	"github.com/ilhamije/receipt-scanner/internal/infrastructure/api"
	"github.com/ilhamije/receipt-scanner/internal/infrastructure/attachment"
	natsevents "github.com/ilhamije/receipt-scanner/internal/infrastructure/events/nats"
	"github.com/ilhamije/receipt-scanner/internal/infrastructure/resilience"
	"github.com/ilhamije/receipt-scanner/internal/infrastructure/statestore/bolt"
	"github.com/ilhamije/receipt-scanner/internal/observability/logging"
	"github.com/ilhamije/receipt-scanner/internal/observability/metrics"
)

const serviceName = "receipt-scanner"

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.ClientMetrics

	List     *usecase.ListStore
	Mutation *usecase.MutationCoordinator
	Detail   *usecase.DetailFetcher
	Export   *export.Service

	closeFn func()
}

// New builds the full client graph. The saved-filter store and the event
// publisher are best-effort: a missing state DB directory or an absent NATS
// broker degrades those features instead of failing startup.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("bootstrap: base URL is required")
	}

	logger := logging.New(serviceName, cfg.LogLevel, cfg.LogFormat)
	clientMetrics := metrics.NewClientMetrics(serviceName)

	normalizer := normalize.New(cfg.DefaultCurrency)

	resilienceCfg := resilience.DefaultConfig()
	resilienceCfg.Attempts = cfg.RetryAttempts
	resilienceCfg.BreakerEnabled = cfg.BreakerEnabled
	executor := resilience.NewExecutor(resilienceCfg, logger)

	apiClient := api.New(cfg.BaseURL, api.Options{
		Timeout:   cfg.RequestTimeout,
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateLimitBurst,
		Executor:  executor,
		Metrics:   clientMetrics,
	})

	var saved ports.SavedFilterStore
	if cfg.StateDBPath != "" {
		store, err := bolt.New(cfg.StateDBPath)
		if err != nil {
			logger.Warn("saved-filter store unavailable", "path", cfg.StateDBPath, "error", err)
		} else {
			saved = store
		}
	}

	var events ports.EventPublisher
	if cfg.NATSURL != "" {
		publisher, err := natsevents.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsevents.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			logger.Warn("event publisher unavailable", "url", cfg.NATSURL, "error", err)
		} else {
			events = publisher
		}
	}

	list := usecase.NewListStore(apiClient, normalizer, saved, logger, clientMetrics, cfg.PageSize)
	if err := list.RestoreSavedFilter(ctx); err != nil {
		logger.Warn("restore saved filter", "error", err)
	}

	mutation := usecase.NewMutationCoordinator(
		apiClient,
		list,
		normalizer,
		attachment.NewInspector(),
		events,
		logger,
		clientMetrics,
	)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: clientMetrics,

		List:     list,
		Mutation: mutation,
		Detail:   usecase.NewDetailFetcher(apiClient, normalizer),
		Export:   export.NewService(logger),

		closeFn: func() {
			if events != nil {
				events.Close()
			}
			if saved != nil {
				_ = saved.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
