package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"currencyconverter/internal/config"
	"currencyconverter/internal/metrics"
	"currencyconverter/internal/provider"
	"currencyconverter/internal/repository"
	"currencyconverter/internal/service"
	"currencyconverter/internal/worker"
)

// App holds all application dependencies and manages their lifecycle.
type App struct {
	cfg            *config.Config
	logger         *zap.SugaredLogger
	metrics        *metrics.Metrics
	db             *sql.DB
	rdbCache       *redis.Client
	rdbAsynq       *redis.Client
	asynqClient    *asynq.Client
	asynqServer    *asynq.Server
	asynqScheduler *asynq.Scheduler
	asynqMux       *asynq.ServeMux
	enqueuer       *worker.AsynqEnqueuer
	httpServer     *http.Server
}

// NewApp initializes all dependencies and returns a ready-to-run App.
func NewApp(cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := app.initStorage(); err != nil {
		_ = app.close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}

	return app, nil
}

// close releases database and Redis connections
func (app *App) close() error {
	var errs []error
	if app.asynqClient != nil {
		if err := app.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("asynq client close: %w", err))
		}
	}
	if app.rdbAsynq != nil {
		if err := app.rdbAsynq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis asynq close: %w", err))
		}
	}
	if app.rdbCache != nil {
		if err := app.rdbCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis cache close: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("db close: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (app *App) initStorage() error {
	db, err := repository.NewPostgresDB(context.Background(), &app.cfg.Database, app.logger)
	if err != nil {
		return fmt.Errorf("connect to Postgres: %w", err)
	}
	app.db = db

	if err := repository.RunMigrations(app.db, app.logger); err != nil {
		return fmt.Errorf("run DB migrations: %w", err)
	}

	app.rdbCache = redis.NewClient(&redis.Options{
		Addr: app.cfg.Redis.CacheAddr,
	})
	if err := app.rdbCache.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect to Redis (cache, %s): %w", app.cfg.Redis.CacheAddr, err)
	}
	app.logger.Infow("Connected to Redis cache", "addr", app.cfg.Redis.CacheAddr)

	return nil
}

func (app *App) initServices() error {
	redisOpt := asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr}
	checkInterval := time.Duration(app.cfg.Worker.CheckIntervalSec) * time.Second

	app.rdbAsynq = redis.NewClient(&redis.Options{Addr: app.cfg.Redis.AsynqAddr})
	app.asynqClient = asynq.NewClient(redisOpt)
	app.asynqServer = asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:              app.cfg.Worker.Concurrency,
			DelayedTaskCheckInterval: checkInterval,
			TaskCheckInterval:        checkInterval,
			Logger:                   app.logger,
		},
	)
	app.asynqScheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: app.logger})
	app.logger.Infow("Asynq configured", "addr", app.cfg.Redis.AsynqAddr)

	ratesAPI := provider.NewExchangeRatesAPI(
		app.cfg.ExchangeRatesAPI.BaseURL,
		app.cfg.ExchangeRatesAPI.APIKey,
		app.cfg.ExchangeRatesAPI.Timeout,
		app.logger,
		app.metrics,
	)
	resolver := provider.NewRateResolver(ratesAPI, app.logger, app.metrics)
	conversionService := service.NewConversionService(resolver, app.logger, app.cfg.Conversion.Precision)

	currencyService := service.NewCurrencyService(
		newSymbolsProvider(app.cfg, ratesAPI, app.logger, app.metrics),
		repository.NewPostgresCurrencyRepository(app.db),
		app.rdbCache,
		app.logger,
		app.metrics,
		app.cfg.Cache,
	)

	app.enqueuer = worker.NewAsynqEnqueuer(
		app.asynqClient,
		app.cfg.Worker.MaxRetry,
		time.Duration(app.cfg.Worker.TimeoutSec)*time.Second,
	)
	id, err := app.enqueuer.RegisterSchedule(app.asynqScheduler, app.cfg.Worker.SyncCron)
	if err != nil {
		return err
	}
	if id != "" {
		app.logger.Infow("Catalogue sync scheduled", "cron", app.cfg.Worker.SyncCron, "entry_id", id)
	}
	app.asynqMux = worker.NewServeMux(currencyService, app.logger)

	app.initHTTP(conversionService, currencyService)
	return nil
}

// newSymbolsProvider puts the rates API first and Frankfurter, when configured, behind it.
func newSymbolsProvider(cfg *config.Config, primary provider.SymbolsProvider, logger *zap.SugaredLogger, m *metrics.Metrics) provider.SymbolsProvider {
	if cfg.Frankfurter.BaseURL == "" {
		return primary
	}
	secondary := provider.NewFrankfurterProvider(cfg.Frankfurter.BaseURL, cfg.Frankfurter.Timeout, logger, m)
	return provider.NewSymbolsFacade(primary, secondary)
}

// Run starts the HTTP server, the Asynq worker and the scheduler, blocking until the context is canceled.
func (app *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Infow("Starting Asynq worker server")
		if err := app.asynqServer.Start(app.asynqMux); err != nil {
			return fmt.Errorf("asynq worker failed to start: %w", err)
		}

		// Warm the catalogue once at startup; the scheduler keeps it fresh afterwards.
		if err := app.enqueuer.EnqueueSync(ctx); err != nil {
			app.logger.Warnw("Initial catalogue sync not enqueued", "error", err)
		}

		<-ctx.Done()
		return nil
	})

	g.Go(func() error {
		if app.cfg.Worker.SyncCron == "" {
			return nil
		}
		if err := app.asynqScheduler.Start(); err != nil {
			return fmt.Errorf("asynq scheduler failed to start: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		app.logger.Infow("HTTP server listening", "port", app.cfg.Server.Port)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown: triggered by context cancellation (signal or component failure).
	g.Go(func() error {
		<-ctx.Done()
		return app.shutdown()
	})

	return g.Wait()
}

// shutdown performs ordered teardown: HTTP server -> scheduler -> Asynq worker -> connections.
func (app *App) shutdown() error {
	app.logger.Infow("Shutting down server...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests, drain in-flight
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Errorw("HTTP server shutdown error", "error", err)
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	// 2. Stop enqueuing periodic syncs, then drain in-flight tasks
	if app.cfg.Worker.SyncCron != "" {
		app.asynqScheduler.Shutdown()
	}
	app.asynqServer.Shutdown()

	// 3. Close connections (asynq client, Redis, database)
	if err := app.close(); err != nil {
		app.logger.Errorw("Connection cleanup errors", "error", err)
		errs = append(errs, err)
	}

	app.logger.Infow("Shutdown complete")
	return errors.Join(errs...)
}
