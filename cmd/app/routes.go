package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"

	"currencyconverter/internal/api"
	"currencyconverter/internal/api/middleware"
	"currencyconverter/internal/service"
	"currencyconverter/internal/web"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(conversions service.ConversionServiceInterface, currencies service.CurrencyServiceInterface) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(middleware.MetricsMiddleware(app.metrics))
	r.Use(chimiddleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Compress(5))

		r.Get("/", web.HomeHandler(app.cfg.Server.EnableServiceWorker, app.logger))
		r.Get("/service-worker.js", web.ServiceWorkerHandler())
		r.Handle("/public/*", web.StaticHandler("/public/"))

		r.Get("/currencies", api.HandleListCurrencies(currencies))
		r.Get("/convert", api.HandleConvert(conversions))
	})

	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.db, app.rdbCache, app.rdbAsynq))
	r.Handle("/metrics", app.metrics.Handler())

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := asynqmon.New(asynqmon.Options{
			RootPath:     monitoringPath,
			RedisConnOpt: asynq.RedisClientOpt{Addr: app.cfg.Redis.AsynqAddr},
		})
		r.Handle(monitoringPath+"/*", mon)
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
