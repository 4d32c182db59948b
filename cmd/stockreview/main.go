package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/isv-promotor/stockreview/internal/app"
	"github.com/isv-promotor/stockreview/internal/dashboard"
	"github.com/isv-promotor/stockreview/internal/observability"
	"github.com/isv-promotor/stockreview/internal/platform/cache"
	"github.com/isv-promotor/stockreview/internal/platform/db"
	"github.com/isv-promotor/stockreview/internal/review"
	"github.com/isv-promotor/stockreview/internal/shared"
	"github.com/isv-promotor/stockreview/internal/stock"
	"github.com/isv-promotor/stockreview/internal/view"
	"github.com/isv-promotor/stockreview/jobs"
	"github.com/isv-promotor/stockreview/report"
)

const sessionCookieName = "stockreview_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var pool *pgxpool.Pool
	if cfg.StockSource == app.SourcePostgres {
		pool, err = db.New(ctx, cfg.PGDSN, 0)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
	}

	metrics := observability.NewMetrics()
	if err := stock.SetupMetrics(metrics.Registerer()); err != nil {
		logger.Error("register stock metrics", slog.Any("error", err))
		os.Exit(1)
	}

	sources, err := app.NewStockSources(cfg, pool, redisClient, logger)
	if err != nil {
		logger.Error("build stock source", slog.Any("error", err))
		os.Exit(1)
	}
	loader := stock.NewLoader(sources.Records, app.NewSupplierSource(cfg), logger)
	store := stock.NewStore(loader, logger)
	if sources.Cached != nil {
		store.WithStamper(sources.Cached)
	}

	templates, err := view.NewEngine(cfg.LocaleTag())
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionManager := shared.NewSessionManager(redisClient, sessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	reportClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(reportClient, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	dashboardHandler := dashboard.NewHandler(dashboard.Options{
		Logger:           logger,
		Store:            store,
		Raw:              sources.Records,
		Templates:        templates,
		Pipeline:         review.NewPipeline(cfg.LocaleTag()),
		CSRF:             csrfManager,
		PDF:              reportClient,
		Observer:         metrics,
		PageSize:         cfg.DefaultPageSize,
		ExportsPerMinute: cfg.ExportsPerMinute,
		LoadTimeout:      cfg.AppRequestTimeout,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		Metrics:           metrics,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Dashboard:         dashboardHandler,
		ReportHandler:     reportHandler,
		JobHandler:        jobHandler,
	})

	// Warm the store so the first visitor does not wait for the backend.
	go func() {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.AppRequestTimeout)
		defer cancel()
		snap, err := store.Refresh(loadCtx)
		products, loadedAt := 0, time.Now()
		if snap != nil {
			products, loadedAt = len(snap.Products), snap.LoadedAt
		}
		metrics.ObserveReload(products, loadedAt, err)
	}()

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("stock_source", cfg.StockSource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
