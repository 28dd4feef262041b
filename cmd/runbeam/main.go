package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/runbeam/runbeam/internal/adapter/duckdb"
	rbhttp "github.com/runbeam/runbeam/internal/adapter/http"
	rbnats "github.com/runbeam/runbeam/internal/adapter/nats"
	rbotel "github.com/runbeam/runbeam/internal/adapter/otel"
	"github.com/runbeam/runbeam/internal/adapter/postgres"
	"github.com/runbeam/runbeam/internal/adapter/ristretto"
	_ "github.com/runbeam/runbeam/internal/adapter/slack" // register slack notifier
	"github.com/runbeam/runbeam/internal/config"
	"github.com/runbeam/runbeam/internal/logger"
	"github.com/runbeam/runbeam/internal/port/notifier"
	"github.com/runbeam/runbeam/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"analytics_path", cfg.Analytics.Path,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownOtel, err := rbotel.Setup(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(shutdownCtx)
	}()

	metrics, err := rbotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// DuckDB replica
	replica, err := duckdb.Open(ctx, cfg.Analytics.Path)
	if err != nil {
		return fmt.Errorf("duckdb: %w", err)
	}
	defer func() { _ = replica.Close() }()
	if err := replica.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("duckdb schema: %w", err)
	}
	slog.Info("analytics replica ready", "path", cfg.Analytics.Path)

	// NATS
	queue, err := rbnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Alert dedup cache
	dedup, err := ristretto.New(cfg.Alerts.DedupCacheSize)
	if err != nil {
		return fmt.Errorf("dedup cache: %w", err)
	}
	defer dedup.Close()

	// --- Services ---
	store := postgres.NewStore(pool)
	runSvc := service.NewRunListService(store, replica, metrics)

	notifiers, err := buildNotifiers(cfg.Alerts)
	if err != nil {
		return fmt.Errorf("notifiers: %w", err)
	}
	alertSvc := service.NewAlertService(queue, notifiers, dedup, cfg.Alerts.DedupTTL, metrics)

	stopAlerts, err := alertSvc.Start(ctx)
	if err != nil {
		return fmt.Errorf("alert subscriber: %w", err)
	}
	defer stopAlerts()
	slog.Info("alert subscriber started", "notifiers", alertSvc.NotifierCount())

	// --- HTTP ---
	handlers := rbhttp.NewHandlers(runSvc)

	r := chi.NewRouter()
	r.Use(rbhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(rbhttp.Logger)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(rbotel.HTTPMiddleware(cfg.Logging.Service))

	r.Get("/health", healthHandler(queue))
	rbhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := queue.Drain(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildNotifiers instantiates the notifiers enabled by configuration.
func buildNotifiers(cfg config.Alerts) ([]notifier.Notifier, error) {
	var notifiers []notifier.Notifier
	if cfg.SlackWebhookURL != "" {
		n, err := notifier.New("slack", map[string]string{"webhook_url": cfg.SlackWebhookURL})
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}

// healthHandler reports process liveness and queue connectivity.
func healthHandler(queue *rbnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status string `json:"status"`
		NATS   bool   `json:"nats"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		status := healthStatus{Status: "ok", NATS: queue.IsConnected()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
