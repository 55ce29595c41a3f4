package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/adapters/analytics"
	"github.com/SscSPs/furniture_budget_engine/internal/adapters/classifier"
	"github.com/SscSPs/furniture_budget_engine/internal/adapters/export"
	"github.com/SscSPs/furniture_budget_engine/internal/adapters/notify"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/core/services"
	"github.com/SscSPs/furniture_budget_engine/internal/handlers"
	"github.com/SscSPs/furniture_budget_engine/internal/jobs"
	"github.com/SscSPs/furniture_budget_engine/internal/middleware"
	"github.com/SscSPs/furniture_budget_engine/internal/platform/config"
	"github.com/SscSPs/furniture_budget_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/furniture_budget_engine/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepRunTimeout = 10 * time.Minute
)

// @title Furniture Budget Engine API
// @version 1.0
// @description Budget tracking and cost-center attribution for the furniture ERP.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	tracker := analytics.NewPosthogTracker(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer tracker.Close()

	outbound := services.Clients{Exporter: export.NewXLSXExporter()}
	if tracker.IsEnabled() {
		outbound.Tracker = tracker
	}
	if cfg.ClassifierURL != "" {
		outbound.Classifier = classifier.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierTimeout)
	}
	if cfg.SlackWebhookURL != "" {
		outbound.Notifier = notify.NewSlackNotifier(cfg.SlackWebhookURL)
	} else {
		logger.Info("SLACK_WEBHOOK_URL not set. Alert notifications are disabled.")
	}

	container := services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(dbPool), outbound)

	var sweeper *jobs.AlertSweeper
	if cfg.AlertSweepSchedule != "" {
		sweeper = jobs.NewAlertSweeper(container.Alert, logger, sweepRunTimeout)
		if err := sweeper.Start(cfg.AlertSweepSchedule); err != nil {
			logger.Error("Failed to start alert sweep", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	r, err := newRouter(cfg, logger, container, outbound.Tracker)
	if err != nil {
		logger.Error("Failed to build router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
}

func newRouter(cfg *config.Config, logger *slog.Logger, container *portssvc.ServiceContainer, tracker clients.EventTracker) (*gin.Engine, error) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	// cors.New panics on an empty origin list.
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	limiterInstance, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	handlers.RegisterRoutes(r, cfg, container,
		middleware.RateLimit(limiterInstance),
		middleware.EventTrackingMiddleware(tracker),
	)
	return r, nil
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// pgx/v5/stdlib keeps migrations on the same driver as the pool.
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
