// Command server runs the lead ingestion backend: an HTTP API that receives
// form-builder webhooks, classifies and scores them into leads, serves the
// lead management endpoints, and emits nightly per-site exception reports.
//
// Startup order:
//  1. Load .env (best effort) and environment configuration
//  2. Configure logging and OpenTelemetry
//  3. Open SQLite, run migrations, attach GORM tracing
//  4. Build the Gin engine, register routes, start the HTTP server
//  5. Start the nightly report scheduler
//
// The process shuts down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/plugin/opentelemetry/tracing"

	_ "github.com/lodgera/go-leads-backend/docs"
	"github.com/lodgera/go-leads-backend/internal/config"
	httpapi "github.com/lodgera/go-leads-backend/internal/http"
	"github.com/lodgera/go-leads-backend/internal/observability"
	"github.com/lodgera/go-leads-backend/internal/report"
	"github.com/lodgera/go-leads-backend/internal/repo"
	"github.com/lodgera/go-leads-backend/internal/services"
	"github.com/lodgera/go-leads-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// @title           Lead Ingestion API
// @version         1.0
// @description     Webhook ingestion, lead scoring, and daily exception reports.
// @BasePath        /api/v1
func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}
	if cfg.OTEL.Enabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			log.Warn().Err(err).Msg("gorm tracing plugin")
		}
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, db, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	reportSvc := &services.ReportService{
		DB:       db,
		Analyzer: report.NewAnalyzer(cfg.Exception),
		Emitter:  services.LogEmitter{Logger: log.Logger},
		Logger:   log.Logger,
	}
	go runNightlyReports(ctx, reportSvc)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// runNightlyReports emits every site's daily exception report shortly after
// each UTC midnight, covering the day that just ended. It exits when ctx is
// canceled.
func runNightlyReports(ctx context.Context, svc *services.ReportService) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 5, 0, 0, time.UTC).AddDate(0, 0, 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		yesterday := next.AddDate(0, 0, -1)
		if err := svc.RunDailyReports(ctx, yesterday); err != nil {
			log.Error().Err(err).Msg("nightly report run finished with errors")
		}
	}
}
