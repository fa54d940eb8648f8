package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appforge/internal/collab"
	"appforge/internal/config"
	"appforge/internal/database"
	"appforge/internal/database/migration"
	handlers "appforge/internal/http/handler"
	"appforge/internal/http/middleware"
	"appforge/internal/llm"
	"appforge/internal/otel"
	"appforge/internal/repository/postgres"
	"appforge/internal/service"
	"appforge/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing: OTLP exporter, degrades to noop when unconfigured
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage client for generated app files
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Repositories
	projectRepo := postgres.NewProjectPostgres(db)
	jobRepo := postgres.NewGenerationJobPostgres(db)
	previewRepo := postgres.NewPreviewPostgres(db)
	fileRepo := postgres.NewAppFilePostgres(db)

	// Services
	llmClient := llm.NewOpenAIClient(cfg.LLM)
	projectSvc := service.NewProjectService(objStore, projectRepo, fileRepo)
	generatorSvc := service.NewGeneratorService(llmClient, objStore, projectRepo, jobRepo, fileRepo, cfg.LLM)
	previewSvc := service.NewPreviewService(previewRepo, projectRepo, cfg.Preview, cfg.AppHost)
	fileSvc := service.NewAppFileService(objStore, fileRepo)

	// Collaboration room registry
	rooms := collab.NewRegistry(cfg.Collab)

	// Background workers: preview TTL sweeper and idle-room collector
	go previewSvc.StartSweeper(ctx)
	go rooms.StartGC(ctx)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Global middleware: request IDs, structured logs, traces, metrics
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	promMiddleware, err := middleware.NewPrometheusMiddleware(promRegistry)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, projectSvc, generatorSvc, previewSvc, fileSvc, rooms)

	// Serve until a shutdown signal arrives, then drain connections.
	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
