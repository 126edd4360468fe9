package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	analysisclient "github.com/plagscan/plagscan-dashboard/internal/analysis/client"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/domain"
	"github.com/plagscan/plagscan-dashboard/internal/analysis/events"
	analysishandler "github.com/plagscan/plagscan-dashboard/internal/analysis/handler"
	analysisservice "github.com/plagscan/plagscan-dashboard/internal/analysis/service"
	reporthandler "github.com/plagscan/plagscan-dashboard/internal/report/handler"
	"github.com/plagscan/plagscan-dashboard/internal/report/repository"
	"github.com/plagscan/plagscan-dashboard/internal/report/share"
	uploadhandler "github.com/plagscan/plagscan-dashboard/internal/upload/handler"
	uploadservice "github.com/plagscan/plagscan-dashboard/internal/upload/service"
	"github.com/plagscan/plagscan-dashboard/internal/upload/storage"
	"github.com/plagscan/plagscan-dashboard/pkg/config"
	"github.com/plagscan/plagscan-dashboard/pkg/database"
	"github.com/plagscan/plagscan-dashboard/pkg/httputil"
	"github.com/plagscan/plagscan-dashboard/pkg/logger"
	"github.com/plagscan/plagscan-dashboard/pkg/messaging"
)

const serviceName = "dashboard-server"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(serviceName, cfg.Server.Environment)
	log.Info().Msg("starting dashboard server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Upload store
	var store storage.Store
	switch cfg.Upload.Backend {
	case config.UploadBackendMinIO:
		store, err = storage.NewMinIOStore(ctx, cfg.Upload.MinIO)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to object store")
		}
	default:
		store = storage.NewDiskStore(cfg.Upload.Dir)
	}
	log.Info().Str("backend", store.Backend()).Msg("upload store ready")

	// Report handoff store
	var db *database.DB
	var handoff repository.HandoffStore = repository.NewMemoryHandoffStore()
	if cfg.Report.HandoffBackend == config.HandoffBackendPostgres {
		db, err = database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		pg := repository.NewPostgresHandoffStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare handoff table")
		}
		handoff = pg
	}

	// Analysis events are optional
	var rmq *messaging.RabbitMQ
	var eventPublisher analysisservice.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.Connect(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err := events.NewAnalysisEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		eventPublisher = publisher
	}

	// Services
	uploadSvc := uploadservice.NewService(store, storage.NewNamer(), cfg.Upload.PublicPrefix, cfg.Upload.AdvisoryMaxBytes, log)

	submissions := analysisservice.NewSubmissionStore(cfg.Analysis.SubmissionTTL)
	defer submissions.Close()

	analysisSvc := analysisservice.NewService(analysisservice.Dependencies{
		Uploader:      analysisservice.NewLocalUploader(uploadSvc),
		Analyzer:      analysisclient.NewAnalysisClient(cfg.Analysis.BaseURL, log),
		Handoff:       handoff,
		Events:        eventPublisher,
		PublicBaseURL: cfg.Dashboard.PublicBaseURL,
	}, submissions, log)

	shares := share.NewService(handoff, share.NewManager(&cfg.JWT), log)

	defaults := domain.Configuration{
		CheckOnlineSources: cfg.Dashboard.CheckOnlineSources,
		Thresholds: domain.Thresholds{
			Semantic: cfg.Dashboard.Thresholds.Semantic,
			Ngram:    cfg.Dashboard.Thresholds.Ngram,
			Fuzzy:    cfg.Dashboard.Thresholds.Fuzzy,
		},
	}

	// Handlers
	uploadHandler := uploadhandler.NewHandler(uploadSvc, log)
	analysisHandler := analysishandler.NewHandler(analysisSvc, defaults, log)
	reportHandler := reporthandler.NewHandler(handoff, shares, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"uploads": store.Backend(),
		}
		if db != nil {
			status["database"] = db.Health(r.Context())
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})

	// Dashboard-wide settings: theme, default thresholds, analysis host
	r.Get("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, cfg.Dashboard)
	})

	r.Mount("/api/upload", uploadHandler.Routes())
	r.Get(cfg.Upload.PublicPrefix+"/{name}", uploadHandler.Serve)
	r.Mount("/api/analyses", analysisHandler.Routes())
	reportHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
