package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/PremSaiBollamoni/tallybridge/internal/api/handlers"
	"github.com/PremSaiBollamoni/tallybridge/internal/api/middleware"
	"github.com/PremSaiBollamoni/tallybridge/internal/config"
	"github.com/PremSaiBollamoni/tallybridge/internal/extract"
	"github.com/PremSaiBollamoni/tallybridge/internal/jobs"
	"github.com/PremSaiBollamoni/tallybridge/internal/jobs/inmemory"
	"github.com/PremSaiBollamoni/tallybridge/internal/logger"
	"github.com/PremSaiBollamoni/tallybridge/internal/pipeline"
	"github.com/PremSaiBollamoni/tallybridge/internal/store"
	"github.com/PremSaiBollamoni/tallybridge/internal/tally"
)

func main() {
	var (
		port = flag.String("port", "8080", "HTTP server port")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("tally", cfg.BaseURL()).
		Str("company", cfg.CompanyName).
		Str("extractor", cfg.Extractor).
		Msg("Configuration loaded")

	results, err := store.New(cfg.ResultsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open results store")
	}

	pages, err := extract.ForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}
	extractor := extract.NewFileExtractor(pages)
	tallyClient := tally.NewClient(cfg.BaseURL(), log)
	orchestrator := pipeline.NewOrchestrator(extractor, tallyClient, results, log)

	// Job infrastructure: persisted status store plus a single-worker queue,
	// so imports into the shared Tally company never interleave.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	ctx := context.Background()
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job *jobs.ImportInvoiceJob) *pipeline.ImportRun {
		log.Info().
			Str("job_id", job.JobID).
			Str("file", job.FileName).
			Msg("Processing import job")

		run := orchestrator.ProcessFile(ctx, job.FilePath)

		// The upload copy has served its purpose either way.
		if err := os.Remove(job.FilePath); err != nil {
			log.Warn().Err(err).Str("file", job.FilePath).Msg("Failed to remove processed upload")
		}
		return run
	}

	go func() {
		log.Info().Msg("Starting import worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Import worker stopped with error")
		}
	}()

	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir, jobQueue, log)
	tallyHandler := handlers.NewTallyHandler(tallyClient, log)
	historyHandler := handlers.NewHistoryHandler(results, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/test-connection", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			tallyHandler.TestConnection(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			historyHandler.History(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			historyHandler.Report(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/download/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			name := strings.TrimPrefix(r.URL.Path, "/api/download/")
			if name == "" {
				middleware.WriteError(w, http.StatusBadRequest, "File name is required")
				return
			}
			historyHandler.Download(w, r, name)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"company": cfg.CompanyName,
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Drain the queue before cancelling the worker context: cancelling first
	// would abort an in-flight import mid-request against Tally.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
