package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llm-orchestrator/api/rest/handlers"
	"llm-orchestrator/api/rest/routes"
	"llm-orchestrator/config"
	"llm-orchestrator/core/dataset"
	"llm-orchestrator/core/generation"
	"llm-orchestrator/core/models"
	"llm-orchestrator/core/registry"
	"llm-orchestrator/core/repository"
	"llm-orchestrator/core/scheduler"
	"llm-orchestrator/core/scoring"
	"llm-orchestrator/core/training"
	"llm-orchestrator/core/validation"
	"llm-orchestrator/storage"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	// Initialize stores: Postgres when configured, in-memory otherwise
	var (
		exampleStore  repository.ExampleStore
		datasetStore  repository.DatasetStore
		jobStore      repository.JobStore
		artifactStore repository.ArtifactStore
	)
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database connected successfully")

		exampleStore = repository.NewExampleRepository(db)
		datasetStore = repository.NewDatasetRepository(db)
		jobStore = repository.NewJobRepository(db)
		artifactStore = repository.NewArtifactRepository(db)
	} else {
		log.Println("No DATABASE_URL set, running with in-memory stores")
		mem := repository.NewMemoryStore()
		exampleStore = mem
		datasetStore = mem
		jobStore = mem
		artifactStore = mem
	}

	// Initialize checkpoint storage: S3 when a bucket is configured
	var checkpoints storage.CheckpointStore
	if cfg.CheckpointS3Bucket != "" {
		checkpoints, err = storage.NewS3Store(ctx, cfg.CheckpointS3Bucket, cfg.AWSRegion)
		if err != nil {
			log.Fatalf("Failed to initialize S3 checkpoint store: %v", err)
		}
	} else {
		checkpoints, err = storage.NewLocalStore(cfg.CheckpointDir)
		if err != nil {
			log.Fatalf("Failed to initialize checkpoint store: %v", err)
		}
	}

	// Training primitive behind the Trainer boundary
	trainer := training.NewSimulator(checkpoints, 50*time.Millisecond)

	// Core components
	validator := validation.NewValidator()
	scorer := scoring.NewScorer(scoring.Config{
		QualityFloor:    cfg.QualityFloor,
		MaxOutputTokens: cfg.MaxOutputTokens,
	})
	assembler := dataset.NewAssembler(dataset.Config{
		MinExamples:        cfg.MinExamplesPerDomain,
		TierRatioTolerance: cfg.TierRatioTolerance,
		RequiredTiers:      models.AllTiers,
	}, datasetStore)
	modelRegistry := registry.NewRegistry(artifactStore)
	if err := modelRegistry.Restore(); err != nil {
		log.Fatalf("Failed to restore model registry: %v", err)
	}

	// Initialize scheduler
	sched := scheduler.NewScheduler(scheduler.Config{
		MaxConcurrentJobs:  cfg.MaxConcurrentJobs,
		ProgressEverySteps: cfg.ProgressEverySteps,
		StallTimeout:       cfg.StallTimeout(),
	}, trainer, modelRegistry, datasetStore, jobStore)
	sched.Start(ctx)
	defer sched.Stop()

	// Generation service
	genService := generation.NewService(modelRegistry, trainer, generation.NewPreambles(cfg.TierPreambles))

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r,
		handlers.NewExampleHandler(validator, scorer, assembler, exampleStore),
		handlers.NewJobHandler(sched, jobStore, cfg.DefaultHyperparameters()),
		handlers.NewRegistryHandler(modelRegistry),
		handlers.NewGenerationHandler(genService),
	)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
