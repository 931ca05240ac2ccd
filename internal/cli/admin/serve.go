// Package admin holds the inletd daemon commands.
package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inletai/inlet/internal/api/handlers"
	"github.com/inletai/inlet/internal/config"
	"github.com/inletai/inlet/internal/database"
	"github.com/inletai/inlet/internal/docintel"
	"github.com/inletai/inlet/internal/domain"
	"github.com/inletai/inlet/internal/jobs"
	"github.com/inletai/inlet/internal/layout"
	"github.com/inletai/inlet/internal/openai"
	"github.com/inletai/inlet/internal/queue"
	"github.com/inletai/inlet/internal/server"
	"github.com/inletai/inlet/internal/service"
	"github.com/inletai/inlet/internal/storage"
	"github.com/inletai/inlet/internal/telemetry"
	"github.com/inletai/inlet/internal/vectorstore"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ingestion API server",
		Long:  "Start the inlet ingestion API server and background ingestion worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := database.Migrate(cfg.DatabaseURL, "migrations"); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if !cfg.HasS3() {
		return fmt.Errorf("S3_ENDPOINT is required: documents and their state live in object storage")
	}
	objects, err := storage.NewObjectStore(ctx, storage.ObjectStoreConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
		SignedURLTTL:    cfg.SignedURLTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}
	log.Printf("bucket '%s' ready", cfg.S3Bucket)

	states := storage.NewStateStore(objects)

	vectors := vectorstore.New(pool)
	if err := vectors.EnsureIndex(ctx, vectorstore.ContentIndexName, domain.EmbeddingDimensions, domain.DistanceCosine); err != nil {
		return fmt.Errorf("failed to ensure content index: %w", err)
	}
	if err := vectors.EnsureIndex(ctx, vectorstore.PromptIndexName, domain.EmbeddingDimensions, domain.DistanceCosine); err != nil {
		return fmt.Errorf("failed to ensure prompt index: %w", err)
	}

	ingestQueue := queue.New(pool)

	var embeddingClient service.EmbeddingClient
	if cfg.HasOpenAI() {
		embeddingClient = openai.NewClient(cfg.OpenAIAPIKey)
	}

	var analyzer service.LayoutAnalyzer
	if cfg.HasConverter() {
		analyzer = docintel.NewClient(cfg.ConvertEndpoint, cfg.ConvertAPIKey)
	}
	var translator service.TranslatorClient
	if cfg.HasTranslator() {
		translator = docintel.NewTranslator(cfg.TranslateEndpoint, cfg.TranslateAPIKey)
	}

	extractor := layout.NewExtractor(cfg.PagesPerChunk)

	pipeline := service.NewPipeline(objects, states, vectors, ingestQueue, embeddingClient, analyzer, translator, extractor, service.PipelineConfig{
		TranslateTarget: cfg.TranslateTarget,
	})

	var searcher handlers.QuerySearcher
	if embeddingClient != nil {
		searcher = service.NewSearchService(embeddingClient, vectors)
	} else {
		searcher = &noOpSearcher{}
	}

	var ingestWorker *jobs.Worker
	if embeddingClient != nil {
		processor := jobs.NewIngestWorker(ingestQueue, pipeline)
		ingestWorker = jobs.NewWorker(processor, cfg.WorkerPollInterval)
		go ingestWorker.Start(ctx)
		log.Println("ingestion worker started")
	} else {
		log.Println("OPENAI_API_KEY not set: ingestion worker and search disabled")
	}

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler:  handlers.NewDocumentHandler(pipeline),
		EmbeddingHandler: handlers.NewEmbeddingHandler(vectors, searcher),
		PromptHandler:    handlers.NewPromptHandler(vectors),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if ingestWorker != nil {
		ingestWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpSearcher struct{}

func (s *noOpSearcher) Search(ctx context.Context, query string, k int, filename string) ([]domain.SearchHit, error) {
	return nil, domain.IndexUnavailableError(fmt.Errorf("search not configured: OPENAI_API_KEY required"))
}
