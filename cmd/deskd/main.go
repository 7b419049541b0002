// Deskd is the NovaTech internal help-desk daemon.
//
// The binary starts the deskd HTTP server with full service initialization:
// embedding provider, policy knowledge store, shared LLM client, and the
// routed RAG pipeline.
//
// Configuration is loaded from ~/.config/deskd/config.yaml, overridden by
// DESKD_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	deskd
//
//	# Custom config file
//	deskd --config /etc/deskd/config.yaml
//
//	# Configure via environment
//	DESKD_SERVER_PORT=9191 DESKD_LLM_API_KEY=gsk_... deskd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/config"
	"github.com/fyrsmithlabs/deskd/internal/embeddings"
	httpserver "github.com/fyrsmithlabs/deskd/internal/http"
	"github.com/fyrsmithlabs/deskd/internal/knowledge"
	"github.com/fyrsmithlabs/deskd/internal/llm"
	"github.com/fyrsmithlabs/deskd/internal/logging"
	"github.com/fyrsmithlabs/deskd/internal/pipeline"
	"github.com/fyrsmithlabs/deskd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/deskd/config.yaml)")
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  deskd            Start the deskd daemon\n")
			fmt.Fprintf(os.Stderr, "  deskd version    Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("deskd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the deskd server and blocks until the context is cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes telemetry and the structured logger
//  3. Creates the embedding provider and knowledge store
//  4. Creates the shared LLM client
//  5. Wires the query pipeline (router, executor, merger)
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	// Load configuration (validated during load)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize telemetry. Failures degrade to no-op providers rather
	// than blocking startup.
	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		_ = tel.Shutdown(context.Background()) // Flush pending telemetry
	}()

	// Initialize logger
	logger, err := logging.NewLogger(&cfg.Logging, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting deskd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("knowledge_provider", cfg.Knowledge.Provider),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()))

	// Initialize infrastructure dependencies
	deps, err := initDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	logger.Info(ctx, "dependencies initialized",
		zap.String("embeddings_provider", cfg.Embeddings.Provider),
		zap.Int("embedding_dimension", deps.embedder.Dimension()),
		zap.String("llm_model", cfg.LLM.Model))

	// Wire the query pipeline
	svc, err := initPipeline(deps, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	// Create HTTP server
	httpMetrics := httpserver.NewHTTPMetrics(logger.Underlying())
	srv, err := httpserver.NewServer(svc, deps.store, httpMetrics, logger.Underlying(), &httpserver.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("query_endpoint", "/api/v1/query"),
		zap.String("metrics_endpoint", "/metrics"))

	// Start server and block until cancellation or failure
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	// Drain the start error; echo reports ErrServerClosed on graceful shutdown
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}

	return nil
}

// dependencies holds all infrastructure dependencies.
type dependencies struct {
	embedder embeddings.Provider
	store    knowledge.Store
	model    llm.Client
}

// Close releases all infrastructure resources in reverse creation order.
func (d *dependencies) Close() {
	if d.model != nil {
		_ = d.model.Close()
	}
	if d.store != nil {
		_ = d.store.Close()
	}
	if d.embedder != nil {
		_ = d.embedder.Close()
	}
}

// initDependencies initializes all infrastructure dependencies.
//
// This function:
//  1. Creates the embedding provider (fastembed, TEI, or Ollama)
//  2. Opens the knowledge store (chromem or Qdrant) backed by the embedder
//  3. Creates the shared LLM client
func initDependencies(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*dependencies, error) {
	embCfg, err := cfg.EmbeddingsProviderConfig()
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewProvider(embCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	logger.Info(ctx, "embedding provider initialized",
		zap.String("provider", cfg.Embeddings.Provider),
		zap.String("model", cfg.Embeddings.Model))

	// A dimension mismatch corrupts every similarity search, so flag it
	// before the store fills up with unusable vectors.
	configuredSize := cfg.Knowledge.Chromem.VectorSize
	if cfg.Knowledge.Provider == "qdrant" {
		configuredSize = cfg.Knowledge.Qdrant.VectorSize
	}
	if dim := embedder.Dimension(); dim != configuredSize {
		logger.Warn(ctx, "embedding dimension does not match knowledge store vector size",
			zap.Int("embedding_dimension", dim),
			zap.Int("configured_vector_size", configuredSize))
	}

	storeCfg, err := cfg.KnowledgeStoreConfig()
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	store, err := knowledge.NewStore(storeCfg, embedder, logger.Underlying())
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to open knowledge store: %w", err)
	}

	logger.Info(ctx, "knowledge store initialized",
		zap.String("provider", cfg.Knowledge.Provider))

	model, err := llm.NewClient(cfg.LLMClientConfig())
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	return &dependencies{
		embedder: embedder,
		store:    store,
		model:    model,
	}, nil
}

// initPipeline wires the router, executor, and merger into the query
// pipeline service, with shared metrics attached.
func initPipeline(deps *dependencies, cfg *config.Config, logger *logging.Logger) (*pipeline.Service, error) {
	zlog := logger.Underlying()

	router, err := pipeline.NewRouter(deps.model, zlog)
	if err != nil {
		return nil, err
	}

	executor, err := pipeline.NewExecutor(deps.store, deps.model, pipeline.ExecutorConfig{
		TopK:        cfg.Pipeline.TopK,
		MaxParallel: cfg.Pipeline.MaxParallel,
	}, zlog)
	if err != nil {
		return nil, err
	}

	merger, err := pipeline.NewMerger(deps.model, zlog)
	if err != nil {
		return nil, err
	}

	svc, err := pipeline.NewService(router, executor, merger, zlog)
	if err != nil {
		return nil, err
	}

	// One metrics instance shared by the stages that record
	metrics := pipeline.NewMetrics(zlog)
	svc.SetMetrics(metrics)
	executor.SetMetrics(metrics)

	return svc, nil
}
