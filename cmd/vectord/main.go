// Vectord is a material indexing and collection discovery daemon.
//
// It exposes a REST API over an external Qdrant instance and an external
// embedding provider, managing collections, points, indexed materials and
// a governance registry for hybrid collection discovery.
//
// Usage:
//
//	# Start server with defaults
//	vectord
//
//	# Configure via file and environment
//	vectord -config /etc/vectord/config.yaml
//	SERVER_HTTP_PORT=8080 QDRANT_HOST=localhost vectord
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

	"go.uber.org/zap"

	"github.com/gaffar-dulkadir/vectord/internal/collections"
	"github.com/gaffar-dulkadir/vectord/internal/config"
	"github.com/gaffar-dulkadir/vectord/internal/embeddings"
	vectordhttp "github.com/gaffar-dulkadir/vectord/internal/http"
	"github.com/gaffar-dulkadir/vectord/internal/logging"
	"github.com/gaffar-dulkadir/vectord/internal/material"
	"github.com/gaffar-dulkadir/vectord/internal/registry"
	"github.com/gaffar-dulkadir/vectord/internal/telemetry"
	"github.com/gaffar-dulkadir/vectord/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/vectord/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  vectord           Start the vectord daemon\n")
			fmt.Fprintf(os.Stderr, "  vectord version   Show version information\n")
			os.Exit(1)
		}
	}

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

func printVersion() {
	fmt.Printf("vectord\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the vectord server and blocks until context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("Starting vectord",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	telemetryProvider, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Observability.EnableTelemetry,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Observability.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store, err := vectorstore.NewQdrantStore(cfg.QdrantStoreConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("vector store close failed", zap.Error(err))
		}
	}()

	logger.Info("Vector store initialized",
		zap.String("host", cfg.Qdrant.Host),
		zap.Int("port", cfg.Qdrant.Port))

	embedder, err := embeddings.NewClient(cfg.EmbeddingClientConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	logger.Info("Embedding client initialized",
		zap.String("base_url", cfg.Embeddings.BaseURL),
		zap.String("model", cfg.Embeddings.Model),
		zap.Int("vector_size", cfg.Embeddings.VectorSize))

	reg := registry.New(store, embedder, logger)
	if err := reg.EnsureReady(ctx); err != nil {
		return fmt.Errorf("failed to provision governance registry: %w", err)
	}

	manager := collections.NewManager(store, reg, logger)
	pipeline := material.NewPipeline(store, embedder, logger)

	srv, err := vectordhttp.NewServer(store, manager, reg, pipeline, logger, vectordhttp.Config{
		Port:    cfg.Server.Port,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
