package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/p2p_loan_tracker/internal/adapters/blobstore/gcs"
	"github.com/SscSPs/p2p_loan_tracker/internal/adapters/blobstore/memblob"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/ports/storage"
	"github.com/SscSPs/p2p_loan_tracker/internal/core/services"
	"github.com/SscSPs/p2p_loan_tracker/internal/handlers"
	"github.com/SscSPs/p2p_loan_tracker/internal/middleware"
	"github.com/SscSPs/p2p_loan_tracker/internal/platform/config"
	"github.com/SscSPs/p2p_loan_tracker/internal/repositories/database/pgsql"
	"github.com/SscSPs/p2p_loan_tracker/internal/utils"
	"github.com/SscSPs/p2p_loan_tracker/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, cfg.DBStatementTimeout)
	if err != nil {
		return fmt.Errorf("failed to initialize database pool: %w", err)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	blobs, closeBlobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBlobs()

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer, err := services.NewServiceContainer(cfg, repos, blobs, logger)
	if err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}

	if cfg.AccrualEnabled {
		if err := serviceContainer.Accrual.Start(); err != nil {
			return fmt.Errorf("failed to start accrual scheduler: %w", err)
		}
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	// Global middleware (logging, recovery, analytics)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), middleware.PosthogMiddleware(posthogClient))

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	// Multipart parts beyond this are spooled to disk by net/http.
	r.MaxMultipartMemory = cfg.MaxUploadBytes * int64(max(cfg.MaxUploadFiles, 1))

	if err := handlers.RegisterRoutes(r, cfg, serviceContainer); err != nil {
		return fmt.Errorf("failed to register routes: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed to run: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	if cfg.AccrualEnabled {
		if err := serviceContainer.Accrual.Stop(shutdownCtx); err != nil {
			logger.Error("Accrual scheduler did not stop cleanly", slog.String("error", err.Error()))
		}
	}
	logger.Info("Server stopped")
	return nil
}

// newBlobStore builds the configured blob backend and a func releasing it.
func newBlobStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.BlobStore, func(), error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMemory:
		logger.Warn("Using in-memory blob store; documents are lost on restart")
		return memblob.New(cfg.BlobDeleteBatchLimit), func() {}, nil
	case config.BlobBackendGCS:
		opts := []gcs.Option{
			gcs.WithBatchLimit(cfg.BlobDeleteBatchLimit),
			gcs.WithOpTimeout(cfg.BlobOpTimeout),
		}
		if cfg.GCSSignerEmail != "" && cfg.GCSPrivateKeyPath != "" {
			key, err := os.ReadFile(cfg.GCSPrivateKeyPath)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to read GCS signing key: %w", err)
			}
			opts = append(opts, gcs.WithSigner(cfg.GCSSignerEmail, key))
		}
		store, err := gcs.New(ctx, cfg.GCSBucket, nil, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		logger.Info("GCS blob store ready", slog.String("bucket", cfg.GCSBucket))
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close GCS client", slog.String("error", err.Error()))
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
