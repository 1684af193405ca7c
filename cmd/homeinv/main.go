package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vbonduro/homeinv/internal/config"
	"github.com/vbonduro/homeinv/internal/db"
	"github.com/vbonduro/homeinv/internal/domain"
	"github.com/vbonduro/homeinv/internal/imagestore"
	"github.com/vbonduro/homeinv/internal/imagestore/local"
	"github.com/vbonduro/homeinv/internal/imagestore/s3"
	"github.com/vbonduro/homeinv/internal/logging"
	"github.com/vbonduro/homeinv/internal/metrics"
	"github.com/vbonduro/homeinv/internal/service"
	"github.com/vbonduro/homeinv/internal/store"
	"github.com/vbonduro/homeinv/internal/vision"
	claudevision "github.com/vbonduro/homeinv/internal/vision/claude"
	ollamavision "github.com/vbonduro/homeinv/internal/vision/ollama"
	"github.com/vbonduro/homeinv/internal/web"
	"github.com/vbonduro/homeinv/internal/web/templates"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("homeinv exited", "error", err)
		cleanup()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, closeDocs, err := newDocumentStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDocs()

	images, err := newImageStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	svc, err := service.NewInventoryService(ctx, docs, images, newSuggester(cfg, logger), m, logger)
	if err != nil {
		return err
	}

	server := web.NewServer(svc, templates.FS, m.Handler(), logger)
	httpServer := server.HTTPServer(cfg.ListenAddr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type documentStore interface {
	Load(ctx context.Context) (*domain.Inventory, error)
	Save(ctx context.Context, inv *domain.Inventory) error
}

func newDocumentStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (documentStore, func(), error) {
	closeDB := func(database *sql.DB) func() {
		return func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
	}

	switch cfg.DocumentBackend {
	case config.DocumentSQLite:
		database, err := db.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite document store", "path", cfg.SQLitePath)
		return store.NewSQLiteStore(database), closeDB(database), nil
	case config.DocumentPostgres:
		database, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using postgres document store")
		return store.NewPostgresStore(database), closeDB(database), nil
	default:
		fileStore, err := store.NewFileStore(cfg.DocumentPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file document store", "path", cfg.DocumentPath)
		return fileStore, func() {}, nil
	}
}

func newImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imagestore.ImageStore, error) {
	if cfg.ImageBackend == config.ImageS3 {
		logger.Info("using s3 image store", "bucket", cfg.S3Bucket)
		images, err := s3.New(ctx, s3.Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,

			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return images, nil
	}
	logger.Info("using local image store", "path", cfg.ImagePath)
	images, err := local.NewLocalImageStore(cfg.ImagePath)
	if err != nil {
		return nil, err
	}
	return images, nil
}

// newSuggester returns nil when name suggestions are disabled.
func newSuggester(cfg *config.Config, logger *slog.Logger) vision.Suggester {
	switch cfg.VisionBackend {
	case config.VisionClaude:
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case config.VisionOllama:
		logger.Info("using Ollama vision backend", "model", cfg.OllamaModel)
		return ollamavision.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Info("name suggestions disabled")
		return nil
	}
}
