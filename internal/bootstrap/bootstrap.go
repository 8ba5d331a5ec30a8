// Package bootstrap provides dependency initialization for the video
// generation API.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/promovia/videogen-api/internal/asset"
	"github.com/promovia/videogen-api/internal/config"
	"github.com/promovia/videogen-api/internal/job"
	"github.com/promovia/videogen-api/internal/mediagen"
	"github.com/promovia/videogen-api/internal/minimax"
	"github.com/promovia/videogen-api/internal/orchestrator"
	"github.com/promovia/videogen-api/internal/poll"
	"github.com/promovia/videogen-api/internal/resolve"
	"github.com/promovia/videogen-api/internal/runway"
	"github.com/promovia/videogen-api/internal/storage"
	"github.com/promovia/videogen-api/internal/vidu"
)

// ErrNoAdapters is returned when no provider adapter could be initialized.
var ErrNoAdapters = errors.New("bootstrap: no provider adapters configured")

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Generations *job.GenerationService
	Providers   []mediagen.Provider
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	preparer := asset.NewPreparer(store, logger)
	engine := poll.NewEngine(
		poll.WithMaxAttempts(cfg.PollMaxAttempts),
		poll.WithInterval(cfg.PollInterval()),
		poll.WithProgressStep(cfg.PollProgressStep),
		poll.WithLogger(logger),
	)
	resolver := resolve.NewResolver(resolve.WithLogger(logger))

	orch := orchestrator.NewService(preparer, engine, resolver, logger)

	if err := registerAdapters(orch, cfg, logger); err != nil {
		return nil, err
	}
	providers := orch.Providers()
	if len(providers) == 0 {
		return nil, ErrNoAdapters
	}
	logger.Info("provider adapters configured",
		slog.Any("providers", providers),
	)

	repo := job.NewMemoryRepository()
	svc := job.NewGenerationService(repo, orch, logger)

	return &Dependencies{
		Generations: svc,
		Providers:   providers,
	}, nil
}

// registerAdapters wires one adapter per configured provider key.
func registerAdapters(orch *orchestrator.Service, cfg *config.Config, logger *slog.Logger) error {
	if cfg.RunwayAPIKey != "" {
		client, err := runway.NewClient(runway.WithAPIKey(cfg.RunwayAPIKey))
		if err != nil {
			return fmt.Errorf("create Runway client: %w", err)
		}
		orch.RegisterAdapter(mediagen.NewRunwayAdapter(client, logger))
	}

	if cfg.ViduAPIKey != "" {
		client, err := vidu.NewClient(vidu.WithAPIKey(cfg.ViduAPIKey))
		if err != nil {
			return fmt.Errorf("create Vidu client: %w", err)
		}
		orch.RegisterAdapter(mediagen.NewViduAdapter(client, logger))
	}

	if cfg.MiniMaxAPIKey != "" {
		client, err := minimax.NewClient(minimax.WithAPIKey(cfg.MiniMaxAPIKey))
		if err != nil {
			return fmt.Errorf("create MiniMax client: %w", err)
		}
		orch.RegisterAdapter(mediagen.NewMiniMaxAdapter(client, logger))
	}

	return nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 asset storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.AssetDir, cfg.AssetBaseURL)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local asset storage configured",
		slog.String("asset_dir", cfg.AssetDir),
		slog.String("base_url", cfg.AssetBaseURL),
	)
	return localStore, nil
}
