package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/amaumene/cinearchive/internal/collection"
	"github.com/amaumene/cinearchive/internal/config"
	"github.com/amaumene/cinearchive/internal/enrichment"
	"github.com/amaumene/cinearchive/internal/metrics"
	"github.com/amaumene/cinearchive/internal/models"
	"github.com/amaumene/cinearchive/internal/remote"
	"github.com/amaumene/cinearchive/internal/services/gemini"
	"github.com/amaumene/cinearchive/internal/utils"
	"github.com/sirupsen/logrus"
)

// app holds the wired components shared by every command
type app struct {
	cfg             *config.Config
	logger          *logrus.Logger
	db              *models.Database
	metrics         *metrics.Metrics
	store           *collection.Store
	gateway         *enrichment.Gateway
	shutdownTracing func(context.Context) error
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if user := strings.TrimSpace(opts.userID); user != "" {
		cfg.UserID = user
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	// 2. Setup logger and tracing
	logger := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Debug("Configuration loaded")
	a := &app{
		cfg:             cfg,
		logger:          logger,
		shutdownTracing: utils.SetupTracing("cinearchive", logger),
	}

	// 3. Initialize database
	a.db, err = models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 4. Collection store on top of the local remote adapter
	a.metrics = metrics.New()
	a.store = collection.NewStore(remote.NewBoltAdapter(a.db, logger), a.metrics, logger)

	// 5. Enrichment
	geminiClient, err := gemini.NewClient(cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	cacheTTL := time.Duration(cfg.EnrichmentCacheMinutes) * time.Minute
	a.gateway = enrichment.NewGateway(geminiClient, a.store, cacheTTL, a.metrics, logger)

	// 6. Attach the configured user
	if err := a.store.Attach(ctx, cfg.UserID); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to attach collection: %w", err)
	}

	return a, nil
}

// waitForSnapshot blocks until the first snapshot is mirrored
func (a *app) waitForSnapshot(ctx context.Context, timeout time.Duration) error {
	select {
	case <-a.store.Updates():
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for collection snapshot")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Detach()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close database")
		}
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}
}
