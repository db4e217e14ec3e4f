package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/adimport/internal/common"
	"github.com/ternarybob/adimport/internal/handlers"
	"github.com/ternarybob/adimport/internal/imports"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/adimport/internal/services/ads"
	"github.com/ternarybob/adimport/internal/storage"
	"github.com/ternarybob/arbor"
)

// shutdownTimeout bounds how long Close waits for running import workers
const shutdownTimeout = 10 * time.Second

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Import runner
	CancelStore interfaces.CancellationStore
	LogBuffer   *imports.LogBuffer
	Launcher    *imports.Launcher
	Streamer    *imports.Streamer
	Sweeper     *imports.Sweeper // nil unless buffer_retention is set
	AdProcessor *ads.Processor

	// HTTP handlers
	APIHandler           *handlers.APIHandler
	ImportHandler        *handlers.ImportHandler
	SSEImportLogsHandler *handlers.SSEImportLogsHandler
	WSImportLogsHandler  *handlers.WSImportLogsHandler
	AdHandler            *handlers.AdHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Str("cancel_backend", cfg.Import.CancelBackend).
		Dur("stream_tick", cfg.Import.StreamTickInterval()).
		Bool("buffer_sweeper", app.Sweeper != nil).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes the import runner in dependency order:
// cancellation store, log buffer, ad processor, launcher, streamer, sweeper
func (a *App) initServices() error {
	var err error

	a.CancelStore, err = storage.NewCancellationStore(a.Logger, a.Config, a.StorageManager.KeyValueStorage())
	if err != nil {
		return fmt.Errorf("failed to create cancellation store: %w", err)
	}
	a.warnOrphanedSignals()

	a.LogBuffer = imports.NewLogBuffer()

	a.AdProcessor = ads.NewProcessor(
		a.StorageManager.AdStorage(),
		a.Logger,
		ads.WithItemDelay(a.Config.Import.ItemDelayDuration()),
		ads.WithRateLimit(a.Config.Import.MaxItemsPerSecond),
	)

	a.Launcher = imports.NewLauncher(a.LogBuffer, a.CancelStore, a.AdProcessor, a.Config.Import.ChannelBuffer, a.Logger)
	a.Streamer = imports.NewStreamer(a.LogBuffer, a.CancelStore, a.Launcher.IsLive, a.Config.Import.StreamTickInterval(), a.Logger)

	if retention := a.Config.Import.RetentionDuration(); retention > 0 {
		a.Sweeper = imports.NewSweeper(a.LogBuffer, a.Launcher.IsLive, retention, a.Config.Import.SweepSchedule, a.Logger)
		if err := a.Sweeper.Start(); err != nil {
			return fmt.Errorf("failed to start log buffer sweeper: %w", err)
		}
	}

	return nil
}

// warnOrphanedSignals reports signals left by workers of a previous process.
// They are not cleared: a resubmitted task with the same id stops at its first item.
func (a *App) warnOrphanedSignals() {
	pending, err := a.CancelStore.Pending(context.Background())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to list pending cancellation signals")
		return
	}
	if len(pending) > 0 {
		a.Logger.Warn().
			Int("count", len(pending)).
			Strs("task_ids", pending).
			Msg("Pending cancellation signals found from a previous run")
	}
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.CancelStore, a.Config.Import.CancelBackend, a.Launcher, a.Logger)
	a.ImportHandler = handlers.NewImportHandler(a.Launcher, a.Logger)
	a.SSEImportLogsHandler = handlers.NewSSEImportLogsHandler(a.Streamer, a.Logger)
	a.WSImportLogsHandler = handlers.NewWSImportLogsHandler(a.Streamer, a.Logger)
	a.AdHandler = handlers.NewAdHandler(a.StorageManager.AdStorage(), a.Logger)
}

// Close stops background work and closes storage
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}

	if a.Launcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := a.Launcher.Close(ctx)
		cancel()
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Import workers did not stop in time")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
