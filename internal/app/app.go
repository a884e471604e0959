package app

import (
	"fmt"
	"os"

	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/services/conversion"
	"github.com/detailerhq/detailer/internal/services/deck"
	"github.com/detailerhq/detailer/internal/services/export"
	"github.com/detailerhq/detailer/internal/services/extraction"
	"github.com/detailerhq/detailer/internal/services/janitor"
	"github.com/detailerhq/detailer/internal/services/overlay"
	badgerstorage "github.com/detailerhq/detailer/internal/storage/badger"
	"github.com/ternarybob/arbor"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Conversion pipeline
	Extractor      *extraction.Service
	DeckRepository *deck.Repository
	Orchestrator   *conversion.Orchestrator

	// Per-user customization
	OverlayService *overlay.Service

	// Supporting services
	JanitorService *janitor.Service
	ExportService  *export.Service
}

// New wires the application from configuration. Components are constructed
// leaves-first: storage, then the extraction capability, then the
// orchestrator on top.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	if err := os.MkdirAll(config.Storage.Filesystem.Pages, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pages directory: %w", err)
	}

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	rasterizer := extraction.NewPDFRasterizer(logger)
	extractor := extraction.NewService(rasterizer, config.Storage.Filesystem.Pages, logger)

	decks := deck.NewRepository(logger)
	orchestrator := conversion.NewOrchestrator(storageManager.Presentations(), extractor, decks, config, logger)

	overlayService := overlay.NewService(storageManager.Overlays(), logger)

	janitorService, err := janitor.NewService(storageManager.Presentations(), &config.Janitor, logger)
	if err != nil {
		storageManager.Close()
		return nil, err
	}

	app := &App{
		Config:         config,
		Logger:         logger,
		StorageManager: storageManager,
		Extractor:      extractor,
		DeckRepository: decks,
		Orchestrator:   orchestrator,
		OverlayService: overlayService,
		JanitorService: janitorService,
		ExportService:  export.NewService(logger),
	}

	if config.Janitor.Enabled {
		if err := janitorService.Start(config.Janitor.Schedule); err != nil {
			app.Close()
			return nil, err
		}
	}

	return app, nil
}

// Close shuts down background services and the storage connection.
func (a *App) Close() error {
	if a.JanitorService != nil {
		a.JanitorService.Stop()
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
