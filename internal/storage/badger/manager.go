package badger

import (
	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db           *BadgerDB
	presentation interfaces.PresentationStorage
	overlay      interfaces.OverlayStorage
	logger       arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.StorageManager = (*Manager)(nil)

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.StorageConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, &config.Badger)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		presentation: NewPresentationStorage(db, config.Filesystem.Pages, logger),
		overlay:      NewOverlayStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// Presentations returns the Presentation storage interface
func (m *Manager) Presentations() interfaces.PresentationStorage {
	return m.presentation
}

// Overlays returns the Overlay storage interface
func (m *Manager) Overlays() interfaces.OverlayStorage {
	return m.overlay
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
