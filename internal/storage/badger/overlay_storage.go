package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// OverlayStorage implements the OverlayStorage interface for Badger.
// Overlays are keyed by the composite OverlayKey so user and document ids
// can never collide through concatenation.
type OverlayStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.OverlayStorage = (*OverlayStorage)(nil)

// NewOverlayStorage creates a new OverlayStorage instance
func NewOverlayStorage(db *BadgerDB, logger arbor.ILogger) *OverlayStorage {
	return &OverlayStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves an overlay by its composite key.
func (s *OverlayStorage) Get(ctx context.Context, key models.OverlayKey) (*models.UserOverlay, error) {
	var overlay models.UserOverlay
	err := s.db.Store().Get(key, &overlay)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("%w: user %s, document %s", interfaces.ErrOverlayNotFound, key.UserID, key.DocumentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get overlay: %v", interfaces.ErrStorageUnavailable, err)
	}
	return &overlay, nil
}

// Save stores an overlay as a full replace, stamping UpdatedAt and
// preserving CreatedAt across rewrites.
func (s *OverlayStorage) Save(ctx context.Context, overlay *models.UserOverlay) error {
	if overlay.UserID == "" || overlay.DocumentID == "" {
		return fmt.Errorf("overlay requires user and document IDs")
	}

	now := time.Now()
	if overlay.CreatedAt.IsZero() {
		overlay.CreatedAt = now
	}
	overlay.UpdatedAt = now

	// Preserve CreatedAt if the overlay already exists
	var existing models.UserOverlay
	if err := s.db.Store().Get(overlay.Key(), &existing); err == nil {
		overlay.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(overlay.Key(), overlay); err != nil {
		return fmt.Errorf("%w: failed to save overlay: %v", interfaces.ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes an overlay. Deleting an absent overlay is a no-op.
func (s *OverlayStorage) Delete(ctx context.Context, key models.OverlayKey) error {
	err := s.db.Store().Delete(key, &models.UserOverlay{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("%w: failed to delete overlay: %v", interfaces.ErrStorageUnavailable, err)
	}
	return nil
}

// ListByUser returns all overlays belonging to one user.
func (s *OverlayStorage) ListByUser(ctx context.Context, userID string) ([]*models.UserOverlay, error) {
	var overlays []models.UserOverlay
	err := s.db.Store().Find(&overlays, badgerhold.Where("UserID").Eq(userID))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list overlays for user %s: %v", interfaces.ErrStorageUnavailable, userID, err)
	}

	result := make([]*models.UserOverlay, len(overlays))
	for i := range overlays {
		result[i] = &overlays[i]
	}
	return result, nil
}
