// -----------------------------------------------------------------------
// Overlay Service - Per-user deck customization on top of the canonical
// conversion record
// -----------------------------------------------------------------------

package overlay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/ternarybob/arbor"
)

// Service manages per-(user, document) overlays. An overlay starts as a
// deep clone of the canonical record and diverges through user edits;
// mutating it never writes back to the canonical record or to any other
// user's overlay.
type Service struct {
	storage interfaces.OverlayStorage
	logger  arbor.ILogger
}

// NewService creates a new overlay service
func NewService(storage interfaces.OverlayStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// GetOrInit returns the user's existing overlay for a document, or
// initializes one by cloning the canonical record and persisting it before
// returning. A nil canonical record yields an empty overlay: "no content
// yet" is not an error.
func (s *Service) GetOrInit(ctx context.Context, userID, documentID string, canonical *models.Presentation) (*models.UserOverlay, error) {
	key := models.OverlayKey{UserID: userID, DocumentID: documentID}

	existing, err := s.storage.Get(ctx, key)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, interfaces.ErrOverlayNotFound) {
		return nil, err
	}

	overlay := &models.UserOverlay{
		UserID:     userID,
		DocumentID: documentID,
		Slides:     []models.Slide{},
	}
	if canonical != nil {
		overlay.Slides = models.CloneSlides(canonical.Slides)
	}

	if err := s.storage.Save(ctx, overlay); err != nil {
		return nil, fmt.Errorf("failed to initialize overlay: %w", err)
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("document_id", documentID).
		Int("slides", len(overlay.Slides)).
		Msg("Initialized overlay from canonical record")

	return overlay, nil
}

// Save persists an overlay as a full replace and stamps UpdatedAt. A
// storage failure is surfaced but does not roll back the caller's in-memory
// overlay; the caller decides whether to retry.
func (s *Service) Save(ctx context.Context, overlay *models.UserOverlay) error {
	overlay.UpdatedAt = time.Now()
	return s.storage.Save(ctx, overlay)
}

// Reset discards the user's overlay and reinitializes it from the canonical
// record.
func (s *Service) Reset(ctx context.Context, userID, documentID string, canonical *models.Presentation) (*models.UserOverlay, error) {
	key := models.OverlayKey{UserID: userID, DocumentID: documentID}

	if err := s.storage.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to reset overlay: %w", err)
	}

	return s.GetOrInit(ctx, userID, documentID, canonical)
}

// Snapshot returns the overlay's current persisted state for the sync
// layer. The snapshot is internally consistent: slides carry valid dense
// order values at any read.
func (s *Service) Snapshot(ctx context.Context, userID, documentID string) (*models.UserOverlay, error) {
	return s.storage.Get(ctx, models.OverlayKey{UserID: userID, DocumentID: documentID})
}
