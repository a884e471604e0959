package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// PresentationStorage implements the PresentationStorage interface for
// Badger. Raster artifacts for each record live under a per-document
// directory beneath pagesDir; deleting a record removes that namespace too.
type PresentationStorage struct {
	db       *BadgerDB
	pagesDir string
	logger   arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PresentationStorage = (*PresentationStorage)(nil)

// NewPresentationStorage creates a new PresentationStorage instance
func NewPresentationStorage(db *BadgerDB, pagesDir string, logger arbor.ILogger) *PresentationStorage {
	return &PresentationStorage{
		db:       db,
		pagesDir: pagesDir,
		logger:   logger,
	}
}

// Has reports whether a conversion record exists for the document.
func (s *PresentationStorage) Has(ctx context.Context, documentID string) (bool, error) {
	var record models.Presentation
	err := s.db.Store().Get(documentID, &record)
	if err == badgerhold.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: failed to check presentation %s: %v", interfaces.ErrStorageUnavailable, documentID, err)
	}
	return true, nil
}

// Get retrieves a conversion record by document ID.
func (s *PresentationStorage) Get(ctx context.Context, documentID string) (*models.Presentation, error) {
	var record models.Presentation
	err := s.db.Store().Get(documentID, &record)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("%w: presentation %s", interfaces.ErrNotFound, documentID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get presentation %s: %v", interfaces.ErrStorageUnavailable, documentID, err)
	}
	return &record, nil
}

// Put stores a conversion record, overwriting any previous record for the
// same document wholesale. The per-document artifact namespace is created
// if absent.
func (s *PresentationStorage) Put(ctx context.Context, record *models.Presentation) error {
	if record.ID == "" {
		return fmt.Errorf("presentation ID is required")
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	if err := os.MkdirAll(s.namespace(record.ID), 0755); err != nil {
		return fmt.Errorf("%w: failed to create artifact namespace for %s: %v", interfaces.ErrStorageUnavailable, record.ID, err)
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("%w: failed to save presentation %s: %v", interfaces.ErrStorageUnavailable, record.ID, err)
	}
	return nil
}

// Delete removes the record and its raster artifact namespace. Deleting an
// absent record is a no-op.
func (s *PresentationStorage) Delete(ctx context.Context, documentID string) error {
	err := s.db.Store().Delete(documentID, &models.Presentation{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("%w: failed to delete presentation %s: %v", interfaces.ErrStorageUnavailable, documentID, err)
	}

	if err := os.RemoveAll(s.namespace(documentID)); err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to remove artifact namespace")
	}
	return nil
}

// ListAll re-scans storage and returns every conversion record.
func (s *PresentationStorage) ListAll(ctx context.Context) ([]*models.Presentation, error) {
	var records []models.Presentation
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("%w: failed to list presentations: %v", interfaces.ErrStorageUnavailable, err)
	}

	result := make([]*models.Presentation, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

// namespace returns the artifact directory for one document.
func (s *PresentationStorage) namespace(documentID string) string {
	return filepath.Join(s.pagesDir, documentID)
}
