// -----------------------------------------------------------------------
// Storage Interfaces - Durable persistence for conversion records and
// per-user overlays
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/detailerhq/detailer/internal/models"
)

// PresentationStorage persists canonical conversion records keyed by
// document ID. The conversion orchestrator is the single writer; a record
// put here is an idempotent overwrite and Get returns slides in exactly the
// order Put stored them.
type PresentationStorage interface {
	// Has reports whether a conversion record exists. Never triggers
	// extraction.
	Has(ctx context.Context, documentID string) (bool, error)

	// Get retrieves a record, or ErrNotFound.
	Get(ctx context.Context, documentID string) (*models.Presentation, error)

	// Put stores a record, creating the per-document namespace if absent
	// and overwriting any previous record wholesale.
	Put(ctx context.Context, record *models.Presentation) error

	// Delete removes the record and all raster artifacts in its namespace.
	// Deleting an absent record is a no-op.
	Delete(ctx context.Context, documentID string) error

	// ListAll re-scans storage and returns every conversion record.
	// Order is unspecified.
	ListAll(ctx context.Context) ([]*models.Presentation, error)
}

// OverlayStorage persists per-(user, document) deck overlays. Overlays
// never share mutable state with each other or with canonical records.
type OverlayStorage interface {
	// Get retrieves an overlay, or ErrOverlayNotFound.
	Get(ctx context.Context, key models.OverlayKey) (*models.UserOverlay, error)

	// Save stores an overlay (full replace) and stamps UpdatedAt.
	Save(ctx context.Context, overlay *models.UserOverlay) error

	// Delete removes an overlay. Deleting an absent overlay is a no-op.
	Delete(ctx context.Context, key models.OverlayKey) error

	// ListByUser returns all overlays belonging to one user.
	ListByUser(ctx context.Context, userID string) ([]*models.UserOverlay, error)
}

// StorageManager aggregates the storage interfaces behind one connection.
type StorageManager interface {
	Presentations() PresentationStorage
	Overlays() OverlayStorage
	Close() error
}
