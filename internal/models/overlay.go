package models

import "time"

// OverlayKey identifies one user's customization of one document. It is a
// composite type rather than a concatenated string so that ("ab","c") and
// ("a","bc") can never collide.
type OverlayKey struct {
	UserID     string `json:"user_id"`
	DocumentID string `json:"document_id"`
}

// UserOverlay is a per-user copy of a deck that diverges from the canonical
// record through user edits. Overlays have an independent lifecycle:
// deleting or resetting one never affects the canonical record or any other
// user's overlay.
type UserOverlay struct {
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Slides     []Slide   `json:"slides"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key returns the composite storage key for this overlay.
func (o *UserOverlay) Key() OverlayKey {
	return OverlayKey{UserID: o.UserID, DocumentID: o.DocumentID}
}

// Clone returns a deep copy of the overlay.
func (o *UserOverlay) Clone() *UserOverlay {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Slides = CloneSlides(o.Slides)
	return &clone
}
