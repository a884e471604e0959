package models

import "time"

// ConversionState tracks the lifecycle of a document's conversion.
type ConversionState string

const (
	// StateUnconverted means no conversion has run (or the cache was cleared).
	StateUnconverted ConversionState = "unconverted"
	// StateConverting means an extraction is in flight.
	StateConverting ConversionState = "converting"
	// StateConverted is the terminal success state backed by a cached record.
	StateConverted ConversionState = "converted"
	// StateFailedFallback is the terminal state for a failed conversion,
	// served from the built-in fallback deck. It is never cached, so the
	// next request retries extraction.
	StateFailedFallback ConversionState = "failed_fallback"
)

// Presentation is the canonical conversion record for one document. It is
// produced by the conversion pipeline and replaced wholesale on
// re-conversion; it is never edited directly.
type Presentation struct {
	ID          string    `json:"id"` // document ID
	Title       string    `json:"title"`
	Slides      []Slide   `json:"slides"`
	TotalPages  int       `json:"total_pages"`
	ConvertedAt time.Time `json:"converted_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the presentation.
func (p *Presentation) Clone() *Presentation {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Slides = CloneSlides(p.Slides)
	return &clone
}
