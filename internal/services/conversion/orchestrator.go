// -----------------------------------------------------------------------
// Conversion Orchestrator - Idempotent document-to-deck conversion with
// cache reuse and fallback
// -----------------------------------------------------------------------

package conversion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/detailerhq/detailer/internal/services/deck"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"
)

// DefaultGroup is the group assigned to freshly converted slides.
const DefaultGroup = "Default"

// Result is the outcome of a conversion request. Fallback is true when the
// slides come from the built-in placeholder deck rather than a real
// conversion; such a result is never cached and the next request retries
// extraction.
type Result struct {
	Presentation *models.Presentation
	State        models.ConversionState
	CacheHit     bool
	Fallback     bool
}

// Orchestrator coordinates the conversion state machine per document:
// UNCONVERTED -> CONVERTING -> CONVERTED, or -> FAILED_FALLBACK when
// extraction is unavailable. It is the single writer to the presentation
// cache and the only place idempotence and failure policy live; every other
// component is a passive data holder.
type Orchestrator struct {
	cache     interfaces.PresentationStorage
	extractor interfaces.PageExtractor
	decks     *deck.Repository
	fallback  []common.FallbackSlide
	options   interfaces.ExtractOptions
	logger    arbor.ILogger

	// flight coalesces concurrent requests per document ID so a second
	// caller awaits the first extraction instead of starting another.
	flight singleflight.Group

	stateMu sync.Mutex
	states  map[string]models.ConversionState
}

// NewOrchestrator creates a conversion orchestrator
func NewOrchestrator(
	cache interfaces.PresentationStorage,
	extractor interfaces.PageExtractor,
	decks *deck.Repository,
	config *common.Config,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		cache:     cache,
		extractor: extractor,
		decks:     decks,
		fallback:  config.Fallback.Slides,
		options: interfaces.ExtractOptions{
			Format:  config.Extraction.Format,
			DPI:     config.Extraction.DPI,
			Quality: config.Extraction.Quality,
		},
		logger: logger,
		states: make(map[string]models.ConversionState),
	}
}

// Convert returns the deck for a document, reusing the cached conversion
// when present and extracting otherwise. Repeated requests for the same
// document never re-extract; concurrent requests share one extraction.
func (o *Orchestrator) Convert(ctx context.Context, ref models.DocumentRef) (*Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnsupportedFormat, err)
	}

	v, err, _ := o.flight.Do(ref.DocumentID, func() (interface{}, error) {
		return o.convert(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (o *Orchestrator) convert(ctx context.Context, ref models.DocumentRef) (*Result, error) {
	has, err := o.cache.Has(ctx, ref.DocumentID)
	if err != nil {
		return nil, err
	}

	if has {
		record, err := o.cache.Get(ctx, ref.DocumentID)
		if err != nil {
			return nil, err
		}
		o.decks.Seed(record.ID, record.Slides)
		o.setState(ref.DocumentID, models.StateConverted)

		o.logger.Debug().
			Str("document_id", ref.DocumentID).
			Int("slides", len(record.Slides)).
			Msg("Conversion cache hit")

		return &Result{
			Presentation: record,
			State:        models.StateConverted,
			CacheHit:     true,
		}, nil
	}

	o.setState(ref.DocumentID, models.StateConverting)

	pages, err := o.extractor.ExtractPages(ctx, ref, o.options)
	if errors.Is(err, interfaces.ErrUnsupportedFormat) {
		// Bad input kind is not recoverable by falling back; surface it.
		o.setState(ref.DocumentID, models.StateUnconverted)
		return nil, err
	}
	if err != nil || len(pages) == 0 {
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("document_id", ref.DocumentID).
				Msg("Extraction failed, serving fallback deck")
		}
		o.setState(ref.DocumentID, models.StateFailedFallback)
		return o.fallbackResult(ref), nil
	}

	record := o.buildRecord(ref, pages)

	if err := o.cache.Put(ctx, record); err != nil {
		return nil, err
	}
	o.decks.Seed(record.ID, record.Slides)
	o.setState(ref.DocumentID, models.StateConverted)

	o.logger.Info().
		Str("document_id", ref.DocumentID).
		Int("total_pages", record.TotalPages).
		Msg("Document converted")

	return &Result{
		Presentation: record,
		State:        models.StateConverted,
	}, nil
}

// Invalidate removes a document's cached conversion so the next request
// re-extracts. Used when the admin replaces the source document.
func (o *Orchestrator) Invalidate(ctx context.Context, documentID string) error {
	if err := o.cache.Delete(ctx, documentID); err != nil {
		return err
	}
	o.setState(documentID, models.StateUnconverted)
	return nil
}

// State reports the last observed conversion state for a document.
func (o *Orchestrator) State(documentID string) models.ConversionState {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	if state, ok := o.states[documentID]; ok {
		return state
	}
	return models.StateUnconverted
}

func (o *Orchestrator) setState(documentID string, state models.ConversionState) {
	o.stateMu.Lock()
	o.states[documentID] = state
	o.stateMu.Unlock()
}

// buildRecord assembles the canonical presentation record from extracted
// pages. Order and PageNumber both start out as the source page sequence.
func (o *Orchestrator) buildRecord(ref models.DocumentRef, pages []interfaces.PageImage) *models.Presentation {
	slides := make([]models.Slide, 0, len(pages))
	for _, page := range pages {
		slides = append(slides, models.Slide{
			ID:         common.NewSlideID(),
			Title:      fmt.Sprintf("Page %d", page.PageNumber),
			ImageRef:   page.RasterHandle,
			Group:      DefaultGroup,
			Order:      page.PageNumber,
			PageNumber: page.PageNumber,
		})
	}

	return &models.Presentation{
		ID:          ref.DocumentID,
		Title:       documentTitle(ref),
		Slides:      slides,
		TotalPages:  len(slides),
		ConvertedAt: time.Now(),
	}
}

// fallbackResult synthesizes the placeholder deck. It is never written to
// the cache or seeded as a canonical deck: the next request retries
// extraction instead of reusing a cached failure.
func (o *Orchestrator) fallbackResult(ref models.DocumentRef) *Result {
	slides := make([]models.Slide, 0, len(o.fallback))
	for i, fb := range o.fallback {
		slides = append(slides, models.Slide{
			ID:         common.NewSlideID(),
			Title:      fb.Title,
			ImageRef:   fb.ImageRef,
			Group:      DefaultGroup,
			Order:      i + 1,
			PageNumber: i + 1,
		})
	}

	return &Result{
		Presentation: &models.Presentation{
			ID:         ref.DocumentID,
			Title:      documentTitle(ref),
			Slides:     slides,
			TotalPages: len(slides),
		},
		State:    models.StateFailedFallback,
		Fallback: true,
	}
}

// documentTitle derives a display title from the source file name.
func documentTitle(ref models.DocumentRef) string {
	base := filepath.Base(ref.SourceURI)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
