package conversion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/detailerhq/detailer/internal/services/deck"
	badgerstorage "github.com/detailerhq/detailer/internal/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// countingExtractor returns a fixed page count per document and counts
// invocations, with an optional delay to widen concurrency windows.
type countingExtractor struct {
	pages int
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (e *countingExtractor) ExtractPages(ctx context.Context, ref models.DocumentRef, opts interfaces.ExtractOptions) ([]interfaces.PageImage, error) {
	e.calls.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.err != nil {
		return nil, e.err
	}
	pages := make([]interfaces.PageImage, 0, e.pages)
	for i := 1; i <= e.pages; i++ {
		pages = append(pages, interfaces.PageImage{
			PageNumber:   i,
			RasterHandle: fmt.Sprintf("/pages/%s/page_%03d.png", ref.DocumentID, i),
		})
	}
	return pages, nil
}

func newTestOrchestrator(t *testing.T, extractor interfaces.PageExtractor) (*Orchestrator, interfaces.PresentationStorage, *deck.Repository) {
	t.Helper()

	root := t.TempDir()
	logger := arbor.NewLogger()

	manager, err := badgerstorage.NewManager(logger, &common.StorageConfig{
		Badger:     common.BadgerConfig{Path: filepath.Join(root, "db")},
		Filesystem: common.FilesystemConfig{Pages: filepath.Join(root, "pages")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	decks := deck.NewRepository(logger)
	orchestrator := NewOrchestrator(manager.Presentations(), extractor, decks, common.NewDefaultConfig(), logger)
	return orchestrator, manager.Presentations(), decks
}

func docRef(documentID string) models.DocumentRef {
	return models.DocumentRef{
		DocumentID: documentID,
		SourceURI:  "/docs/" + documentID + ".pdf",
		MimeKind:   models.MimeKindPDF,
	}
}

func TestConvert(t *testing.T) {
	extractor := &countingExtractor{pages: 3}
	orchestrator, cache, decks := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	result, err := orchestrator.Convert(ctx, docRef("brochure-1"))
	require.NoError(t, err)

	assert.False(t, result.CacheHit)
	assert.False(t, result.Fallback)
	assert.Equal(t, models.StateConverted, result.State)
	assert.Equal(t, "brochure-1", result.Presentation.Title)
	assert.Equal(t, 3, result.Presentation.TotalPages)

	// Fresh slides carry the source page sequence as both order and page
	// number, grouped under the default group.
	for i, slide := range result.Presentation.Slides {
		assert.Equal(t, i+1, slide.Order)
		assert.Equal(t, i+1, slide.PageNumber)
		assert.Equal(t, DefaultGroup, slide.Group)
		assert.Equal(t, fmt.Sprintf("Page %d", i+1), slide.Title)
	}

	// The record is cached and the canonical deck seeded.
	exists, err := cache.Has(ctx, "brochure-1")
	require.NoError(t, err)
	assert.True(t, exists)

	slides, err := decks.Deck("brochure-1")
	require.NoError(t, err)
	assert.Len(t, slides, 3)

	assert.Equal(t, models.StateConverted, orchestrator.State("brochure-1"))
}

func TestConvertIdempotent(t *testing.T) {
	extractor := &countingExtractor{pages: 2}
	orchestrator, _, _ := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	first, err := orchestrator.Convert(ctx, docRef("brochure-1"))
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := orchestrator.Convert(ctx, docRef("brochure-1"))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, int32(1), extractor.calls.Load(), "repeat request must not re-extract")

	// Same slide identities on the cache hit.
	require.Len(t, second.Presentation.Slides, 2)
	assert.Equal(t, first.Presentation.Slides[0].ID, second.Presentation.Slides[0].ID)
}

func TestConvertCoalescesConcurrentRequests(t *testing.T) {
	extractor := &countingExtractor{pages: 2, delay: 100 * time.Millisecond}
	orchestrator, _, _ := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = orchestrator.Convert(ctx, docRef("brochure-1"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), extractor.calls.Load(), "concurrent requests must share one extraction")
	for i, result := range results {
		require.NoError(t, errs[i])
		require.NotNil(t, result)
		assert.Equal(t, 2, result.Presentation.TotalPages)
	}
}

func TestConvertFallback(t *testing.T) {
	extractor := &countingExtractor{err: fmt.Errorf("%w: renderer down", interfaces.ErrExtractionFailed)}
	orchestrator, cache, decks := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	result, err := orchestrator.Convert(ctx, docRef("bad-doc"))
	require.NoError(t, err, "extraction failure must degrade, not error")

	assert.True(t, result.Fallback)
	assert.Equal(t, models.StateFailedFallback, result.State)
	assert.NotEmpty(t, result.Presentation.Slides, "fallback deck is never empty")
	assert.Equal(t, models.StateFailedFallback, orchestrator.State("bad-doc"))

	// Nothing cached, nothing seeded: the failure is not sticky.
	exists, err := cache.Has(ctx, "bad-doc")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = decks.Deck("bad-doc")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))

	// Next request retries extraction; once the source converts, the real
	// deck replaces the placeholder.
	extractor.err = nil
	extractor.pages = 4

	retried, err := orchestrator.Convert(ctx, docRef("bad-doc"))
	require.NoError(t, err)
	assert.False(t, retried.Fallback)
	assert.Equal(t, 4, retried.Presentation.TotalPages)
	assert.Equal(t, int32(2), extractor.calls.Load())
}

func TestConvertZeroPagesFallsBack(t *testing.T) {
	extractor := &countingExtractor{pages: 0}
	orchestrator, cache, _ := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	result, err := orchestrator.Convert(ctx, docRef("empty-doc"))
	require.NoError(t, err)
	assert.True(t, result.Fallback)

	exists, err := cache.Has(ctx, "empty-doc")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConvertUnsupportedFormatSurfaces(t *testing.T) {
	extractor := &countingExtractor{err: fmt.Errorf("%w: not a pdf", interfaces.ErrUnsupportedFormat)}
	orchestrator, _, _ := newTestOrchestrator(t, extractor)

	_, err := orchestrator.Convert(context.Background(), docRef("scrambled"))
	assert.True(t, errors.Is(err, interfaces.ErrUnsupportedFormat))
	assert.Equal(t, models.StateUnconverted, orchestrator.State("scrambled"))
}

func TestConvertRejectsInvalidRef(t *testing.T) {
	extractor := &countingExtractor{pages: 1}
	orchestrator, _, _ := newTestOrchestrator(t, extractor)

	_, err := orchestrator.Convert(context.Background(), models.DocumentRef{SourceURI: "/docs/x.pdf", MimeKind: models.MimeKindPDF})
	assert.True(t, errors.Is(err, interfaces.ErrUnsupportedFormat))
	assert.Zero(t, extractor.calls.Load())
}

func TestInvalidate(t *testing.T) {
	extractor := &countingExtractor{pages: 2}
	orchestrator, cache, _ := newTestOrchestrator(t, extractor)
	ctx := context.Background()

	_, err := orchestrator.Convert(ctx, docRef("brochure-1"))
	require.NoError(t, err)

	require.NoError(t, orchestrator.Invalidate(ctx, "brochure-1"))
	assert.Equal(t, models.StateUnconverted, orchestrator.State("brochure-1"))

	exists, err := cache.Has(ctx, "brochure-1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Re-conversion extracts again.
	result, err := orchestrator.Convert(ctx, docRef("brochure-1"))
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, int32(2), extractor.calls.Load())
}
