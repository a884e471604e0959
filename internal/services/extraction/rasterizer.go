// -----------------------------------------------------------------------
// PDF Rasterizer - Split a source PDF into per-page artifacts
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
)

// PDFRasterizer implements the Rasterizer interface using pdfcpu. It splits
// the source document into single-page artifacts in the caller's scratch
// directory; a true image rasterizer can be swapped in without touching the
// pipeline.
type PDFRasterizer struct {
	logger arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.Rasterizer = (*PDFRasterizer)(nil)

// NewPDFRasterizer creates a new pdfcpu-backed rasterizer
func NewPDFRasterizer(logger arbor.ILogger) *PDFRasterizer {
	return &PDFRasterizer{
		logger: logger,
	}
}

// GenerateAllPages splits the source PDF into one artifact per page under
// outDir, returned in page order. A source with zero pages yields zero
// results rather than an error.
func (r *PDFRasterizer) GenerateAllPages(ctx context.Context, sourceURI, outDir string, quality int) ([]interfaces.RasterPage, error) {
	pdfCtx, err := api.ReadContextFile(sourceURI)
	if err != nil {
		return nil, fmt.Errorf("%w: not a parseable PDF: %v", interfaces.ErrUnsupportedFormat, err)
	}

	if pdfCtx.PageCount == 0 {
		return nil, nil
	}

	conf := model.NewDefaultConfiguration()
	if err := api.SplitFile(sourceURI, outDir, 1, conf); err != nil {
		return nil, fmt.Errorf("failed to split PDF: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	// pdfcpu names split output <base>_<page>.pdf; order numerically, not
	// lexically, so page 10 sorts after page 9.
	type numbered struct {
		page int
		path string
	}
	var found []numbered
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		page, ok := splitPageNumber(entry.Name())
		if !ok {
			continue
		}
		found = append(found, numbered{page: page, path: filepath.Join(outDir, entry.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].page < found[j].page })

	pages := make([]interfaces.RasterPage, 0, len(found))
	for _, f := range found {
		pages = append(pages, interfaces.RasterPage{Path: f.path})
	}

	r.logger.Debug().
		Str("source", sourceURI).
		Int("page_count", pdfCtx.PageCount).
		Int("artifacts", len(pages)).
		Msg("Split PDF into page artifacts")

	return pages, nil
}

// splitPageNumber parses the trailing page number from a pdfcpu split
// output filename (<base>_<page>.pdf).
func splitPageNumber(name string) (int, bool) {
	stem := strings.TrimSuffix(name, ".pdf")
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return 0, false
	}
	page, err := strconv.Atoi(stem[idx+1:])
	if err != nil {
		return 0, false
	}
	return page, true
}
