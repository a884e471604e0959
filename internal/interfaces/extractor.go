// -----------------------------------------------------------------------
// Page Extraction Interfaces - Convert source documents to raster pages
// -----------------------------------------------------------------------

package interfaces

import (
	"context"

	"github.com/detailerhq/detailer/internal/models"
)

// PageImage is one rasterized page of a source document. RasterHandle is
// opaque to the pipeline: a local file path, a remote URL, or a bundled
// asset id. Consumers must not assume a scheme.
type PageImage struct {
	PageNumber   int    `json:"page_number"`
	RasterHandle string `json:"raster_handle"`
}

// ExtractOptions controls page rasterization.
type ExtractOptions struct {
	Format  string `json:"format" validate:"oneof=png jpg"`
	DPI     int    `json:"dpi" validate:"gte=72,lte=1200"`
	Quality int    `json:"quality" validate:"gte=1,lte=100"`
}

// PageExtractor produces the ordered raster pages for a source document.
// The returned slice is fully materialized before the call returns so the
// pipeline knows the total page count up front, and page order matches the
// source exactly.
type PageExtractor interface {
	// ExtractPages rasterizes every page of the referenced document.
	// Returns ErrUnsupportedFormat for unparseable sources and
	// ErrExtractionFailed when the underlying capability errors or yields
	// zero pages.
	ExtractPages(ctx context.Context, ref models.DocumentRef, opts ExtractOptions) ([]PageImage, error)
}

// RasterPage is a single page produced by an external rasterization
// capability.
type RasterPage struct {
	Path string `json:"path"`
}

// Rasterizer abstracts the external page-to-image capability. It writes one
// artifact per page into outDir and returns them in page order; outDir is a
// caller-owned scratch location, so implementations never decide where
// artifacts finally live. Rasterizers are pluggable and frequently absent in
// mocked environments; implementations may legitimately return zero pages,
// which callers must treat as a degraded (fallback) condition rather than a
// crash.
type Rasterizer interface {
	GenerateAllPages(ctx context.Context, sourceURI, outDir string, quality int) ([]RasterPage, error)
}
