// -----------------------------------------------------------------------
// Page Extraction Service - Materialize ordered raster pages from a
// source document (PDF, image archive, or single file)
// -----------------------------------------------------------------------

package extraction

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
)

// imageExtensions lists the archive entry types recognized as slide images.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
}

// Service implements the PageExtractor interface. PDF sources are handed to
// the pluggable rasterization capability; image archives are unpacked
// directly into the per-document page namespace.
type Service struct {
	rasterizer interfaces.Rasterizer
	pagesDir   string
	validate   *validator.Validate
	logger     arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.PageExtractor = (*Service)(nil)

// NewService creates a new page extraction service
func NewService(rasterizer interfaces.Rasterizer, pagesDir string, logger arbor.ILogger) *Service {
	return &Service{
		rasterizer: rasterizer,
		pagesDir:   pagesDir,
		validate:   validator.New(),
		logger:     logger,
	}
}

// NormalizeOptions applies defaults to unset extract options and validates
// the result.
func (s *Service) NormalizeOptions(opts *interfaces.ExtractOptions) error {
	if opts.Format == "" {
		opts.Format = "png"
	}
	if opts.DPI == 0 {
		opts.DPI = 150
	}
	if opts.Quality == 0 {
		opts.Quality = 90
	}
	if err := s.validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid extract options: %w", err)
	}
	return nil
}

// ExtractPages produces the full ordered page sequence for a document. The
// sequence is materialized before returning; page order matches the source.
func (s *Service) ExtractPages(ctx context.Context, ref models.DocumentRef, opts interfaces.ExtractOptions) ([]interfaces.PageImage, error) {
	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnsupportedFormat, err)
	}
	if err := s.NormalizeOptions(&opts); err != nil {
		return nil, err
	}

	switch ref.MimeKind {
	case models.MimeKindPDF:
		return s.extractPDF(ctx, ref, opts)
	case models.MimeKindZipImages:
		return s.extractZip(ctx, ref)
	case models.MimeKindSingleFile:
		// One page, the source itself. The handle stays opaque.
		return []interfaces.PageImage{{PageNumber: 1, RasterHandle: ref.SourceURI}}, nil
	default:
		return nil, fmt.Errorf("%w: mime kind %q", interfaces.ErrUnsupportedFormat, ref.MimeKind)
	}
}

// extractPDF delegates to the external rasterization capability and maps
// its output into ordered page images. Rasterizer output is staged in a
// scratch directory; the per-document namespace is only replaced once
// rasterization has succeeded, so a re-conversion can never mix pages from
// two runs and two sources sharing a file name can never collide.
func (s *Service) extractPDF(ctx context.Context, ref models.DocumentRef, opts interfaces.ExtractOptions) ([]interfaces.PageImage, error) {
	scratch, err := os.MkdirTemp("", "detailer-raster-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrExtractionFailed, err)
	}
	defer os.RemoveAll(scratch)

	rasterPages, err := s.rasterizer.GenerateAllPages(ctx, ref.SourceURI, scratch, opts.Quality)
	if err != nil {
		if errors.Is(err, interfaces.ErrUnsupportedFormat) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrExtractionFailed, err)
	}
	if len(rasterPages) == 0 {
		return nil, fmt.Errorf("%w: rasterizer produced zero pages for %s", interfaces.ErrExtractionFailed, ref.DocumentID)
	}

	namespace, err := s.resetNamespace(ref.DocumentID)
	if err != nil {
		return nil, err
	}

	pages := make([]interfaces.PageImage, 0, len(rasterPages))
	for i, rp := range rasterPages {
		target := filepath.Join(namespace, fmt.Sprintf("page_%03d%s", i+1, strings.ToLower(filepath.Ext(rp.Path))))
		if err := moveFile(rp.Path, target); err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", interfaces.ErrExtractionFailed, i+1, err)
		}
		pages = append(pages, interfaces.PageImage{
			PageNumber:   i + 1,
			RasterHandle: target,
		})
	}

	s.logger.Debug().
		Str("document_id", ref.DocumentID).
		Int("pages", len(pages)).
		Msg("Extracted PDF pages")

	return pages, nil
}

// extractZip unpacks recognized image entries from a ZIP archive, ordered
// by entry name, into the per-document page namespace.
func (s *Service) extractZip(ctx context.Context, ref models.DocumentRef) ([]interfaces.PageImage, error) {
	reader, err := zip.OpenReader(ref.SourceURI)
	if err != nil {
		return nil, fmt.Errorf("%w: not a readable zip archive: %v", interfaces.ErrUnsupportedFormat, err)
	}
	defer reader.Close()

	var entries []*zip.File
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(f.Name)
		if strings.HasPrefix(name, ".") || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(name))] {
			entries = append(entries, f)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: archive contains no slide images", interfaces.ErrExtractionFailed)
	}

	// Entry name order defines page order for image archives.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})

	namespace, err := s.resetNamespace(ref.DocumentID)
	if err != nil {
		return nil, err
	}

	pages := make([]interfaces.PageImage, 0, len(entries))
	for i, entry := range entries {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", interfaces.ErrExtractionFailed, ctx.Err())
		}

		target := filepath.Join(namespace, fmt.Sprintf("page_%03d%s", i+1, strings.ToLower(filepath.Ext(entry.Name))))
		if err := extractEntry(entry, target); err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", interfaces.ErrExtractionFailed, entry.Name, err)
		}

		pages = append(pages, interfaces.PageImage{
			PageNumber:   i + 1,
			RasterHandle: target,
		})
	}

	s.logger.Debug().
		Str("document_id", ref.DocumentID).
		Int("pages", len(pages)).
		Msg("Extracted image archive pages")

	return pages, nil
}

// resetNamespace clears and recreates the per-document artifact directory
// so the new page set replaces the old one wholesale. Stale artifacts from a
// longer previous run must never survive a re-conversion.
func (s *Service) resetNamespace(documentID string) (string, error) {
	namespace := filepath.Join(s.pagesDir, documentID)
	if err := os.RemoveAll(namespace); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrExtractionFailed, err)
	}
	if err := os.MkdirAll(namespace, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrExtractionFailed, err)
	}
	return namespace, nil
}

// moveFile renames src to dst, falling back to a copy when the rename
// crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// extractEntry copies one archive entry to the target path.
func extractEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
