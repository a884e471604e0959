// -----------------------------------------------------------------------
// Export Service - Render a slide deck to a PDF handout
// -----------------------------------------------------------------------

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/detailerhq/detailer/internal/models"
	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
)

// Service renders decks (canonical or overlay) to a simple PDF handout:
// one page per slide with title, group, and the image where the slide's
// raster handle points at a local png/jpg file.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new export service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ExportDeck renders the slides to a PDF byte slice. Slides are rendered
// in ascending order grouped the way the viewer presents them.
func (s *Service) ExportDeck(title string, slides []models.Slide) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)

	groups := models.GroupSlides(slides)
	for _, group := range groups {
		for _, slide := range group.Slides {
			s.renderSlide(pdf, group.Name, slide)
		}
	}

	if len(slides) == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "I", 12)
		pdf.CellFormat(0, 10, "Empty deck", "", 1, "C", false, 0, "")
	}

	pdf.SetTitle(title, true)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate deck PDF: %w", err)
	}

	s.logger.Debug().
		Str("title", title).
		Int("slides", len(slides)).
		Int("pdf_size", buf.Len()).
		Msg("Exported deck to PDF")

	return buf.Bytes(), nil
}

// ExportToFile renders the deck and writes it to the given path.
func (s *Service) ExportToFile(title string, slides []models.Slide, path string) error {
	data, err := s.ExportDeck(title, slides)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write deck PDF: %w", err)
	}
	return nil
}

func (s *Service) renderSlide(pdf *fpdf.Fpdf, group string, slide models.Slide) {
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, slide.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("%s - slide %d (page %d)", group, slide.Order, slide.PageNumber), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	if imageType, ok := embeddableImage(slide.ImageRef); ok {
		pdf.ImageOptions(slide.ImageRef, 10, 30, 270, 0, false, fpdf.ImageOptions{ImageType: imageType}, 0, "")
		return
	}

	// Remote URLs and bundled asset ids stay as captions; the handle is
	// opaque and may not be fetchable here.
	pdf.Ln(4)
	pdf.SetFont("Courier", "", 9)
	pdf.CellFormat(0, 6, slide.ImageRef, "", 1, "L", false, 0, "")
}

// embeddableImage reports whether a raster handle is a local image file
// fpdf can embed, and its image type.
func embeddableImage(imageRef string) (string, bool) {
	switch strings.ToLower(filepath.Ext(imageRef)) {
	case ".png":
		if fileExists(imageRef) {
			return "PNG", true
		}
	case ".jpg", ".jpeg":
		if fileExists(imageRef) {
			return "JPG", true
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
