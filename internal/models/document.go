package models

import "fmt"

// MimeKind identifies the shape of an uploaded source document.
type MimeKind string

const (
	// MimeKindPDF is a multi-page PDF brochure.
	MimeKindPDF MimeKind = "pdf"
	// MimeKindZipImages is a ZIP archive of pre-rendered slide images.
	MimeKindZipImages MimeKind = "zip-images"
	// MimeKindSingleFile is a single standalone image or page.
	MimeKindSingleFile MimeKind = "single-file"
)

// ParseMimeKind validates a mime kind string.
func ParseMimeKind(s string) (MimeKind, error) {
	switch MimeKind(s) {
	case MimeKindPDF, MimeKindZipImages, MimeKindSingleFile:
		return MimeKind(s), nil
	default:
		return "", fmt.Errorf("unknown mime kind: %q", s)
	}
}

// DocumentRef identifies a source brochure document. It is immutable once
// created; DocumentID is shared across users and keys the canonical
// conversion result.
type DocumentRef struct {
	DocumentID string   `json:"document_id"`
	SourceURI  string   `json:"source_uri"`
	MimeKind   MimeKind `json:"mime_kind"`
}

// Validate checks that the reference is complete enough to convert.
func (r DocumentRef) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("document reference requires a document ID")
	}
	if r.SourceURI == "" {
		return fmt.Errorf("document reference requires a source URI")
	}
	if _, err := ParseMimeKind(string(r.MimeKind)); err != nil {
		return err
	}
	return nil
}
