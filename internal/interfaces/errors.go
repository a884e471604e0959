package interfaces

import "errors"

// ErrUnsupportedFormat is returned when a source document is neither a
// parseable PDF nor a recognized image archive. Non-recoverable; surfaced
// to the caller.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// ErrExtractionFailed is returned when the underlying rasterization
// capability errored or produced zero pages. The orchestrator recovers from
// it locally by serving the fallback deck.
var ErrExtractionFailed = errors.New("page extraction failed")

// ErrNotFound is returned when a slide, deck, or document id does not exist.
var ErrNotFound = errors.New("not found")

// ErrOverlayNotFound is returned by overlay storage when no overlay exists
// for a (user, document) pair.
var ErrOverlayNotFound = errors.New("overlay not found")

// ErrStorageUnavailable is returned when cache or overlay persistence I/O
// fails. In-memory state is not rolled back; the caller decides whether to
// retry the save.
var ErrStorageUnavailable = errors.New("storage unavailable")
