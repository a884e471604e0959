// -----------------------------------------------------------------------
// Deck Repository - Canonical slide deck model with dense ordering
// -----------------------------------------------------------------------

package deck

import (
	"fmt"
	"sync"

	"github.com/detailerhq/detailer/internal/common"
	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/ternarybob/arbor"
)

// SlideInput carries the fields for a new slide. Order 0 means append at
// max(order)+1.
type SlideInput struct {
	Title    string
	ImageRef string
	Group    string
	Order    int
}

// SlidePatch is a partial update; nil fields are left unchanged. Order
// changes go through Reorder so the dense-order invariant stays in one
// place.
type SlidePatch struct {
	Title    *string
	ImageRef *string
	Group    *string
}

// Move requests a new position for one slide.
type Move struct {
	SlideID  string
	NewOrder int
}

// Repository holds the canonical decks, one ordered slide list per deck ID.
// It is an injected value scoped to the pipeline's lifetime, not package
// state. The mutex guards the deck registry so conversions of different
// documents can seed concurrently; operations on a single deck are still
// expected to be invoked sequentially by one caller context.
//
// Every mutation re-establishes the invariant that a deck's order values
// are a permutation of 1..N. PageNumber is never touched after conversion.
type Repository struct {
	mu     sync.Mutex
	decks  map[string][]models.Slide
	logger arbor.ILogger
}

// NewRepository creates an empty deck repository
func NewRepository(logger arbor.ILogger) *Repository {
	return &Repository{
		decks:  make(map[string][]models.Slide),
		logger: logger,
	}
}

// Seed replaces a deck wholesale with the given slides, densifying their
// order. Used by the conversion orchestrator to mirror a canonical record.
func (r *Repository) Seed(deckID string, slides []models.Slide) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck := models.CloneSlides(slides)
	models.DensifyOrder(deck)
	r.decks[deckID] = deck
}

// Deck returns a copy of the deck's slides in ascending order.
func (r *Repository) Deck(deckID string) ([]models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}
	slides := models.CloneSlides(deck)
	models.SortByOrder(slides)
	return slides, nil
}

// CreateSlide adds a slide to a deck, creating the deck if absent. A zero
// Order appends at max(order)+1; otherwise the slide is inserted at the
// requested position and the deck re-densified. User-created slides carry
// PageNumber 0: only conversion assigns source page numbers.
func (r *Repository) CreateSlide(deckID string, in SlideInput) (*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck := r.decks[deckID]

	slide := models.Slide{
		ID:       common.NewSlideID(),
		Title:    in.Title,
		ImageRef: in.ImageRef,
		Group:    in.Group,
	}

	if in.Order <= 0 {
		slide.Order = models.MaxOrder(deck) + 1
		deck = append(deck, slide)
	} else {
		models.SortByOrder(deck)
		pos := in.Order - 1
		if pos > len(deck) {
			pos = len(deck)
		}
		deck = append(deck[:pos], append([]models.Slide{slide}, deck[pos:]...)...)
	}

	models.DensifyOrder(deck)
	r.decks[deckID] = deck

	created := r.find(deck, slide.ID)
	return created, nil
}

// UpdateSlide merges the provided fields into an existing slide.
func (r *Repository) UpdateSlide(deckID, slideID string, patch SlidePatch) (*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}

	for i := range deck {
		if deck[i].ID != slideID {
			continue
		}
		if patch.Title != nil {
			deck[i].Title = *patch.Title
		}
		if patch.ImageRef != nil {
			deck[i].ImageRef = *patch.ImageRef
		}
		if patch.Group != nil {
			deck[i].Group = *patch.Group
		}
		updated := deck[i]
		return &updated, nil
	}

	return nil, fmt.Errorf("%w: slide %s in deck %s", interfaces.ErrNotFound, slideID, deckID)
}

// DeleteSlide removes a slide and re-densifies the remaining order values,
// preserving relative order.
func (r *Repository) DeleteSlide(deckID, slideID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}

	for i := range deck {
		if deck[i].ID == slideID {
			deck = append(deck[:i], deck[i+1:]...)
			models.DensifyOrder(deck)
			r.decks[deckID] = deck
			return nil
		}
	}

	return fmt.Errorf("%w: slide %s in deck %s", interfaces.ErrNotFound, slideID, deckID)
}

// Reorder applies the requested positions in request-list order: each slide
// is removed from the deck and re-inserted at its target position, so when
// two requests collide on the same final position the later entry wins and
// earlier ones are displaced downward. The deck is densified afterwards.
func (r *Repository) Reorder(deckID string, moves []Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}

	working := models.CloneSlides(deck)
	models.SortByOrder(working)

	for _, move := range moves {
		idx := -1
		for i := range working {
			if working[i].ID == move.SlideID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: slide %s in deck %s", interfaces.ErrNotFound, move.SlideID, deckID)
		}

		slide := working[idx]
		working = append(working[:idx], working[idx+1:]...)

		pos := move.NewOrder - 1
		if pos < 0 {
			pos = 0
		}
		if pos > len(working) {
			pos = len(working)
		}
		working = append(working[:pos], append([]models.Slide{slide}, working[pos:]...)...)
	}

	for i := range working {
		working[i].Order = i + 1
	}
	r.decks[deckID] = working
	return nil
}

// MoveToGroup relabels a slide's group without touching its order.
func (r *Repository) MoveToGroup(deckID, slideID, newGroup string) error {
	_, err := r.UpdateSlide(deckID, slideID, SlidePatch{Group: &newGroup})
	return err
}

// DuplicateSlide clones a slide's title, image, and group, appending the
// copy at max(order)+1 with a "(Copy)" title suffix to signal provenance.
func (r *Repository) DuplicateSlide(deckID, slideID string) (*models.Slide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}

	source := r.find(deck, slideID)
	if source == nil {
		return nil, fmt.Errorf("%w: slide %s in deck %s", interfaces.ErrNotFound, slideID, deckID)
	}

	clone := models.Slide{
		ID:         common.NewSlideID(),
		Title:      source.Title + " (Copy)",
		ImageRef:   source.ImageRef,
		Group:      source.Group,
		Order:      models.MaxOrder(deck) + 1,
		PageNumber: source.PageNumber,
	}

	r.decks[deckID] = append(deck, clone)
	return &clone, nil
}

// ListGrouped returns the deck's groups in first-seen order, each group's
// slides sorted ascending by order. Mutations are reflected immediately;
// there is no eventual consistency within a process.
func (r *Repository) ListGrouped(deckID string) ([]models.SlideGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", interfaces.ErrNotFound, deckID)
	}
	return models.GroupSlides(deck), nil
}

// find returns a copy of the slide with the given id, or nil.
func (r *Repository) find(deck []models.Slide, slideID string) *models.Slide {
	for i := range deck {
		if deck[i].ID == slideID {
			found := deck[i]
			return &found
		}
	}
	return nil
}
