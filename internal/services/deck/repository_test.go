package deck

import (
	"errors"
	"testing"

	"github.com/detailerhq/detailer/internal/interfaces"
	"github.com/detailerhq/detailer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func newTestRepository() *Repository {
	return NewRepository(arbor.NewLogger())
}

// seedDeck creates a deck with n slides titled "Slide 1".."Slide n".
func seedDeck(t *testing.T, r *Repository, deckID string, n int) []models.Slide {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := r.CreateSlide(deckID, SlideInput{
			Title:    "Slide " + string(rune('0'+i)),
			ImageRef: "/pages/doc/page_00" + string(rune('0'+i)) + ".png",
		})
		require.NoError(t, err)
	}
	slides, err := r.Deck(deckID)
	require.NoError(t, err)
	return slides
}

func assertDenseOrder(t *testing.T, slides []models.Slide) {
	t.Helper()
	seen := make(map[int]bool, len(slides))
	for _, s := range slides {
		assert.Greater(t, s.Order, 0)
		assert.LessOrEqual(t, s.Order, len(slides))
		assert.False(t, seen[s.Order], "duplicate order %d", s.Order)
		seen[s.Order] = true
	}
}

func TestCreateSlide(t *testing.T) {
	t.Run("Append At End", func(t *testing.T) {
		r := newTestRepository()
		seedDeck(t, r, "deck-1", 2)

		created, err := r.CreateSlide("deck-1", SlideInput{Title: "Tail"})
		require.NoError(t, err)
		assert.Equal(t, 3, created.Order)

		slides, err := r.Deck("deck-1")
		require.NoError(t, err)
		assertDenseOrder(t, slides)
	})

	t.Run("Insert At Position", func(t *testing.T) {
		r := newTestRepository()
		seedDeck(t, r, "deck-1", 3)

		created, err := r.CreateSlide("deck-1", SlideInput{Title: "Inserted", Order: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, created.Order)

		slides, err := r.Deck("deck-1")
		require.NoError(t, err)
		require.Len(t, slides, 4)
		assertDenseOrder(t, slides)
		assert.Equal(t, "Inserted", slides[1].Title)
		assert.Equal(t, "Slide 2", slides[2].Title)
	})

	t.Run("Order Beyond End Clamps", func(t *testing.T) {
		r := newTestRepository()
		seedDeck(t, r, "deck-1", 2)

		created, err := r.CreateSlide("deck-1", SlideInput{Title: "Far", Order: 99})
		require.NoError(t, err)
		assert.Equal(t, 3, created.Order)
	})

	t.Run("User Slides Carry No Source Page", func(t *testing.T) {
		r := newTestRepository()
		r.Seed("deck-1", []models.Slide{
			{ID: "slide_a", Title: "A", Order: 1, PageNumber: 1},
			{ID: "slide_b", Title: "B", Order: 2, PageNumber: 2},
			{ID: "slide_c", Title: "C", Order: 3, PageNumber: 3},
		})
		require.NoError(t, r.DeleteSlide("deck-1", "slide_a"))

		// A new user slide must not reuse a converted slide's page number.
		created, err := r.CreateSlide("deck-1", SlideInput{Title: "New"})
		require.NoError(t, err)
		assert.Zero(t, created.PageNumber)

		got, err := r.Deck("deck-1")
		require.NoError(t, err)
		assert.Equal(t, 2, got[0].PageNumber, "converted slides keep their source page")
		assert.Equal(t, 3, got[1].PageNumber)
	})

	t.Run("Creates Deck Implicitly", func(t *testing.T) {
		r := newTestRepository()

		created, err := r.CreateSlide("fresh", SlideInput{Title: "First"})
		require.NoError(t, err)
		assert.Equal(t, 1, created.Order)
		assert.NotEmpty(t, created.ID)
	})
}

func TestUpdateSlide(t *testing.T) {
	r := newTestRepository()
	slides := seedDeck(t, r, "deck-1", 2)

	newTitle := "Renamed"
	updated, err := r.UpdateSlide("deck-1", slides[0].ID, SlidePatch{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, slides[0].ImageRef, updated.ImageRef, "unpatched fields unchanged")

	_, err = r.UpdateSlide("deck-1", "slide_missing", SlidePatch{Title: &newTitle})
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))

	_, err = r.UpdateSlide("no-such-deck", slides[0].ID, SlidePatch{Title: &newTitle})
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestDeleteSlide(t *testing.T) {
	r := newTestRepository()
	slides := seedDeck(t, r, "deck-1", 3)

	// Delete the middle slide; the gap must close.
	require.NoError(t, r.DeleteSlide("deck-1", slides[1].ID))

	remaining, err := r.Deck("deck-1")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assertDenseOrder(t, remaining)
	assert.Equal(t, "Slide 1", remaining[0].Title)
	assert.Equal(t, "Slide 3", remaining[1].Title)

	err = r.DeleteSlide("deck-1", slides[1].ID)
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}

func TestReorder(t *testing.T) {
	t.Run("Single Move", func(t *testing.T) {
		r := newTestRepository()
		slides := seedDeck(t, r, "deck-1", 3)

		// Move the last slide to the front.
		require.NoError(t, r.Reorder("deck-1", []Move{{SlideID: slides[2].ID, NewOrder: 1}}))

		got, err := r.Deck("deck-1")
		require.NoError(t, err)
		assertDenseOrder(t, got)
		assert.Equal(t, "Slide 3", got[0].Title)
		assert.Equal(t, "Slide 1", got[1].Title)
		assert.Equal(t, "Slide 2", got[2].Title)
	})

	t.Run("Colliding Targets Later Wins", func(t *testing.T) {
		r := newTestRepository()
		slides := seedDeck(t, r, "deck-1", 3)

		// Both slides request position 1; the later request ends up there.
		err := r.Reorder("deck-1", []Move{
			{SlideID: slides[1].ID, NewOrder: 1},
			{SlideID: slides[2].ID, NewOrder: 1},
		})
		require.NoError(t, err)

		got, err := r.Deck("deck-1")
		require.NoError(t, err)
		assertDenseOrder(t, got)
		assert.Equal(t, "Slide 3", got[0].Title)
		assert.Equal(t, "Slide 2", got[1].Title)
		assert.Equal(t, "Slide 1", got[2].Title)
	})

	t.Run("Unknown Slide Leaves Deck Untouched", func(t *testing.T) {
		r := newTestRepository()
		slides := seedDeck(t, r, "deck-1", 3)

		err := r.Reorder("deck-1", []Move{
			{SlideID: slides[2].ID, NewOrder: 1},
			{SlideID: "slide_missing", NewOrder: 2},
		})
		assert.True(t, errors.Is(err, interfaces.ErrNotFound))

		got, err := r.Deck("deck-1")
		require.NoError(t, err)
		assert.Equal(t, "Slide 1", got[0].Title, "failed reorder must not commit partial results")
	})

	t.Run("Out Of Range Positions Clamp", func(t *testing.T) {
		r := newTestRepository()
		slides := seedDeck(t, r, "deck-1", 3)

		require.NoError(t, r.Reorder("deck-1", []Move{
			{SlideID: slides[0].ID, NewOrder: 99},
			{SlideID: slides[2].ID, NewOrder: -5},
		}))

		got, err := r.Deck("deck-1")
		require.NoError(t, err)
		assertDenseOrder(t, got)
		assert.Equal(t, "Slide 3", got[0].Title)
		assert.Equal(t, "Slide 1", got[2].Title)
	})
}

func TestDuplicateSlide(t *testing.T) {
	r := newTestRepository()
	slides := seedDeck(t, r, "deck-1", 2)

	clone, err := r.DuplicateSlide("deck-1", slides[0].ID)
	require.NoError(t, err)

	assert.Equal(t, "Slide 1 (Copy)", clone.Title)
	assert.Equal(t, slides[0].ImageRef, clone.ImageRef)
	assert.Equal(t, slides[0].PageNumber, clone.PageNumber)
	assert.Equal(t, 3, clone.Order, "copy appends at the end")
	assert.NotEqual(t, slides[0].ID, clone.ID)

	got, err := r.Deck("deck-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assertDenseOrder(t, got)
}

func TestMoveToGroup(t *testing.T) {
	r := newTestRepository()
	slides := seedDeck(t, r, "deck-1", 2)

	require.NoError(t, r.MoveToGroup("deck-1", slides[0].ID, "Evidence"))

	got, err := r.Deck("deck-1")
	require.NoError(t, err)
	assert.Equal(t, "Evidence", got[0].Group)
	assert.Equal(t, slides[0].Order, got[0].Order, "group move must not change order")
}

func TestListGrouped(t *testing.T) {
	r := newTestRepository()

	_, err := r.CreateSlide("deck-1", SlideInput{Title: "Welcome", Group: "Overview"})
	require.NoError(t, err)
	_, err = r.CreateSlide("deck-1", SlideInput{Title: "Trial Data", Group: "Evidence"})
	require.NoError(t, err)
	_, err = r.CreateSlide("deck-1", SlideInput{Title: "Mechanism", Group: "Overview"})
	require.NoError(t, err)

	groups, err := r.ListGrouped("deck-1")
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Overview", groups[0].Name)
	require.Len(t, groups[0].Slides, 2)
	assert.Equal(t, "Welcome", groups[0].Slides[0].Title)
	assert.Equal(t, "Mechanism", groups[0].Slides[1].Title)

	assert.Equal(t, "Evidence", groups[1].Name)

	// A mutation shows up on the next listing.
	require.NoError(t, r.MoveToGroup("deck-1", groups[1].Slides[0].ID, "Overview"))
	groups, err = r.ListGrouped("deck-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Slides, 3)
}

func TestSeedReplacesDeck(t *testing.T) {
	r := newTestRepository()
	seedDeck(t, r, "deck-1", 3)

	r.Seed("deck-1", []models.Slide{
		{ID: "slide_a", Title: "A", Order: 5},
		{ID: "slide_b", Title: "B", Order: 2},
	})

	got, err := r.Deck("deck-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assertDenseOrder(t, got)
	assert.Equal(t, "B", got[0].Title)
	assert.Equal(t, "A", got[1].Title)
}

func TestDeckReturnsCopy(t *testing.T) {
	r := newTestRepository()
	seedDeck(t, r, "deck-1", 1)

	first, err := r.Deck("deck-1")
	require.NoError(t, err)
	first[0].Title = "Tampered"

	second, err := r.Deck("deck-1")
	require.NoError(t, err)
	assert.Equal(t, "Slide 1", second[0].Title)
}

func TestDeckNotFound(t *testing.T) {
	r := newTestRepository()

	_, err := r.Deck("missing")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))

	_, err = r.ListGrouped("missing")
	assert.True(t, errors.Is(err, interfaces.ErrNotFound))
}
