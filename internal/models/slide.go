package models

import "sort"

// Slide is one page of a deck. Order is dense and 1-based within a deck;
// PageNumber records the slide's original position after conversion and is
// never reassigned. Slides added by a user rather than by conversion carry
// PageNumber 0.
type Slide struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ImageRef   string `json:"image_ref"` // local file path, remote URL, or bundled asset id
	Group      string `json:"group"`
	Order      int    `json:"order"`
	PageNumber int    `json:"page_number"`
}

// SlideGroup is a derived, named partition of a deck. It is computed on
// demand and never stored.
type SlideGroup struct {
	Name   string  `json:"name"`
	Slides []Slide `json:"slides"`
}

// CloneSlides returns a deep copy of a slide list.
func CloneSlides(slides []Slide) []Slide {
	cloned := make([]Slide, len(slides))
	copy(cloned, slides)
	return cloned
}

// SortByOrder sorts slides ascending by Order in place. The sort is stable
// so slides that momentarily share an order keep their relative position.
func SortByOrder(slides []Slide) {
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].Order < slides[j].Order
	})
}

// DensifyOrder reassigns Order values to the contiguous sequence 1..N,
// preserving the current relative order of the slides.
func DensifyOrder(slides []Slide) {
	SortByOrder(slides)
	for i := range slides {
		slides[i].Order = i + 1
	}
}

// MaxOrder returns the highest Order value in the deck, or 0 for an empty deck.
func MaxOrder(slides []Slide) int {
	max := 0
	for _, s := range slides {
		if s.Order > max {
			max = s.Order
		}
	}
	return max
}

// GroupSlides partitions slides into groups in first-seen order. First-seen
// is determined by walking the deck in ascending slide order; within each
// group the slides are sorted ascending by Order.
func GroupSlides(slides []Slide) []SlideGroup {
	ordered := CloneSlides(slides)
	SortByOrder(ordered)

	index := make(map[string]int)
	var groups []SlideGroup
	for _, s := range ordered {
		i, ok := index[s.Group]
		if !ok {
			i = len(groups)
			index[s.Group] = i
			groups = append(groups, SlideGroup{Name: s.Group})
		}
		groups[i].Slides = append(groups[i].Slides, s)
	}
	return groups
}
