// Package common provides shared utilities and default configuration.
package common

// DefaultFallbackSlides returns the placeholder deck served when conversion
// is unavailable or fails. This is the single source of truth for the
// built-in fallback; deployments override it via the [fallback] config
// table. The image refs are bundled asset ids, resolved by the viewer.
func DefaultFallbackSlides() []FallbackSlide {
	return []FallbackSlide{
		{
			Title:    "Slide 1",
			ImageRef: "asset://placeholder/slide-1",
		},
		{
			Title:    "Slide 2",
			ImageRef: "asset://placeholder/slide-2",
		},
		{
			Title:    "Slide 3",
			ImageRef: "asset://placeholder/slide-3",
		},
	}
}
