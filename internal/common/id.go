package common

import (
	"github.com/google/uuid"
)

// NewSlideID generates a unique slide ID with the "slide_" prefix
// Format: slide_<uuid>
func NewSlideID() string {
	return "slide_" + uuid.New().String()
}

// NewConversionID generates a unique conversion run ID with the "conv_" prefix
// Format: conv_<uuid>
func NewConversionID() string {
	return "conv_" + uuid.New().String()
}
