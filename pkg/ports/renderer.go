package ports

import (
	"image"
	"image/color"
)

// PatternKind selects how a synthetic frame is drawn.
type PatternKind string

const (
	PatternSolid    PatternKind = "solid"
	PatternGradient PatternKind = "gradient"
	PatternImage    PatternKind = "image"
	PatternCaption  PatternKind = "caption"
)

// Pattern describes the content of a run of synthetic frames.
type Pattern struct {
	Kind    PatternKind
	Color   color.Color // Fill or gradient start
	ToColor color.Color // Gradient end
	Image   image.Image // Source for PatternImage
	Text    string      // Caption text; "%d" is replaced by the frame index
}

// PatternRenderer draws synthetic frames.
type PatternRenderer interface {
	// Render draws frame index of count for the pattern at the given size.
	Render(p Pattern, width, height, index, count int) (image.Image, error)
}
