package pipeline

import (
	"time"

	"github.com/user/mem2vid/pkg/ports"
)

// =============================================================================
// Encode Stage Types
// =============================================================================

// Segment is a run of frames drawn from one pattern.
type Segment struct {
	Pattern ports.Pattern
	Frames  int
}

// EncodeInput contains everything needed to render and encode one video.
type EncodeInput struct {
	Name     string // Output path without extension
	Options  ports.EncoderOptions
	Segments []Segment
	Workers  int // Parallel frame renderers (default: 1)
}

// TotalFrames returns the number of frames across all segments.
func (in EncodeInput) TotalFrames() int {
	n := 0
	for _, s := range in.Segments {
		n += s.Frames
	}
	return n
}

// EncodeResult contains the encoded video summary.
type EncodeResult struct {
	Path     string
	Frames   int
	Duration time.Duration
}
