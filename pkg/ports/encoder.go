package ports

import (
	"image"
)

// VideoEncoder abstracts writing a sequence of images to a video file.
type VideoEncoder interface {
	// Begin opens an encoding session writing to name plus the container extension.
	Begin(name string, opts EncoderOptions) error

	// EncodeFrame encodes the next frame. Images are scaled to the session size.
	EncodeFrame(img image.Image) error

	// End finalizes the file and returns its path.
	End() (string, error)
}

// EncoderOptions configures video encoding parameters.
type EncoderOptions struct {
	Width       int
	Height      int
	FPS         float64
	BitrateMbps int // Target bitrate in Mbps
}
