package ports

import "time"

// VideoInfo summarizes the video track of a container file.
type VideoInfo struct {
	Codec     string
	Width     int
	Height    int
	Timescale uint32
	Frames    int
	Keyframes int
	Duration  time.Duration
	FPS       float64

	// PresentationTimes holds each sample's presentation time in timescale
	// units, in decode order.
	PresentationTimes []int64
}

// Prober inspects produced video files.
type Prober interface {
	ProbeFile(path string) (*VideoInfo, error)
}
