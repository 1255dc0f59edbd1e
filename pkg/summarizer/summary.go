// Package summarizer produces reports for rendered videos.
package summarizer

import "time"

// Summary contains everything known about one render.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Job settings
	Settings Settings

	// Segments in render order
	Segments []SegmentInfo

	// Video output details, as probed from the file
	Video VideoInfo

	// Wall-clock time spent rendering and encoding
	Elapsed time.Duration
}

// Settings contains the encoding configuration.
type Settings struct {
	Output      string
	Width       int
	Height      int
	FPS         float64
	BitrateMbps int
	Workers     int
}

// SegmentInfo describes one segment of the job.
type SegmentInfo struct {
	Kind   string
	Frames int
}

// VideoInfo contains information about the output video.
type VideoInfo struct {
	Path      string
	Codec     string
	Width     int
	Height    int
	Frames    int
	Keyframes int
	Duration  time.Duration
	FPS       float64
	FileSize  int64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSettings sets the encoding configuration.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithSegment appends a segment.
func (b *Builder) WithSegment(kind string, frames int) *Builder {
	b.summary.Segments = append(b.summary.Segments, SegmentInfo{Kind: kind, Frames: frames})
	return b
}

// WithVideo sets video output information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithElapsed sets the render time.
func (b *Builder) WithElapsed(d time.Duration) *Builder {
	b.summary.Elapsed = d
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
