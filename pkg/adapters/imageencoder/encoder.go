// Package imageencoder implements ports.VideoEncoder on top of a
// videowriter.Writer, accepting image.Image frames.
package imageencoder

import (
	"errors"
	"image"
	"sync"

	"github.com/user/mem2vid/pkg/ports"
	"github.com/user/mem2vid/pkg/rgb"
	"github.com/user/mem2vid/pkg/videowriter"
)

// ErrNotInitialized is returned when EncodeFrame or End is called before Begin.
var ErrNotInitialized = errors.New("imageencoder: not initialized")

// FrameWriter is the part of videowriter.Writer the encoder drives.
type FrameWriter interface {
	Start(name string, p videowriter.Params) error
	SubmitFrame(rgb []byte) error
	Finish() error
}

// Encoder implements ports.VideoEncoder.
type Encoder struct {
	mu sync.Mutex

	writer FrameWriter
	params videowriter.Params
	name   string
	active bool
	buf    []byte
}

// New creates an Encoder writing through w.
func New(w FrameWriter) *Encoder {
	return &Encoder{writer: w}
}

// Begin starts a session for name.
func (e *Encoder) Begin(name string, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := videowriter.Params{
		BitrateMbps: opts.BitrateMbps,
		Width:       opts.Width,
		Height:      opts.Height,
		FPS:         opts.FPS,
	}
	if err := e.writer.Start(name, p); err != nil {
		return err
	}

	e.params = p
	e.name = name
	e.active = true
	e.buf = make([]byte, p.FrameSize())
	return nil
}

// EncodeFrame scales img to the session size if needed and submits it.
func (e *Encoder) EncodeFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return ErrNotInitialized
	}
	e.buf = rgb.Pack(img, e.params.Width, e.params.Height, e.buf)
	return e.writer.SubmitFrame(e.buf)
}

// End finishes the session and returns the output path.
func (e *Encoder) End() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return "", ErrNotInitialized
	}
	e.active = false
	e.buf = nil

	if err := e.writer.Finish(); err != nil {
		return "", err
	}
	return videowriter.Filename(e.name), nil
}

// Ensure Encoder implements ports.VideoEncoder
var _ ports.VideoEncoder = (*Encoder)(nil)
