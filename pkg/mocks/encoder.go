package mocks

import (
	"image"

	"github.com/user/mem2vid/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(name string, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image) error
	EndFunc         func() (string, error)

	// Recorded calls for verification
	BeginCalled bool
	BeginName   string
	BeginOpts   ports.EncoderOptions
	Frames      []image.Image
	EndCalled   bool
}

func (m *VideoEncoder) Begin(name string, opts ports.EncoderOptions) error {
	m.BeginCalled = true
	m.BeginName = name
	m.BeginOpts = opts
	if m.BeginFunc != nil {
		return m.BeginFunc(name, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image) error {
	m.Frames = append(m.Frames, img)
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img)
	}
	return nil
}

func (m *VideoEncoder) End() (string, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return m.BeginName + ".mp4", nil
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
