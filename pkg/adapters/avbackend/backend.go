// Package avbackend implements ports.MediaBackend on FFmpeg through go-astiav.
package avbackend

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/mem2vid/pkg/ports"
)

var (
	// ErrUnsupportedFormat is returned when FFmpeg has no muxer for a format.
	ErrUnsupportedFormat = errors.New("avbackend: unsupported container format")

	// ErrNoEncoder is returned when no encoder exists for the container's video codec.
	ErrNoEncoder = errors.New("avbackend: no encoder for default video codec")
)

// defaultVideoCodecs lists, per container, the codecs FFmpeg itself picks as
// the default video codec, best first. libavformat prefers H.264 when an
// encoder for it is built in and falls back to MPEG-4 Part 2.
var defaultVideoCodecs = map[string][]astiav.CodecID{
	"mp4": {astiav.CodecIDH264, astiav.CodecIDMpeg4},
	"mov": {astiav.CodecIDH264, astiav.CodecIDMpeg4},
}

// Backend implements ports.MediaBackend.
type Backend struct {
	log ports.Logger
}

// New creates a Backend. FFmpeg log lines at or above warning are forwarded
// to log at debug level.
func New(log ports.Logger) *Backend {
	b := &Backend{log: log.WithComponent("avbackend")}
	astiav.SetLogLevel(astiav.LogLevelWarning)
	astiav.SetLogCallback(func(c astiav.Classer, l astiav.LogLevel, format, msg string) {
		b.log.Debug("ffmpeg: %s", trimNewline(msg))
	})
	return b
}

// AllocOutput allocates an output format context for format.
func (b *Backend) AllocOutput(format string) (ports.Output, error) {
	fc, err := astiav.AllocOutputFormatContext(nil, format, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, format, err)
	}
	if fc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return &output{fc: fc, format: format, log: b.log}, nil
}

// AllocEncoder allocates a codec context for an encoder returned by
// Output.DefaultVideoEncoder.
func (b *Backend) AllocEncoder(c ports.Codec) (ports.Encoder, error) {
	cd, ok := c.(*codec)
	if !ok {
		return nil, fmt.Errorf("avbackend: foreign codec %T", c)
	}
	cc := astiav.AllocCodecContext(cd.c)
	if cc == nil {
		return nil, errors.New("avbackend: codec context allocation failed")
	}
	return &encoder{cc: cc, codec: cd.c}, nil
}

// AllocFrame allocates a frame and its pixel buffers.
func (b *Backend) AllocFrame(width, height int, format ports.PixelFormat, align int) (ports.Frame, error) {
	pf, err := pixelFormat(format)
	if err != nil {
		return nil, err
	}
	f := astiav.AllocFrame()
	if f == nil {
		return nil, errors.New("avbackend: frame allocation failed")
	}
	f.SetWidth(width)
	f.SetHeight(height)
	f.SetPixelFormat(pf)
	if err := f.AllocBuffer(align); err != nil {
		f.Free()
		return nil, fmt.Errorf("avbackend: allocate frame data: %w", err)
	}
	return &frame{f: f}, nil
}

// NewConverter creates a bicubic software scale context that changes only
// the pixel format.
func (b *Backend) NewConverter(width, height int, src, dst ports.PixelFormat) (ports.Converter, error) {
	spf, err := pixelFormat(src)
	if err != nil {
		return nil, err
	}
	dpf, err := pixelFormat(dst)
	if err != nil {
		return nil, err
	}

	ssc, err := astiav.CreateSoftwareScaleContext(
		width, height, spf,
		width, height, dpf,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBicubic),
	)
	if err != nil {
		return nil, fmt.Errorf("avbackend: create scale context: %w", err)
	}

	// staging frame wrapping the caller's packed input
	in := astiav.AllocFrame()
	if in == nil {
		ssc.Free()
		return nil, errors.New("avbackend: frame allocation failed")
	}
	in.SetWidth(width)
	in.SetHeight(height)
	in.SetPixelFormat(spf)
	if err := in.AllocBuffer(1); err != nil {
		in.Free()
		ssc.Free()
		return nil, fmt.Errorf("avbackend: allocate staging frame: %w", err)
	}

	return &converter{ssc: ssc, in: in, width: width}, nil
}

func pixelFormat(f ports.PixelFormat) (astiav.PixelFormat, error) {
	switch f {
	case ports.PixelFormatRGB24:
		return astiav.PixelFormatRgb24, nil
	case ports.PixelFormatYUV420P:
		return astiav.PixelFormatYuv420P, nil
	default:
		return astiav.PixelFormatNone, fmt.Errorf("avbackend: unsupported pixel format %d", f)
	}
}

func rational(r ports.Rational) astiav.Rational {
	return astiav.NewRational(r.Num, r.Den)
}

func fromRational(r astiav.Rational) ports.Rational {
	return ports.Rational{Num: r.Num(), Den: r.Den()}
}

// mapError converts FFmpeg EAGAIN/EOF to the port sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, astiav.ErrEagain):
		return ports.ErrAgain
	case errors.Is(err, astiav.ErrEof):
		return ports.ErrEOF
	default:
		return err
	}
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// Ensure Backend implements ports.MediaBackend
var _ ports.MediaBackend = (*Backend)(nil)
