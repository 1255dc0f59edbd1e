package ports

import "errors"

// Sentinel results of Encoder.ReceivePacket.
var (
	// ErrAgain means the encoder has no packet ready and needs more input.
	ErrAgain = errors.New("media: resource temporarily unavailable")
	// ErrEOF means the encoder has been fully drained after a flush.
	ErrEOF = errors.New("media: end of stream")
)

// PixelFormat identifies a raw pixel layout understood by the backend.
type PixelFormat int

const (
	// PixelFormatRGB24 is packed 8-bit R, G, B.
	PixelFormatRGB24 PixelFormat = iota
	// PixelFormatYUV420P is planar YUV with 2x2 chroma subsampling.
	PixelFormatYUV420P
)

// String returns the FFmpeg name of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGB24:
		return "rgb24"
	case PixelFormatYUV420P:
		return "yuv420p"
	default:
		return "unknown"
	}
}

// Rational is a time base expressed as Num/Den seconds.
type Rational struct {
	Num int
	Den int
}

// EncoderConfig carries every encoder setting applied before Open.
type EncoderConfig struct {
	BitRate      int64 // bits per second
	Width        int
	Height       int
	TimeBase     Rational
	PixelFormat  PixelFormat
	GopSize      int
	MaxBFrames   int
	GlobalHeader bool
}

// MediaBackend abstracts the codec/container library.
// Each method acquires exactly one resource; the caller owns its release.
type MediaBackend interface {
	// AllocOutput allocates an output container context for the named format.
	AllocOutput(format string) (Output, error)

	// AllocEncoder allocates an encoder context for the codec.
	AllocEncoder(codec Codec) (Encoder, error)

	// AllocFrame allocates a frame with pixel buffers of the given alignment.
	AllocFrame(width, height int, format PixelFormat, align int) (Frame, error)

	// NewConverter allocates a bicubic colorspace converter between two
	// formats at fixed dimensions.
	NewConverter(width, height int, src, dst PixelFormat) (Converter, error)
}

// Codec describes an encoder implementation found in the backend.
type Codec interface {
	Name() string
}

// Output is an output container context.
type Output interface {
	// FormatName returns the short name of the container format.
	FormatName() string

	// DefaultVideoEncoder returns the encoder for the container's default video codec.
	DefaultVideoEncoder() (Codec, error)

	// NewStream adds a stream to the container.
	NewStream() (Stream, error)

	// NeedsGlobalHeader reports whether the format wants codec headers out of band.
	NeedsGlobalHeader() bool

	// OpenFile opens path for writing and attaches it to the container.
	OpenFile(path string) error

	// WriteHeader writes the container prologue.
	WriteHeader() error

	// WriteInterleaved writes a packet in timestamp-interleaved order.
	WriteInterleaved(pkt Packet) error

	// WriteTrailer writes the container epilogue.
	WriteTrailer() error

	// CloseFile closes the attached file.
	CloseFile() error

	// Free releases the container context.
	Free()
}

// Stream is one stream inside an Output.
type Stream interface {
	Index() int
	TimeBase() Rational
	SetTimeBase(tb Rational)
}

// Encoder is a stateful encoder context.
type Encoder interface {
	// Configure applies cfg. It must be called before Open.
	Configure(cfg EncoderConfig)

	// Open initializes the encoder and its internal buffers.
	Open() error

	// CopyParametersTo writes the finalized encoder parameters into the stream.
	CopyParametersTo(s Stream) error

	// TimeBase returns the encoder time base.
	TimeBase() Rational

	// SendFrame submits a frame. A nil frame switches the encoder to flush mode.
	SendFrame(f Frame) error

	// ReceivePacket returns the next encoded packet, ErrAgain or ErrEOF.
	ReceivePacket() (Packet, error)

	// Free closes and releases the encoder context.
	Free()
}

// Frame is a raw picture buffer.
type Frame interface {
	// MakeWritable ensures no other reference shares the frame buffers.
	MakeWritable() error
	SetPts(pts int64)
	Pts() int64
	Free()
}

// Converter transforms pixel data into a destination frame.
type Converter interface {
	// Convert reads src as one plane with the given stride and writes dst.
	Convert(src []byte, stride int, dst Frame) error
	Free()
}

// Packet is one compressed unit produced by an Encoder.
type Packet interface {
	RescaleTs(from, to Rational)
	SetStreamIndex(index int)
	Pts() int64
	Dts() int64
	// Unref releases the packet buffer.
	Unref()
}
