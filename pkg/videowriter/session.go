// Package videowriter encodes packed RGB frames into an MP4 file.
//
// A Session owns every codec and container resource of one output file.
// Resources are acquired in dependency order and released in exact reverse
// order, both on Finish and when Start fails part way through:
//
//	container -> encoder -> frame -> converter -> file
//
// Writer wraps a single Session slot for callers that want the
// Start/SubmitFrame/Finish surface with at most one active video.
package videowriter

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/mem2vid/pkg/ports"
)

// Steps named in diagnostics and wrapped errors.
const (
	stepAllocOutput   = "allocate output format"
	stepFindEncoder   = "find encoder"
	stepNewStream     = "create stream"
	stepAllocEncoder  = "allocate video codec context"
	stepOpenEncoder   = "open codec"
	stepAllocFrame    = "allocate video frame"
	stepCopyParams    = "copy the stream parameters"
	stepNewConverter  = "initialize the conversion context"
	stepOpenFile      = "open output file"
	stepWriteHeader   = "write stream header"
	stepMakeWritable  = "make frame writable"
	stepConvert       = "convert frame"
	stepSendFrame     = "send a frame for encoding"
	stepReceivePacket = "encode a frame"
	stepWritePacket   = "write output packet"
)

// Release names, in acquisition order.
const (
	releaseContainer = "container"
	releaseEncoder   = "encoder"
	releaseFrame     = "frame"
	releaseConverter = "converter"
	releaseFile      = "file"
)

// Stats reports the progress of a session.
type Stats struct {
	ID              string
	Filename        string
	FramesSubmitted int64
	PacketsWritten  int64
}

// Session is one active encoding of an output file.
// A Session is not safe for concurrent use.
type Session struct {
	id       string
	log      ports.Logger
	params   Params
	filename string

	output ports.Output
	codec  ports.Codec
	stream ports.Stream
	enc    ports.Encoder
	frame  ports.Frame
	conv   ports.Converter

	frameIndex int64
	packets    int64

	releases releaseStack
	finished bool
}

// StartSession opens <name>.mp4 and prepares the encoder for frames of
// p.Width x p.Height. On failure every resource acquired so far has been
// released and the returned error names the failed step.
func StartSession(backend ports.MediaBackend, log ports.Logger, name string, p Params) (*Session, error) {
	if err := p.Validate(); err != nil {
		log.Error("Invalid parameters: %v", err)
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		log:      log,
		params:   p,
		filename: Filename(name),
	}

	if err := s.open(backend); err != nil {
		s.releases.unwind(s.log)
		return nil, err
	}

	s.log.Info("Video started: %s (%dx%d, %.2f fps, %d Mbps, %s) session %s",
		s.filename, p.Width, p.Height, p.FPS, p.BitrateMbps, s.codec.Name(), s.id)
	return s, nil
}

// open acquires resources in dependency order, registering each release.
func (s *Session) open(backend ports.MediaBackend) error {
	var err error

	s.output, err = backend.AllocOutput(ContainerFormat)
	if err != nil {
		return s.fail(stepAllocOutput, err)
	}
	s.releases.push(releaseContainer, s.output.Free)

	s.codec, err = s.output.DefaultVideoEncoder()
	if err != nil {
		return s.fail(stepFindEncoder, err)
	}

	s.stream, err = s.output.NewStream()
	if err != nil {
		return s.fail(stepNewStream, err)
	}

	s.enc, err = backend.AllocEncoder(s.codec)
	if err != nil {
		return s.fail(stepAllocEncoder, err)
	}
	s.releases.push(releaseEncoder, s.enc.Free)

	cfg := s.params.EncoderConfig(s.output.NeedsGlobalHeader())
	s.stream.SetTimeBase(cfg.TimeBase)
	s.enc.Configure(cfg)

	if err := s.enc.Open(); err != nil {
		return s.fail(stepOpenEncoder, err)
	}

	s.frame, err = backend.AllocFrame(s.params.Width, s.params.Height, cfg.PixelFormat, FrameAlign)
	if err != nil {
		return s.fail(stepAllocFrame, err)
	}
	s.releases.push(releaseFrame, s.frame.Free)

	if err := s.enc.CopyParametersTo(s.stream); err != nil {
		return s.fail(stepCopyParams, err)
	}

	s.conv, err = backend.NewConverter(s.params.Width, s.params.Height, ports.PixelFormatRGB24, cfg.PixelFormat)
	if err != nil {
		return s.fail(stepNewConverter, err)
	}
	s.releases.push(releaseConverter, s.conv.Free)

	s.log.Debug("Output %s: stream %d, time base %d/%d, gop %d",
		s.output.FormatName(), s.stream.Index(), cfg.TimeBase.Num, cfg.TimeBase.Den, cfg.GopSize)

	if err := s.output.OpenFile(s.filename); err != nil {
		return s.fail(stepOpenFile, err)
	}
	s.releases.pushReported(releaseFile, s.output.CloseFile)

	if err := s.output.WriteHeader(); err != nil {
		return s.fail(stepWriteHeader, err)
	}

	s.frameIndex = 0
	return nil
}

// Submit converts one packed RGB24 frame, encodes it and writes every packet
// the encoder has ready. rgb must hold exactly width*height*3 bytes.
//
// The frame counter advances once the converted frame is stamped with it,
// even if encoding or writing fails afterwards.
func (s *Session) Submit(rgb []byte) error {
	if s.finished {
		s.log.Error("Video is not started")
		return ErrNotStarted
	}
	if want := s.params.FrameSize(); len(rgb) != want {
		s.log.Error("Frame is %d bytes, expected %d", len(rgb), want)
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(rgb), want)
	}

	if err := s.frame.MakeWritable(); err != nil {
		return s.fail(stepMakeWritable, err)
	}

	// the input is one plane of width*3 bytes per row
	if err := s.conv.Convert(rgb, s.params.Width*3, s.frame); err != nil {
		return s.fail(stepConvert, err)
	}

	s.frame.SetPts(s.frameIndex)
	s.frameIndex++

	if err := s.enc.SendFrame(s.frame); err != nil {
		return s.fail(stepSendFrame, err)
	}

	return s.flushPackets()
}

// flushPackets drains every packet the encoder has ready into the container.
// Packets written before a failure stay written.
func (s *Session) flushPackets() error {
	for {
		pkt, err := s.enc.ReceivePacket()
		if errors.Is(err, ports.ErrAgain) || errors.Is(err, ports.ErrEOF) {
			return nil
		}
		if err != nil {
			return s.fail(stepReceivePacket, err)
		}

		// rescale from codec to stream time base
		pkt.RescaleTs(s.enc.TimeBase(), s.stream.TimeBase())
		pkt.SetStreamIndex(s.stream.Index())

		err = s.output.WriteInterleaved(pkt)
		pkt.Unref()
		if err != nil {
			return s.fail(stepWritePacket, err)
		}
		s.packets++
	}
}

// Finish flushes the encoder, writes the trailer and releases every
// resource. Cleanup always runs to completion; only the file close error is
// returned, everything else is logged. After Finish the session is closed.
func (s *Session) Finish() error {
	if s.finished {
		s.log.Error("Video is not started")
		return ErrNotStarted
	}
	s.finished = true

	// no more frames; drain delayed packets
	if err := s.enc.SendFrame(nil); err != nil {
		s.log.Warn("Failed to flush encoder: %v", err)
	}
	if err := s.flushPackets(); err != nil {
		s.log.Warn("Failed to drain encoder: %v", err)
	}

	if err := s.output.WriteTrailer(); err != nil {
		s.log.Warn("Failed to write trailer: %v", err)
	}

	err := s.releases.unwind(s.log)
	if err != nil {
		err = fmt.Errorf("videowriter: close %s: %w", s.filename, err)
	}

	s.log.Info("Video finished: %s (%d frames, %d packets)", s.filename, s.frameIndex, s.packets)
	return err
}

// Stats returns the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		ID:              s.id,
		Filename:        s.filename,
		FramesSubmitted: s.frameIndex,
		PacketsWritten:  s.packets,
	}
}

// Filename returns the output path.
func (s *Session) Filename() string {
	return s.filename
}

// Params returns the parameters the session was started with.
func (s *Session) Params() Params {
	return s.params
}

func (s *Session) fail(step string, err error) error {
	s.log.Error("Could not %s: %v", step, err)
	return fmt.Errorf("videowriter: %s: %w", step, err)
}
