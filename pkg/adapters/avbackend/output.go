package avbackend

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/mem2vid/pkg/ports"
)

type codec struct {
	c *astiav.Codec
}

func (c *codec) Name() string {
	return c.c.Name()
}

type output struct {
	fc     *astiav.FormatContext
	pb     *astiav.IOContext
	format string
	log    ports.Logger
}

func (o *output) FormatName() string {
	return o.format
}

func (o *output) DefaultVideoEncoder() (ports.Codec, error) {
	for _, id := range defaultVideoCodecs[o.format] {
		if c := astiav.FindEncoder(id); c != nil {
			return &codec{c: c}, nil
		}
		o.log.Debug("No encoder for %s", id)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoEncoder, o.format)
}

func (o *output) NewStream() (ports.Stream, error) {
	s := o.fc.NewStream(nil)
	if s == nil {
		return nil, errors.New("avbackend: stream allocation failed")
	}
	s.SetID(o.fc.NbStreams() - 1)
	return &stream{s: s}, nil
}

func (o *output) NeedsGlobalHeader() bool {
	of := o.fc.OutputFormat()
	return of != nil && of.Flags().Has(astiav.IOFormatFlagGlobalheader)
}

func (o *output) OpenFile(path string) error {
	pb, err := astiav.OpenIOContext(path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
	if err != nil {
		return fmt.Errorf("avbackend: open %s: %w", path, err)
	}
	o.pb = pb
	o.fc.SetPb(pb)
	return nil
}

func (o *output) WriteHeader() error {
	return o.fc.WriteHeader(nil)
}

func (o *output) WriteInterleaved(p ports.Packet) error {
	pk, ok := p.(*packet)
	if !ok {
		return fmt.Errorf("avbackend: foreign packet %T", p)
	}
	return o.fc.WriteInterleavedFrame(pk.p)
}

func (o *output) WriteTrailer() error {
	return o.fc.WriteTrailer()
}

func (o *output) CloseFile() error {
	if o.pb == nil {
		return nil
	}
	err := o.pb.Close()
	o.pb = nil
	return err
}

func (o *output) Free() {
	o.fc.Free()
}

type stream struct {
	s *astiav.Stream
}

func (s *stream) Index() int {
	return s.s.Index()
}

func (s *stream) TimeBase() ports.Rational {
	return fromRational(s.s.TimeBase())
}

func (s *stream) SetTimeBase(tb ports.Rational) {
	s.s.SetTimeBase(rational(tb))
}
