package avbackend

import (
	"errors"
	"fmt"

	"github.com/asticode/go-astiav"

	"github.com/user/mem2vid/pkg/ports"
)

type encoder struct {
	cc    *astiav.CodecContext
	codec *astiav.Codec
	pkt   *astiav.Packet
}

func (e *encoder) Configure(cfg ports.EncoderConfig) {
	pf, _ := pixelFormat(cfg.PixelFormat)
	e.cc.SetBitRate(cfg.BitRate)
	e.cc.SetWidth(cfg.Width)
	e.cc.SetHeight(cfg.Height)
	e.cc.SetTimeBase(rational(cfg.TimeBase))
	e.cc.SetFramerate(astiav.NewRational(cfg.TimeBase.Den, cfg.TimeBase.Num))
	e.cc.SetPixelFormat(pf)
	e.cc.SetGopSize(cfg.GopSize)
	e.cc.SetMaxBFrames(cfg.MaxBFrames)
	if cfg.GlobalHeader {
		e.cc.SetFlags(e.cc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}
}

func (e *encoder) Open() error {
	if err := e.cc.Open(e.codec, nil); err != nil {
		return err
	}
	e.pkt = astiav.AllocPacket()
	if e.pkt == nil {
		return errors.New("avbackend: packet allocation failed")
	}
	return nil
}

func (e *encoder) CopyParametersTo(s ports.Stream) error {
	st, ok := s.(*stream)
	if !ok {
		return fmt.Errorf("avbackend: foreign stream %T", s)
	}
	return e.cc.ToCodecParameters(st.s.CodecParameters())
}

func (e *encoder) TimeBase() ports.Rational {
	return fromRational(e.cc.TimeBase())
}

func (e *encoder) SendFrame(f ports.Frame) error {
	if f == nil {
		return mapError(e.cc.SendFrame(nil))
	}
	fr, ok := f.(*frame)
	if !ok {
		return fmt.Errorf("avbackend: foreign frame %T", f)
	}
	return mapError(e.cc.SendFrame(fr.f))
}

// ReceivePacket reuses one packet; it is valid until Unref.
func (e *encoder) ReceivePacket() (ports.Packet, error) {
	if e.pkt == nil {
		return nil, errors.New("avbackend: encoder not open")
	}
	if err := e.cc.ReceivePacket(e.pkt); err != nil {
		return nil, mapError(err)
	}
	return &packet{p: e.pkt}, nil
}

func (e *encoder) Free() {
	if e.pkt != nil {
		e.pkt.Free()
		e.pkt = nil
	}
	e.cc.Free()
}

type frame struct {
	f *astiav.Frame
}

func (f *frame) MakeWritable() error {
	return f.f.MakeWritable()
}

func (f *frame) SetPts(pts int64) {
	f.f.SetPts(pts)
}

func (f *frame) Pts() int64 {
	return f.f.Pts()
}

func (f *frame) Free() {
	f.f.Free()
}

type converter struct {
	ssc   *astiav.SoftwareScaleContext
	in    *astiav.Frame
	width int
}

// Convert copies src into the staging frame, then scales into dst.
func (c *converter) Convert(src []byte, stride int, dst ports.Frame) error {
	d, ok := dst.(*frame)
	if !ok {
		return fmt.Errorf("avbackend: foreign frame %T", dst)
	}
	if stride != c.width*3 {
		return fmt.Errorf("avbackend: stride %d, want %d", stride, c.width*3)
	}
	if err := c.in.MakeWritable(); err != nil {
		return fmt.Errorf("avbackend: staging frame: %w", err)
	}
	// align 1: rows are stride bytes with no padding
	if err := c.in.Data().SetBytes(src, 1); err != nil {
		return fmt.Errorf("avbackend: load rgb: %w", err)
	}
	return c.ssc.ScaleFrame(c.in, d.f)
}

func (c *converter) Free() {
	c.in.Free()
	c.ssc.Free()
}

type packet struct {
	p *astiav.Packet
}

func (p *packet) RescaleTs(from, to ports.Rational) {
	p.p.RescaleTs(rational(from), rational(to))
}

func (p *packet) SetStreamIndex(index int) {
	p.p.SetStreamIndex(index)
}

func (p *packet) Pts() int64 {
	return p.p.Pts()
}

func (p *packet) Dts() int64 {
	return p.p.Dts()
}

func (p *packet) Unref() {
	p.p.Unref()
}
