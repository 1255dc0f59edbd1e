package mocks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/mem2vid/pkg/ports"
)

// Step names a backend call that can be made to fail.
type Step string

const (
	StepAllocOutput   Step = "alloc_output"
	StepFindEncoder   Step = "find_encoder"
	StepNewStream     Step = "new_stream"
	StepAllocEncoder  Step = "alloc_encoder"
	StepOpenEncoder   Step = "open_encoder"
	StepAllocFrame    Step = "alloc_frame"
	StepCopyParams    Step = "copy_params"
	StepNewConverter  Step = "new_converter"
	StepOpenFile      Step = "open_file"
	StepWriteHeader   Step = "write_header"
	StepMakeWritable  Step = "make_writable"
	StepConvert       Step = "convert"
	StepSendFrame     Step = "send_frame"
	StepFlush         Step = "flush"
	StepReceivePacket Step = "receive_packet"
	StepWritePacket   Step = "write_packet"
	StepWriteTrailer  Step = "write_trailer"
	StepCloseFile     Step = "close_file"
)

// Resource names recorded in Events.
const (
	ResContainer = "container"
	ResEncoder   = "encoder"
	ResFrame     = "frame"
	ResConverter = "converter"
	ResFile      = "file"
)

// StartSteps lists every fallible Start step in call order.
var StartSteps = []Step{
	StepAllocOutput, StepFindEncoder, StepNewStream, StepAllocEncoder,
	StepOpenEncoder, StepAllocFrame, StepCopyParams, StepNewConverter,
	StepOpenFile, StepWriteHeader,
}

// ErrInjected is the default error returned by failed steps.
var ErrInjected = errors.New("mocks: injected failure")

// WrittenPacket records a packet handed to the container.
type WrittenPacket struct {
	Pts         int64
	Dts         int64
	StreamIndex int
}

// Backend is a scriptable in-memory ports.MediaBackend.
//
// The simulated encoder holds back Delay frames before emitting packets,
// the way B-frame reordering does, and releases them on flush. The
// simulated mp4 muxer doubles the stream time base denominator at
// WriteHeader until it reaches 10000, as libavformat's mov muxer does.
type Backend struct {
	mu sync.Mutex

	// Fail maps steps to the error they return. A nil value means ErrInjected.
	Fail map[Step]error

	// FailWriteAfter makes WriteInterleaved fail once this many packets were
	// written. Zero disables it.
	FailWriteAfter int

	Delay        int
	GlobalHeader bool
	CodecName    string

	// Recorded state
	Events   []string
	Config   ports.EncoderConfig
	SentPts  []int64
	Written  []WrittenPacket
	Unrefs   int
	Stride   int
	Header   bool
	Trailer  bool
	FilePath string
	stream   *stream
}

// NewBackend creates a Backend with no injected failures.
func NewBackend() *Backend {
	return &Backend{
		Fail:      make(map[Step]error),
		CodecName: "libx264",
	}
}

// FailAt injects a failure at step.
func (b *Backend) FailAt(step Step) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Fail[step] = ErrInjected
	return b
}

// Clear removes an injected failure.
func (b *Backend) Clear(step Step) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.Fail, step)
}

func (b *Backend) check(step Step) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err, ok := b.Fail[step]
	if !ok {
		return nil
	}
	if err == nil {
		err = ErrInjected
	}
	return fmt.Errorf("%s: %w", step, err)
}

func (b *Backend) record(event string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Events = append(b.Events, event)
}

// Acquired returns how many times res was acquired.
func (b *Backend) Acquired(res string) int {
	return b.count("acquire " + res)
}

// Released returns how many times res was released.
func (b *Backend) Released(res string) int {
	return b.count("release " + res)
}

// Leaks returns every resource not released exactly once per acquisition.
func (b *Backend) Leaks() []string {
	var leaks []string
	for _, res := range []string{ResContainer, ResEncoder, ResFrame, ResConverter, ResFile} {
		if a, r := b.Acquired(res), b.Released(res); a != r {
			leaks = append(leaks, fmt.Sprintf("%s: acquired %d, released %d", res, a, r))
		}
	}
	return leaks
}

// ReleaseOrder returns the released resource names in release order.
func (b *Backend) ReleaseOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.Events {
		if len(e) > len("release ") && e[:len("release ")] == "release " {
			out = append(out, e[len("release "):])
		}
	}
	return out
}

func (b *Backend) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.Events {
		if e == event {
			n++
		}
	}
	return n
}

// AllocOutput implements ports.MediaBackend.
func (b *Backend) AllocOutput(format string) (ports.Output, error) {
	if err := b.check(StepAllocOutput); err != nil {
		return nil, err
	}
	b.record("acquire " + ResContainer)
	return &output{b: b, format: format}, nil
}

// AllocEncoder implements ports.MediaBackend.
func (b *Backend) AllocEncoder(c ports.Codec) (ports.Encoder, error) {
	if err := b.check(StepAllocEncoder); err != nil {
		return nil, err
	}
	b.record("acquire " + ResEncoder)
	return &encoder{b: b}, nil
}

// AllocFrame implements ports.MediaBackend.
func (b *Backend) AllocFrame(width, height int, format ports.PixelFormat, align int) (ports.Frame, error) {
	if err := b.check(StepAllocFrame); err != nil {
		return nil, err
	}
	b.record("acquire " + ResFrame)
	return &frame{b: b}, nil
}

// NewConverter implements ports.MediaBackend.
func (b *Backend) NewConverter(width, height int, src, dst ports.PixelFormat) (ports.Converter, error) {
	if err := b.check(StepNewConverter); err != nil {
		return nil, err
	}
	b.record("acquire " + ResConverter)
	return &converter{b: b}, nil
}

type codec struct{ name string }

func (c codec) Name() string { return c.name }

type output struct {
	b      *Backend
	format string
}

func (o *output) FormatName() string { return o.format }

func (o *output) DefaultVideoEncoder() (ports.Codec, error) {
	if err := o.b.check(StepFindEncoder); err != nil {
		return nil, err
	}
	return codec{name: o.b.CodecName}, nil
}

func (o *output) NewStream() (ports.Stream, error) {
	if err := o.b.check(StepNewStream); err != nil {
		return nil, err
	}
	s := &stream{}
	o.b.mu.Lock()
	o.b.stream = s
	o.b.mu.Unlock()
	return s, nil
}

func (o *output) NeedsGlobalHeader() bool { return o.b.GlobalHeader }

func (o *output) OpenFile(path string) error {
	if err := o.b.check(StepOpenFile); err != nil {
		return err
	}
	o.b.mu.Lock()
	o.b.FilePath = path
	o.b.mu.Unlock()
	o.b.record("acquire " + ResFile)
	return nil
}

func (o *output) WriteHeader() error {
	if err := o.b.check(StepWriteHeader); err != nil {
		return err
	}
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	o.b.Header = true
	if s := o.b.stream; s != nil {
		for s.tb.Den > 0 && s.tb.Den < 10000 {
			s.tb.Den *= 2
		}
	}
	return nil
}

func (o *output) WriteInterleaved(p ports.Packet) error {
	if err := o.b.check(StepWritePacket); err != nil {
		return err
	}
	o.b.mu.Lock()
	defer o.b.mu.Unlock()
	if o.b.FailWriteAfter > 0 && len(o.b.Written) >= o.b.FailWriteAfter {
		return fmt.Errorf("%s: %w", StepWritePacket, ErrInjected)
	}
	pk := p.(*packet)
	o.b.Written = append(o.b.Written, WrittenPacket{Pts: pk.pts, Dts: pk.dts, StreamIndex: pk.index})
	return nil
}

func (o *output) WriteTrailer() error {
	if err := o.b.check(StepWriteTrailer); err != nil {
		return err
	}
	o.b.mu.Lock()
	o.b.Trailer = true
	o.b.mu.Unlock()
	return nil
}

func (o *output) CloseFile() error {
	o.b.record("release " + ResFile)
	return o.b.check(StepCloseFile)
}

func (o *output) Free() { o.b.record("release " + ResContainer) }

type stream struct {
	tb ports.Rational
}

func (s *stream) Index() int                    { return 0 }
func (s *stream) TimeBase() ports.Rational      { return s.tb }
func (s *stream) SetTimeBase(tb ports.Rational) { s.tb = tb }

type encoder struct {
	b        *Backend
	tb       ports.Rational
	queue    []int64
	flushing bool
	open     bool
}

func (e *encoder) Configure(cfg ports.EncoderConfig) {
	e.b.mu.Lock()
	e.b.Config = cfg
	e.b.mu.Unlock()
	e.tb = cfg.TimeBase
}

func (e *encoder) Open() error {
	if err := e.b.check(StepOpenEncoder); err != nil {
		return err
	}
	e.open = true
	return nil
}

func (e *encoder) CopyParametersTo(s ports.Stream) error {
	return e.b.check(StepCopyParams)
}

func (e *encoder) TimeBase() ports.Rational { return e.tb }

func (e *encoder) SendFrame(f ports.Frame) error {
	if f == nil {
		if err := e.b.check(StepFlush); err != nil {
			return err
		}
		e.flushing = true
		return nil
	}
	if err := e.b.check(StepSendFrame); err != nil {
		return err
	}
	if !e.open || e.flushing {
		return errors.New("mocks: encoder closed")
	}
	e.b.mu.Lock()
	e.b.SentPts = append(e.b.SentPts, f.Pts())
	e.b.mu.Unlock()
	e.queue = append(e.queue, f.Pts())
	return nil
}

func (e *encoder) ReceivePacket() (ports.Packet, error) {
	if err := e.b.check(StepReceivePacket); err != nil {
		return nil, err
	}
	if len(e.queue) == 0 {
		if e.flushing {
			return nil, ports.ErrEOF
		}
		return nil, ports.ErrAgain
	}
	if !e.flushing && len(e.queue) <= e.b.Delay {
		return nil, ports.ErrAgain
	}
	pts := e.queue[0]
	e.queue = e.queue[1:]
	return &packet{b: e.b, pts: pts, dts: pts}, nil
}

func (e *encoder) Free() { e.b.record("release " + ResEncoder) }

type frame struct {
	b   *Backend
	pts int64
}

func (f *frame) MakeWritable() error { return f.b.check(StepMakeWritable) }
func (f *frame) SetPts(pts int64)    { f.pts = pts }
func (f *frame) Pts() int64          { return f.pts }
func (f *frame) Free()               { f.b.record("release " + ResFrame) }

type converter struct {
	b *Backend
}

func (c *converter) Convert(src []byte, stride int, dst ports.Frame) error {
	if err := c.b.check(StepConvert); err != nil {
		return err
	}
	c.b.mu.Lock()
	c.b.Stride = stride
	c.b.mu.Unlock()
	return nil
}

func (c *converter) Free() { c.b.record("release " + ResConverter) }

type packet struct {
	b     *Backend
	pts   int64
	dts   int64
	index int
}

func (p *packet) RescaleTs(from, to ports.Rational) {
	p.pts = rescale(p.pts, from, to)
	p.dts = rescale(p.dts, from, to)
}

func (p *packet) SetStreamIndex(index int) { p.index = index }
func (p *packet) Pts() int64               { return p.pts }
func (p *packet) Dts() int64               { return p.dts }

func (p *packet) Unref() {
	p.b.mu.Lock()
	p.b.Unrefs++
	p.b.mu.Unlock()
}

// rescale converts v from one time base to another, rounding to nearest.
func rescale(v int64, from, to ports.Rational) int64 {
	num := v * int64(from.Num) * int64(to.Den)
	den := int64(from.Den) * int64(to.Num)
	if den == 0 {
		return v
	}
	return (num + den/2) / den
}

var _ ports.MediaBackend = (*Backend)(nil)
