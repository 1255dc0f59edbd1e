// Package mp4probe inspects the video track of progressive MP4 files.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/bluenviron/mediacommon/pkg/codecs/h264"

	"github.com/user/mem2vid/pkg/ports"
)

// ErrNoVideoTrack is returned when a file has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Prober implements ports.Prober.
type Prober struct{}

// New creates a Prober.
func New() *Prober {
	return &Prober{}
}

// ProbeFile reads the sample tables of path's first video track.
func (p *Prober) ProbeFile(path string) (*ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return p.Probe(f)
}

// Probe reads the sample tables of the first video track in r.
func (p *Prober) Probe(r io.ReadSeeker) (*ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	// mp4ff marks a moov without samples as fragmented; only media
	// segments make a file unreadable here
	if mp4File.Moov == nil || len(mp4File.Segments) > 0 {
		return nil, fmt.Errorf("mp4probe: not a progressive mp4")
	}

	trak := videoTrack(mp4File.Moov)
	if trak == nil {
		return nil, ErrNoVideoTrack
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
		return nil, fmt.Errorf("mp4probe: no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl

	info := &ports.VideoInfo{
		Codec:     "unknown",
		Timescale: 1000,
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		info.Timescale = trak.Mdia.Mdhd.Timescale
	}
	if stbl.Stsd != nil {
		for _, child := range stbl.Stsd.Children {
			if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
				info.Codec = vse.Type()
				info.Width = int(vse.Width)
				info.Height = int(vse.Height)
				break
			}
		}
	}

	sampleCount := stbl.Stsz.SampleNumber
	info.Frames = int(sampleCount)
	info.PresentationTimes = make([]int64, 0, sampleCount)

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	var total uint64
	for nr := uint32(1); nr <= sampleCount; nr++ {
		var decodeTime uint64
		var dur uint32
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(nr)
		}
		pts := int64(decodeTime)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		info.PresentationTimes = append(info.PresentationTimes, pts)
		total += uint64(dur)

		key, err := isKeyframe(info.Codec, stbl, r, nr, syncSamples)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", nr, err)
		}
		if key {
			info.Keyframes++
		}
	}

	info.Duration = time.Duration(total) * time.Second / time.Duration(info.Timescale)
	if total > 0 {
		info.FPS = float64(sampleCount) * float64(info.Timescale) / float64(total)
	}
	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

// isKeyframe checks H.264 samples for an IDR NAL unit and falls back to the
// sync sample table for other codecs. Without stss every sample is a sync
// sample.
func isKeyframe(codec string, stbl *mp4.StblBox, r io.ReadSeeker, nr uint32, sync map[uint32]bool) (bool, error) {
	if codec != "avc1" && codec != "avc3" {
		return stbl.Stss == nil || sync[nr], nil
	}
	data, err := sampleData(stbl, r, nr)
	if err != nil {
		return false, err
	}
	au, err := h264.AVCCUnmarshal(data)
	if err != nil {
		return false, fmt.Errorf("unmarshal avcc: %w", err)
	}
	return h264.IDRPresent(au), nil
}

// sampleData reads one sample of a progressive file.
func sampleData(stbl *mp4.StblBox, r io.ReadSeeker, nr uint32) ([]byte, error) {
	if stbl.Stsc == nil {
		return nil, fmt.Errorf("missing stsc box")
	}

	chunkNr, firstInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(nr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var offset uint64
	switch {
	case stbl.Stco != nil:
		offset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		offset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	for s := uint32(firstInChunk); s < nr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(nr)))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

var _ ports.Prober = (*Prober)(nil)
