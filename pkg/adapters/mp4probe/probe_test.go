package mp4probe

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

const (
	testTimescale = 90000
	testSampleDur = 3000 // 30 fps
)

// avcc packs NAL units with 4-byte length prefixes.
func avcc(nalus ...[]byte) []byte {
	var b []byte
	for _, n := range nalus {
		b = binary.BigEndian.AppendUint32(b, uint32(len(n)))
		b = append(b, n...)
	}
	return b
}

var (
	idrSample   = avcc([]byte{0x06, 0x05, 0x01}, []byte{0x65, 0x88, 0x84, 0x00})
	sliceSample = avcc([]byte{0x41, 0x9a, 0x02})
)

type testTrack struct {
	codec   string
	samples [][]byte
	offsets []int32 // composition offsets per sample, nil for no ctts
	sync    []uint32
}

// buildProgressive writes ftyp, moov and mdat for one video track with two
// samples per chunk.
func buildProgressive(t *testing.T, tr testTrack) []byte {
	t.Helper()

	moov := mp4.NewMoovBox()
	moov.AddChild(mp4.CreateMvhd())
	trak := mp4.CreateEmptyTrak(1, testTimescale, "video", "und")
	moov.AddChild(trak)

	stbl := trak.Mdia.Minf.Stbl
	stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox(tr.codec, 64, 48, nil))

	n := uint32(len(tr.samples))
	stbl.Stts.SampleCount = []uint32{n}
	stbl.Stts.SampleTimeDelta = []uint32{testSampleDur}

	if tr.offsets != nil {
		counts := make([]uint32, len(tr.offsets))
		for i := range counts {
			counts[i] = 1
		}
		ctts := &mp4.CttsBox{}
		if err := ctts.AddSampleCountsAndOffset(counts, tr.offsets); err != nil {
			t.Fatalf("ctts: %v", err)
		}
		stbl.AddChild(ctts)
	}
	if tr.sync != nil {
		stbl.AddChild(&mp4.StssBox{SampleNumber: tr.sync})
	}

	if err := stbl.Stsc.AddEntry(1, 2, 1); err != nil {
		t.Fatalf("stsc: %v", err)
	}

	var data []byte
	var chunkStarts []uint32
	for i, s := range tr.samples {
		if i%2 == 0 {
			chunkStarts = append(chunkStarts, uint32(len(data)))
		}
		stbl.Stsz.SampleSize = append(stbl.Stsz.SampleSize, uint32(len(s)))
		data = append(data, s...)
	}
	stbl.Stsz.SampleNumber = n
	stbl.Stco.ChunkOffset = make([]uint32, len(chunkStarts))

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "avc1"})
	mdat := &mp4.MdatBox{Data: data}
	base := uint32(ftyp.Size() + moov.Size() + mdat.HeaderSize())
	for i, off := range chunkStarts {
		stbl.Stco.ChunkOffset[i] = base + off
	}

	var buf bytes.Buffer
	for _, box := range []mp4.Box{ftyp, moov, mdat} {
		if err := box.Encode(&buf); err != nil {
			t.Fatalf("encode %s: %v", box.Type(), err)
		}
	}
	return buf.Bytes()
}

func TestProbeH264Track(t *testing.T) {
	file := buildProgressive(t, testTrack{
		codec:   "avc1",
		samples: [][]byte{idrSample, sliceSample, sliceSample, idrSample},
		offsets: []int32{3000, 6000, 0, 3000},
		// stss lists only the first sample; keyframes come from the NAL units
		sync: []uint32{1},
	})

	info, err := New().Probe(bytes.NewReader(file))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if info.Codec != "avc1" {
		t.Errorf("Codec = %q, want avc1", info.Codec)
	}
	if info.Width != 64 || info.Height != 48 {
		t.Errorf("size = %dx%d, want 64x48", info.Width, info.Height)
	}
	if info.Timescale != testTimescale {
		t.Errorf("Timescale = %d, want %d", info.Timescale, testTimescale)
	}
	if info.Frames != 4 {
		t.Errorf("Frames = %d, want 4", info.Frames)
	}
	if info.Keyframes != 2 {
		t.Errorf("Keyframes = %d, want 2", info.Keyframes)
	}

	wantPts := []int64{3000, 9000, 6000, 12000}
	if !reflect.DeepEqual(info.PresentationTimes, wantPts) {
		t.Errorf("PresentationTimes = %v, want %v", info.PresentationTimes, wantPts)
	}

	wantDur := 12000 * time.Second / testTimescale
	if info.Duration != wantDur {
		t.Errorf("Duration = %v, want %v", info.Duration, wantDur)
	}
	if info.FPS != 30 {
		t.Errorf("FPS = %v, want 30", info.FPS)
	}
}

func TestProbeSyncSampleTable(t *testing.T) {
	samples := [][]byte{{1, 2}, {3}, {4, 5, 6}, {7}}

	tests := []struct {
		name string
		sync []uint32
		want int
	}{
		{"listed sync samples", []uint32{1, 3}, 2},
		{"no stss means all sync", nil, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := buildProgressive(t, testTrack{codec: "hvc1", samples: samples, sync: tt.sync})

			info, err := New().Probe(bytes.NewReader(file))
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if info.Codec != "hvc1" {
				t.Errorf("Codec = %q, want hvc1", info.Codec)
			}
			if info.Keyframes != tt.want {
				t.Errorf("Keyframes = %d, want %d", info.Keyframes, tt.want)
			}
			wantPts := []int64{0, 3000, 6000, 9000}
			if !reflect.DeepEqual(info.PresentationTimes, wantPts) {
				t.Errorf("PresentationTimes = %v, want %v", info.PresentationTimes, wantPts)
			}
		})
	}
}

func TestProbeCorruptH264Sample(t *testing.T) {
	// length prefix runs past the sample
	bad := []byte{0x00, 0x00, 0x00, 0x40, 0x65}
	file := buildProgressive(t, testTrack{
		codec:   "avc1",
		samples: [][]byte{idrSample, bad},
	})

	if _, err := New().Probe(bytes.NewReader(file)); err == nil {
		t.Fatal("Probe() succeeded on a truncated NAL unit")
	}
}

func TestProbeFileMissing(t *testing.T) {
	_, err := New().ProbeFile(filepath.Join(t.TempDir(), "missing.mp4"))
	if err == nil {
		t.Fatal("ProbeFile() succeeded on a missing file")
	}
}

func TestProbeNotMP4(t *testing.T) {
	_, err := New().Probe(bytes.NewReader([]byte("definitely not an mp4 file")))
	if err == nil {
		t.Fatal("Probe() succeeded on garbage")
	}
}

func TestProbeTrackWithoutSamples(t *testing.T) {
	seg := mp4.CreateEmptyInit()
	seg.AddEmptyTrack(testTimescale, "video", "und")

	var buf bytes.Buffer
	if err := seg.Encode(&buf); err != nil {
		t.Fatalf("encode init: %v", err)
	}

	info, err := New().Probe(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Frames != 0 || info.Keyframes != 0 {
		t.Errorf("Frames = %d, Keyframes = %d, want 0", info.Frames, info.Keyframes)
	}
	if info.Duration != 0 {
		t.Errorf("Duration = %v, want 0", info.Duration)
	}
}

func TestProbeRejectsMediaSegments(t *testing.T) {
	seg := mp4.CreateEmptyInit()
	seg.AddEmptyTrack(testTimescale, "video", "und")

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatalf("create fragment: %v", err)
	}
	frag.AddFullSample(mp4.FullSample{
		Sample: mp4.NewSample(mp4.SyncSampleFlags, testSampleDur, uint32(len(idrSample)), 0),
		Data:   idrSample,
	})

	var buf bytes.Buffer
	if err := seg.Encode(&buf); err != nil {
		t.Fatalf("encode init: %v", err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatalf("encode fragment: %v", err)
	}

	if _, err := New().Probe(bytes.NewReader(buf.Bytes())); err == nil {
		t.Fatal("Probe() accepted a fragmented file")
	}
}
