package encode

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/user/mem2vid/pkg/adapters/logger"
	"github.com/user/mem2vid/pkg/mocks"
	"github.com/user/mem2vid/pkg/pipeline"
	"github.com/user/mem2vid/pkg/ports"
)

func testInput(workers int) pipeline.EncodeInput {
	return pipeline.EncodeInput{
		Name:    "out/demo",
		Options: ports.EncoderOptions{Width: 16, Height: 16, FPS: 10, BitrateMbps: 1},
		Workers: workers,
		Segments: []pipeline.Segment{
			{Pattern: ports.Pattern{Kind: ports.PatternSolid, Color: color.RGBA{R: 255, A: 255}}, Frames: 7},
			{Pattern: ports.Pattern{Kind: ports.PatternSolid, Color: color.RGBA{B: 255, A: 255}}, Frames: 13},
		},
	}
}

func TestStage_Execute(t *testing.T) {
	renderer := &mocks.PatternRenderer{}
	encoder := &mocks.VideoEncoder{}
	fs := mocks.NewFileSystem()

	stage := NewStage(renderer, encoder, fs, logger.NewNoop())

	result, err := stage.Execute(context.Background(), testInput(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !encoder.BeginCalled || encoder.BeginName != "out/demo" {
		t.Errorf("expected Begin(out/demo), got called=%v name=%q", encoder.BeginCalled, encoder.BeginName)
	}
	if !encoder.EndCalled {
		t.Error("expected End to be called")
	}
	if !fs.HasDir("out") {
		t.Error("expected output directory to be created")
	}
	if len(encoder.Frames) != 20 {
		t.Fatalf("expected 20 frames, got %d", len(encoder.Frames))
	}

	// frames arrive in segment order despite parallel rendering
	for i, img := range encoder.Frames {
		r, _, b, _ := img.At(0, 0).RGBA()
		red := r > 0 && b == 0
		if want := i < 7; red != want {
			t.Fatalf("frame %d out of order", i)
		}
	}

	if result.Path != "out/demo.mp4" || result.Frames != 20 || result.Duration != 2*time.Second {
		t.Errorf("unexpected result %+v", result)
	}
	if renderer.CallCount() != 20 {
		t.Errorf("expected 20 renders, got %d", renderer.CallCount())
	}
}

func TestStage_Execute_SingleWorkerIndexes(t *testing.T) {
	renderer := &mocks.PatternRenderer{}
	encoder := &mocks.VideoEncoder{}
	stage := NewStage(renderer, encoder, mocks.NewFileSystem(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// with one worker renders happen in order
	for i, call := range renderer.Calls {
		want := i
		if i >= 7 {
			want = i - 7
		}
		if call.Index != want {
			t.Fatalf("render %d: expected index %d, got %d", i, want, call.Index)
		}
	}
}

func TestStage_Execute_NoFrames(t *testing.T) {
	encoder := &mocks.VideoEncoder{}
	stage := NewStage(&mocks.PatternRenderer{}, encoder, mocks.NewFileSystem(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), pipeline.EncodeInput{Name: "x"}); err == nil {
		t.Error("expected error for empty input")
	}
	if encoder.BeginCalled {
		t.Error("Begin should not be called without frames")
	}
}

func TestStage_Execute_RenderError(t *testing.T) {
	renderErr := errors.New("render failed")
	renderer := &mocks.PatternRenderer{
		RenderFunc: func(p ports.Pattern, width, height, index, count int) (image.Image, error) {
			return nil, renderErr
		},
	}
	encoder := &mocks.VideoEncoder{}
	stage := NewStage(renderer, encoder, mocks.NewFileSystem(), logger.NewNoop())

	_, err := stage.Execute(context.Background(), testInput(2))
	if !errors.Is(err, renderErr) {
		t.Fatalf("expected render error, got %v", err)
	}
	if !encoder.EndCalled {
		t.Error("expected End to close the partial video")
	}
	if len(encoder.Frames) != 0 {
		t.Errorf("expected no frames encoded, got %d", len(encoder.Frames))
	}
}

func TestStage_Execute_BeginError(t *testing.T) {
	beginErr := errors.New("begin failed")
	encoder := &mocks.VideoEncoder{
		BeginFunc: func(name string, opts ports.EncoderOptions) error { return beginErr },
	}
	stage := NewStage(&mocks.PatternRenderer{}, encoder, mocks.NewFileSystem(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(1)); !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
	if encoder.EndCalled {
		t.Error("End should not be called after failed Begin")
	}
}

func TestStage_Execute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	encoder := &mocks.VideoEncoder{}
	stage := NewStage(&mocks.PatternRenderer{}, encoder, mocks.NewFileSystem(), logger.NewNoop())

	if _, err := stage.Execute(ctx, testInput(2)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStage_Execute_EncodeError(t *testing.T) {
	encodeErr := errors.New("encode failed")
	encoder := &mocks.VideoEncoder{
		EncodeFrameFunc: func(img image.Image) error { return encodeErr },
	}
	stage := NewStage(&mocks.PatternRenderer{}, encoder, mocks.NewFileSystem(), logger.NewNoop())

	if _, err := stage.Execute(context.Background(), testInput(2)); !errors.Is(err, encodeErr) {
		t.Fatalf("expected encode error, got %v", err)
	}
	if len(encoder.Frames) != 1 {
		t.Errorf("expected encoding to stop after first frame, got %d", len(encoder.Frames))
	}
}
