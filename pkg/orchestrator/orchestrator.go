// Package orchestrator coordinates a render: encode, probe, summarize.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/user/mem2vid/pkg/pipeline"
	"github.com/user/mem2vid/pkg/ports"
	"github.com/user/mem2vid/pkg/summarizer"
)

// RunResult contains the outcome of a render.
type RunResult struct {
	Path     string
	Frames   int
	Duration time.Duration
	FileSize int64
	Elapsed  time.Duration

	// Info is the probed video track; nil when probing failed.
	Info *ports.VideoInfo
}

// Orchestrator runs the encode stage and inspects its output.
type Orchestrator struct {
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult]
	prober      ports.Prober
	fs          ports.FileSystem
	logger      ports.Logger
	now         func() time.Time
}

// New creates a new Orchestrator.
func New(
	encodeStage pipeline.Stage[pipeline.EncodeInput, pipeline.EncodeResult],
	prober ports.Prober,
	fs ports.FileSystem,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		encodeStage: encodeStage,
		prober:      prober,
		fs:          fs,
		logger:      logger,
		now:         time.Now,
	}
}

// Run renders and encodes input, then probes the produced file.
// A probe failure is logged and leaves Info nil.
func (o *Orchestrator) Run(ctx context.Context, input pipeline.EncodeInput) (RunResult, error) {
	o.logger.Info("Rendering %s (%d segments, %d frames)", input.Name, len(input.Segments), input.TotalFrames())
	start := o.now()

	encoded, err := o.encodeStage.Execute(ctx, input)
	if err != nil {
		o.logger.Error("Failed to encode video: %s", err)
		return RunResult{}, fmt.Errorf("encode stage: %w", err)
	}

	result := RunResult{
		Path:     encoded.Path,
		Frames:   encoded.Frames,
		Duration: encoded.Duration,
		Elapsed:  o.now().Sub(start),
	}

	if size, err := o.fs.Size(encoded.Path); err == nil {
		result.FileSize = size
	} else {
		o.logger.Warn("Could not read size of %s: %s", encoded.Path, err)
	}

	info, err := o.prober.ProbeFile(encoded.Path)
	if err != nil {
		o.logger.Warn("Could not probe %s: %s", encoded.Path, err)
	} else {
		result.Info = info
		if info.Frames != encoded.Frames {
			o.logger.Warn("Probed %d frames, encoded %d", info.Frames, encoded.Frames)
		}
	}

	o.logger.Info("Video encoded: %d frames, %d bytes", result.Frames, result.FileSize)
	return result, nil
}

// BuildSummary assembles a report of a finished render.
func BuildSummary(input pipeline.EncodeInput, result RunResult) *summarizer.Summary {
	b := summarizer.NewBuilder().
		WithSettings(summarizer.Settings{
			Output:      input.Name,
			Width:       input.Options.Width,
			Height:      input.Options.Height,
			FPS:         input.Options.FPS,
			BitrateMbps: input.Options.BitrateMbps,
			Workers:     input.Workers,
		}).
		WithElapsed(result.Elapsed)

	for _, seg := range input.Segments {
		b.WithSegment(string(seg.Pattern.Kind), seg.Frames)
	}

	video := summarizer.VideoInfo{
		Path:     result.Path,
		Width:    input.Options.Width,
		Height:   input.Options.Height,
		Frames:   result.Frames,
		Duration: result.Duration,
		FPS:      input.Options.FPS,
		FileSize: result.FileSize,
	}
	if info := result.Info; info != nil {
		video.Codec = info.Codec
		video.Width = info.Width
		video.Height = info.Height
		video.Frames = info.Frames
		video.Keyframes = info.Keyframes
		video.Duration = info.Duration
		video.FPS = info.FPS
	}
	return b.WithVideo(video).Build()
}
