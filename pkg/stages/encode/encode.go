// Package encode implements the render-and-encode stage.
package encode

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/mem2vid/pkg/pipeline"
	"github.com/user/mem2vid/pkg/ports"
)

// batchPerWorker bounds how many rendered frames wait for the encoder.
const batchPerWorker = 4

// Stage renders a job's segments and encodes them into one video.
// Frames are rendered concurrently and submitted strictly in order.
type Stage struct {
	renderer ports.PatternRenderer
	encoder  ports.VideoEncoder
	fs       ports.FileSystem
	logger   ports.Logger
}

// NewStage creates a new encode stage.
func NewStage(renderer ports.PatternRenderer, encoder ports.VideoEncoder, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		encoder:  encoder,
		fs:       fs,
		logger:   logger.WithComponent("encode"),
	}
}

type frameRef struct {
	segment int
	index   int // within the segment
}

// Execute renders and encodes every frame of input.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{}

	total := input.TotalFrames()
	if total == 0 {
		return result, fmt.Errorf("no frames to encode")
	}
	workers := input.Workers
	if workers < 1 {
		workers = 1
	}

	if dir := filepath.Dir(input.Name); dir != "." {
		if err := s.fs.MkdirAll(dir); err != nil {
			return result, fmt.Errorf("create output directory: %w", err)
		}
	}

	refs := make([]frameRef, 0, total)
	for i, seg := range input.Segments {
		s.logger.Debug("Segment %d: %d frames (%s)", i, seg.Frames, seg.Pattern.Kind)
		for j := 0; j < seg.Frames; j++ {
			refs = append(refs, frameRef{segment: i, index: j})
		}
	}

	if err := s.encoder.Begin(input.Name, input.Options); err != nil {
		return result, fmt.Errorf("begin encoding: %w", err)
	}

	s.logger.Info("Rendering %d frames with %d workers", total, workers)

	if err := s.encodeAll(ctx, input, refs, workers); err != nil {
		// close the file so a partial video is still playable
		if _, endErr := s.encoder.End(); endErr != nil {
			s.logger.Warn("Failed to finish video: %v", endErr)
		}
		return result, err
	}

	path, err := s.encoder.End()
	if err != nil {
		return result, fmt.Errorf("end encoding: %w", err)
	}

	result.Path = path
	result.Frames = total
	result.Duration = time.Duration(float64(total) / input.Options.FPS * float64(time.Second))
	s.logger.Info("Output saved to %s", path)
	return result, nil
}

func (s *Stage) encodeAll(ctx context.Context, input pipeline.EncodeInput, refs []frameRef, workers int) error {
	batch := workers * batchPerWorker
	images := make([]image.Image, batch)
	w, h := input.Options.Width, input.Options.Height

	for start := 0; start < len(refs); start += batch {
		end := min(start+batch, len(refs))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ref := refs[i]
				seg := input.Segments[ref.segment]
				img, err := s.renderer.Render(seg.Pattern, w, h, ref.index, seg.Frames)
				if err != nil {
					return fmt.Errorf("render frame %d: %w", i, err)
				}
				images[i-start] = img
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := start; i < end; i++ {
			if err := s.encoder.EncodeFrame(images[i-start]); err != nil {
				return fmt.Errorf("encode frame %d: %w", i, err)
			}
			images[i-start] = nil
		}
		s.logger.Debug("Encoded %d/%d frames", end, len(refs))
	}
	return nil
}
