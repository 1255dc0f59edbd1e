package videowriter

import (
	"fmt"
	"math"

	"github.com/user/mem2vid/pkg/ports"
)

const (
	// ContainerFormat is the output container every session writes.
	ContainerFormat = "mp4"

	// Extension is appended to the session name to form the output path.
	Extension = ".mp4"

	// FrameAlign is the byte alignment of the reusable destination frame.
	FrameAlign = 32

	// MaxBFrames is the bidirectional reference frame limit.
	MaxBFrames = 2

	// maxTimeBaseTerm bounds time base terms to a C int.
	maxTimeBaseTerm = math.MaxInt32
)

// Params configures a session.
type Params struct {
	BitrateMbps int     // Target bitrate in Mbps
	Width       int     // Frame width in pixels
	Height      int     // Frame height in pixels
	FPS         float64 // Frames per second
}

// Validate checks that p can be used to open a session.
func (p Params) Validate() error {
	switch {
	case p.BitrateMbps <= 0:
		return fmt.Errorf("%w: bitrate %d Mbps", ErrInvalidParams, p.BitrateMbps)
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParams, p.Width, p.Height)
	case p.Width%2 != 0 || p.Height%2 != 0:
		// 4:2:0 chroma planes need even dimensions
		return fmt.Errorf("%w: size %dx%d is not even", ErrInvalidParams, p.Width, p.Height)
	case p.FPS <= 0 || math.IsNaN(p.FPS) || math.IsInf(p.FPS, 0):
		return fmt.Errorf("%w: fps %v", ErrInvalidParams, p.FPS)
	case timeBaseTerm(p.FPS) > maxTimeBaseTerm:
		return fmt.Errorf("%w: fps %v has no representable time base", ErrInvalidParams, p.FPS)
	}
	return nil
}

// FrameSize returns the byte length of one packed RGB24 frame.
func (p Params) FrameSize() int {
	return p.Width * p.Height * 3
}

// BitRate returns the target bitrate in bits per second.
func (p Params) BitRate() int64 {
	return int64(p.BitrateMbps) * 1000000
}

// GopSize returns the keyframe interval: half a second of frames, rounded
// toward zero.
func (p Params) GopSize() int {
	return int(p.FPS / 2)
}

// TimeBase returns the encoder and stream time base for the frame rate.
func (p Params) TimeBase() ports.Rational {
	return TimeBaseForFPS(p.FPS)
}

// EncoderConfig returns the encoder settings derived from p.
func (p Params) EncoderConfig(globalHeader bool) ports.EncoderConfig {
	return ports.EncoderConfig{
		BitRate:      p.BitRate(),
		Width:        p.Width,
		Height:       p.Height,
		TimeBase:     p.TimeBase(),
		PixelFormat:  ports.PixelFormatYUV420P,
		GopSize:      p.GopSize(),
		MaxBFrames:   MaxBFrames,
		GlobalHeader: globalHeader,
	}
}

// TimeBaseForFPS returns 1/fps as a reduced rational. Fractional rates are
// expressed in thousandths, so 29.97 becomes 1000/29970 reduced to 100/2997.
// Below one frame per second the thousandths move to the numerator: 0.3
// becomes 3333/1000. fps must pass Params.Validate.
func TimeBaseForFPS(fps float64) ports.Rational {
	var num, den int
	switch {
	case fps == math.Trunc(fps):
		return ports.Rational{Num: 1, Den: int(fps)}
	case fps < 1:
		num, den = int(math.Round(1000/fps)), 1000
	default:
		num, den = 1000, int(math.Round(fps*1000))
	}
	g := gcd(num, den)
	return ports.Rational{Num: num / g, Den: den / g}
}

// timeBaseTerm returns the largest unreduced term TimeBaseForFPS produces.
func timeBaseTerm(fps float64) float64 {
	switch {
	case fps == math.Trunc(fps):
		return fps
	case fps < 1:
		return math.Round(1000 / fps)
	default:
		return math.Round(fps * 1000)
	}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Filename returns the output path for a session name.
func Filename(name string) string {
	return name + Extension
}
