package mocks

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/user/mem2vid/pkg/ports"
)

// PatternRenderer is a mock implementation of ports.PatternRenderer.
// By default it fills the frame with the pattern colour.
type PatternRenderer struct {
	RenderFunc func(p ports.Pattern, width, height, index, count int) (image.Image, error)

	mu    sync.Mutex
	Calls []RenderCall
}

// RenderCall records a call to Render.
type RenderCall struct {
	Kind  ports.PatternKind
	Index int
	Count int
}

func (m *PatternRenderer) Render(p ports.Pattern, width, height, index, count int) (image.Image, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, RenderCall{Kind: p.Kind, Index: index, Count: count})
	m.mu.Unlock()
	if m.RenderFunc != nil {
		return m.RenderFunc(p, width, height, index, count)
	}
	c := p.Color
	if c == nil {
		c = color.Black
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img, nil
}

// CallCount returns the number of Render calls.
func (m *PatternRenderer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

var _ ports.PatternRenderer = (*PatternRenderer)(nil)
