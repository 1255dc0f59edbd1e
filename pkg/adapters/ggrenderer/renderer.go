// Package ggrenderer draws synthetic video frames with the gg library.
package ggrenderer

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/user/mem2vid/pkg/ports"
)

// Renderer implements ports.PatternRenderer using gg.
// It is safe for concurrent use; every frame gets its own context.
// FontPath and FontSize must not change after the first Render.
type Renderer struct {
	// FontPath is a TrueType font for captions. Empty uses gg's built-in face.
	FontPath string
	FontSize float64

	readFile func(string) ([]byte, error)

	fontOnce sync.Once
	font     *truetype.Font
	fontErr  error
	// faces are not safe for concurrent use; one per drawing goroutine
	faces sync.Pool
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{FontSize: 24, readFile: os.ReadFile}
}

// Render draws one frame of p.
func (r *Renderer) Render(p ports.Pattern, width, height, index, count int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("ggrenderer: invalid size %dx%d", width, height)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(orDefault(p.Color, color.Black))
	dc.Clear()

	switch p.Kind {
	case ports.PatternSolid:
		// background only
	case ports.PatternGradient:
		grad := gg.NewLinearGradient(0, 0, 0, float64(height))
		grad.AddColorStop(0, orDefault(p.Color, color.Black))
		grad.AddColorStop(1, orDefault(p.ToColor, color.White))
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(width), float64(height))
		dc.Fill()
	case ports.PatternImage:
		if p.Image == nil {
			return nil, fmt.Errorf("ggrenderer: image pattern without image")
		}
		dc.DrawImage(fit(p.Image, width, height))
	case ports.PatternCaption:
		if err := r.drawCaption(dc, p, width, height, index); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("ggrenderer: unknown pattern %q", p.Kind)
	}

	return dc.Image(), nil
}

func (r *Renderer) drawCaption(dc *gg.Context, p ports.Pattern, width, height, index int) error {
	if r.FontPath != "" {
		face, err := r.face()
		if err != nil {
			return err
		}
		defer r.faces.Put(face)
		dc.SetFontFace(face)
	}
	text := strings.ReplaceAll(p.Text, "%d", strconv.Itoa(index))
	dc.SetColor(orDefault(p.ToColor, color.White))
	dc.DrawStringWrapped(text, float64(width)/2, float64(height)/2, 0.5, 0.5, float64(width)*0.9, 1.4, gg.AlignCenter)
	return nil
}

// face returns a caption face from the pool, parsing FontPath on first use.
func (r *Renderer) face() (font.Face, error) {
	r.fontOnce.Do(r.loadFont)
	if r.fontErr != nil {
		return nil, r.fontErr
	}
	return r.faces.Get().(font.Face), nil
}

func (r *Renderer) loadFont() {
	data, err := r.readFile(r.FontPath)
	if err != nil {
		r.fontErr = fmt.Errorf("ggrenderer: load font: %w", err)
		return
	}
	f, err := truetype.Parse(data)
	if err != nil {
		r.fontErr = fmt.Errorf("ggrenderer: parse font %s: %w", r.FontPath, err)
		return
	}
	r.font = f
	r.faces.New = func() any {
		return truetype.NewFace(r.font, &truetype.Options{Size: r.FontSize})
	}
}

// fit scales img to cover at most width x height, keeping its aspect ratio,
// and returns it with the offset that centers it.
func fit(img image.Image, width, height int) (image.Image, int, int) {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return img, 0, 0
	}
	scale := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, (width - w) / 2, (height - h) / 2
}

func orDefault(c, def color.Color) color.Color {
	if c == nil {
		return def
	}
	return c
}

// Ensure Renderer implements ports.PatternRenderer
var _ ports.PatternRenderer = (*Renderer)(nil)
