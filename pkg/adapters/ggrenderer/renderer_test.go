package ggrenderer

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"

	"github.com/user/mem2vid/pkg/ports"
)

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestRenderer_Solid(t *testing.T) {
	img, err := New().Render(ports.Pattern{Kind: ports.PatternSolid, Color: color.RGBA{R: 255, A: 255}}, 32, 16, 0, 1)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("expected 32x16, got %dx%d", b.Dx(), b.Dy())
	}
	if r, g, b := rgbAt(img, 10, 10); r != 255 || g != 0 || b != 0 {
		t.Errorf("expected red, got %d,%d,%d", r, g, b)
	}
}

func TestRenderer_Gradient(t *testing.T) {
	p := ports.Pattern{Kind: ports.PatternGradient, Color: color.Black, ToColor: color.White}
	img, err := New().Render(p, 16, 64, 0, 1)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	top, _, _ := rgbAt(img, 8, 0)
	bottom, _, _ := rgbAt(img, 8, 63)
	if top >= bottom {
		t.Errorf("expected brightness to increase downwards, top=%d bottom=%d", top, bottom)
	}
}

func TestRenderer_ImageIsScaled(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	img, err := New().Render(ports.Pattern{Kind: ports.PatternImage, Image: src}, 64, 64, 0, 1)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if _, _, b := rgbAt(img, 32, 32); b < 200 {
		t.Errorf("expected blue center, got b=%d", b)
	}
}

func TestRenderer_Caption(t *testing.T) {
	p := ports.Pattern{Kind: ports.PatternCaption, Color: color.Black, ToColor: color.White, Text: "frame %d"}
	img, err := New().Render(p, 128, 32, 3, 10)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lit := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !lit; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _ := rgbAt(img, x, y); r > 128 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected caption pixels on black background")
	}
}

func TestRenderer_Errors(t *testing.T) {
	r := New()
	if _, err := r.Render(ports.Pattern{Kind: ports.PatternImage}, 8, 8, 0, 1); err == nil {
		t.Error("expected error for image pattern without image")
	}
	if _, err := r.Render(ports.Pattern{Kind: "sparkles"}, 8, 8, 0, 1); err == nil {
		t.Error("expected error for unknown pattern")
	}
	if _, err := r.Render(ports.Pattern{Kind: ports.PatternSolid}, 0, 8, 0, 1); err == nil {
		t.Error("expected error for empty size")
	}
}

func TestRenderer_FontParsedOnce(t *testing.T) {
	var reads atomic.Int32
	r := New()
	r.FontPath = "Go-Regular.ttf"
	r.readFile = func(path string) ([]byte, error) {
		reads.Add(1)
		if path != "Go-Regular.ttf" {
			t.Errorf("read %q", path)
		}
		return goregular.TTF, nil
	}

	p := ports.Pattern{Kind: ports.PatternCaption, Color: color.Black, ToColor: color.White, Text: "frame %d"}
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			_, err := r.Render(p, 96, 32, i, 32)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if n := reads.Load(); n != 1 {
		t.Errorf("font read %d times, want 1", n)
	}
}

func TestRenderer_FontErrorIsSticky(t *testing.T) {
	reads := 0
	r := New()
	r.FontPath = "missing.ttf"
	r.readFile = func(string) ([]byte, error) {
		reads++
		return nil, errors.New("no such file")
	}

	p := ports.Pattern{Kind: ports.PatternCaption, Text: "x"}
	for i := 0; i < 3; i++ {
		if _, err := r.Render(p, 16, 16, i, 3); err == nil {
			t.Fatal("expected font error")
		}
	}
	if reads != 1 {
		t.Errorf("font read %d times, want 1", reads)
	}
}

func TestRenderer_BadFontData(t *testing.T) {
	r := New()
	r.FontPath = "broken.ttf"
	r.readFile = func(string) ([]byte, error) { return []byte("not a font"), nil }

	if _, err := r.Render(ports.Pattern{Kind: ports.PatternCaption, Text: "x"}, 16, 16, 0, 1); err == nil {
		t.Fatal("expected parse error")
	}
}
