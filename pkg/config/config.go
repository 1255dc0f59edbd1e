// Package config loads render jobs from YAML.
package config

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"gopkg.in/yaml.v3"

	"github.com/user/mem2vid/pkg/pipeline"
	"github.com/user/mem2vid/pkg/ports"
)

// Config represents a render job.
type Config struct {
	// Output
	Output string `yaml:"output"` // path without the .mp4 extension

	// Video
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	FPS     float64 `yaml:"fps"`
	Bitrate int     `yaml:"bitrate"` // Mbps

	// Rendering
	Workers  int       `yaml:"workers"`
	FontPath string    `yaml:"font_path"`
	FontSize float64   `yaml:"font_size"`
	Segments []Segment `yaml:"segments"`
}

// Segment is one run of frames in a job.
type Segment struct {
	Kind    string `yaml:"kind"` // solid, gradient, image, caption
	Color   string `yaml:"color"`
	ToColor string `yaml:"to_color"`
	Image   string `yaml:"image"` // PNG or JPEG path for kind image
	Text    string `yaml:"text"`  // caption; %d is the frame index
	Frames  int    `yaml:"frames"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Output:   "output",
		Width:    640,
		Height:   360,
		FPS:      30.0,
		Bitrate:  4,
		Workers:  4,
		FontSize: 24,
	}
}

// Load reads a YAML job from path over Defaults.
func Load(fs ports.FileSystem, path string) (Config, error) {
	cfg := Defaults()

	data, err := fs.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the job for values the encoder would reject late.
func (c Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("output is required")
	}
	if len(c.Segments) == 0 {
		return fmt.Errorf("at least one segment is required")
	}
	for i, s := range c.Segments {
		if s.Frames <= 0 {
			return fmt.Errorf("segment %d: frames must be positive", i)
		}
		switch ports.PatternKind(s.Kind) {
		case ports.PatternSolid, ports.PatternGradient, ports.PatternCaption:
		case ports.PatternImage:
			if s.Image == "" {
				return fmt.Errorf("segment %d: image path is required", i)
			}
		default:
			return fmt.Errorf("segment %d: unknown kind %q", i, s.Kind)
		}
	}
	return nil
}

// ToEncodeInput converts the job to pipeline.EncodeInput, decoding
// image segments through fs.
func (c Config) ToEncodeInput(fs ports.FileSystem) (pipeline.EncodeInput, error) {
	in := pipeline.EncodeInput{
		Name: c.Output,
		Options: ports.EncoderOptions{
			Width:       c.Width,
			Height:      c.Height,
			FPS:         c.FPS,
			BitrateMbps: c.Bitrate,
		},
		Workers: c.Workers,
	}

	for i, s := range c.Segments {
		p := ports.Pattern{
			Kind:    ports.PatternKind(s.Kind),
			Color:   ParseColor(s.Color),
			ToColor: ParseColor(s.ToColor),
			Text:    s.Text,
		}
		if s.ToColor == "" {
			p.ToColor = nil
		}
		if p.Kind == ports.PatternImage {
			img, err := decodeImage(fs, s.Image)
			if err != nil {
				return in, fmt.Errorf("segment %d: %w", i, err)
			}
			p.Image = img
		}
		in.Segments = append(in.Segments, pipeline.Segment{Pattern: p, Frames: s.Frames})
	}
	return in, nil
}

func decodeImage(fs ports.FileSystem, path string) (image.Image, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// ParseColor parses a hex color string to color.Color.
// Both #rrggbb and #rgb are accepted; anything else is black.
func ParseColor(hex string) color.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	switch len(hex) {
	case 3:
		r, g, b := hexValue(hex[0]), hexValue(hex[1]), hexValue(hex[2])
		return color.RGBA{R: r<<4 | r, G: g<<4 | g, B: b<<4 | b, A: 255}
	case 6:
		return color.RGBA{
			R: hexValue(hex[0])<<4 | hexValue(hex[1]),
			G: hexValue(hex[2])<<4 | hexValue(hex[3]),
			B: hexValue(hex[4])<<4 | hexValue(hex[5]),
			A: 255,
		}
	default:
		return color.Black
	}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
