package summarizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/mem2vid/pkg/mocks"
)

func testSummary() *Summary {
	s := NewBuilder().
		WithSettings(Settings{Output: "out/demo", Width: 64, Height: 64, FPS: 30, BitrateMbps: 1, Workers: 4}).
		WithSegment("solid", 30).
		WithSegment("caption", 30).
		WithVideo(VideoInfo{
			Path:      "out/demo.mp4",
			Codec:     "avc1",
			Width:     64,
			Height:    64,
			Frames:    60,
			Keyframes: 4,
			Duration:  2 * time.Second,
			FPS:       30,
			FileSize:  1536,
		}).
		WithElapsed(1500 * time.Millisecond).
		Build()
	s.GeneratedAt = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return s
}

func TestBuilder(t *testing.T) {
	s := testSummary()
	if len(s.Segments) != 2 || s.Segments[1].Kind != "caption" {
		t.Errorf("unexpected segments %+v", s.Segments)
	}
	if s.Video.Frames != 60 || s.Elapsed != 1500*time.Millisecond {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestMarkdownFormatter_Format(t *testing.T) {
	result := NewMarkdownFormatter().Format(testSummary())

	checks := []string{
		"# Render Summary",
		"out/demo.mp4",
		"avc1",
		"| Frames | 60 |",
		"| Keyframes | 4 |",
		"2.00 s",
		"30.00 fps",
		"1 Mbps",
		"1.50 KB",
		"| 2 | caption | 30 |",
		"2024-01-15T10:30:00Z",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Render Summary": "レンダリングサマリー",
			"Keyframes":      "キーフレーム",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(testSummary())

	if !strings.Contains(result, "レンダリングサマリー") {
		t.Error("expected translated 'Render Summary'")
	}
	if !strings.Contains(result, "キーフレーム") {
		t.Error("expected translated 'Keyframes'")
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(testSummary())
	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatBytes(tt.bytes); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestWriter_Write(t *testing.T) {
	fs := mocks.NewFileSystem()
	w := NewWriter(FormatFunc(func(s *Summary) string { return "summary" }), fs)

	if err := w.Write("reports/demo.md", testSummary()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !fs.HasDir("reports") {
		t.Error("expected parent directory to be created")
	}
	data, ok := fs.GetFile("reports/demo.md")
	if !ok || string(data) != "summary" {
		t.Errorf("unexpected file %q (exists=%v)", data, ok)
	}
}

func TestWriter_WriteError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error { return errors.New("disk full") }

	w := NewWriter(NewMarkdownFormatter(), fs)
	if err := w.Write("demo.md", testSummary()); err == nil {
		t.Error("expected write error")
	}
}
