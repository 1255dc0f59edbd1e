package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(fn func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = fn
	}
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = v
	}
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Render Summary"))

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Output"), s.Settings.Output)
	fmt.Fprintf(&b, "| %s | %dx%d |\n", t("Frame Size"), s.Settings.Width, s.Settings.Height)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Frame Rate"), formatFPS(s.Settings.FPS))
	fmt.Fprintf(&b, "| %s | %d Mbps |\n", t("Bitrate"), s.Settings.BitrateMbps)
	if s.Settings.Workers > 0 {
		fmt.Fprintf(&b, "| %s | %d |\n", t("Workers"), s.Settings.Workers)
	}
	b.WriteString("\n")

	if len(s.Segments) > 0 {
		fmt.Fprintf(&b, "## %s\n\n", t("Segments"))
		fmt.Fprintf(&b, "| # | %s | %s |\n|---|---|---|\n", t("Kind"), t("Frames"))
		for i, seg := range s.Segments {
			fmt.Fprintf(&b, "| %d | %s | %d |\n", i+1, seg.Kind, seg.Frames)
		}
		b.WriteString("\n")
	}

	v := s.Video
	fmt.Fprintf(&b, "## %s\n\n", t("Video"))
	fmt.Fprintf(&b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	if v.Path != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("File"), v.Path)
	}
	if v.Codec != "" {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Codec"), v.Codec)
	}
	fmt.Fprintf(&b, "| %s | %dx%d |\n", t("Dimensions"), v.Width, v.Height)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Frames"), v.Frames)
	fmt.Fprintf(&b, "| %s | %d |\n", t("Keyframes"), v.Keyframes)
	fmt.Fprintf(&b, "| %s | %s |\n", t("Duration"), formatDuration(v.Duration))
	fmt.Fprintf(&b, "| %s | %s |\n", t("Frame Rate"), formatFPS(v.FPS))
	if v.FileSize > 0 {
		fmt.Fprintf(&b, "| %s | %s |\n", t("File Size"), formatBytes(v.FileSize))
	}
	if s.Elapsed > 0 {
		fmt.Fprintf(&b, "| %s | %s |\n", t("Render Time"), formatDuration(s.Elapsed))
	}
	b.WriteString("\n")

	b.WriteString("---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (mem2vid %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func formatFPS(fps float64) string {
	return fmt.Sprintf("%.2f fps", fps)
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2f s", d.Seconds())
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 2; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}
