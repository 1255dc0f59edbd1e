// Package main provides the CLI entry point for mem2vid.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/mem2vid/pkg/adapters/avbackend"
	"github.com/user/mem2vid/pkg/adapters/ggrenderer"
	"github.com/user/mem2vid/pkg/adapters/imageencoder"
	"github.com/user/mem2vid/pkg/adapters/logger"
	"github.com/user/mem2vid/pkg/adapters/mp4probe"
	"github.com/user/mem2vid/pkg/adapters/osfilesystem"
	"github.com/user/mem2vid/pkg/config"
	"github.com/user/mem2vid/pkg/orchestrator"
	"github.com/user/mem2vid/pkg/ports"
	"github.com/user/mem2vid/pkg/stages/encode"
	"github.com/user/mem2vid/pkg/summarizer"
	"github.com/user/mem2vid/pkg/videowriter"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "mem2vid",
		Usage:   l10n.T("Encode generated frames into MP4 video"),
		Version: version,
		Commands: []*cli.Command{
			renderCommand(),
			probeCommand(),
			versionCommand(),
		},
	}
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: l10n.T("Render a YAML job into an MP4 video"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Required: true, Usage: l10n.T("Render job YAML file (required)")},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output path without extension (overrides the job)")},
			&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: l10n.T("Parallel frame renderers (default: job value, or CPU count)")},
			&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: l10n.T("Write a Markdown summary to this path")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: l10n.T("Suppress all log output")},
		},
		Action: runRender,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show the video track of an MP4 file"),
		ArgsUsage: "FILE",
		Action:    runProbe,
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: l10n.T("Show version information"),
		Action: func(c *cli.Context) error {
			fmt.Println(l10n.F("mem2vid version %s", version))
			return nil
		},
	}
}

func newLogger(c *cli.Context) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.String("log-level")))
}

func runRender(c *cli.Context) error {
	log := newLogger(c)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()

	cfg, err := config.Load(fs, c.String("config"))
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}
	if out := c.String("output"); out != "" {
		cfg.Output = out
	}
	if w := c.Int("workers"); w > 0 {
		cfg.Workers = w
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	input, err := cfg.ToEncodeInput(fs)
	if err != nil {
		return fmt.Errorf("load job: %w", err)
	}

	// Create adapters
	renderer := ggrenderer.New()
	renderer.FontPath = cfg.FontPath
	if cfg.FontSize > 0 {
		renderer.FontSize = cfg.FontSize
	}
	writer := videowriter.NewWriter(avbackend.New(log), log)
	encoder := imageencoder.New(writer)

	orch := orchestrator.New(
		encode.NewStage(renderer, encoder, fs, log),
		mp4probe.New(),
		fs,
		log,
	)

	result, err := orch.Run(ctx, input)
	if err != nil {
		return err
	}

	if path := c.String("summary"); path != "" {
		formatter := summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		)
		if err := summarizer.NewWriter(formatter, fs).Write(path, orchestrator.BuildSummary(input, result)); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		log.Info("Summary written to %s", path)
	}

	log.Info("Output saved to %s", result.Path)
	return nil
}

func runProbe(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New(l10n.T("probe requires a FILE argument"))
	}

	info, err := mp4probe.New().ProbeFile(path)
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("Codec: %s", info.Codec))
	fmt.Println(l10n.F("Dimensions: %dx%d", info.Width, info.Height))
	fmt.Println(l10n.F("Frames: %d (%d keyframes)", info.Frames, info.Keyframes))
	fmt.Println(l10n.F("Duration: %.3f s", info.Duration.Seconds()))
	fmt.Println(l10n.F("Frame rate: %.3f fps", info.FPS))
	return nil
}
