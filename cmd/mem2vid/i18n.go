// Package main provides localization for the mem2vid CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Encode generated frames into MP4 video": "生成したフレームをMP4動画にエンコード",

		// Render command
		"Render a YAML job into an MP4 video":                          "YAMLジョブをMP4動画にレンダリング",
		"Render job YAML file (required)":                              "レンダリングジョブのYAMLファイル（必須）",
		"Output path without extension (overrides the job)":            "拡張子なしの出力パス（ジョブの設定を上書き）",
		"Parallel frame renderers (default: job value, or CPU count)":  "並列フレームレンダラー数（デフォルト: ジョブの値、なければCPU数）",
		"Write a Markdown summary to this path":                        "Markdownサマリーをこのパスに書き込む",
		"Log level (debug, info, warn, error)":                         "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                                      "すべてのログ出力を抑制",

		// Probe command
		"Show the video track of an MP4 file": "MP4ファイルの映像トラックを表示",
		"probe requires a FILE argument":      "probe には FILE 引数が必要です",
		"Codec: %s":                           "コーデック: %s",
		"Dimensions: %dx%d":                   "サイズ: %dx%d",
		"Frames: %d (%d keyframes)":           "フレーム数: %d（キーフレーム %d）",
		"Duration: %.3f s":                    "長さ: %.3f 秒",
		"Frame rate: %.3f fps":                "フレームレート: %.3f fps",

		// Version command
		"Show version information": "バージョン情報を表示",
		"mem2vid version %s":       "mem2vid バージョン %s",

		// Summary
		"Render Summary": "レンダリングサマリー",
		"Settings":       "設定",
		"Item":           "項目",
		"Value":          "値",
		"Output":         "出力",
		"Frame Size":     "フレームサイズ",
		"Frame Rate":     "フレームレート",
		"Bitrate":        "ビットレート",
		"Workers":        "ワーカー数",
		"Segments":       "セグメント",
		"Kind":           "種類",
		"Frames":         "フレーム数",
		"Video":          "動画",
		"File":           "ファイル",
		"Codec":          "コーデック",
		"Dimensions":     "サイズ",
		"Keyframes":      "キーフレーム",
		"Duration":       "長さ",
		"File Size":      "ファイルサイズ",
		"Render Time":    "レンダリング時間",
		"Generated at":   "生成日時",
	})
}
