package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session lifecycle (info)
		"Video started: %s (%dx%d, %.2f fps, %d Mbps, %s) session %s": "動画を開始しました: %s (%dx%d, %.2f fps, %d Mbps, %s) セッション %s",
		"Video finished: %s (%d frames, %d packets)":                   "動画を完了しました: %s (%d フレーム, %d パケット)",

		// Resource details (debug)
		"Output %s: stream %d, time base %d/%d, gop %d": "出力 %s: ストリーム %d, タイムベース %d/%d, GOP %d",
		"Released %s":       "%s を解放しました",
		"No encoder for %s": "%s のエンコーダがありません",
		"ffmpeg: %s":        "ffmpeg: %s",

		// Render stage
		"Rendering %d frames with %d workers": "%d フレームを %d ワーカーでレンダリング中",
		"Segment %d: %d frames (%s)":          "セグメント %d: %d フレーム (%s)",
		"Encoded %d/%d frames":                "%d/%d フレームをエンコードしました",
		"Output saved to %s":                  "出力を %s に保存しました",
		"Rendering %s (%d segments, %d frames)": "%s をレンダリング中 (%d セグメント, %d フレーム)",
		"Video encoded: %d frames, %d bytes":    "動画をエンコードしました: %d フレーム, %d バイト",
		"Summary written to %s":                 "サマリーを %s に書き込みました",
		"Interrupted, shutting down...":         "中断しました。終了しています...",

		// Warnings (cleanup)
		"Failed to release %s: %v":    "%s の解放に失敗しました: %v",
		"Failed to flush encoder: %v": "エンコーダのフラッシュに失敗しました: %v",
		"Failed to drain encoder: %v": "エンコーダの排出に失敗しました: %v",
		"Failed to write trailer: %v": "トレーラーの書き込みに失敗しました: %v",
		"Failed to finish video: %v":  "動画の完了に失敗しました: %v",
		"Could not read size of %s: %s": "%s のサイズを取得できませんでした: %s",
		"Could not probe %s: %s":        "%s を解析できませんでした: %s",
		"Probed %d frames, encoded %d":  "解析結果は %d フレーム、エンコードは %d フレームです",

		// Errors
		"Video already started":           "動画はすでに開始されています",
		"Video is not started":            "動画が開始されていません",
		"Invalid parameters: %v":          "パラメータが不正です: %v",
		"Frame is %d bytes, expected %d":  "フレームが %d バイトです (期待値 %d)",
		"Could not %s: %v":                "%s できませんでした: %v",
		"Failed to encode video: %s":      "動画のエンコードに失敗しました: %s",
	})
}
