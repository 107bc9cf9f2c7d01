// Package main provides localization for the revid CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Root command
		"Reconstruct videos through a chunked causal video codec.": "チャンク分割された因果的ビデオコーデックで動画を再構成します。",

		// Reconstruct command
		"Reconstruct a directory of videos through the chunked codec.": "ディレクトリ内の動画をチャンクコーデックで再構成",

		// Probe command
		"Show frame count, dimensions and frame rate of a video.": "動画のフレーム数、解像度、フレームレートを表示",

		// Compare command
		"Create a side-by-side comparison video with PSNR.": "PSNR付きの並列比較動画を作成",

		// Version command
		"Show version information.": "バージョン情報を表示",
		"revid version %s":          "revid バージョン %s",

		// Runtime messages
		"Interrupted, shutting down...":  "中断されました。シャットダウン中...",
		"Loaded checkpoint %s":           "チェックポイント %s を読み込みました",
		"Reconstructing %s into %s...":   "%s を %s に再構成中...",
		"Output saved to %s":             "出力を %s に保存しました",
		"Summary saved to %s":            "サマリーを %s に保存しました",
		"Failed to write summary: %s":    "サマリーの書き込みに失敗しました: %s",
		"Cannot compare %s: %s":          "%s を比較できません: %s",
		"%s: identical to input":         "%s: 入力と同一",
		"%s: %.2f dB":                    "%s: %.2f dB",

		// Probe output
		"File: %s":            "ファイル: %s",
		"Backend: %s":         "バックエンド: %s",
		"Frames: %d":          "フレーム数: %d",
		"Size: %dx%d":         "サイズ: %dx%d",
		"Frame rate: %.3f fps": "フレームレート: %.3f fps",

		// Compare output
		"Creating comparison video: %s + %s -> %s": "比較動画を作成中: %s + %s -> %s",
		"PSNR: identical":                          "PSNR: 同一",
		"PSNR: %.2f dB":                            "PSNR: %.2f dB",

		// Runner messages
		"Processing %d videos with %d workers":  "%d 本の動画を %d ワーカーで処理中",
		"Batch finished: %d succeeded, %d failed": "バッチ完了: 成功 %d 件、失敗 %d 件",
		"Failed to process %s: %s":              "%s の処理に失敗しました: %s",
		"Processed %s in %d ms":                 "%s を %d ms で処理しました",
	})
}
