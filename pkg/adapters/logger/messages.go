package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Starting reconstruction":                        "再構成を開始します",
		"Sampled %d of %d source frames":                 "全 %d フレームから %d フレームをサンプリングしました",
		"Normalized to %d frames of %dx%d":               "%d フレーム (%dx%d) に正規化しました",
		"Reconstructed %d windows with %d blended seams": "%d ウィンドウを再構成し %d 箇所の継ぎ目をブレンドしました",
		"Emitted %d frames at %.2f fps":                  "%d フレームを %.2f fps で書き出しました",

		// Stage errors
		"Failed to sample frames: %s":      "フレームのサンプリングに失敗しました: %s",
		"Failed to preprocess frames: %s":  "フレームの前処理に失敗しました: %s",
		"Failed to reconstruct video: %s":  "動画の再構成に失敗しました: %s",
		"Failed to emit video: %s":         "動画の書き出しに失敗しました: %s",

		// Debug artifacts
		"Skipping contact sheet for window %d: %s":       "ウィンドウ %d のコンタクトシートをスキップ: %s",
		"Failed to save contact sheet for window %d: %s": "ウィンドウ %d のコンタクトシートの保存に失敗しました: %s",
		"Skipping seam strip %d: %s":                     "継ぎ目 %d のストリップをスキップ: %s",
		"Failed to save seam strip %d: %s":               "継ぎ目 %d のストリップの保存に失敗しました: %s",

		// Batch runner
		"Processing %d videos with %d workers":     "%d 本の動画を %d ワーカーで処理中",
		"Batch finished: %d succeeded, %d failed":  "バッチ完了: 成功 %d, 失敗 %d",
		"Failed to process %s: %s":                 "%s の処理に失敗しました: %s",
		"Processed %s in %d ms":                    "%s を %d ms で処理しました",
	})
}
