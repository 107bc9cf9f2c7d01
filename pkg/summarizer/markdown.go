package summarizer

import (
	"fmt"
	"math"
	"strings"
)

// MarkdownFormatter formats a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(summary *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Reconstruction Summary\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")))

	sb.WriteString("## Settings\n\n")
	sb.WriteString("| Setting | Value |\n")
	sb.WriteString("|---------|-------|\n")
	if summary.Settings.Checkpoint != "" {
		sb.WriteString(fmt.Sprintf("| Checkpoint | %s |\n", summary.Settings.Checkpoint))
	}
	sb.WriteString(fmt.Sprintf("| Frames | %d (stride %d) |\n", summary.Settings.NumFrames, summary.Settings.SampleRate))
	sb.WriteString(fmt.Sprintf("| Resolution | %d |\n", summary.Settings.Resolution))
	sb.WriteString(fmt.Sprintf("| Chunking | %d + %d overlap |\n", summary.Settings.ChunkSize, summary.Settings.Overlap))
	sb.WriteString(fmt.Sprintf("| FPS | %.2f |\n", summary.Settings.FPS))
	sb.WriteString(fmt.Sprintf("| Workers | %d |\n", summary.Settings.Workers))
	if summary.Settings.Blockwise {
		sb.WriteString("| Blockwise | yes |\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Items\n\n")
	sb.WriteString("| Video | Status | Frames | Windows | Seams | Output | PSNR | Time |\n")
	sb.WriteString("|-------|--------|--------|---------|-------|--------|------|------|\n")
	for _, item := range summary.Items {
		sb.WriteString(f.formatItem(item))
	}
	sb.WriteString("\n")

	sb.WriteString("## Totals\n\n")
	sb.WriteString(fmt.Sprintf("- Items: %d\n", summary.Totals.Items))
	sb.WriteString(fmt.Sprintf("- Succeeded: %d\n", summary.Totals.Succeeded))
	sb.WriteString(fmt.Sprintf("- Failed: %d\n", summary.Totals.Failed))
	sb.WriteString(fmt.Sprintf("- Total time: %s\n", formatDuration(summary.Totals.DurationMs)))

	return sb.String()
}

func (f *MarkdownFormatter) formatItem(item ItemSummary) string {
	if item.Status != StatusOK {
		return fmt.Sprintf("| %s | failed | - | - | - | %s | - | %s |\n",
			item.Name, item.Error, formatDuration(item.DurationMs))
	}

	frames := fmt.Sprintf("%d/%d", item.SampledFrames, item.SourceFrames)
	if item.Reduced {
		frames += " (reduced)"
	}
	output := fmt.Sprintf("%d @ %dx%d", item.OutputFrames, item.OutputWidth, item.OutputHeight)

	return fmt.Sprintf("| %s | ok | %s | %d | %d | %s | %s | %s |\n",
		item.Name, frames, item.Windows, item.Seams, output,
		formatPSNR(item.PSNR), formatDuration(item.DurationMs))
}

func formatPSNR(psnr *float64) string {
	if psnr == nil {
		return "-"
	}
	if math.IsInf(*psnr, 1) {
		return "identical"
	}
	return fmt.Sprintf("%.2f dB", *psnr)
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.1f s", float64(ms)/1000)
}
