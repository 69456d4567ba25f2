package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/strrl/distcurve/internal/aggregator"
)

const reportFile = "report.md"

func (g *Generator) WriteReport(summary *aggregator.Summary) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(g.outputDir, reportFile)
	if err := os.WriteFile(filename, []byte(RenderReport(summary)), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return filename, nil
}

func RenderReport(summary *aggregator.Summary) string {
	var sb strings.Builder

	sb.WriteString("# Distance Curve Bake Report\n\n")
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", summary.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Baked:** %d clips\n", summary.Baked()))
	sb.WriteString(fmt.Sprintf("**Failed:** %d clips\n", summary.Failed()))
	sb.WriteString(fmt.Sprintf("**Keys written:** %d\n", summary.TotalKeys))
	sb.WriteString(fmt.Sprintf("**Trajectory samples:** %d locator, %d builder\n\n",
		summary.LocatorSamples, summary.BuilderSamples))

	if len(summary.Clips) > 0 {
		sb.WriteString("## Clips\n\n")
		sb.WriteString("| Clip | Curve | Reference | Time (s) | Keys | Approach | Travel |\n")
		sb.WriteString("|---|---|---|---|---|---|---|\n")
		for _, c := range summary.Clips {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f | %d | %.2f | %.2f |\n",
				escapeCell(c.Clip), escapeCell(c.Curve), c.Reference, c.ReferenceTime, c.Keys, c.Approach, c.Travel))
		}
		sb.WriteString("\n")
	}

	if len(summary.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, f := range summary.Failures {
			kind := "error"
			if f.Precondition {
				kind = "precondition"
			}
			sb.WriteString(fmt.Sprintf("- **%s** (%s): %s\n", f.Clip, kind, truncate(f.Reason, 200)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
