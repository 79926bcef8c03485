package ui

import (
	"fmt"
	"strings"

	"gosvca/models"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// BuildReportMarkdown renders a run as a markdown document: partition
// geometry, spectrum summary, and the leading components.
func BuildReportMarkdown(run *models.AnalysisRun) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# SVCA Run %s\n\n", run.ID)
	fmt.Fprintf(&b, "Recording **%s** (%d units × %d samples), analyzed %s.\n\n",
		run.RecordingName, run.Units, run.Samples, run.CreatedAt.Format("2006-01-02 15:04:05"))

	b.WriteString("## Partition\n\n")
	fmt.Fprintf(&b, "- Group 1: %d units, Group 2: %d units, excluded: %d\n",
		run.Group1Size, run.Group2Size, run.ExcludedUnits)
	fmt.Fprintf(&b, "- Train: %d samples, Test: %d samples\n", run.TrainSamples, run.TestSamples)
	fmt.Fprintf(&b, "- Exclusion distance: %.3f, seed: %d\n\n",
		run.SplitConfig.ExclusionDistance, run.SplitConfig.Seed)

	b.WriteString("## Spectrum\n\n")
	fmt.Fprintf(&b, "- Components: %d", run.Components())
	if run.Truncated {
		b.WriteString(" (truncated by covariance rank)")
	}
	b.WriteString("\n")
	if s := run.Summary; s != nil {
		fmt.Fprintf(&b, "- Effective dimensionality (reliability ≥ threshold): %d\n", s.EffectiveDim)
		fmt.Fprintf(&b, "- Total shared variance: %.4f\n", s.TotalShared)
		fmt.Fprintf(&b, "- Reliability mean/median/max: %.3f / %.3f / %.3f\n",
			s.MeanReliability, s.MedianReliability, s.MaxReliability)
		if s.PowerLawExponent != 0 {
			fmt.Fprintf(&b, "- Power-law decay: shared ≈ %.3f · k^%.3f\n",
				s.PowerLawAmplitude, s.PowerLawExponent)
		}
	}
	b.WriteString("\n## Leading components\n\n")
	b.WriteString("| Component | Shared variance | All variance | Reliability |\n")
	b.WriteString("|---|---|---|---|\n")
	limit := len(run.SharedVariance)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		reliability := 0.0
		if i < len(run.Reliability) {
			reliability = run.Reliability[i]
		}
		fmt.Fprintf(&b, "| %d | %.4f | %.4f | %.3f |\n",
			i+1, run.SharedVariance[i], run.AllVariance[i], reliability)
	}

	return b.String()
}

// RenderReportHTML renders a run's markdown report to HTML
func RenderReportHTML(run *models.AnalysisRun) []byte {
	// CommonExtensions includes tables, which the report relies on
	p := parser.NewWithExtensions(parser.CommonExtensions)
	return markdown.ToHTML([]byte(BuildReportMarkdown(run)), p, nil)
}
