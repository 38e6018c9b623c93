package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pbudner/frictionminer/pipeline"
)

// TopFindings is the number of anomalies listed in detail.
const TopFindings = 5

const dateLayout = "2006-01-02 15:04:05"

// Markdown renders the analysis report of a run. now is printed as the
// report date.
func Markdown(result *pipeline.Result, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Business Friction Analysis Report\n")
	fmt.Fprintf(&b, "**Date:** %s\n", now.Format(dateLayout))
	fmt.Fprintf(&b, "**Input:** `%s` (fingerprint `%016x`)\n", result.Source, result.Fingerprint)
	fmt.Fprintf(&b, "**Run:** `%s`\n", result.RunID)
	b.WriteString("\n")

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "- **Total Cases Analyzed:** %d\n", len(result.Traces))
	fmt.Fprintf(&b, "- **Average Duration:** %.2fs\n", result.AverageDurationSeconds())
	fmt.Fprintf(&b, "- **Total Friction Points Detected:** %d\n", len(result.Anomalies))
	if n := len(result.EnrichmentFailures); n > 0 {
		fmt.Fprintf(&b, "- **Unexplained Friction Points:** %d\n", n)
	}
	b.WriteString("\n")

	b.WriteString("## Friction Distribution\n")
	b.WriteString("| Friction Type | Count |\n")
	b.WriteString("|---|---|\n")
	for _, row := range Distribution(result) {
		fmt.Fprintf(&b, "| %s | %d |\n", row.Type, row.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Top Findings\n")
	for i, a := range result.Anomalies {
		if i == TopFindings {
			break
		}
		fmt.Fprintf(&b, "### %d. %s (Case: `%s`)\n", i+1, a.Type, a.CaseID)
		fmt.Fprintf(&b, "> %s\n\n", a.Description)
		fmt.Fprintf(&b, "**Severity:** %s\n\n", a.Severity)
		fmt.Fprintf(&b, "**Root Cause:** %s\n\n", orNone(a.RootCause))
		fmt.Fprintf(&b, "**Recommendation:** %s\n", orNone(a.Recommendation))
		b.WriteString("---\n")
	}

	return b.String()
}

func orNone(s *string) string {
	if s == nil {
		return "n/a"
	}
	return *s
}
