// Package ui renders traces and findings for the terminal.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pbudner/frictionminer/model"
)

var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAA00")
	white   = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(80)
)

const timeLayout = "2006-01-02 15:04:05"

func severityColor(s model.Severity) lipgloss.Color {
	switch s {
	case model.SeverityHigh:
		return accent
	case model.SeverityMedium:
		return warning
	default:
		return muted
	}
}

// Timeline renders the events of a trace with the gap to the previous step.
func Timeline(trace model.Trace) string {
	rows := make([][]string, 0, trace.Len())
	for i := 0; i < trace.Len(); i++ {
		evt := trace.EventAt(i)
		gap := "-"
		if i > 0 {
			gap = fmt.Sprintf("%.0fs", trace.GapSeconds(i-1))
		}
		actor := evt.Actor
		if actor == "" {
			actor = "-"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			evt.Timestamp.Format(timeLayout),
			evt.Activity,
			actor,
			string(evt.ActorType),
			gap,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "Timestamp", "Activity", "Actor", "Type", "Gap").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Case %s", trace.CaseID())))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d events, %.0fs total", trace.Len(), trace.DurationSeconds())))
	b.WriteString("\n")
	b.WriteString(t.String())
	return b.String()
}

// AnomalyPanel renders one finding with its explanation, if any.
func AnomalyPanel(a model.Anomaly) string {
	severity := lipgloss.NewStyle().Bold(true).Foreground(severityColor(a.Severity))

	lines := []string{
		fmt.Sprintf("%s %s", severity.Render(string(a.Severity)), titleStyle.Render(string(a.Type))),
		a.Description,
	}
	if len(a.InvolvedEvents) > 0 {
		lines = append(lines, mutedStyle.Render("Events: "+strings.Join(a.InvolvedEvents, ", ")))
	}
	if a.RootCause != nil {
		lines = append(lines, "", titleStyle.Render("Root cause: ")+*a.RootCause)
	}
	if a.Recommendation != nil {
		lines = append(lines, titleStyle.Render("Recommendation: ")+*a.Recommendation)
	}

	return panelStyle.BorderForeground(severityColor(a.Severity)).Render(strings.Join(lines, "\n"))
}

// Explain renders the timeline of a case followed by all its findings.
func Explain(trace model.Trace, anomalies []model.Anomaly) string {
	parts := []string{Timeline(trace), ""}
	if len(anomalies) == 0 {
		parts = append(parts, successStyle.Render("No friction detected for this case."))
	}
	for _, a := range anomalies {
		parts = append(parts, AnomalyPanel(a))
	}
	return strings.Join(parts, "\n")
}
