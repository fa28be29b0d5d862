package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/finassist/internal/guardrail"
	"github.com/Veraticus/finassist/internal/model"
	"github.com/Veraticus/finassist/internal/report"
	"github.com/charmbracelet/lipgloss"
)

// RenderReport renders a report in a box with its footer de-emphasized.
func RenderReport(r report.Report) string {
	lines := make([]string, 0, len(r.Lines)+2)
	lines = append(lines, r.Lines...)
	if r.Footer != "" {
		lines = append(lines, "", SubtleStyle.Render(r.Footer))
	}
	title := r.Title
	if title == "" {
		title = "Results"
	}
	return RenderBox(ChartIcon+" "+title, strings.Join(lines, "\n"))
}

// RenderClassification describes a classification result and, when present,
// its numbered suggestions.
func RenderClassification(merchant string, r model.ClassificationResult) string {
	var sb strings.Builder

	switch {
	case r.Resolved() && !r.Ambiguous():
		sb.WriteString(FormatSuccess(fmt.Sprintf("%s → %s", merchant, r.CategoryName)))
	case r.Matched():
		sb.WriteString(FormatWarning(fmt.Sprintf("%s → %s?", merchant, r.CategoryName)))
	default:
		sb.WriteString(FormatWarning(fmt.Sprintf("%s → no category", merchant)))
	}
	sb.WriteString("\n")
	sb.WriteString(SubtleStyle.Render(fmt.Sprintf("  source: %s  confidence: %.2f", r.Source, r.Confidence)))

	if r.Matched() && !r.Resolved() {
		sb.WriteString("\n")
		sb.WriteString(SubtleStyle.Render(fmt.Sprintf("  %q is not one of your categories", r.CategoryName)))
	}

	if len(r.Suggestions) > 0 {
		sb.WriteString("\n")
		sb.WriteString(RenderSuggestions(r.Suggestions))
	}
	return sb.String()
}

// RenderSuggestions lists suggestions numbered from 1.
func RenderSuggestions(s model.Suggestions) string {
	lines := make([]string, 0, len(s))
	for i, suggestion := range s {
		lines = append(lines, fmt.Sprintf("  [%d] %s %s",
			i+1, suggestion.Name, SubtleStyle.Render(fmt.Sprintf("(%.2f)", suggestion.Score))))
	}
	return strings.Join(lines, "\n")
}

// RenderVerdict describes a guardrail verdict.
func RenderVerdict(v guardrail.Verdict) string {
	if v.Accepted {
		return FormatSuccess("query accepted")
	}
	msg := "query rejected: " + string(v.Reason)
	if v.Detail != "" {
		msg += fmt.Sprintf(" (%s)", v.Detail)
	}
	return FormatError(msg)
}

// RenderTable lays out rows under headers in padded columns.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	cell := func(text string, width int, style lipgloss.Style) string {
		return style.Width(width + TableCellStyle.GetPaddingRight()).Render(text)
	}

	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = cell(h, widths[i], TableCellStyle.Bold(true))
	}

	lines := []string{TableHeaderStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))}
	for _, row := range rows {
		cells := make([]string, len(headers))
		for i := range headers {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			cells[i] = cell(text, widths[i], TableCellStyle)
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(lines, "\n")
}
