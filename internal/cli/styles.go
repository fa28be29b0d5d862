// Package cli provides styled terminal output using lipgloss and the
// interactive chat and import loops built on it.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	PrimaryColor = lipgloss.Color("#2E9E6B") // peso green
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFB347")
	ErrorColor   = lipgloss.Color("#E4572E")
	InfoColor    = lipgloss.Color("#8AB6D6")
	SubtleColor  = lipgloss.Color("#6C757D")
	BorderColor  = lipgloss.Color("#3A3F44")
)

var (
	// TitleStyle renders box and screen titles.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	// SubtleStyle de-emphasizes footers, scores and hints.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// InfoStyle renders neutral notices.
	InfoStyle = lipgloss.NewStyle().Foreground(InfoColor)

	// PromptStyle renders the input prompt.
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	// BoxStyle frames reports and choices.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// TableHeaderStyle underlines the header row of a table.
	TableHeaderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(BorderColor)

	// TableCellStyle pads table columns.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	WalletIcon  = "💰"
	ChartIcon   = "📊"
	PendingIcon = "⏳"
)

type messageKind struct {
	style lipgloss.Style
	icon  string
}

var (
	successMessage = messageKind{icon: SuccessIcon, style: lipgloss.NewStyle().Foreground(SuccessColor)}
	errorMessage   = messageKind{icon: ErrorIcon, style: lipgloss.NewStyle().Foreground(ErrorColor)}
	warningMessage = messageKind{icon: WarningIcon, style: lipgloss.NewStyle().Foreground(WarningColor)}
	infoMessage    = messageKind{icon: InfoIcon, style: InfoStyle}
)

func (k messageKind) format(message string) string {
	return k.style.Render(k.icon + " " + message)
}

// FormatSuccess marks a completed action, such as a saved expense.
func FormatSuccess(message string) string { return successMessage.format(message) }

// FormatError marks a failed action.
func FormatError(message string) string { return errorMessage.format(message) }

// FormatWarning marks a doubtful result, such as a low-confidence category.
func FormatWarning(message string) string { return warningMessage.format(message) }

// FormatInfo marks a neutral notice.
func FormatInfo(message string) string { return infoMessage.format(message) }

// FormatTitle renders an application title.
func FormatTitle(title string) string {
	return TitleStyle.MarginBottom(1).Render(WalletIcon + " " + title)
}

// FormatPrompt renders an input prompt.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// RenderBox frames content under a title.
func RenderBox(title, content string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, TitleStyle.Render(title), content))
}
