package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette used by the run log and the final summary. Adaptive pairs keep
// the text readable on both light and dark terminal themes.
var (
	accent  = lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#A892FF"}
	good    = lipgloss.AdaptiveColor{Light: "#1E7F4F", Dark: "#5FD38D"}
	bad     = lipgloss.AdaptiveColor{Light: "#B3261E", Dark: "#FF8A80"}
	caution = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#F2CC60"}
	note    = lipgloss.AdaptiveColor{Light: "#0B6E99", Dark: "#7CC7E8"}
	faint   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

var (
	// TitleStyle heads the summary sections.
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	// ModuleStyle marks the "==> module" line printed as each module starts.
	ModuleStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(good).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(bad).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(caution)
	InfoStyle    = lipgloss.NewStyle().Foreground(note)
	// MutedStyle is for durations, skips and dry-run lines.
	MutedStyle = lipgloss.NewStyle().Foreground(faint)
	PathStyle  = lipgloss.NewStyle().Foreground(faint).Italic(true)
)

// Line markers. Text format prints them unstyled.
const (
	SuccessSymbol = "✓"
	ErrorSymbol   = "✗"
	WarningSymbol = "⚠"
	InfoSymbol    = "·"
	SkipSymbol    = "-"
	WouldSymbol   = "»"
)
