package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on both light and dark terminal backgrounds, so
// every color is an AdaptiveColor pair. Faint styling is only safe on dark
// backgrounds; on light terminals it tends to become illegible.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorAccent     lipgloss.TerminalColor = ac("27", "62") // blue
	colorPriority   lipgloss.TerminalColor = ac("130", "214")
	colorDone       lipgloss.TerminalColor = ac("243", "240")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
)

// hasColor reports whether the terminal supports color at all; the delegate
// falls back to plain text markers when it doesn't.
func hasColor() bool {
	return termenv.ColorProfile() != termenv.Ascii
}
