package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Terminal colors and styles for reporter output.
var (
	ColorGreen  = lipgloss.Color("42")  // ✅ Success
	ColorYellow = lipgloss.Color("220") // ⚠️  Warning
	ColorRed    = lipgloss.Color("196") // ❌ Error
	ColorGray   = lipgloss.Color("240") // Subtle text

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	// Emoji icons
	IconSuccess = "✅"
	IconWarning = "⚠️ "
	IconError   = "❌"
	IconUpload  = "📤"
	IconSearch  = "🔍"
)
