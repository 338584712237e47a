package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	selectedLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)

	trackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#444466"))
	fillStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa"))
	knobStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff")).Bold(true)
	readoutText = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)

	statusRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	statusStopped = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	statusDropped = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// separator draws a decorative rule of the given width.
func separator(width int) string {
	if width < 8 {
		return subtle.Render(strings.Repeat("─", width))
	}
	mid := width / 2
	left := strings.Repeat("─", mid-2)
	right := strings.Repeat("─", width-mid-2)
	return subtle.Render(left + " ◆ " + right)
}
