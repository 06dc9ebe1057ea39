package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/reclaim/internal/progress"
)

// ---------------------------------------------------------------------------
// Color palette -- single source of truth for all TUI colors.
// Values are ANSI-256 color codes passed to lipgloss.Color().
// ---------------------------------------------------------------------------

var (
	colorPrimary = lipgloss.Color("170")
	colorSuccess = lipgloss.Color("82")
	colorWarning = lipgloss.Color("214")
	colorDanger  = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")
	colorSubtle  = lipgloss.Color("236")
	colorText    = lipgloss.Color("252")
)

var phaseColors = map[progress.Phase]lipgloss.Color{
	progress.PhaseWalking:   lipgloss.Color("75"),
	progress.PhaseHashing:   lipgloss.Color("141"),
	progress.PhaseComplete:  colorSuccess,
	progress.PhaseCancelled: colorWarning,
}

// phaseColor returns the theme color for a scan phase.
// Unknown phases fall back to colorPrimary.
func phaseColor(p progress.Phase) lipgloss.Color {
	if c, ok := phaseColors[p]; ok {
		return c
	}
	return colorPrimary
}

var (
	barColorHigh   = colorDanger
	barColorMedium = colorWarning
	barColorLow    = colorSuccess
)

// barColor returns a color based on a 0.0-1.0 ratio.
//   - >= 0.75 -> high (red)
//   - >= 0.40 -> medium (orange/yellow)
//   - < 0.40  -> low (green)
func barColor(ratio float64) lipgloss.Color {
	switch {
	case ratio >= 0.75:
		return barColorHigh
	case ratio >= 0.40:
		return barColorMedium
	default:
		return barColorLow
	}
}
