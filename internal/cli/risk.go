package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lu-zhengda/reclaim/internal/scanner"
	"github.com/lu-zhengda/reclaim/internal/utils"
)

// RiskBreakdown holds aggregated byte sizes grouped by risk level.
type RiskBreakdown struct {
	Safe     int64 `json:"safe"`
	Moderate int64 `json:"moderate"`
	Risky    int64 `json:"risky"`
	Total    int64 `json:"total"`
}

// riskSummary aggregates category totals by their risk level.
func riskSummary(targets []scanner.Target) RiskBreakdown {
	var rb RiskBreakdown
	for _, t := range targets {
		switch t.Risk {
		case scanner.Safe:
			rb.Safe += t.Size
		case scanner.Moderate:
			rb.Moderate += t.Size
		case scanner.Risky:
			rb.Risky += t.Size
		}
		rb.Total += t.Size
	}
	return rb
}

var riskStyles = map[scanner.RiskLevel]lipgloss.Style{
	scanner.Safe:     lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
	scanner.Moderate: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	scanner.Risky:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

// riskSummaryLine renders a colored risk summary string.
// Returns empty string if Total == 0.
func riskSummaryLine(rb RiskBreakdown) string {
	if rb.Total == 0 {
		return ""
	}

	part := func(level scanner.RiskLevel, n int64) string {
		pct := int(float64(n) / float64(rb.Total) * 100)
		return riskStyles[level].Render(fmt.Sprintf("%s: %s (%d%%)", level, utils.FormatSize(n), pct))
	}

	parts := []string{part(scanner.Safe, rb.Safe)}
	if rb.Moderate > 0 {
		parts = append(parts, part(scanner.Moderate, rb.Moderate))
	}
	if rb.Risky > 0 {
		parts = append(parts, part(scanner.Risky, rb.Risky))
	}
	return strings.Join(parts, "  ")
}
