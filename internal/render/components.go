package render

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

// Bar draws a fixed-width meter for a fraction in [0, 1], followed by the
// percentage.
func Bar(fraction float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(float64(width)*fraction + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStr := lipgloss.NewStyle().
		Foreground(Secondary).
		Render(strings.Repeat("█", filled))

	emptyStr := lipgloss.NewStyle().
		Foreground(Border).
		Render(strings.Repeat("░", width-filled))

	return filledStr + emptyStr + Subtitle.Render(fmt.Sprintf(" %3d%%", int(fraction*100+0.5)))
}

// newTable returns a rounded table with the shared header and cell styles.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
}

// section renders a heading with an optional dim subtitle.
func section(title, subtitle string) string {
	if subtitle == "" {
		return Title.Render(title)
	}
	return Title.Render(title) + "  " + Subtitle.Render(subtitle)
}

func field(label, value string) string {
	return Label.Render(fmt.Sprintf("%-10s", label)) + " " + Body.Render(value)
}

// truncate shortens s to at most max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}
