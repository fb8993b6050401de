package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wrap"
)

// Panel renders a rounded-border box with title embedded in the top border.
// width is the total outer width.
func Panel(title, content string, width int, color lipgloss.Color) string {
	colorStyle := lipgloss.NewStyle().Foreground(color)

	// ╭─ TITLE ─...─╮  total = width
	dashCount := width - lipgloss.Width(title) - 5
	if dashCount < 0 {
		dashCount = 0
	}
	topBorder := colorStyle.Render("╭─ ") + title + colorStyle.Render(" "+strings.Repeat("─", dashCount)+"╮")

	innerWidth := width - 4
	if innerWidth < 1 {
		innerWidth = 1
	}

	body := lipgloss.NewStyle().
		Width(innerWidth).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderLeft(true).
		BorderRight(true).
		BorderBottom(true).
		BorderTop(false).
		BorderForeground(color).
		PaddingLeft(1).
		PaddingRight(1).
		Render(wrap.String(strings.TrimRight(content, "\n"), innerWidth))

	return topBorder + "\n" + body
}

// Title renders a styled section title.
func Title(text string) string {
	return TitleStyle.Render(text)
}

// Badge renders a small colored badge.
func Badge(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("230")).
		Background(color).
		Padding(0, 1).
		Render(text)
}

// SuccessBadge renders a green badge.
func SuccessBadge(text string) string {
	return Badge(text, Success)
}

// ErrorBadge renders a red badge.
func ErrorBadge(text string) string {
	return Badge(text, Error)
}

// ResultLine renders "<badge> name  message" for a finished operation.
func ResultLine(ok bool, name, message string) string {
	badge := SuccessBadge(" OK ")
	if !ok {
		badge = ErrorBadge("FAIL")
	}
	return fmt.Sprintf("%s %s  %s", badge, BoldStyle.Render(name), DimStyle.Render(message))
}

// Table renders rows in aligned columns. Cells wider than maxCell are
// truncated with an ellipsis.
func Table(headers []string, rows [][]string, maxCell int) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	clipped := make([][]string, len(rows))
	for r, row := range rows {
		clipped[r] = make([]string, len(headers))
		for i := range headers {
			if i >= len(row) {
				continue
			}
			cell := row[i]
			if maxCell > 0 {
				cell = truncate.StringWithTail(cell, uint(maxCell), "…")
			}
			clipped[r][i] = cell
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(HeaderStyle.Render(h))
		b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(h)+2))
	}
	b.WriteString("\n")
	for _, row := range clipped {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
