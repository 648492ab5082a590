package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderFiles renders the device file pane in the given height.
func (m Model) renderFiles(height int) string {
	styles := m.theme.Styles()
	innerWidth := max(m.width-4, 10)
	innerHeight := max(height-2, 1)

	files := m.view.Files
	var body string
	if len(files.Rows) == 0 {
		style := styles.MutedText
		if files.Error {
			style = styles.DangerText
		}
		body = style.Render(files.Message)
	} else {
		body = m.renderRows(innerWidth, innerHeight-1)
	}

	title := styles.AccentText.Bold(true).Render("Files")
	if m.view.Selected != "" {
		title += styles.FaintText.Render("  selected: ") + styles.Text.Render(truncateMiddle(m.view.Selected, innerWidth/2))
	}

	return styles.Panel.
		Width(m.width - 2).
		Height(innerHeight).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}

// renderRows renders the visible window of rows, keeping the cursor on screen.
func (m Model) renderRows(width, height int) string {
	styles := m.theme.Styles()
	rows := m.view.Files.Rows
	height = max(height, 1)

	start := 0
	if m.cursor >= height {
		start = m.cursor - height + 1
	}
	end := min(start+height, len(rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := rows[i]
		marker := "  "
		if row.Selected {
			marker = "● "
		}
		text := marker + truncateMiddle(row.Name, width-2)
		switch {
		case i == m.cursor:
			lines = append(lines, styles.Selected.Width(width).Render(text))
		case row.Selected:
			lines = append(lines, styles.SuccessText.Render(text))
		default:
			lines = append(lines, styles.Text.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}
