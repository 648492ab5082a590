package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: device, printer status, temperatures
// and the state of the status feed.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	t := m.view.Telemetry
	parts := []string{
		bg.Render("printdeck", styles.Logo),
		bg.Render(truncateMiddle(m.device, 32), styles.MutedText),
		m.theme.Styles().StatusStyle(t.Status).Render(truncate(t.Status, 14)),
		bg.Render("Hot end", styles.FaintText) + bg.Space() + bg.Render(formatTemp(t.HotEnd), styles.Text),
		bg.Render("Bed", styles.FaintText) + bg.Space() + bg.Render(formatTemp(t.Bed), styles.Text),
	}
	if t.Connected {
		parts = append(parts, bg.Render("● live", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("○ reconnecting", styles.WarningText))
	}
	if m.currentView == ViewLogs {
		parts = append(parts, bg.Render("logs", styles.AccentText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

// renderActivity renders the print and upload progress lines. It returns an
// empty string when neither is active.
func (m Model) renderActivity() string {
	styles := m.theme.Styles()
	barWidth := max(m.width-24, 10)
	var lines []string

	if p := m.view.Print; p.Visible {
		m.printBar.Width = barWidth
		label := styles.AccentText.Render(padRight("Printing", 10))
		pct := styles.Text.Render(fmt.Sprintf(" %5.1f%%", p.Percent))
		lines = append(lines, label+m.printBar.ViewAs(p.Percent/100)+pct)
	}

	if u := m.view.Upload; u.Visible {
		label := styles.InfoText.Render(padRight("Upload", 10))
		if u.Known {
			m.uploadBar.Width = barWidth
			lines = append(lines, label+m.uploadBar.ViewAs(float64(u.Percent)/100)+styles.Text.Render(" "+u.Text))
		} else {
			lines = append(lines, label+m.spinner.View()+" "+styles.MutedText.Render(u.Text))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTemp(c float64) string {
	return fmt.Sprintf("%.1f°C", c)
}
