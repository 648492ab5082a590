package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/printdeck/internal/logtail"
)

// formatLogLine colors one line of the application log by its level.
func formatLogLine(styles Styles, line string) string {
	e := logtail.Parse(line)
	if e.Level == logtail.LevelNone {
		return styles.MutedText.Render(e.Message)
	}

	var b strings.Builder
	b.WriteString(styles.FaintText.Render(e.Time))
	b.WriteString(" ")
	b.WriteString(levelStyle(styles, e.Level).Render(string(e.Level)))
	if e.Component != "" {
		b.WriteString(" ")
		b.WriteString(styles.AccentText.Render("[" + e.Component + "]"))
	}
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))
	return b.String()
}

func levelStyle(styles Styles, level logtail.Level) lipgloss.Style {
	switch level {
	case logtail.LevelError:
		return styles.DangerText
	case logtail.LevelWarn:
		return styles.WarningText
	case logtail.LevelDebug:
		return styles.FaintText
	default:
		return styles.InfoText
	}
}
