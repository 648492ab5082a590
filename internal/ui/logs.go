package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/printdeck/internal/logtail"
)

// logState holds the log view's buffer and follow mode.
type logState struct {
	lines       []string
	follow      bool
	lastRefresh time.Time
	err         error
}

type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the tail of the log file off the update loop.
func (m Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogBufferLimit)
		return logLinesMsg{lines: lines, err: err}
	}
}

// maybeRefreshLogs debounces reloads while the log view is following.
func (m *Model) maybeRefreshLogs(now time.Time) tea.Cmd {
	if m.currentView != ViewLogs || !m.logState.follow {
		return nil
	}
	if now.Sub(m.logState.lastRefresh) < LogRefreshInterval {
		return nil
	}
	m.logState.lastRefresh = now
	return m.refreshLogs()
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err != nil {
		return
	}
	m.logState.lines = msg.lines
	m.updateLogViewport()
}

func (m *Model) initLogViewport() {
	m.logViewport = viewport.New(max(m.width-2, 10), m.logViewportHeight())
	m.logState.follow = true
}

func (m Model) logViewportHeight() int {
	// header, title and footer
	return max(m.height-3, 1)
}

func (m *Model) updateLogViewport() {
	m.logViewport.Width = max(m.width-2, 10)
	m.logViewport.Height = m.logViewportHeight()

	styles := m.theme.Styles()
	var b strings.Builder
	for i, line := range m.logState.lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatLogLine(styles, line))
	}
	m.logViewport.SetContent(b.String())
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// handleLogsKey scrolls the log viewport. Manual scrolling pauses follow
// mode until the bottom is reached again.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "g", "home":
		m.logViewport.GotoTop()
		m.logState.follow = false
		return m, nil
	case "G", "end":
		m.logViewport.GotoBottom()
		m.logState.follow = true
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	m.logState.follow = m.logViewport.AtBottom()
	return m, cmd
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Log") + "  " + styles.MutedText.Render(truncateMiddle(m.logPath, max(m.width-12, 10)))
	if m.logState.err != nil {
		title += "  " + styles.DangerText.Render(m.logState.err.Error())
	}
	if !m.logState.follow {
		title += "  " + styles.WarningText.Render("paused")
	}
	return title + "\n" + m.logViewport.View()
}
