package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// commandModal prompts for a single G-code line.
type commandModal struct {
	input  textinput.Model
	submit func(cmd string) tea.Cmd
}

func newCommandModal(submit func(string) tea.Cmd) commandModal {
	ti := textinput.New()
	ti.Placeholder = "G28"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()
	return commandModal{input: ti, submit: submit}
}

func (c commandModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return c, nil, true
		case key.Matches(km, keys.Confirm):
			cmd := strings.TrimSpace(c.input.Value())
			if cmd == "" {
				return c, nil, true
			}
			return c, c.submit(cmd), true
		}
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd, false
}

func (c commandModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Send command"))
	b.WriteString("\n\n")
	b.WriteString(c.input.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter send · esc cancel"))
	return styles.Modal.Width(min(56, max(width-4, 20))).Render(b.String())
}

// uploadModal browses the local filesystem for a file to send to the device.
type uploadModal struct {
	picker filepicker.Model
	submit func(path string) tea.Cmd
	notice string
}

var printableTypes = []string{".gcode", ".gco", ".g"}

func newUploadModal(dir string, height int, submit func(string) tea.Cmd) uploadModal {
	fp := filepicker.New()
	fp.AllowedTypes = printableTypes
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.ShowHidden = false
	fp.ShowSize = true
	fp.ShowPermissions = false
	fp.Height = max(height-12, 5)
	fp.CurrentDirectory = dir
	return uploadModal{picker: fp, submit: submit}
}

func (u uploadModal) Init() tea.Cmd {
	return u.picker.Init()
}

func (u uploadModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, keys.Escape) {
		return u, nil, true
	}

	var cmd tea.Cmd
	u.picker, cmd = u.picker.Update(msg)

	if ok, path := u.picker.DidSelectFile(msg); ok {
		return u, u.submit(path), true
	}
	if ok, path := u.picker.DidSelectDisabledFile(msg); ok {
		u.notice = "Not a printable file: " + path
	}
	return u, cmd, false
}

func (u uploadModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Upload to device"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(truncateMiddle(u.picker.CurrentDirectory, max(width-12, 10))))
	b.WriteString("\n\n")
	b.WriteString(u.picker.View())
	b.WriteString("\n")
	if u.notice != "" {
		b.WriteString(styles.WarningText.Render(u.notice))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter choose · esc cancel"))
	return styles.Modal.Width(max(width-8, 30)).Render(b.String())
}

// renderAlert draws the blocking notification box.
func renderAlert(theme Theme, message string, width int) string {
	styles := theme.Styles()
	var b strings.Builder
	b.WriteString(styles.DangerText.Render("Printer"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(message))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter/esc dismiss"))
	return styles.Modal.
		BorderForeground(lipgloss.Color(theme.Danger)).
		Width(min(60, max(width-4, 20))).
		Render(b.String())
}
