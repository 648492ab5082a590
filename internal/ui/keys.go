package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/five82/printdeck/internal/render"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Logs       key.Binding
	Escape     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Printer actions
	Select  key.Binding
	Refresh key.Binding
	Print   key.Binding
	Delete  key.Binding
	Upload  key.Binding
	Command key.Binding

	// Modals
	Confirm key.Binding
	Dismiss key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		// Global
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Logs: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Toggle logs"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),

		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		// Printer actions
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Select file"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Reload files"),
		),
		Print: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "Print selected"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Delete selected"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "Upload file"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "Send G-code"),
		),

		// Modals
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("enter", "esc"),
			key.WithHelp("enter/esc", "Dismiss"),
		),
	}
}

// applyControls enables the action bindings the current view allows.
// Disabled bindings never match and drop out of the help footer.
func (k *keyMap) applyControls(c render.Controls, hasRows bool) {
	k.Print.SetEnabled(c.Print)
	k.Delete.SetEnabled(c.Delete)
	k.Upload.SetEnabled(c.Upload)
	k.Command.SetEnabled(c.SendCommand)
	k.Select.SetEnabled(hasRows)
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Print, k.Delete, k.Upload, k.Command, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Navigation
		{k.Up, k.Down, k.Top, k.Bottom},
		// Printer
		{k.Select, k.Refresh, k.Print, k.Delete, k.Upload, k.Command},
		// General
		{k.Logs, k.CycleTheme, k.Help, k.Quit},
	}
}
