// Package ui provides the terminal console for printdeck.
//
// # Architecture Overview
//
// The console is a Bubble Tea program. It never touches the device or the
// shared state directly: it reads [render.View] values from a scheduler and
// triggers named actions (select, delete, print, send command, upload)
// whose outcomes are merged into the state by the gateway and the upload
// tracker. The next tick then picks the change up.
//
// # Package Structure
//
//   - app.go: Model, message loop, key dispatch and the Run function
//   - keys.go: key bindings, enabled or disabled from the view's controls
//   - header.go: status bar and the print/upload progress lines
//   - files.go: device file pane
//   - modal.go: alert box, G-code prompt and upload file picker
//   - logs.go, log_format.go: tail of the application log
//   - help.go: help overlay and footer
//   - theme.go, style_helpers.go: color palettes and lipgloss helpers
//
// # Blocking Alerts
//
// When the view carries an alert it is drawn over everything and all keys
// except enter and esc are ignored. Dismissing clears the alert in the
// shared state.
//
// # Themes
//
// Nightfox, Kanagawa and Slate are built in. T cycles through them and the
// choice is written to the preferences file.
package ui
