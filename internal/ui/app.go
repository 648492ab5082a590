package ui

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/printdeck/internal/gateway"
	"github.com/five82/printdeck/internal/prefs"
	"github.com/five82/printdeck/internal/render"
)

// View represents the current active view.
type View int

const (
	ViewFiles View = iota
	ViewLogs
)

// Actions are the printer operations the console can trigger. Outcomes land
// in the shared state; the console only re-reads the projected view.
type Actions interface {
	ListFiles(ctx context.Context) gateway.Result
	SelectName(ctx context.Context, name string) gateway.Result
	DeleteSelected(ctx context.Context) gateway.Result
	StartPrint(ctx context.Context) gateway.Result
	SendCommand(ctx context.Context, cmd string) gateway.Result
	DismissAlert()
}

// Uploads starts a file transfer to the device.
type Uploads interface {
	UploadFile(ctx context.Context, path string) gateway.Result
}

// Views hands out projections of the shared state.
type Views interface {
	Tick() (render.View, bool)
	Last() render.View
	Interval() time.Duration
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Actions   Actions
	Uploads   Uploads
	Scheduler Views
	Device    string
	LogPath   string
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	actions   Actions
	uploads   Uploads
	views     Views
	device    string
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	interval  time.Duration

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	modal       Modal

	// Data state
	view   render.View
	cursor int

	// Activity widgets
	printBar  progress.Model
	uploadBar progress.Model
	spinner   spinner.Model

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	interval := DefaultUIInterval
	if opts.Scheduler != nil && opts.Scheduler.Interval() > 0 {
		interval = opts.Scheduler.Interval()
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(opts.Prefs.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Info))

	m := Model{
		ctx:         ctx,
		actions:     opts.Actions,
		uploads:     opts.Uploads,
		views:       opts.Scheduler,
		device:      opts.Device,
		logPath:     opts.LogPath,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		interval:    interval,
		theme:       theme,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		currentView: ViewFiles,
		printBar:    progress.New(progress.WithScaledGradient(theme.Accent, theme.Success), progress.WithoutPercentage()),
		uploadBar:   progress.New(progress.WithSolidFill(theme.Info), progress.WithoutPercentage()),
		spinner:     sp,
	}
	if m.views != nil {
		m.apply(m.views.Last())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(m.interval),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case actionDoneMsg:
		// The outcome is already merged; pick it up without waiting a tick.
		m.refresh()
		return m, nil

	case uploadChosenMsg:
		return m, m.startUpload(msg.path)

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else belongs to an open modal, e.g. the file picker's
	// directory listings.
	if m.modal != nil {
		return m.updateModal(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.view.Alert != "" {
		return m.place(renderAlert(m.theme, m.view.Alert, m.width))
	}
	if m.modal != nil {
		return m.place(m.modal.View(m.theme, m.width, m.height))
	}
	if m.showHelp {
		return m.renderHelp()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// An alert swallows every key until it is dismissed.
	if m.view.Alert != "" {
		if key.Matches(msg, m.keys.Dismiss) {
			if m.actions != nil {
				m.actions.DismissAlert()
			}
			m.refresh()
		}
		return m, nil
	}

	if m.modal != nil {
		return m.updateModal(msg)
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Logs):
		if m.currentView == ViewLogs {
			m.currentView = ViewFiles
			return m, nil
		}
		m.currentView = ViewLogs
		m.logState.follow = true
		m.logState.lastRefresh = time.Now()
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Escape):
		m.currentView = ViewFiles
		return m, nil
	}

	if m.currentView == ViewLogs {
		return m.handleLogsKey(msg)
	}
	return m.handleFilesKey(msg)
}

// handleFilesKey processes navigation and printer actions on the file pane.
func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.view.Files.Rows
	if m.actions == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = max(len(rows)-1, 0)

	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(rows) {
			// The name on screen, not whatever now sits at that index in
			// the store.
			name := rows[m.cursor].Name
			return m, m.run(func(ctx context.Context) gateway.Result {
				return m.actions.SelectName(ctx, name)
			})
		}
	case key.Matches(msg, m.keys.Refresh):
		return m, m.run(m.actions.ListFiles)
	case key.Matches(msg, m.keys.Print):
		return m, m.run(m.actions.StartPrint)
	case key.Matches(msg, m.keys.Delete):
		return m, m.run(m.actions.DeleteSelected)

	case key.Matches(msg, m.keys.Command):
		m.modal = newCommandModal(func(cmd string) tea.Cmd {
			return m.run(func(ctx context.Context) gateway.Result {
				return m.actions.SendCommand(ctx, cmd)
			})
		})
		return m, nil

	case key.Matches(msg, m.keys.Upload):
		if m.uploads == nil {
			return m, nil
		}
		um := newUploadModal(m.prefs.UploadDir(), m.height, func(path string) tea.Cmd {
			return func() tea.Msg { return uploadChosenMsg{path: path} }
		})
		m.modal = um
		return m, um.Init()
	}
	return m, nil
}

func (m Model) updateModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd, closed := m.modal.Update(msg, m.keys)
	if closed {
		m.modal = nil
	} else {
		m.modal = next
	}
	return m, cmd
}

// startUpload remembers the picked directory and hands the file to the
// upload tracker.
func (m *Model) startUpload(path string) tea.Cmd {
	m.prefs.LastUploadDir = filepath.Dir(path)
	if m.prefsPath != "" {
		_ = prefs.Save(m.prefsPath, m.prefs)
	}
	uploads := m.uploads
	return m.run(func(ctx context.Context) gateway.Result {
		return uploads.UploadFile(ctx, path)
	})
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	if m.prefsPath != "" {
		_ = prefs.Save(m.prefsPath, m.prefs)
	}
	m.printBar = progress.New(progress.WithScaledGradient(m.theme.Accent, m.theme.Success), progress.WithoutPercentage())
	m.uploadBar = progress.New(progress.WithSolidFill(m.theme.Info), progress.WithoutPercentage())
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Info))
	m.updateLogViewport()
}

// run executes an action off the update loop.
func (m Model) run(action func(context.Context) gateway.Result) tea.Cmd {
	if m.actions == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{result: action(ctx)}
	}
}

// handleTick pulls a fresh view if the state changed since the last tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.refresh()
	cmds := []tea.Cmd{tickCmd(m.interval)}
	if cmd := m.maybeRefreshLogs(now); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) refresh() {
	if m.views == nil {
		return
	}
	if v, changed := m.views.Tick(); changed {
		m.apply(v)
	}
}

// apply installs a new view, keeping the cursor on a valid row and the key
// bindings in step with the enabled controls.
func (m *Model) apply(v render.View) {
	m.view = v
	rows := len(v.Files.Rows)
	if m.cursor >= rows {
		m.cursor = max(rows-1, 0)
	}
	m.keys.applyControls(v.Controls, rows > 0)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	header := m.renderHeader()
	footer := m.renderFooter()

	if m.currentView == ViewLogs {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.renderLogs(), footer)
	}

	activity := m.renderActivity()
	used := lipgloss.Height(header) + lipgloss.Height(footer)
	if activity != "" {
		used += lipgloss.Height(activity)
	}
	files := m.renderFiles(max(m.height-used, 3))

	parts := []string{header, files}
	if activity != "" {
		parts = append(parts, activity)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Messages

type tickMsg time.Time

type actionDoneMsg struct {
	result gateway.Result
}

type uploadChosenMsg struct {
	path string
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		// Shut down from outside, e.g. by a signal.
		return nil
	}
	return err
}
