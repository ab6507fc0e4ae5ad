package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/hay-kot/swipeview/internal/core/config"
	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/notify"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/hay-kot/swipeview/internal/scanner"
	"github.com/hay-kot/swipeview/internal/swipe"
	"github.com/hay-kot/swipeview/pkg/kv"
)

// Deps holds the collaborators of the viewer. Bus is optional.
type Deps struct {
	Config     *config.Config
	Path       string
	Store      transcript.Store
	Controller *swipe.Controller
	Scanner    *scanner.Scanner
	Formatter  render.Formatter
	Surface    *Surface
	Bus        *eventbus.EventBus
	Logger     zerolog.Logger

	// StartupWarnings are shown as toasts once the viewer starts.
	StartupWarnings []string
}

type markupKey struct {
	id      int
	content string
}

type copiedMsg struct {
	id  int
	err error
}

// Model is the main Bubble Tea model for the transcript viewer.
type Model struct {
	ctx  context.Context
	deps Deps

	keys       keyMap
	help       help.Model
	viewport   viewport.Model
	ready      bool
	width      int
	height     int
	transcript *TranscriptController

	// formatted markup of locked messages, keyed by content
	markup *kv.Store[markupKey, string]

	toastController *ToastController
	toastView       *ToastView
}

// New creates a viewer over the transcript in deps.
func New(ctx context.Context, deps Deps) Model {
	if deps.Surface == nil {
		deps.Surface = NewSurface()
	}

	toasts := NewToastController()
	for _, w := range deps.StartupWarnings {
		toasts.Push(notify.Notification{Level: notify.LevelWarning, Message: w})
	}

	tc := NewTranscriptController()
	tc.SetTotal(deps.Store.Len())

	return Model{
		ctx:             ctx,
		deps:            deps,
		keys:            newKeyMap(),
		help:            help.New(),
		transcript:      tc,
		markup:          kv.New[markupKey, string](),
		toastController: toasts,
		toastView:       NewToastView(toasts),
	}
}

// Init starts the toast timer and announces the viewer on the bus.
func (m Model) Init() tea.Cmd {
	if m.deps.Bus != nil {
		m.deps.Bus.PublishTuiStarted(eventbus.TUIStartedPayload{})
	}

	cmds := []tea.Cmd{tea.SetWindowTitle("swipeview")}
	if m.toastController.HasToasts() {
		m.toastController.SetTicking(true)
		cmds = append(cmds, scheduleToastTick())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.refresh()
		return m, nil

	case renderedMsg:
		m.refresh()
		return m, nil

	case scanDoneMsg:
		m.handleScan(msg.result)
		return m, nil

	case notificationMsg:
		return m, m.pushToast(msg.notification)

	case toastTickMsg:
		m.toastController.Tick(toastTickInterval)
		if m.toastController.HasToasts() {
			return m, scheduleToastTick()
		}
		m.toastController.SetTicking(false)
		return m, nil

	case copiedMsg:
		return m, m.handleCopied(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) quit() (Model, tea.Cmd) {
	if m.deps.Bus != nil {
		m.deps.Bus.PublishTuiStopped(eventbus.TUIStoppedPayload{})
	}
	return m, tea.Quit
}

// pushToast shows n and starts the toast timer when it is idle.
func (m *Model) pushToast(n notify.Notification) tea.Cmd {
	m.toastController.Push(n)
	if m.toastController.Ticking() {
		return nil
	}
	m.toastController.SetTicking(true)
	return scheduleToastTick()
}

// Selected returns the id of the selected message.
func (m Model) Selected() int {
	return m.transcript.Cursor()
}
