package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/swipeview/internal/core/notify"
	"github.com/hay-kot/swipeview/internal/scanner"
	"github.com/hay-kot/swipeview/internal/swipe"
)

const guardNotice = "Lock the unlocked message before moving to another one"

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.deps.Controller
	id := m.transcript.Cursor()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.toastController.Dismiss()
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		if m.transcript.Total() == 0 || !m.deps.Scanner.HasAffordance(id) {
			return m, nil
		}
		// rejections reach the user through the bus as notifications
		if _, err := ctrl.Toggle(id); err != nil {
			m.deps.Logger.Debug().Err(err).Int("message_id", id).Msg("toggle rejected")
		}
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		return m.move(id, swipe.Prev)

	case key.Matches(msg, m.keys.Next):
		return m.move(id, swipe.Next)

	case key.Matches(msg, m.keys.Translate):
		s, ok := ctrl.Get(id)
		if !ok {
			return m, m.pushToast(notify.Notification{Level: notify.LevelWarning, Message: swipe.Advisory(swipe.ErrNotOpen)})
		}
		ctrl.SetTranslation(id, !s.TranslationEnabled)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		return m, m.copyActive(id)

	case key.Matches(msg, m.keys.Up):
		return m.navigate(m.transcript.MoveUp)

	case key.Matches(msg, m.keys.Down):
		return m.navigate(m.transcript.MoveDown)

	case key.Matches(msg, m.keys.Top):
		return m.navigate(m.transcript.Top)

	case key.Matches(msg, m.keys.Bottom):
		return m.navigate(m.transcript.Bottom)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.SetYOffset(m.viewport.YOffset - max(m.viewport.Height/2, 1))
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.SetYOffset(m.viewport.YOffset + max(m.viewport.Height/2, 1))
		return m, nil
	}

	return m, nil
}

// navigate moves the selection between messages. While any message is
// unlocked the selection is pinned and the user is told why.
func (m Model) navigate(step func() bool) (tea.Model, tea.Cmd) {
	if !m.deps.Controller.AllowTranscriptNavigation() {
		return m, m.pushToast(notify.Notification{Level: notify.LevelWarning, Message: guardNotice})
	}
	if step() {
		m.refresh()
	}
	return m, nil
}

func (m Model) move(id int, dir swipe.Direction) (tea.Model, tea.Cmd) {
	if _, moved := m.deps.Controller.Move(id, dir); moved {
		m.refresh()
	}
	return m, nil
}

func (m *Model) copyActive(id int) tea.Cmd {
	text, err := m.deps.Controller.CopyActiveText(m.ctx, id)
	if err != nil {
		level := notify.LevelError
		notice := fmt.Sprintf("Copy failed: %v", err)
		if errors.Is(err, swipe.ErrNotOpen) {
			level = notify.LevelWarning
			notice = swipe.Advisory(err)
		}
		return m.pushToast(notify.Notification{Level: level, Message: notice})
	}

	copyCommand := ""
	if m.deps.Config != nil {
		copyCommand = m.deps.Config.TUI.CopyCommand
	}

	return func() tea.Msg {
		return copiedMsg{id: id, err: copyToClipboard(copyCommand, text)}
	}
}

func (m *Model) handleCopied(msg copiedMsg) tea.Cmd {
	if msg.err != nil {
		m.deps.Logger.Warn().Err(msg.err).Int("message_id", msg.id).Msg("clipboard write failed")
		return m.pushToast(notify.Notification{
			Level:   notify.LevelError,
			Message: fmt.Sprintf("Copy failed: %v", msg.err),
		})
	}
	return m.pushToast(notify.Notification{
		Level:   notify.LevelInfo,
		Message: fmt.Sprintf("Copied message #%d", msg.id),
	})
}

// handleScan drops state belonging to messages that changed or disappeared.
func (m *Model) handleScan(r scanner.Result) {
	store := m.deps.Store

	m.deps.Surface.Forget(func(id int) bool {
		return id < r.Total && m.deps.Controller.IsOpen(id)
	})
	m.markup.DeleteFunc(func(k markupKey, _ string) bool {
		msg, err := store.Message(k.id)
		return err != nil || msg.Active() != k.content
	})

	m.transcript.SetTotal(r.Total)
	m.refresh()
}
