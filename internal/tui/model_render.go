package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/swipeview/internal/core/styles"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
)

// chrome is the number of fixed lines around the viewport: title, divider and
// status bar.
const chrome = 3

func (m *Model) resize() {
	helpHeight := lipgloss.Height(m.help.View(m.keys))
	height := max(m.height-chrome-helpHeight, 1)

	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
}

// refresh rebuilds the transcript content and keeps the selected message in
// view.
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	total := m.deps.Store.Len()
	m.transcript.SetTotal(total)

	if total == 0 {
		m.transcript.SetLayout(nil, nil)
		m.viewport.SetContent(styles.MutedStyle.Render("No messages in this transcript"))
		return
	}

	blocks := make([]string, 0, total)
	starts := make([]int, 0, total)
	heights := make([]int, 0, total)

	line := 0
	for id := range total {
		block := m.renderBlock(id)
		h := lipgloss.Height(block)

		blocks = append(blocks, block)
		starts = append(starts, line)
		heights = append(heights, h)
		line += h + 1
	}

	m.transcript.SetLayout(starts, heights)
	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	m.viewport.SetYOffset(m.transcript.ScrollFor(m.viewport.YOffset, m.viewport.Height))
}

func (m *Model) renderBlock(id int) string {
	msg, err := m.deps.Store.Message(id)
	if err != nil {
		return styles.MutedStyle.Render(fmt.Sprintf("#%d unavailable", id))
	}

	open := m.deps.Controller.IsOpen(id)

	border := styles.NormalBorderStyle
	switch {
	case open:
		border = styles.UnlockedBorderStyle
	case id == m.transcript.Cursor():
		border = styles.SelectedBorderStyle
	}

	return border.Render(m.renderHeader(id, msg, open) + "\n" + m.renderBody(id, msg))
}

func (m *Model) renderHeader(id int, msg transcript.Message, open bool) string {
	parts := make([]string, 0, 6)

	if m.deps.Scanner.HasAffordance(id) {
		if open {
			parts = append(parts, styles.DegradedStyle.Render(styles.IconUnlocked))
		} else {
			parts = append(parts, styles.MutedStyle.Render(styles.IconLocked))
		}
	}

	parts = append(parts, speaker(msg), styles.MutedStyle.Render(fmt.Sprintf("#%d", id)))

	if !open {
		if n := len(msg.Swipes); n > 1 {
			parts = append(parts, styles.MutedStyle.Render(fmt.Sprintf("%s %d", styles.IconSwipeStack, n)))
		}
		return strings.Join(parts, " ")
	}

	if label, err := m.deps.Controller.Label(id); err == nil {
		text := styles.IconPrev + " " + label.Text + " " + styles.IconNext
		if label.IsOriginal {
			parts = append(parts, styles.LabelOriginalStyle.Render(text))
		} else {
			parts = append(parts, styles.LabelStyle.Render(text))
		}
	}

	if r, ok := m.deps.Surface.Get(id); ok {
		switch {
		case r.Degraded:
			parts = append(parts, styles.DegradedStyle.Render("raw"))
		case r.Translated:
			parts = append(parts, styles.TranslatedStyle.Render(styles.IconTranslate+" translated"))
		}
	}

	if s, ok := m.deps.Controller.Get(id); ok && s.TranslationEnabled {
		if r, ok := m.deps.Surface.Get(id); !ok || !r.Translated {
			parts = append(parts, styles.MutedStyle.Render(styles.IconTranslate+" no translation"))
		}
	}

	return strings.Join(parts, " ")
}

func speaker(msg transcript.Message) string {
	name := msg.Name
	switch {
	case msg.IsSystem:
		if name == "" {
			name = "System"
		}
		return styles.SystemSpeakerStyle.Render(name)
	case msg.IsUser:
		return styles.UserSpeakerStyle.Render(name)
	default:
		return styles.SpeakerStyle.Render(name)
	}
}

// renderBody returns the committed render for id when there is one, and the
// formatted active content otherwise.
func (m *Model) renderBody(id int, msg transcript.Message) string {
	if r, ok := m.deps.Surface.Get(id); ok {
		return r.Markup
	}

	content := msg.Active()
	k := markupKey{id: id, content: content}
	if out, ok := m.markup.Get(k); ok {
		return out
	}

	out := m.format(id, msg, content)
	m.markup.Set(k, out)
	return out
}

func (m *Model) format(id int, msg transcript.Message, content string) (out string) {
	if m.deps.Formatter == nil {
		return render.Escape(content)
	}

	defer func() {
		if r := recover(); r != nil {
			m.deps.Logger.Error().Interface("panic", r).Int("message_id", id).Msg("formatter panicked")
			out = render.Escape(content)
		}
	}()

	out, err := m.deps.Formatter.Format(content, msg.Name, msg.IsSystem, msg.IsUser, id)
	if err != nil {
		m.deps.Logger.Warn().Err(err).Int("message_id", id).Msg("showing unformatted message")
		return render.Escape(content)
	}
	return out
}
