package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hay-kot/swipeview/internal/core/styles"
)

// View renders the viewer.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	sections := []string{
		m.renderTitle(),
		styles.DividerStyle.Render(strings.Repeat("─", max(m.width, 0))),
		m.toastView.Overlay(m.viewport.View(), m.width),
		m.renderStatus(),
		m.help.View(m.keys),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	meta := m.deps.Store.Meta()

	title := meta.CharacterName
	if title == "" {
		title = "transcript"
	}

	parts := []string{styles.CommandHeaderStyle.Render(styles.IconChat + " " + title)}
	if m.deps.Path != "" {
		parts = append(parts, styles.MutedStyle.Render(filepath.Base(m.deps.Path)))
	}
	parts = append(parts, styles.MutedStyle.Render(fmt.Sprintf("%d messages", m.deps.Store.Len())))

	return strings.Join(parts, styles.MutedStyle.Render(" · "))
}

func (m Model) renderStatus() string {
	ctrl := m.deps.Controller

	mode := "browse"
	if ctrl.AnyOpen() {
		mode = styles.IconUnlocked + " unlocked"
	}

	position := "-"
	if total := m.transcript.Total(); total > 0 {
		position = fmt.Sprintf("%d/%d", m.transcript.Cursor()+1, total)
	}

	status := fmt.Sprintf("%s  message %s", mode, position)
	return styles.StatusBarStyle.Width(max(m.width, 0)).Render(status)
}
