package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/hay-kot/swipeview/internal/core/notify"
	"github.com/hay-kot/swipeview/internal/core/styles"
)

type toastTickMsg time.Time

func scheduleToastTick() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// ToastView renders toast notifications and composites them as an overlay.
type ToastView struct {
	controller *ToastController
}

func NewToastView(controller *ToastController) *ToastView {
	return &ToastView{controller: controller}
}

// View renders the toast stack as a single string with toasts stacked
// vertically (oldest at top, newest at bottom).
func (v *ToastView) View() string {
	toasts := v.controller.Toasts()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, renderToast(t))
	}

	return strings.Join(rendered, "\n")
}

func renderToast(t toast) string {
	var style lipgloss.Style

	switch t.notification.Level {
	case notify.LevelError:
		style = styles.ToastErrorStyle
	case notify.LevelWarning:
		style = styles.ToastWarningStyle
	default:
		style = styles.ToastInfoStyle
	}

	return style.Width(toastWidth).Render(t.notification.Message)
}

// Overlay composites the toast stack over the bottom-right corner of
// background, replacing the covered part of each line.
func (v *ToastView) Overlay(background string, width int) string {
	toastContent := v.View()
	if toastContent == "" {
		return background
	}

	bgLines := strings.Split(background, "\n")
	toastLines := strings.Split(toastContent, "\n")

	toastW := lipgloss.Width(toastContent)
	left := max(width-toastW-1, 0)
	start := max(len(bgLines)-len(toastLines), 0)

	for i, tl := range toastLines {
		row := start + i
		if row >= len(bgLines) {
			break
		}
		line := bgLines[row]
		prefix := ansi.Truncate(line, left, "")
		if pad := left - ansi.StringWidth(prefix); pad > 0 {
			prefix += strings.Repeat(" ", pad)
		}
		bgLines[row] = prefix + tl
	}

	return strings.Join(bgLines, "\n")
}
