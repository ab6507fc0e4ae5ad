package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/notify"
)

// Run starts the viewer and blocks until the user quits or ctx ends.
// Notifications published on the bus are shown as toasts.
func Run(ctx context.Context, deps Deps, opts ...tea.ProgramOption) error {
	if deps.Surface == nil {
		deps.Surface = NewSurface()
	}

	m := New(ctx, deps)

	options := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	}, opts...)
	p := tea.NewProgram(m, options...)

	deps.Surface.Attach(p.Send)
	defer deps.Surface.Attach(nil)

	if deps.Bus != nil {
		deps.Bus.SubscribeNotificationPublished(func(n eventbus.NotificationPublishedPayload) {
			deps.Surface.Notify(notify.Notification{
				Level:     n.Level,
				Message:   n.Message,
				CreatedAt: time.Now(),
			})
		})
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
