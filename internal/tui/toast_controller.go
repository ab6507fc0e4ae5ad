package tui

import (
	"time"

	"github.com/hay-kot/swipeview/internal/core/notify"
)

const (
	defaultToastTTL   = 4 * time.Second
	warningToastTTL   = 6 * time.Second
	defaultMaxToasts  = 3
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 48
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
}

// ToastController manages the lifecycle of active toast notifications.
// It handles push, eviction, TTL countdown, and dismissal.
type ToastController struct {
	toasts  []toast
	ticking bool
}

func NewToastController() *ToastController {
	return &ToastController{}
}

// Push adds a notification to the toast stack. Warnings and errors stay up
// longer than info notices. If the stack exceeds defaultMaxToasts, the oldest
// toast is evicted. A notice identical to the newest toast only refreshes its
// TTL.
func (c *ToastController) Push(n notify.Notification) {
	ttl := defaultToastTTL
	if n.Level != notify.LevelInfo {
		ttl = warningToastTTL
	}

	if last := len(c.toasts) - 1; last >= 0 {
		prev := c.toasts[last].notification
		if prev.Level == n.Level && prev.Message == n.Message {
			c.toasts[last].remaining = ttl
			return
		}
	}

	c.toasts = append(c.toasts, toast{
		notification: n,
		remaining:    ttl,
	})
	if len(c.toasts) > defaultMaxToasts {
		c.toasts = c.toasts[len(c.toasts)-defaultMaxToasts:]
	}
}

// Tick decrements the remaining TTL on all toasts by d and removes
// any that have expired.
func (c *ToastController) Tick(d time.Duration) {
	alive := c.toasts[:0]
	for _, t := range c.toasts {
		t.remaining -= d
		if t.remaining > 0 {
			alive = append(alive, t)
		}
	}
	c.toasts = alive
}

// Dismiss removes the newest (bottom-most) toast.
func (c *ToastController) Dismiss() {
	if len(c.toasts) > 0 {
		c.toasts = c.toasts[:len(c.toasts)-1]
	}
}

// HasToasts returns true if there are any active toasts.
func (c *ToastController) HasToasts() bool {
	return len(c.toasts) > 0
}

// Toasts returns the current active toast slice.
func (c *ToastController) Toasts() []toast {
	return c.toasts
}

// Ticking returns whether the tick timer is currently running.
func (c *ToastController) Ticking() bool {
	return c.ticking
}

// SetTicking sets the tick timer state.
func (c *ToastController) SetTicking(v bool) {
	c.ticking = v
}
