package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/swipeview/internal/core/notify"
	"github.com/hay-kot/swipeview/internal/scanner"
	"github.com/hay-kot/swipeview/internal/swipe"
	"github.com/hay-kot/swipeview/pkg/kv"
)

type (
	renderedMsg     struct{ rendered swipe.Rendered }
	scanDoneMsg     struct{ result scanner.Result }
	notificationMsg struct{ notification notify.Notification }
)

// Surface is the display target of the render reconciler. It keeps the last
// committed render per message and wakes the program when one arrives.
type Surface struct {
	entries *kv.Store[int, swipe.Rendered]

	mu   sync.RWMutex
	send func(tea.Msg)
}

var _ swipe.Surface = (*Surface)(nil)

func NewSurface() *Surface {
	return &Surface{entries: kv.New[int, swipe.Rendered]()}
}

// Attach sets the function used to deliver messages to the program, usually
// (*tea.Program).Send.
func (s *Surface) Attach(send func(tea.Msg)) {
	s.mu.Lock()
	s.send = send
	s.mu.Unlock()
}

// Apply stores r as the visible content of its message. It is called with the
// reconciler's lock held, so delivery to the program happens on a new
// goroutine.
func (s *Surface) Apply(r swipe.Rendered) {
	s.entries.Set(r.ID, r)
	s.post(renderedMsg{rendered: r})
}

// Get returns the last committed render for id.
func (s *Surface) Get(id int) (swipe.Rendered, bool) {
	return s.entries.Get(id)
}

// Forget drops every entry whose id keep rejects and returns how many were
// removed.
func (s *Surface) Forget(keep func(id int) bool) int {
	return s.entries.DeleteFunc(func(id int, _ swipe.Rendered) bool {
		return !keep(id)
	})
}

// ScanDone forwards a scan result to the program. It matches
// scanner.Options.OnScan.
func (s *Surface) ScanDone(r scanner.Result) {
	s.post(scanDoneMsg{result: r})
}

// Notify forwards a user-facing notice to the program.
func (s *Surface) Notify(n notify.Notification) {
	s.post(notificationMsg{notification: n})
}

func (s *Surface) post(msg tea.Msg) {
	s.mu.RLock()
	send := s.send
	s.mu.RUnlock()

	if send == nil {
		return
	}
	go send(msg)
}
