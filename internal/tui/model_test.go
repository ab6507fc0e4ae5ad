package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/swipeview/internal/core/config"
	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/hay-kot/swipeview/internal/scanner"
	"github.com/hay-kot/swipeview/internal/swipe"
	"github.com/hay-kot/swipeview/pkg/tuitest"
)

type harness struct {
	m       Model
	store   *transcript.Memory
	ctrl    *swipe.Controller
	recon   *swipe.Reconciler
	scan    *scanner.Scanner
	surface *Surface
}

func chat() []transcript.Message {
	return []transcript.Message{
		{Name: "Sera", Content: "A", Swipes: []string{"A", "B", "C"}},
		{Name: "Ann", IsUser: true, Content: "hello there"},
		{Name: "Sera", Content: "Y", Swipes: []string{"X", "Y"}, ActiveIndex: 1},
	}
}

func newHarness(t *testing.T, msgs []transcript.Message) *harness {
	t.Helper()

	ctx := context.Background()
	store := transcript.NewMemory(transcript.Meta{UserName: "Ann", CharacterName: "Sera"}, msgs)
	surface := NewSurface()
	formatter := render.FormatterFunc(func(content, _ string, _, _ bool, _ int) (string, error) {
		return "«" + content + "»", nil
	})

	recon := swipe.NewReconciler(store, nil, formatter, surface, zerolog.Nop())
	ctrl := swipe.NewController(ctx, swipe.Deps{
		Store:      store,
		Registry:   swipe.NewRegistry(store, swipe.PolicyConcurrent),
		Reconciler: recon,
		Logger:     zerolog.Nop(),
	})
	scan := scanner.New(store, nil, ctrl, nil, scanner.Options{}, zerolog.Nop())
	scan.ScanNow()

	cfg := config.DefaultConfig()
	h := &harness{
		m: New(ctx, Deps{
			Config:     &cfg,
			Path:       "/tmp/chats/sera.jsonl",
			Store:      store,
			Controller: ctrl,
			Scanner:    scan,
			Formatter:  formatter,
			Surface:    surface,
			Logger:     zerolog.Nop(),
		}),
		store:   store,
		ctrl:    ctrl,
		recon:   recon,
		scan:    scan,
		surface: surface,
	}
	t.Cleanup(recon.Wait)

	h.send(tuitest.WindowSize(100, 40))
	return h
}

// send feeds msgs through Update and returns the last command.
func (h *harness) send(msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = h.m.Update(msg)
		h.m = next.(Model)
	}
	return cmd
}

// settle waits for pending renders and redraws.
func (h *harness) settle() {
	h.recon.Wait()
	h.send(renderedMsg{})
}

func (h *harness) view() string {
	return tuitest.StripANSI(h.m.View())
}

func (h *harness) active(t *testing.T, id int) int {
	t.Helper()
	msg, err := h.store.Message(id)
	require.NoError(t, err)
	return msg.ActiveIndex
}

func TestModel_View_ListsMessages(t *testing.T) {
	h := newHarness(t, chat())
	out := h.view()

	assert.Contains(t, out, "Sera")
	assert.Contains(t, out, "sera.jsonl")
	assert.Contains(t, out, "3 messages")
	assert.Contains(t, out, "«A»")
	assert.Contains(t, out, "«hello there»")
	assert.Contains(t, out, "«Y»")
	assert.Contains(t, out, "browse  message 1/3")
}

func TestModel_View_EmptyTranscript(t *testing.T) {
	h := newHarness(t, nil)
	assert.Contains(t, h.view(), "No messages in this transcript")

	// keys on an empty transcript are harmless
	h.send(tuitest.KeyPress(' '), tuitest.KeyPress('l'), tuitest.KeyPress('j'))
	assert.False(t, h.ctrl.AnyOpen())
}

func TestModel_UnlockBrowseLock(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyPress(' '))
	require.True(t, h.ctrl.IsOpen(0))
	h.settle()
	assert.Contains(t, h.view(), "1/3")
	assert.Contains(t, h.view(), "unlocked")

	h.send(tuitest.KeyPress('l'), tuitest.KeyRight())
	assert.Equal(t, 2, h.active(t, 0))
	h.settle()
	assert.Contains(t, h.view(), "3/3")
	assert.Contains(t, h.view(), "«C»")

	// clamped at the last alternative
	h.send(tuitest.KeyPress('l'))
	assert.Equal(t, 2, h.active(t, 0))

	h.send(tuitest.KeyPress('h'))
	assert.Equal(t, 1, h.active(t, 0))

	h.send(tuitest.KeyLeft(), tuitest.KeyLeft())
	assert.Equal(t, 0, h.active(t, 0), "clamped at the first alternative")

	h.send(tuitest.KeyPress('l'))
	assert.Equal(t, 1, h.active(t, 0))

	h.send(tuitest.KeyPress('u'))
	assert.False(t, h.ctrl.IsOpen(0))
	assert.Equal(t, 0, h.active(t, 0), "lock restores the original alternative")

	h.settle()
	out := h.view()
	assert.Contains(t, out, "«A»")
	assert.Contains(t, out, "browse")
}

func TestModel_NavigationGuard(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyPress('j'))
	assert.Equal(t, 1, h.m.Selected())
	h.send(tuitest.KeyUp())
	assert.Equal(t, 0, h.m.Selected())

	h.send(tuitest.KeyPress(' '))
	require.True(t, h.ctrl.IsOpen(0))

	cmd := h.send(tuitest.KeyPress('j'))
	assert.Equal(t, 0, h.m.Selected(), "selection is pinned while a message is unlocked")
	assert.NotNil(t, cmd, "toast timer started")
	assert.Contains(t, h.view(), "Lock the unlocked message")

	h.send(tuitest.KeyPress('G'))
	assert.Equal(t, 0, h.m.Selected())

	h.send(tuitest.KeyPress(' '))
	h.send(tuitest.KeyPress('G'))
	assert.Equal(t, 2, h.m.Selected())
}

func TestModel_ToggleRejectedForSingleMessage(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyDown(), tuitest.KeyPress(' '))
	assert.False(t, h.ctrl.IsOpen(1))
	assert.True(t, h.ctrl.AllowTranscriptNavigation())
}

func TestModel_TranslateRequiresUnlock(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyPress('t'))
	assert.Contains(t, h.view(), swipe.Advisory(swipe.ErrNotOpen))

	h.send(tuitest.KeyPress(' '), tuitest.KeyPress('t'))
	s, ok := h.ctrl.Get(0)
	require.True(t, ok)
	assert.True(t, s.TranslationEnabled)

	h.settle()
	assert.Contains(t, h.view(), "no translation")
}

func TestModel_CopyActiveText(t *testing.T) {
	var copied string
	prev := clipboardWrite
	clipboardWrite = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { clipboardWrite = prev })

	h := newHarness(t, chat())

	h.send(tuitest.KeyPress(' '), tuitest.KeyPress('l'))
	cmd := h.send(tuitest.KeyPress('y'))
	require.NotNil(t, cmd)

	msg := cmd()
	require.IsType(t, copiedMsg{}, msg)
	assert.Equal(t, "B", copied)

	h.send(msg)
	assert.Contains(t, h.view(), "Copied message #0")
}

func TestModel_CopyWhileLocked(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyPress('y'))
	assert.Contains(t, h.view(), swipe.Advisory(swipe.ErrNotOpen))
}

func TestModel_DismissToast(t *testing.T) {
	h := newHarness(t, chat())

	h.send(tuitest.KeyPress('t'))
	require.True(t, h.m.toastController.HasToasts())

	h.send(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.m.toastController.HasToasts())
}

func TestModel_ScanDropsStaleMarkup(t *testing.T) {
	h := newHarness(t, chat())
	assert.Contains(t, h.view(), "«hello there»")

	msgs := chat()
	msgs[1].Content = "edited"
	msgs = append(msgs, transcript.Message{Name: "Sera", Content: "new reply"})
	h.store.Reload(transcript.Meta{CharacterName: "Sera"}, msgs, h.ctrl.IsOpen)

	h.send(scanDoneMsg{result: h.scan.ScanNow()})

	out := h.view()
	assert.NotContains(t, out, "«hello there»")
	assert.Contains(t, out, "«edited»")
	assert.Contains(t, out, "«new reply»")
	assert.Contains(t, out, "message 1/4")
}

func TestModel_HelpToggle(t *testing.T) {
	h := newHarness(t, chat())
	short := strings.Count(h.view(), "\n")

	h.send(tuitest.KeyPress('?'))
	assert.Contains(t, h.view(), "prev message")
	assert.Equal(t, short, strings.Count(h.view(), "\n"), "viewport shrinks to fit the full help")
}

func TestModel_Quit(t *testing.T) {
	h := newHarness(t, chat())

	cmd := h.send(tuitest.KeyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
