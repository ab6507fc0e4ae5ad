// Package render turns message content into terminal markup for the viewer.
package render

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	glamouransi "github.com/charmbracelet/glamour/ansi"
)

// ErrFormatting wraps any failure of a Formatter.
var ErrFormatting = errors.New("formatting failed")

// Formatter renders message content. Implementations may fail; callers fall
// back to Escape.
type Formatter interface {
	Format(content, speaker string, isSystem, isUser bool, id int) (string, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(content, speaker string, isSystem, isUser bool, id int) (string, error)

// Format calls f.
func (f FormatterFunc) Format(content, speaker string, isSystem, isUser bool, id int) (string, error) {
	return f(content, speaker, isSystem, isUser, id)
}

// Markdown renders content as markdown with glamour after macro substitution.
// System messages are shown as escaped plain text.
type Markdown struct {
	macros MacroSource
	width  int
	style  glamouransi.StyleConfig

	once     sync.Once
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	initErr  error
}

// NewMarkdown creates a markdown formatter wrapping at width columns.
func NewMarkdown(macros MacroSource, width int, style glamouransi.StyleConfig) *Markdown {
	return &Markdown{
		macros: macros,
		width:  width,
		style:  style,
	}
}

// Macros returns the placeholder substitution used by the formatter.
func (m *Markdown) Macros() Macros {
	return m.macros()
}

// Format implements Formatter.
func (m *Markdown) Format(content, _ string, isSystem, _ bool, id int) (string, error) {
	content = m.macros().Apply(content)
	if isSystem {
		return Escape(content), nil
	}

	m.once.Do(func() {
		m.renderer, m.initErr = glamour.NewTermRenderer(
			glamour.WithStyles(m.style),
			glamour.WithWordWrap(m.width),
		)
	})
	if m.initErr != nil {
		return "", fmt.Errorf("message %d: %w: %w", id, ErrFormatting, m.initErr)
	}

	// TermRenderer is not safe for concurrent use.
	m.mu.Lock()
	out, err := m.renderer.Render(content)
	m.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("message %d: %w: %w", id, ErrFormatting, err)
	}

	return strings.Trim(out, "\n"), nil
}
