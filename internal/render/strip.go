package render

import (
	"html"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Strip removes terminal escape sequences and HTML tags, returning the text a
// user would want on the clipboard.
func Strip(s string) string {
	s = ansi.Strip(s)
	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return strings.TrimSpace(s)
}

// Escape neutralizes content for direct display when formatting failed:
// escape sequences and control characters other than newlines and tabs are
// removed so raw content cannot drive the terminal.
func Escape(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		default:
			return r
		}
	}, s)
}
