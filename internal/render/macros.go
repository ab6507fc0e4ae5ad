package render

import (
	"regexp"

	"github.com/hay-kot/swipeview/internal/core/transcript"
)

var (
	userMacro = regexp.MustCompile(`(?i)\{\{user\}\}|<user>`)
	charMacro = regexp.MustCompile(`(?i)\{\{char\}\}|<bot>|<char>`)
)

// Macros substitutes speaker placeholders in message content. The formatter
// and the translation lookup must agree on the substituted text because the
// translation store is keyed by it.
type Macros struct {
	User string
	Char string
}

// Apply replaces {{user}}/<USER> and {{char}}/<BOT>/<CHAR>, case-insensitively.
// Empty names leave the placeholders untouched.
func (m Macros) Apply(s string) string {
	if m.User != "" {
		s = userMacro.ReplaceAllLiteralString(s, m.User)
	}
	if m.Char != "" {
		s = charMacro.ReplaceAllLiteralString(s, m.Char)
	}
	return s
}

// MacroSource yields the current placeholder names. The transcript header can
// change when the file is reloaded, so consumers resolve names per call.
type MacroSource func() Macros

// Static returns a source that always yields m.
func Static(m Macros) MacroSource {
	return func() Macros { return m }
}

// FromStore derives macros from the transcript header. fallbackUser is used
// when the header carries no user name.
func FromStore(store transcript.Store, fallbackUser string) MacroSource {
	return func() Macros {
		meta := store.Meta()
		user := meta.UserName
		if user == "" {
			user = fallbackUser
		}
		return Macros{User: user, Char: meta.CharacterName}
	}
}
