// Package transcript holds the chat log records the viewer browses and the
// store adapter used to read and update them.
package transcript

import "errors"

// ErrMessageNotFound is returned when a message id is outside the transcript.
var ErrMessageNotFound = errors.New("message not found")

// ErrIndexOutOfRange is returned when an active index does not address an alternative.
var ErrIndexOutOfRange = errors.New("swipe index out of range")

// Message is a single chat log entry. Only Swipes and ActiveIndex are touched by
// the swipe controller; the identity fields are passed through to the formatter.
type Message struct {
	Name        string   `json:"name"`
	IsUser      bool     `json:"is_user"`
	IsSystem    bool     `json:"is_system"`
	SendDate    string   `json:"send_date,omitempty"`
	Content     string   `json:"mes"`
	Swipes      []string `json:"swipes,omitempty"`
	ActiveIndex int      `json:"swipe_id,omitempty"`
}

// Alternatives returns the stored swipes of the message.
func (m Message) Alternatives() []string {
	return m.Swipes
}

// Active returns the content of the selected alternative, or Content when the
// message stores no alternatives.
func (m Message) Active() string {
	if m.ActiveIndex >= 0 && m.ActiveIndex < len(m.Swipes) {
		return m.Swipes[m.ActiveIndex]
	}
	return m.Content
}

// Alternative returns the swipe at index.
func (m Message) Alternative(index int) (string, error) {
	if index < 0 || index >= len(m.Swipes) {
		return "", ErrIndexOutOfRange
	}
	return m.Swipes[index], nil
}

// Meta is the header of a transcript file.
type Meta struct {
	UserName      string `json:"user_name"`
	CharacterName string `json:"character_name"`
	CreateDate    string `json:"create_date,omitempty"`
}

// Store is read/write access to an ordered transcript. Message ids are the
// 0-based positions of the messages.
type Store interface {
	Len() int
	Message(id int) (Message, error)
	SetActiveIndex(id, index int) error
	Meta() Meta
}
