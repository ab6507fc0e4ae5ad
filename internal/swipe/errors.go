package swipe

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSwipeData is returned when a message stores no alternatives.
	ErrNoSwipeData = errors.New("message has no swipe data")
	// ErrSingleSwipeOnly is returned when a message stores exactly one alternative.
	ErrSingleSwipeOnly = errors.New("message has a single swipe")
	// ErrAlreadyOpen is returned when the message is already unlocked.
	ErrAlreadyOpen = errors.New("session already open")
	// ErrNotOpen is returned when the message has no open session.
	ErrNotOpen = errors.New("session not open")
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("another session is open")
)

// ConflictError is returned by Open under PolicySingle while another message
// is unlocked.
type ConflictError struct {
	Other int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("message %d is already unlocked", e.Other)
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Advisory returns the notice shown to the user for a rejected request, or ""
// when err should not be surfaced.
func Advisory(err error) string {
	var conflict *ConflictError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &conflict):
		return fmt.Sprintf("Lock message #%d before unlocking another one", conflict.Other)
	case errors.Is(err, ErrNoSwipeData):
		return "This message has no alternative content to browse"
	case errors.Is(err, ErrSingleSwipeOnly):
		return "This message has only one swipe"
	case errors.Is(err, ErrNotOpen):
		return "Unlock the message first"
	default:
		return ""
	}
}
