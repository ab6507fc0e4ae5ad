package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// maxLineSize bounds a single JSONL line; long roleplay messages with many
// swipes routinely exceed bufio's default of 64KiB.
const maxLineSize = 16 * 1024 * 1024

// header is the first line of a chat file. It is detected by the presence of
// user_name/character_name and the absence of a message body.
type header struct {
	Meta
	Mes *string `json:"mes"`
}

// Parse reads a JSONL chat log. The first line may be a header; every other
// non-blank line is a message.
func Parse(r io.Reader) (Meta, []Message, error) {
	var (
		meta Meta
		msgs []Message
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		if lineNo == 1 {
			var h header
			if err := json.Unmarshal(line, &h); err != nil {
				return Meta{}, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if h.Mes == nil {
				meta = h.Meta
				continue
			}
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return Meta{}, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		normalize(&msg)
		msgs = append(msgs, msg)
	}

	if err := scanner.Err(); err != nil {
		return Meta{}, nil, fmt.Errorf("read transcript: %w", err)
	}

	return meta, msgs, nil
}

// Load parses the chat file at path.
func Load(path string) (Meta, []Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	meta, msgs, err := Parse(f)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return meta, msgs, nil
}

// normalize clamps a stored swipe_id into range. Files edited by hand or by
// older clients sometimes carry an index past the end of the swipes array.
func normalize(msg *Message) {
	if len(msg.Swipes) == 0 {
		msg.ActiveIndex = 0
		return
	}
	if msg.ActiveIndex < 0 || msg.ActiveIndex >= len(msg.Swipes) {
		msg.ActiveIndex = 0
	}
}
