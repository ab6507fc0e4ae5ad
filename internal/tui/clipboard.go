package tui

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

var clipboardWrite = clipboard.WriteAll

// copyToClipboard writes text through the configured copy command, or the
// system clipboard when no command is set.
func copyToClipboard(copyCommand, text string) error {
	if copyCommand == "" {
		return clipboardWrite(text)
	}

	parts := strings.Fields(copyCommand)
	if len(parts) == 0 {
		return errors.New("empty copy command")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}
