package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/pkg/iojson"
)

// DefaultTranscriptGlob matches chat logs below a directory.
const DefaultTranscriptGlob = "**/*.jsonl"

type LsCmd struct {
	flags *Flags

	// flags
	glob       string
	jsonOutput bool
}

// TranscriptInfo summarizes one transcript file.
type TranscriptInfo struct {
	Path      string `json:"path"`
	Character string `json:"character,omitempty"`
	Messages  int    `json:"messages"`
	Swipeable int    `json:"swipeable"` // messages with more than one alternative
	Swipes    int    `json:"swipes"`    // stored alternatives across all messages
	Error     string `json:"error,omitempty"`
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags) *LsCmd {
	return &LsCmd{flags: flags}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List transcripts",
		UsageText: "swipeview ls [--glob pattern] [--json] [dir]",
		Description: `Finds transcript files below dir (default: current directory) and shows
their message and swipe counts.

Output is a table on a terminal and tab separated lines otherwise.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "glob",
				Usage:       "doublestar pattern relative to dir",
				Value:       DefaultTranscriptGlob,
				Destination: &cmd.glob,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(_ context.Context, c *cli.Command) error {
	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}

	infos, err := ScanTranscripts(dir, cmd.glob)
	if err != nil {
		return err
	}

	out := c.Root().Writer

	if len(infos) == 0 {
		if !cmd.jsonOutput {
			fmt.Fprintf(os.Stderr, "No transcripts found\n")
		}
		return nil
	}

	if cmd.jsonOutput {
		for _, info := range infos {
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode transcript: %w", err)
			}
		}
		return nil
	}

	if !isTerminal(out) {
		for _, info := range infos {
			_, _ = fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%d\n", info.Path, info.Character, info.Messages, info.Swipeable, info.Swipes)
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tCHARACTER\tMESSAGES\tSWIPEABLE\tSWIPES")
	for _, info := range infos {
		if info.Error != "" {
			_, _ = fmt.Fprintf(w, "%s\t(unreadable: %s)\t\t\t\n", info.Path, info.Error)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", info.Path, info.Character, info.Messages, info.Swipeable, info.Swipes)
	}
	return w.Flush()
}

// ScanTranscripts loads every file below dir matching pattern. Files that fail
// to parse are reported with Error set.
func ScanTranscripts(dir, pattern string) ([]TranscriptInfo, error) {
	if pattern == "" {
		pattern = DefaultTranscriptGlob
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	slices.Sort(matches)

	infos := make([]TranscriptInfo, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, m)
		info := TranscriptInfo{Path: path}

		meta, msgs, err := transcript.Load(path)
		if err != nil {
			info.Error = err.Error()
			infos = append(infos, info)
			continue
		}

		info.Character = meta.CharacterName
		info.Messages = len(msgs)
		for _, msg := range msgs {
			info.Swipes += len(msg.Swipes)
			if len(msg.Swipes) > 1 {
				info.Swipeable++
			}
		}
		infos = append(infos, info)
	}

	return infos, nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
