package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/swipeview/internal/core/transcript"
	"github.com/hay-kot/swipeview/internal/render"
	"github.com/hay-kot/swipeview/pkg/iojson"
)

const previewWidth = 60

type SwipesCmd struct {
	flags *Flags

	// flags
	all        bool
	jsonOutput bool
}

// SwipeInfo describes the alternatives of one message.
type SwipeInfo struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	IsUser       bool     `json:"is_user"`
	IsSystem     bool     `json:"is_system"`
	ActiveIndex  int      `json:"active_index"`
	Alternatives int      `json:"alternatives"`
	Swipes       []string `json:"swipes,omitempty"`
}

// NewSwipesCmd creates a new swipes command
func NewSwipesCmd(flags *Flags) *SwipesCmd {
	return &SwipesCmd{flags: flags}
}

// Register adds the swipes command to the application
func (cmd *SwipesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "swipes",
		Usage:     "Print the alternatives stored for each message",
		UsageText: "swipeview swipes [--all] [--json] <transcript.jsonl>",
		Description: `Prints every message with its selected alternative and the number of
stored alternatives. With --all, each alternative is listed with a preview;
the selected one is marked with '*'.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "all",
				Aliases:     []string{"a"},
				Usage:       "list every alternative",
				Destination: &cmd.all,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
		},
		ShellComplete: TranscriptCompleter(),
		Action:        cmd.run,
	})

	return app
}

func (cmd *SwipesCmd) run(_ context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("a transcript file is required", 1)
	}

	meta, msgs, err := transcript.Load(path)
	if err != nil {
		return err
	}

	userName := ""
	if cmd.flags.Config != nil {
		userName = cmd.flags.Config.UserName
	}
	macros := render.FromStore(transcript.NewMemory(meta, nil), userName)()

	out := c.Root().Writer

	if cmd.jsonOutput {
		for id, msg := range msgs {
			info := SwipeInfo{
				ID:           id,
				Name:         msg.Name,
				IsUser:       msg.IsUser,
				IsSystem:     msg.IsSystem,
				ActiveIndex:  msg.ActiveIndex,
				Alternatives: len(msg.Swipes),
			}
			if cmd.all {
				info.Swipes = msg.Swipes
			}
			if err := iojson.WriteLine(out, info); err != nil {
				return fmt.Errorf("encode message: %w", err)
			}
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSWIPE\tPREVIEW")
	for id, msg := range msgs {
		position := "-"
		if n := len(msg.Swipes); n > 0 {
			position = fmt.Sprintf("%d/%d", msg.ActiveIndex+1, n)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", id, msg.Name, position, preview(macros.Apply(msg.Active())))

		if !cmd.all || len(msg.Swipes) < 2 {
			continue
		}
		for i, alt := range msg.Swipes {
			marker := " "
			if i == msg.ActiveIndex {
				marker = "*"
			}
			_, _ = fmt.Fprintf(w, "\t\t%s%d\t%s\n", marker, i+1, preview(macros.Apply(alt)))
		}
	}
	return w.Flush()
}

// preview flattens text to a single truncated line.
func preview(s string) string {
	s = strings.Join(strings.Fields(render.Strip(s)), " ")
	return ansi.Truncate(s, previewWidth, "…")
}
