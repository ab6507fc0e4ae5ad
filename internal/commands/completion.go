package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
)

// TranscriptCompleter returns a ShellCompleteFunc that suggests transcript
// files below the working directory as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func TranscriptCompleter() cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		matches, err := doublestar.Glob(os.DirFS("."), DefaultTranscriptGlob)
		if err != nil {
			return
		}

		w := cmd.Root().Writer
		for _, m := range matches {
			_, _ = fmt.Fprintln(w, m)
		}
	}
}
