package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/swipeview/internal/render"
	"github.com/hay-kot/swipeview/internal/swipeview"
	"github.com/hay-kot/swipeview/internal/translate"
	"github.com/hay-kot/swipeview/pkg/iojson"
)

type TranslationsCmd struct {
	flags *Flags
	app   *swipeview.App

	// flags
	user       string
	char       string
	jsonOutput bool
	ttl        time.Duration
	input      iojson.FileReader[map[string]string]
}

// NewTranslationsCmd creates a new translations command
func NewTranslationsCmd(flags *Flags, app *swipeview.App) *TranslationsCmd {
	return &TranslationsCmd{flags: flags, app: app}
}

// Register adds the translations command to the application
func (cmd *TranslationsCmd) Register(app *cli.Command) *cli.Command {
	macroFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:        "user",
				Usage:       "substitute {{user}} in the source text",
				Destination: &cmd.user,
			},
			&cli.StringFlag{
				Name:        "char",
				Usage:       "substitute {{char}} in the source text",
				Destination: &cmd.char,
			},
		}
	}

	ttlFlag := func() cli.Flag {
		return &cli.DurationFlag{
			Name:        "ttl",
			Usage:       "expire the stored translation after this duration (0 keeps it forever)",
			Destination: &cmd.ttl,
		}
	}

	app.Commands = append(app.Commands, &cli.Command{
		Name:    "translations",
		Aliases: []string{"tr"},
		Usage:   "Manage stored translations",
		Description: `Translations are keyed by the original message text after {{user}} and
{{char}} placeholders are substituted. Use --user and --char to substitute
them in the source text given on the command line.`,
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store a translation",
				UsageText: "swipeview translations set [--user name] [--char name] [--ttl 24h] <source> <translation>",
				Flags:     append(macroFlags(), ttlFlag()),
				Action:    cmd.runSet,
			},
			{
				Name:      "get",
				Usage:     "Print the translation of a source text",
				UsageText: "swipeview translations get [--user name] [--char name] <source>",
				Flags:     macroFlags(),
				Action:    cmd.runGet,
			},
			{
				Name:      "rm",
				Usage:     "Delete a translation",
				UsageText: "swipeview translations rm [--user name] [--char name] <source>",
				Flags:     macroFlags(),
				Action:    cmd.runRm,
			},
			{
				Name:        "import",
				Usage:       "Import translations from a JSON object of source to translation",
				UsageText:   "swipeview translations import [-f file.json] [--ttl 24h]",
				Description: `Reads {"source text": "translation", ...} from --file or stdin.`,
				Flags:       []cli.Flag{cmd.input.Flag(), ttlFlag()},
				Action:      cmd.runImport,
			},
			{
				Name:      "ls",
				Usage:     "List stored translations",
				UsageText: "swipeview translations ls [--json]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runLs,
			},
		},
	})

	return app
}

func (cmd *TranslationsCmd) store() (*translate.Store, error) {
	s := cmd.app.Translations
	if s == nil || !s.Available() {
		return nil, fmt.Errorf("translation store: %w", translate.ErrUnavailable)
	}
	return s, nil
}

func (cmd *TranslationsCmd) source(c *cli.Command) (string, error) {
	source := c.Args().First()
	if source == "" {
		return "", cli.Exit("source text is required", 1)
	}
	return render.Macros{User: cmd.user, Char: cmd.char}.Apply(source), nil
}

func (cmd *TranslationsCmd) checkTTL() error {
	if cmd.ttl < 0 {
		return cli.Exit(fmt.Sprintf("--ttl must not be negative, got %s", cmd.ttl), 1)
	}
	return nil
}

func (cmd *TranslationsCmd) runSet(ctx context.Context, c *cli.Command) error {
	s, err := cmd.store()
	if err != nil {
		return err
	}
	source, err := cmd.source(c)
	if err != nil {
		return err
	}
	if c.Args().Len() < 2 {
		return cli.Exit("translation text is required", 1)
	}
	if err := cmd.checkTTL(); err != nil {
		return err
	}

	return s.Put(ctx, source, c.Args().Get(1), cmd.ttl)
}

func (cmd *TranslationsCmd) runGet(ctx context.Context, c *cli.Command) error {
	s, err := cmd.store()
	if err != nil {
		return err
	}
	source, err := cmd.source(c)
	if err != nil {
		return err
	}

	text, ok := s.Text(ctx, source)
	if !ok {
		return cli.Exit("no translation stored", 1)
	}
	_, err = fmt.Fprintln(c.Root().Writer, text)
	return err
}

func (cmd *TranslationsCmd) runRm(ctx context.Context, c *cli.Command) error {
	s, err := cmd.store()
	if err != nil {
		return err
	}
	source, err := cmd.source(c)
	if err != nil {
		return err
	}

	return s.Delete(ctx, source)
}

func (cmd *TranslationsCmd) runImport(ctx context.Context, c *cli.Command) error {
	s, err := cmd.store()
	if err != nil {
		return err
	}

	if err := cmd.checkTTL(); err != nil {
		return err
	}

	entries, err := cmd.input.Read()
	if err != nil {
		return err
	}

	n, err := s.Import(ctx, entries, cmd.ttl)
	if err != nil {
		return fmt.Errorf("import stopped after %d entries: %w", n, err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d translation(s)\n", n)
	return nil
}

func (cmd *TranslationsCmd) runLs(ctx context.Context, c *cli.Command) error {
	s, err := cmd.store()
	if err != nil {
		return err
	}

	entries, err := s.List(ctx)
	if err != nil {
		return err
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, e := range entries {
			if err := iojson.WriteLine(out, e); err != nil {
				return fmt.Errorf("encode translation: %w", err)
			}
		}
		return nil
	}

	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "No translations stored\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tTRANSLATION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", preview(e.Source), preview(e.Translated))
	}
	return w.Flush()
}
