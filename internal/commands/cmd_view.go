package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/swipeview/internal/core/logging"
	"github.com/hay-kot/swipeview/internal/swipeview"
	"github.com/hay-kot/swipeview/internal/tui"
	"github.com/hay-kot/swipeview/pkg/profiler"
)

type ViewCmd struct {
	flags *Flags
	app   *swipeview.App

	noWatch bool
}

// NewViewCmd creates a new view command
func NewViewCmd(flags *Flags, app *swipeview.App) *ViewCmd {
	return &ViewCmd{
		flags: flags,
		app:   app,
	}
}

// Register adds the view command to the application
func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Browse a transcript and its swipes",
		UsageText: "swipeview view [options] <transcript.jsonl>",
		Description: `Opens the interactive viewer.

Press space on a message to unlock it, then h/l to browse its stored
alternatives. Locking the message again restores the alternative that was
selected when it was unlocked.`,
		Flags:         cmd.Flags(),
		ShellComplete: TranscriptCompleter(),
		Action:        cmd.Run,
	})

	return app
}

// Flags returns the viewer flags for registration on the root command
func (cmd *ViewCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-watch",
			Usage:       "do not reload the transcript when the file changes",
			Sources:     cli.EnvVars("SWIPEVIEW_NO_WATCH"),
			Destination: &cmd.noWatch,
		},
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof and state HTTP endpoints on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("SWIPEVIEW_PROFILER_PORT"),
			Destination: &cmd.flags.ProfilerPort,
		},
	}
}

// Run executes the viewer. Exported for use as default command.
func (cmd *ViewCmd) Run(ctx context.Context, c *cli.Command) error {
	path := c.Args().First()
	if path == "" {
		return cli.Exit("a transcript file is required. Run 'swipeview ls' to find one", 1)
	}

	ctx = logging.WithViewerID(logging.WithTranscript(ctx, path), uuid.NewString())

	surface := tui.NewSurface()
	viewer, err := cmd.app.Open(ctx, path, swipeview.OpenOptions{
		Surface: surface,
		OnScan:  surface.ScanDone,
		Watch:   !cmd.noWatch,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if err := viewer.Close(); err != nil {
			log.Debug().Err(err).Msg("close viewer")
		}
	}()

	if cmd.flags.ProfilerPort > 0 {
		profServer := profiler.New(cmd.flags.ProfilerPort)
		profServer.Handle("/debug/swipeview", viewer.StateHandler())
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().Ctx(ctx).
			Str("url", fmt.Sprintf("http://%s/debug/pprof/", profServer.Addr())).
			Msg("profiler endpoint available")
	}

	viewer.Start(ctx)

	err = tui.Run(ctx, tui.Deps{
		Config:          cmd.app.Config,
		Path:            path,
		Store:           viewer.Store,
		Controller:      viewer.Controller,
		Scanner:         viewer.Scanner,
		Formatter:       viewer.Formatter,
		Surface:         surface,
		Bus:             cmd.app.Bus,
		Logger:          logging.Component("tui"),
		StartupWarnings: cmd.startupWarnings(),
	})

	if closed := viewer.Controller.CloseAll(); len(closed) > 0 {
		log.Debug().Ctx(ctx).Int("sessions", len(closed)).Msg("locked messages on exit")
	}

	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

func (cmd *ViewCmd) startupWarnings() []string {
	var warnings []string

	cfg := cmd.app.Config
	if cfg.Translation.Enabled && !cmd.app.Translations.Available() {
		warnings = append(warnings, "Translation store unavailable; showing original text")
	}
	for _, w := range cfg.Warnings() {
		warnings = append(warnings, fmt.Sprintf("%s: %s", w.Category, w.Message))
	}

	return warnings
}
