package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/swipeview/internal/commands"
	"github.com/hay-kot/swipeview/internal/core/config"
	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/kv"
	"github.com/hay-kot/swipeview/internal/core/logging"
	"github.com/hay-kot/swipeview/internal/core/styles"
	"github.com/hay-kot/swipeview/internal/data/db"
	"github.com/hay-kot/swipeview/internal/data/stores"
	"github.com/hay-kot/swipeview/internal/swipeview"
	"github.com/hay-kot/swipeview/internal/swipeview/sweep"
	"github.com/hay-kot/swipeview/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func buildInfo() swipeview.BuildInfo {
	v, c, d := version, commit, date

	// ldflags aren't set by `go install module@version`, so fall back to the
	// module version and VCS metadata recorded in the binary.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	return swipeview.BuildInfo{Version: v, Commit: c, Date: d}
}

func build() string {
	info := buildInfo()

	short := info.Commit
	if len(short) > 7 {
		short = short[:7]
	}

	return fmt.Sprintf("%s (%s) %s", info.Version, short, info.Date)
}

// openStore opens the translation database. A corrupted file is moved aside
// and reopened once.
func openStore(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Str("path", cfg.DatabaseFile()).Msg("translation database corrupted, starting fresh")
	if err := stores.RecoverFromCorruption(cfg.DataDir); err != nil {
		return nil, err
	}
	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &swipeview.App{}
		database  *db.DB
		bgCancel  context.CancelFunc
	)

	flags := &commands.Flags{}

	cmd := &cli.Command{
		Name:      "swipeview",
		Usage:     "Browse chat transcripts and swipe through alternate replies",
		UsageText: "swipeview [global options] [transcript.jsonl | command [command options]]",
		Description: `swipeview renders a chat transcript in the terminal. Messages carrying
alternate replies (swipes) can be unlocked to page through them, with
optional translations loaded from a local store.

Run 'swipeview <file>' to open a transcript.
Run 'swipeview ls' to find transcripts in a directory.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("SWIPEVIEW_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/swipeview.log)",
				Sources:     cli.EnvVars("SWIPEVIEW_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("SWIPEVIEW_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("SWIPEVIEW_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// The TUI owns the terminal, so logs always go to a file.
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "swipeview.log")
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Unknown themes are reported by validation; keep the default here.
			if palette, ok := styles.GetPalette(cfg.TUI.Theme); ok {
				styles.SetTheme(palette)
			}

			bgCtx, cancel := context.WithCancel(context.Background())
			bgCancel = cancel

			bus := eventbus.New(64)
			eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
			eventbus.NewNotificationRouter(bus).Register()
			go bus.Start(bgCtx)

			// Translations are optional: without a database the viewer still
			// runs and every lookup misses.
			var store kv.KV
			database, err = openStore(cfg)
			if err != nil {
				log.Warn().Err(err).Msg("translation store unavailable")
				database = nil
			} else {
				kvStore := stores.NewKVStore(database)
				store = kvStore
				go sweep.Start(bgCtx, 5*time.Minute, kvStore)
			}

			// Commands already hold a pointer to app.
			*app = *swipeview.NewApp(cfg, bus, database, store, buildInfo())

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if bgCancel != nil {
				bgCancel()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	viewCmd := commands.NewViewCmd(flags, app)

	cmd = viewCmd.Register(cmd)
	cmd = commands.NewLsCmd(flags).Register(cmd)
	cmd = commands.NewSwipesCmd(flags).Register(cmd)
	cmd = commands.NewTranslationsCmd(flags, app).Register(cmd)
	cmd = commands.NewConfigValidateCmd(flags).Register(cmd)

	// The view flags are accepted on the root so `swipeview <file>` works.
	cmd.Flags = append(cmd.Flags, viewCmd.Flags()...)
	cmd.ShellComplete = commands.TranscriptCompleter()

	cmd.Action = viewCmd.Run

	exitCode := 0
	runErr := cmd.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
