// Package swipeview wires the transcript, swipe, translation and scanner
// packages into the services consumed by commands and the viewer.
package swipeview

import (
	"github.com/rs/zerolog"

	"github.com/hay-kot/swipeview/internal/core/config"
	"github.com/hay-kot/swipeview/internal/core/eventbus"
	"github.com/hay-kot/swipeview/internal/core/kv"
	"github.com/hay-kot/swipeview/internal/core/logging"
	"github.com/hay-kot/swipeview/internal/data/db"
	"github.com/hay-kot/swipeview/internal/translate"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App is the central entry point for all swipeview operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config *config.Config
	Bus    *eventbus.EventBus
	DB     *db.DB // nil when the translation store is unavailable
	KV     kv.KV  // nil when the translation store is unavailable

	// Translations manages stored translations. It is not bound to a
	// transcript, so Lookup always misses; use Viewer.Translations for that.
	Translations *translate.Store

	Build BuildInfo

	logger zerolog.Logger
}

// NewApp constructs an App from explicit dependencies. database and store may
// be nil, in which case translation lookups always miss.
func NewApp(cfg *config.Config, bus *eventbus.EventBus, database *db.DB, store kv.KV, build BuildInfo) *App {
	app := &App{
		Config: cfg,
		Bus:    bus,
		DB:     database,
		KV:     store,
		Build:  build,
		logger: logging.Component("swipeview"),
	}

	app.Translations = translate.New(app.translationBackend(), nil, nil, translate.Options{}, logging.Component("translate"))
	return app
}

// translationBackend returns the KV used for translations, or nil when
// translations are disabled or the store could not be opened.
func (a *App) translationBackend() kv.KV {
	if a.KV == nil || !a.Config.Translation.Enabled {
		return nil
	}
	return a.KV
}
