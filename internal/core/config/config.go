// Package config handles configuration loading and validation for swipeview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Session policies accepted by swipes.policy.
const (
	PolicyConcurrent = "concurrent"
	PolicySingle     = "single"
)

// Config holds the application configuration.
type Config struct {
	UserName    string            `yaml:"user_name"`
	Swipes      SwipesConfig      `yaml:"swipes"`
	Scanner     ScannerConfig     `yaml:"scanner"`
	Translation TranslationConfig `yaml:"translation"`
	TUI         TUIConfig         `yaml:"tui"`
	Database    DatabaseConfig    `yaml:"database"`
	DataDir     string            `yaml:"-"` // set by caller, not from config file
}

// SwipesConfig controls unlock sessions.
type SwipesConfig struct {
	// Policy is "concurrent" (any number of unlocked messages) or "single".
	Policy string `yaml:"policy"`
	// CloseOnChange locks every message when the transcript changes.
	CloseOnChange bool `yaml:"close_on_change"`
}

// ScannerConfig controls affordance rescans.
type ScannerConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// TranslationConfig controls translation lookups.
type TranslationConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Cache    bool          `yaml:"cache"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// TUIConfig holds viewer settings.
type TUIConfig struct {
	Theme       string `yaml:"theme"`
	WordWrap    int    `yaml:"word_wrap"`
	CopyCommand string `yaml:"copy_command"` // empty uses the system clipboard
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserName: "User",
		Swipes: SwipesConfig{
			Policy: PolicyConcurrent,
		},
		Scanner: ScannerConfig{
			Debounce: 100 * time.Millisecond,
		},
		Translation: TranslationConfig{
			Enabled:  true,
			Cache:    true,
			CacheTTL: 5 * time.Minute,
		},
		TUI: TUIConfig{
			Theme:    "tokyo-night",
			WordWrap: 100,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Swipes.Policy == "" {
		c.Swipes.Policy = defaults.Swipes.Policy
	}
	if c.Scanner.Debounce == 0 {
		c.Scanner.Debounce = defaults.Scanner.Debounce
	}
	if c.Translation.CacheTTL == 0 {
		c.Translation.CacheTTL = defaults.Translation.CacheTTL
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.WordWrap == 0 {
		c.TUI.WordWrap = defaults.TUI.WordWrap
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	switch c.Swipes.Policy {
	case PolicyConcurrent, PolicySingle:
	default:
		return fmt.Errorf("swipes.policy must be %q or %q, got %q", PolicyConcurrent, PolicySingle, c.Swipes.Policy)
	}

	if c.Scanner.Debounce < 0 {
		return fmt.Errorf("scanner.debounce cannot be negative")
	}

	if c.Translation.CacheTTL < 0 {
		return fmt.Errorf("translation.cache_ttl cannot be negative")
	}

	if c.TUI.WordWrap < 20 {
		return fmt.Errorf("tui.word_wrap must be at least 20")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns must be between 0 and max_open_conns")
	}

	if c.Database.BusyTimeout < 0 {
		return fmt.Errorf("database.busy_timeout cannot be negative")
	}

	return nil
}

// DatabaseFile returns the path of the translation database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "swipeview.db")
}

// LogFile returns the default log file path.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "swipeview.log")
}
