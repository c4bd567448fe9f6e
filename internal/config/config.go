// Package config handles Patchbay configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/patchbay-vj/patchbay/internal/models"
)

// Config is the root configuration structure for Patchbay.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Document settings (the persisted state file)
	Document DocumentConfig `yaml:"document" mapstructure:"document"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Remote server settings
	Remote RemoteConfig `yaml:"remote" mapstructure:"remote"`

	// Output push settings
	Output OutputConfig `yaml:"output" mapstructure:"output"`

	// Media library settings
	Media MediaConfig `yaml:"media" mapstructure:"media"`

	// Tile grid settings
	Tiles TilesConfig `yaml:"tiles" mapstructure:"tiles"`
}

// GlobalConfig contains global Patchbay settings.
type GlobalConfig struct {
	// DataDir is where Patchbay stores its data (default: ~/.local/share/patchbay).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/patchbay).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DocumentConfig contains persisted-document settings.
type DocumentConfig struct {
	// Path is the state document file path (default: <data_dir>/state.json).
	Path string `yaml:"path" mapstructure:"path"`

	// DebounceMs is the save coalescing window in milliseconds.
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Debounce returns the save window as a duration.
func (d DocumentConfig) Debounce() time.Duration {
	return time.Duration(d.DebounceMs) * time.Millisecond
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// RemoteConfig contains remote server settings.
type RemoteConfig struct {
	// Enabled turns the remote HTTP/WS server on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Addr is the listen address.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig contains output-process push settings.
type OutputConfig struct {
	// Enabled turns the output push channel on.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// URL is the output process websocket URL.
	URL string `yaml:"url" mapstructure:"url"`

	// BatchWindowMs is the parameter batching window in milliseconds.
	BatchWindowMs int `yaml:"batch_window_ms" mapstructure:"batch_window_ms"`
}

// BatchWindow returns the batching window as a duration.
func (o OutputConfig) BatchWindow() time.Duration {
	return time.Duration(o.BatchWindowMs) * time.Millisecond
}

// MediaConfig contains media library settings.
type MediaConfig struct {
	// Dir is the media library directory (default: <data_dir>/media).
	Dir string `yaml:"dir" mapstructure:"dir"`

	// WatchSources reloads slots when their source files change.
	WatchSources bool `yaml:"watch_sources" mapstructure:"watch_sources"`
}

// TilesConfig contains tile grid dimensions.
type TilesConfig struct {
	Rows int `yaml:"rows" mapstructure:"rows"`
	Cols int `yaml:"cols" mapstructure:"cols"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "patchbay")
	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: filepath.Join(home, ".config", "patchbay"),
		},
		Document: DocumentConfig{
			Path:       filepath.Join(dataDir, "state.json"),
			DebounceMs: 750,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Remote: RemoteConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9443",
		},
		Output: OutputConfig{
			Enabled:       false,
			URL:           "ws://127.0.0.1:9444/output",
			BatchWindowMs: 50,
		},
		Media: MediaConfig{
			Dir:          filepath.Join(dataDir, "media"),
			WatchSources: true,
		},
		Tiles: TilesConfig{
			Rows: models.DefaultTileRows,
			Cols: models.DefaultTileCols,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	verrs := &models.ValidationErrors{}

	if c.Document.Path == "" {
		verrs.AddMessage("document.path", "document path is required")
	}
	if c.Document.DebounceMs < 0 {
		verrs.AddMessage("document.debounce_ms", "debounce must not be negative")
	}
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		verrs.AddMessage("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		verrs.AddMessage("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	if c.Remote.Enabled && c.Remote.Addr == "" {
		verrs.AddMessage("remote.addr", "remote addr is required when enabled")
	}
	if c.Output.Enabled && c.Output.URL == "" {
		verrs.AddMessage("output.url", "output url is required when enabled")
	}
	if c.Tiles.Rows <= 0 || c.Tiles.Cols <= 0 {
		verrs.AddMessage("tiles", "grid dimensions must be positive")
	}

	return verrs.Err()
}

// EnsureDirectories creates the data and media directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Global.DataDir, c.Media.Dir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
