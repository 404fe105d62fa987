// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
package config

import (
	"path/filepath"
	"time"
)

// Supported slot backends.
const (
	BackendRCON   = "rcon"
	BackendMemory = "memory"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for the trigger API, e.g. ":9180".
	Addr string `koanf:"addr"`

	// ServerDir is the Minecraft server run directory.
	ServerDir string `koanf:"server_dir"`

	// LevelName is the world folder inside ServerDir; stats live in <level>/stats.
	LevelName string `koanf:"level_name"`

	// StatsDir overrides the derived <server_dir>/<level_name>/stats path.
	StatsDir string `koanf:"stats_dir"`

	// UsercachePath overrides the derived <server_dir>/usercache.json path.
	UsercachePath string `koanf:"usercache_path"`

	// Interval between scheduled refreshes.
	Interval time.Duration `koanf:"interval"`

	// ManualWaitTimeout bounds how long a manual trigger waits for a running refresh.
	ManualWaitTimeout time.Duration `koanf:"manual_wait_timeout"`

	// TopN is the number of rank slots.
	TopN int `koanf:"top_n"`

	// ReadConcurrency bounds concurrent stat file parsing.
	ReadConcurrency int `koanf:"read_concurrency"`

	// FlushBeforeRead asks the server to save player data before each refresh.
	FlushBeforeRead bool `koanf:"flush_before_read"`

	// FallbackName is shown for players whose name cannot be resolved.
	FallbackName string `koanf:"fallback_name"`

	// Units is appended to counts in hologram labels, e.g. "deaths".
	Units string `koanf:"units"`

	// Title is the text of the title hologram.
	Title string `koanf:"title"`

	// TagPrefix prefixes every hologram tag, e.g. "deaths" -> deaths_title.
	TagPrefix string `koanf:"tag_prefix"`

	// Backend selects the slot backend: rcon or memory.
	Backend string `koanf:"backend"`

	// RCONAddr is the host:port of the server's RCON listener.
	RCONAddr string `koanf:"rcon_addr"`

	// RCONPassword authenticates against the RCON listener.
	RCONPassword string `koanf:"rcon_password"`

	// RCONTimeout bounds dialing and each command round trip.
	RCONTimeout time.Duration `koanf:"rcon_timeout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9180",
		ServerDir:         ".",
		LevelName:         "world",
		Interval:          time.Minute,
		ManualWaitTimeout: 30 * time.Second,
		TopN:              3,
		ReadConcurrency:   8,
		FlushBeforeRead:   true,
		FallbackName:      "Unknown",
		Units:             "deaths",
		Title:             "Top deaths",
		TagPrefix:         "deaths",
		Backend:           BackendRCON,
		RCONAddr:          "127.0.0.1:25575",
		RCONTimeout:       5 * time.Second,
	}
}

// StatsPath returns the directory holding per-player stat files.
func (c *Config) StatsPath() string {
	if c.StatsDir != "" {
		return c.StatsDir
	}
	return filepath.Join(c.ServerDir, c.LevelName, "stats")
}

// UsercacheFile returns the path of the server's name cache.
func (c *Config) UsercacheFile() string {
	if c.UsercachePath != "" {
		return c.UsercachePath
	}
	return filepath.Join(c.ServerDir, "usercache.json")
}
