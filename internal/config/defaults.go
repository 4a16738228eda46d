package config

import (
	"os"
	"path/filepath"
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Store: StoreConfig{
			Dir:      defaultDataPath("sessions"),
			CacheDir: defaultDataPath("cache"),
		},
		Player: PlayerConfig{
			TickIntervalMs:  200,
			SeekStepSeconds: 5,
		},
		Serve: ServeConfig{
			ListenAddr:  "127.0.0.1:8000",
			CORSOrigins: []string{"*"},
		},
		Tail: TailConfig{
			Interval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// API
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = d.API.TimeoutSeconds
	}

	// Store
	if c.Store.Dir == "" {
		c.Store.Dir = d.Store.Dir
	}
	if c.Store.CacheDir == "" {
		c.Store.CacheDir = d.Store.CacheDir
	}

	// Player
	if c.Player.TickIntervalMs == 0 {
		c.Player.TickIntervalMs = d.Player.TickIntervalMs
	}
	if c.Player.SeekStepSeconds == 0 {
		c.Player.SeekStepSeconds = d.Player.SeekStepSeconds
	}

	// Serve
	if c.Serve.ListenAddr == "" {
		c.Serve.ListenAddr = d.Serve.ListenAddr
	}
	if len(c.Serve.CORSOrigins) == 0 {
		c.Serve.CORSOrigins = d.Serve.CORSOrigins
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// defaultDataPath returns a path under the user's data directory.
func defaultDataPath(sub string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".voxtape", sub)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "voxtape", sub)
}
