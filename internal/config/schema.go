package config

// Config is the root configuration structure.
type Config struct {
	API    APIConfig    `toml:"api"`
	Store  StoreConfig  `toml:"store"`
	Player PlayerConfig `toml:"player"`
	Serve  ServeConfig  `toml:"serve"`
	Tail   TailConfig   `toml:"tail"`
	Log    LogConfig    `toml:"log"`
}

// APIConfig holds recorder backend settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StoreConfig holds local session store settings.
type StoreConfig struct {
	Dir      string `toml:"dir"`
	CacheDir string `toml:"cache_dir"`
}

// PlayerConfig holds playback settings.
type PlayerConfig struct {
	TickIntervalMs  int `toml:"tick_interval_ms"`
	SeekStepSeconds int `toml:"seek_step_seconds"`
}

// ServeConfig holds settings for the local session server.
type ServeConfig struct {
	ListenAddr  string   `toml:"listen_addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval int `toml:"interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
