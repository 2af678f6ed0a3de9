package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds the service settings. Zero values are replaced by defaults in
// Load.
type Config struct {
	Addr             string   `toml:"addr"`
	DataDir          string   `toml:"data_dir"`
	LogLevel         string   `toml:"log_level"`
	Workers          int      `toml:"workers"`
	CacheTTL         Duration `toml:"cache_ttl"`
	CacheSize        int      `toml:"cache_size"`
	MaxUploadBytes   int64    `toml:"max_upload_bytes"`
	WorkspaceIdleTTL Duration `toml:"workspace_idle_ttl"`
	DefaultLocale    string   `toml:"default_locale"`
}

// Duration lets TOML files spell durations as "5m" or "1h30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Addr:             ":8080",
		DataDir:          "/data",
		LogLevel:         "INFO",
		Workers:          1,
		CacheTTL:         Duration{5 * time.Minute},
		CacheSize:        100,
		MaxUploadBytes:   5 << 20,
		WorkspaceIdleTTL: Duration{time.Hour},
		DefaultLocale:    "en",
	}
}

// Load builds the configuration from defaults, the optional TOML file named by
// SVGSTUDIO_CONFIG and finally environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("SVGSTUDIO_CONFIG"); path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = fmt.Sprintf(":%s", port)
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if w := os.Getenv("WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return cfg, fmt.Errorf("%w: WORKERS=%q: %v", ErrInvalid, w, err)
		}
		cfg.Workers = n
	}

	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: empty listen address", ErrInvalid)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	case c.CacheSize < 1:
		return fmt.Errorf("%w: cache_size must be at least 1, got %d", ErrInvalid, c.CacheSize)
	case c.CacheTTL.Duration <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalid)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalid)
	}
	return nil
}

// ProfileFile is where saved optimization profiles live.
func (c Config) ProfileFile() string {
	return c.DataDir + "/profiles.json"
}
