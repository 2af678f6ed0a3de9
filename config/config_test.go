package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SVGSTUDIO_CONFIG", "")
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_DIR", "/tmp/svgstudio")
	t.Setenv("WORKERS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.Addr)
	}
	if cfg.DataDir != "/tmp/svgstudio" {
		t.Fatalf("unexpected data dir %q", cfg.DataDir)
	}
	if cfg.Workers != 3 {
		t.Fatalf("expected 3 workers, got %d", cfg.Workers)
	}
}

func TestLoadBadWorkers(t *testing.T) {
	t.Setenv("SVGSTUDIO_CONFIG", "")
	t.Setenv("WORKERS", "many")
	if _, err := Load(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	path := t.TempDir() + "/svgstudio.toml"
	data := "addr = \":7000\"\ncache_ttl = \"90s\"\ncache_size = 10\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SVGSTUDIO_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("WORKERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Fatalf("expected :7000, got %q", cfg.Addr)
	}
	if cfg.CacheTTL.Duration != 90*time.Second {
		t.Fatalf("expected 90s, got %v", cfg.CacheTTL)
	}
	if cfg.CacheSize != 10 {
		t.Fatalf("expected cache size 10, got %d", cfg.CacheSize)
	}
	// Untouched keys keep their defaults.
	if cfg.MaxUploadBytes != Default().MaxUploadBytes {
		t.Fatalf("max upload changed: %d", cfg.MaxUploadBytes)
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
