package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Maven.Timeout.Duration() != 5*time.Minute {
		t.Errorf("maven timeout = %v", cfg.Maven.Timeout.Duration())
	}
	if cfg.Cache.TTL.Duration() != 24*time.Hour {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL.Duration())
	}
	if cfg.Cache.Disabled {
		t.Error("cache should be enabled by default")
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[maven]
timeout = "90s"

[cache]
dir = "/tmp/custom-cache"
ttl = "1h"

[mirror]
workers = 4

[sweep]
extra_patterns = ["*.bak", "*.part"]
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Maven.Timeout.Duration() != 90*time.Second {
		t.Errorf("maven timeout = %v", cfg.Maven.Timeout.Duration())
	}
	if cfg.Cache.Dir != "/tmp/custom-cache" {
		t.Errorf("cache dir = %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTL.Duration() != time.Hour {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL.Duration())
	}
	if cfg.Mirror.Workers != 4 {
		t.Errorf("mirror workers = %d", cfg.Mirror.Workers)
	}
	if len(cfg.Sweep.ExtraPatterns) != 2 || cfg.Sweep.ExtraPatterns[0] != "*.bak" {
		t.Errorf("sweep extra patterns = %v", cfg.Sweep.ExtraPatterns)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("[mirror]\nworkers = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mirror.Workers != 2 {
		t.Errorf("mirror workers = %d", cfg.Mirror.Workers)
	}
	// Untouched sections keep defaults.
	if cfg.Maven.Timeout.Duration() != 5*time.Minute {
		t.Errorf("maven timeout = %v", cfg.Maven.Timeout.Duration())
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("maven = {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("malformed config should be an error, not silently ignored")
	}
}

func TestCacheDirOverride(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/opt/cache"
	dir, err := cfg.CacheDir()
	if err != nil || dir != "/opt/cache" {
		t.Errorf("CacheDir = %q, %v", dir, err)
	}
}
