// Package config loads tool configuration from a TOML file.
//
// Settings resolve in three layers: built-in defaults, then the config
// file, then command-line flags (applied by the CLI). The file is looked
// up in the project directory first, then in the user's config directory,
// so per-project settings can override the user-wide ones.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mvnmirror/pkg/errors"
)

// FileName is the config file looked up in the project directory.
const FileName = ".mvnmirror.toml"

// Config holds all file-configurable settings.
type Config struct {
	Maven  MavenConfig  `toml:"maven"`
	Cache  CacheConfig  `toml:"cache"`
	Mirror MirrorConfig `toml:"mirror"`
	Sweep  SweepConfig  `toml:"sweep"`
}

// MavenConfig tunes Maven invocations.
type MavenConfig struct {
	// Timeout bounds one Maven invocation, e.g. "5m".
	Timeout duration `toml:"timeout"`
}

// CacheConfig tunes invocation-output caching.
type CacheConfig struct {
	// Dir overrides the cache directory. Empty means the OS user cache.
	Dir string `toml:"dir"`
	// TTL expires cached Maven output, e.g. "24h". Zero keeps it forever.
	TTL duration `toml:"ttl"`
	// Disabled turns caching off entirely.
	Disabled bool `toml:"disabled"`
}

// MirrorConfig tunes artifact copying.
type MirrorConfig struct {
	Workers int `toml:"workers"`
}

// SweepConfig tunes repository sweeping.
type SweepConfig struct {
	Workers int `toml:"workers"`
	// ExtraPatterns are additional base-name globs swept alongside the
	// built-in resolver patterns.
	ExtraPatterns []string `toml:"extra_patterns"`
}

// duration lets TOML carry "5m"-style values.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Maven: MavenConfig{Timeout: duration(5 * time.Minute)},
		Cache: CacheConfig{TTL: duration(24 * time.Hour)},
	}
}

// Load reads configuration for a project directory. A missing file is not
// an error: defaults apply. A present but malformed file is an error, since
// silently ignoring it would hide typos.
func Load(projectDir string) (Config, error) {
	cfg := Default()

	path, ok := findFile(projectDir)
	if !ok {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, nil
}

func findFile(projectDir string) (string, bool) {
	if projectDir != "" {
		path := filepath.Join(projectDir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(userDir, "mvnmirror", "config.toml")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// CacheDir resolves the effective cache directory.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "mvnmirror"), nil
}
