// Package config handles application configuration: a TOML file in the
// user's config directory, loadable at startup and watchable for edits while
// the program runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appName        = "murmur"
	configFileName = "config.toml"
)

// Languages lists the language codes accepted by the transcription APIs.
// Empty means auto-detect.
var Languages = []string{
	"", "en", "es", "fr", "de", "it", "pt", "nl", "pl", "ru",
	"tr", "ja", "ko", "zh", "ar", "hi", "sv", "no", "da", "fi",
}

type Trim struct {
	Threshold    float64 `toml:"threshold"`
	MinSilenceMS int     `toml:"min_silence_ms"`
}

type Config struct {
	Hotkey      string `toml:"hotkey"`
	Language    string `toml:"language"`
	Instruction string `toml:"instruction"`
	Provider    string `toml:"provider"`
	Format      string `toml:"format"`
	Trim        Trim   `toml:"trim"`
}

func Default() *Config {
	return &Config{
		Hotkey: "ctrl+shift+space",
		Format: "flac",
		Trim:   Trim{Threshold: 0.01, MinSilenceMS: 300},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, configFileName), nil
}

// Load reads the file at path, or the default location when path is empty.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("get config path: %w", err)
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return fmt.Errorf("get config path: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

func (c *Config) Validate() error {
	switch c.Format {
	case "", "flac", "wav":
	default:
		return fmt.Errorf("unknown audio format %q (want flac or wav)", c.Format)
	}
	switch c.Provider {
	case "", "groq", "openai":
	default:
		return fmt.Errorf("unknown provider %q (want groq or openai)", c.Provider)
	}
	if !slices.Contains(Languages, c.Language) {
		return fmt.Errorf("unsupported language %q", c.Language)
	}
	if c.Trim.Threshold < 0 || c.Trim.Threshold >= 1 {
		return fmt.Errorf("trim threshold %v out of range [0, 1)", c.Trim.Threshold)
	}
	if c.Trim.MinSilenceMS < 0 {
		return fmt.Errorf("trim min_silence_ms must not be negative")
	}
	return nil
}

// MinSilence returns the trim silence floor as a duration.
func (c *Config) MinSilence() time.Duration {
	return time.Duration(c.Trim.MinSilenceMS) * time.Millisecond
}
