// Package config loads ollamactl settings. Values are resolved in order of
// precedence: command-line flag, OLLAMACTL_* environment variable, TOML config
// file, built-in default.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key to form its environment variable.
const EnvPrefix = "OLLAMACTL"

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama2:7b"
)

// Keys, shared by viper, flags, and the TOML file.
const (
	KeyURL    = "url"
	KeyModel  = "model"
	KeyDebug  = "debug"
	KeySystem = "system"
)

// Config is the effective ollamactl configuration.
type Config struct {
	// URL of the model server.
	URL string `mapstructure:"url" toml:"url"`

	// Model used when a command is not given one.
	Model string `mapstructure:"model" toml:"model"`

	// System prompt prepended to chats. Empty sends none.
	System string `mapstructure:"system" toml:"system"`

	Debug bool `mapstructure:"debug" toml:"debug"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		URL:   DefaultURL,
		Model: DefaultModel,
	}
}

// NewViper returns a viper instance with defaults and environment lookup set up.
// Callers bind their flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyURL, d.URL)
	v.SetDefault(KeyModel, d.Model)
	v.SetDefault(KeySystem, d.System)
	v.SetDefault(KeyDebug, d.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// DefaultPath returns ~/.config/ollamactl/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "ollamactl", "config.toml"), nil
}

// Load reads path into v and returns the effective configuration. An empty path
// means DefaultPath, which may be absent; an explicit path must exist.
func Load(v *viper.Viper, path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		if p, err := DefaultPath(); err == nil {
			path = p
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		case explicit || !errors.Is(statErr, os.ErrNotExist):
			return Config{}, fmt.Errorf("reading config %s: %w", path, statErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to reach a server.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", c.URL)
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// WriteFile writes cfg to path as TOML, creating parent directories. An existing
// file is only replaced when overwrite is set.
func WriteFile(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config %s: %w", path, err)
	}
	defer f.Close()

	if err := Encode(f, cfg); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return f.Close()
}
