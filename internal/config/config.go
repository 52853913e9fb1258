// Package config loads the client configuration from ~/.blogctl/config.yaml.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/schoolblog/blogctl/internal/errors"
)

// Defaults applied when the config file or a field is absent
const (
	DefaultAPIURL  = "http://localhost:5000"
	DefaultTimeout = 30 * time.Second
)

// Config is the client configuration
type Config struct {
	APIURL    string        `yaml:"api_url,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	LogLevel  string        `yaml:"log_level,omitempty"`
	LogFormat string        `yaml:"log_format,omitempty"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		APIURL:    DefaultAPIURL,
		Timeout:   DefaultTimeout,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the config file from the default location, fills in
// defaults, and applies environment overrides. A missing file is not an
// error: everything has a default.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.Wrap(errors.KindUnknown, errors.CodeConfigRead, "cannot resolve home directory", err)
	}
	return LoadAt(filepath.Join(home, ".blogctl", "config.yaml"))
}

// LoadAt reads the config file at an explicit path
func LoadAt(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, errors.Wrap(errors.KindUnknown, errors.CodeConfigRead, "read config file", err)
	}

	// Expand environment variables referenced in the file
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, errors.Wrap(errors.KindValidation, errors.CodeConfigParse, "malformed config file", err)
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the configuration to the default location
func Save(cfg Config) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeConfigWrite, "cannot resolve home directory", err)
	}
	return SaveAt(filepath.Join(home, ".blogctl", "config.yaml"), cfg)
}

// SaveAt writes the configuration to an explicit path
func SaveAt(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeConfigWrite, "create config directory", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeConfigWrite, "encode config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.KindUnknown, errors.CodeConfigWrite, "write config file", err)
	}
	return nil
}

// applyEnv lets the environment override the file
func applyEnv(cfg *Config) {
	if v := os.Getenv("BLOGCTL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("BLOGCTL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("BLOGCTL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// Validate checks the configuration for values the client cannot run with
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New(errors.KindValidation, errors.CodeConfigParse, "api_url must not be empty")
	}
	if c.Timeout <= 0 {
		return errors.New(errors.KindValidation, errors.CodeConfigParse, "timeout must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.KindValidation, errors.CodeConfigParse, "log_level must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.New(errors.KindValidation, errors.CodeConfigParse, "log_format must be text or json")
	}
	return nil
}
