package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. MUSH_PROMPT.
const EnvPrefix = "mush"

// DefaultPrompt is printed before each line in interactive mode.
const DefaultPrompt = "8-P "

// Config holds the global mush configuration. Environment variables
// named after the fields (MUSH_PROMPT, MUSH_LOG_LEVEL, MUSH_AUDIT_PATH)
// override the file.
type Config struct {
	Prompt string      `yaml:"prompt"`
	Log    LogConfig   `yaml:"log"`
	Audit  AuditConfig `yaml:"audit"`
}

// LogConfig controls the diagnostic log. An empty Path disables it.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	Path        string `yaml:"path"`
}

// AuditConfig controls the audit log. An empty Path disables it.
type AuditConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Prompt: DefaultPrompt,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config from the standard location (~/.config/mush/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	return LoadFrom(afero.NewOsFs(), ConfigPath())
}

// LoadFrom reads the config at path on fs, then applies environment
// overrides and validates the result. A missing file is not an error.
func LoadFrom(fs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Path = expandHome(cfg.Log.Path)
	cfg.Audit.Path = expandHome(cfg.Audit.Path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
	})
	return validate.Struct(c)
}

// ConfigPath returns the standard config file path.
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mush", "config.yaml")
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
