// Package config loads golox settings from project and user YAML files.
package config

import (
	sterrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oarkflow/errors"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/golox/pkg/evaluator"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".loxrc.yaml"
	// UserFile is looked up under the user's home directory.
	UserFile = ".lox/config.yaml"
)

// Config is the decoded configuration file.
type Config struct {
	Natives NativesConfig `yaml:"natives" json:"natives"`
	Limits  LimitsConfig  `yaml:"limits" json:"limits"`
	Log     LogConfig     `yaml:"log" json:"log"`
	Output  OutputConfig  `yaml:"output" json:"output"`
}

// NativesConfig selects which native functions become globals.
type NativesConfig struct {
	Allow []string `yaml:"allow,omitempty" json:"allow,omitempty"`
	Deny  []string `yaml:"deny,omitempty" json:"deny,omitempty"`
}

type LimitsConfig struct {
	MaxCallDepth int `yaml:"maxCallDepth,omitempty" json:"maxCallDepth,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
}

type OutputConfig struct {
	Pretty bool `yaml:"pretty,omitempty" json:"pretty,omitempty"`
}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
}

// Default returns the configuration used when no file is found: every
// native allowed, the default call depth, warn-level logging.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{MaxCallDepth: evaluator.DefaultMaxCallDepth},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load resolves configuration for projectDir.
// Precedence: project (.loxrc.yaml) → user (~/.lox/config.yaml) → defaults.
// The returned path is empty when defaults were used. A file that exists
// but fails to decode or validate is an error rather than a fallthrough.
func Load(projectDir string) (*Config, string, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, UserFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if sterrors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, err
		}
		return cfg, path, nil
	}
	return Default(), "", nil
}

// LoadFile decodes and validates a single configuration file. Unknown keys
// are rejected. An empty file yields the defaults.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !sterrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Limits.MaxCallDepth < 0 {
		return errors.New("limits.maxCallDepth must not be negative")
	}
	if c.Log.Level != "" && !validLevels[strings.ToLower(c.Log.Level)] {
		return errors.New("log.level must be one of debug, info, warn, error, fatal, panic")
	}
	for _, name := range c.Natives.Allow {
		if strings.TrimSpace(name) == "" {
			return errors.New("natives.allow contains an empty name")
		}
	}
	return nil
}

// AllowNative reports whether the native called name should be registered.
// An empty allow list admits every native; deny overrides allow.
func (c *Config) AllowNative(name string) bool {
	if c == nil {
		return true
	}
	for _, denied := range c.Natives.Deny {
		if denied == name {
			return false
		}
	}
	if len(c.Natives.Allow) == 0 {
		return true
	}
	for _, allowed := range c.Natives.Allow {
		if allowed == name {
			return true
		}
	}
	return false
}

// EvalLimits converts the limits section for the interpreter.
func (c *Config) EvalLimits() evaluator.Limits {
	if c == nil {
		return evaluator.DefaultLimits()
	}
	return evaluator.Limits{MaxCallDepth: c.Limits.MaxCallDepth}
}
