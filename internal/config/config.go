// Package config loads rapsflow's own small settings file: the raps binary
// path, the default workflow directory, the ledger snapshot path, and
// default timeouts.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dyemelianov/rapsflow/pkg/logging"
)

const (
	userConfigDir  = ".config/rapsflow"
	configFileName = "config.yaml"
)

// Config is rapsflow's own settings, independent of any workflow definition.
type Config struct {
	RapsBinaryPath   string        `yaml:"raps_binary_path"`
	WorkflowDir      string        `yaml:"workflow_dir"`
	LedgerPath       string        `yaml:"ledger_path"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
	WorkflowTimeout  time.Duration `yaml:"workflow_timeout"`
}

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, userConfigDir)
	return Config{
		RapsBinaryPath:  "raps",
		WorkflowDir:     filepath.Join(base, "workflows"),
		LedgerPath:      filepath.Join(base, "ledger.json"),
		CommandTimeout:  5 * time.Minute,
		WorkflowTimeout: 30 * time.Minute,
	}
}

// DefaultDir returns the directory rapsflow's config file lives in.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(home, userConfigDir), nil
}

// Load reads config.yaml from dir, falling back to Default() when the file
// does not exist. Unknown fields are rejected (strict parsing), matching the
// workflow definition loader's conventions.
func Load(dir string) (Config, error) {
	cfg := Default()
	path := filepath.Join(dir, configFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("config", "no config.yaml found at %s, using defaults", path)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	logging.Info("config", "loaded configuration from %s", path)
	return cfg, nil
}
