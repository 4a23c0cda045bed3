// Package config resolves stockroom's command-line settings.
//
// Precedence, highest first: CLI flags > environment variables > settings
// file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/stockroom/pkg/inventory"
	"github.com/entrhq/stockroom/pkg/logging"
)

// Environment variables consulted by Resolve.
const (
	EnvFile      = "STOCKROOM_FILE"
	EnvThreshold = "STOCKROOM_THRESHOLD"
	EnvLogLevel  = "STOCKROOM_LOG_LEVEL"
	EnvLogDir    = "STOCKROOM_LOG_DIR"
)

// Settings holds the values the CLI runs with.
type Settings struct {
	// DataFile is the inventory file to load and save
	DataFile string `yaml:"data_file"`

	// Threshold is the default cutoff for low-stock queries
	Threshold int `yaml:"threshold"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// LogDir, when set, sends logs to a session file there instead of stderr
	LogDir string `yaml:"log_dir"`

	// Color enables styled report output
	Color bool `yaml:"color"`
}

// Overrides carries values given on the command line. Nil fields were not set.
type Overrides struct {
	DataFile  *string
	Threshold *int
	LogLevel  *string
	LogDir    *string
	Color     *bool
}

// Default returns the built-in settings.
func Default() *Settings {
	return &Settings{
		DataFile:  inventory.DefaultPath,
		Threshold: inventory.DefaultThreshold,
		LogLevel:  "info",
	}
}

// DefaultPath returns ~/.config/stockroom/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "stockroom", "config.yaml"), nil
}

// LoadFile reads settings from a YAML file on top of the defaults. When
// optional is true a missing file yields the defaults instead of an error.
func LoadFile(path string, optional bool) (*Settings, error) {
	settings := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	if unmarshalErr := yaml.Unmarshal(data, settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", unmarshalErr)
	}

	return settings, nil
}

// Resolve applies environment variables and then CLI overrides to s.
func (s *Settings) Resolve(cli Overrides) error {
	if v := os.Getenv(EnvFile); v != "" {
		s.DataFile = v
	}
	if v := os.Getenv(EnvThreshold); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvThreshold, v, inventory.ErrInvalidThreshold)
		}
		s.Threshold = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv(EnvLogDir); v != "" {
		s.LogDir = v
	}

	if cli.DataFile != nil {
		s.DataFile = *cli.DataFile
	}
	if cli.Threshold != nil {
		s.Threshold = *cli.Threshold
	}
	if cli.LogLevel != nil {
		s.LogLevel = *cli.LogLevel
	}
	if cli.LogDir != nil {
		s.LogDir = *cli.LogDir
	}
	if cli.Color != nil {
		s.Color = *cli.Color
	}

	return s.Validate()
}

// Validate checks the settings are usable.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.DataFile) == "" {
		return fmt.Errorf("data_file must not be empty")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the parsed log level. Call Validate first.
func (s *Settings) Level() logging.Level {
	level, _ := logging.ParseLevel(s.LogLevel)
	return level
}
