package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

const maxTrendLimit = 1000

// Settings is the optional TOML configuration file
type Settings struct {
	Synthesis SynthesisSettings `toml:"synthesis"`
	Query     QuerySettings     `toml:"query"`
	Monitor   MonitorSettings   `toml:"monitor"`
}

type SynthesisSettings struct {
	// Rules replaces the extraction rules preamble of the prompt
	Rules string `toml:"rules"`
}

type QuerySettings struct {
	TrendLimit int `toml:"trend_limit"`
}

type MonitorSettings struct {
	StaleThreshold string `toml:"stale_threshold"`
}

// Validate checks if the Settings are valid
func (s *Settings) Validate() error {
	if s.Query.TrendLimit < 0 || s.Query.TrendLimit > maxTrendLimit {
		return goerr.Wrap(ErrInvalidConfig, "trend_limit out of range",
			goerr.V(FieldKey, "query.trend_limit"),
			goerr.V("value", s.Query.TrendLimit))
	}

	if _, err := s.StaleThreshold(); err != nil {
		return err
	}

	return nil
}

// StaleThreshold returns the configured threshold, or zero when unset
func (s *Settings) StaleThreshold() (time.Duration, error) {
	raw := strings.TrimSpace(s.Monitor.StaleThreshold)
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, goerr.Wrap(ErrInvalidConfig, "stale_threshold must be a positive duration",
			goerr.V(FieldKey, "monitor.stale_threshold"),
			goerr.V("value", raw))
	}
	return d, nil
}

// LoadSettings loads the configuration from a TOML file
func LoadSettings(path string) (*Settings, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("cause", err.Error()))
	}

	if err := settings.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &settings, nil
}

// AppConfig holds the --config flag
type AppConfig struct {
	path string
}

func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to TOML configuration file",
			Sources:     cli.EnvVars("SOAPNOTE_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Configure loads the configuration file. Without --config it returns
// empty Settings so every value falls back to its default.
func (x *AppConfig) Configure() (*Settings, error) {
	if x.path == "" {
		return &Settings{}, nil
	}
	return LoadSettings(x.path)
}
