package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v2"

	"github.com/0xERR0R/rrsigcheck/log"
)

var errInvalidConfig = errors.New("invalid configuration")

// Config main configuration
type Config struct {
	Log    log.Config   `yaml:"log"`
	Verify VerifyConfig `yaml:"verify"`
}

// LoadConfig creates new config from YAML file. An empty path returns the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("can't apply default values: %w", err)
	}

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file '%s': %w", path, err)
	}

	if err := unmarshalConfig(data, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func unmarshalConfig(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("wrong file structure: %w", err)
	}

	return nil
}

// Validate checks all settings and reports every problem found
func (c *Config) Validate() error {
	var result *multierror.Error

	if !c.Log.Level.IsValid() {
		result = multierror.Append(result, fmt.Errorf("%w: unknown log level %d", errInvalidConfig, c.Log.Level))
	}

	if !c.Log.Format.IsValid() {
		result = multierror.Append(result, fmt.Errorf("%w: unknown log format %d", errInvalidConfig, c.Log.Format))
	}

	result = multierror.Append(result, c.Verify.validate())

	return result.ErrorOrNil()
}
