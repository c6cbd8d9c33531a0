package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// VerifyConfig is the configuration of the zone signature check
type VerifyConfig struct {
	Workers             uint `yaml:"workers" default:"4"`
	CheckValidityPeriod bool `yaml:"checkValidityPeriod" default:"true"`
	// Signatures are accepted this long before inception and after expiration
	ClockSkewTolerance Duration `yaml:"clockSkewTolerance" default:"1h"`
	// Report signatures of unsupported algorithms as failures
	FailOnUnsupported bool   `yaml:"failOnUnsupported" default:"false"`
	MetricsFile       string `yaml:"metricsFile"`
}

func (c *VerifyConfig) validate() error {
	var result *multierror.Error

	if c.Workers == 0 {
		result = multierror.Append(result, fmt.Errorf("%w: workers must be at least 1", errInvalidConfig))
	}

	if !c.ClockSkewTolerance.IsAtLeastZero() {
		result = multierror.Append(result,
			fmt.Errorf("%w: clockSkewTolerance must not be negative, got %s", errInvalidConfig, c.ClockSkewTolerance))
	}

	return result.ErrorOrNil()
}

// LogConfig logs the verification settings
func (c *VerifyConfig) LogConfig(logger *logrus.Entry) {
	logger.Infof("Workers = %d", c.Workers)
	logger.Infof("Check validity period = %t", c.CheckValidityPeriod)

	if c.CheckValidityPeriod {
		logger.Infof("Clock skew tolerance = %s", c.ClockSkewTolerance)
	}

	logger.Infof("Fail on unsupported algorithms = %t", c.FailOnUnsupported)

	if c.MetricsFile != "" {
		logger.Infof("Metrics file = %s", c.MetricsFile)
	}
}
