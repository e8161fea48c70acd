// Package e2e runs the discovery and session flows against a real NATS
// broker. The suite is opt-in: without E2E_NATS_URL in the environment
// every test skips, so the regular test run stays hermetic.
package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	NatsURL  string        `envconfig:"E2E_NATS_URL"`
	Timeout  time.Duration `envconfig:"E2E_TIMEOUT" default:"15s"`
	LogLevel string        `envconfig:"E2E_LOG_LEVEL" default:"warn"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
