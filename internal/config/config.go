// Package config assembles the runtime configuration for txverify. Values are
// read from TXVERIFY_-prefixed environment variables, optionally overlaid by
// a YAML configuration file, and validated before use. Node credentials are
// never hardcoded; they must arrive through one of these channels.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/gabapcia/txverify/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix shared by all environment variables, e.g.
// TXVERIFY_RPC_ENDPOINT.
const envPrefix = "txverify"

// RPC describes the node wallet endpoint the observed transaction is fetched from.
type RPC struct {
	Endpoint string        `envconfig:"ENDPOINT" yaml:"endpoint" validate:"required,url"`
	Username string        `envconfig:"USERNAME" yaml:"username" validate:"required"`
	Password string        `envconfig:"PASSWORD" yaml:"password" validate:"required"`
	Timeout  time.Duration `envconfig:"TIMEOUT" yaml:"timeout" default:"15s"`
}

// Wait controls the optional wait-for-confirmation behavior: retrying the
// fetch while the node does not know the transaction yet.
type Wait struct {
	Enabled  bool          `envconfig:"ENABLED" yaml:"enabled"`
	Attempts uint          `envconfig:"ATTEMPTS" yaml:"attempts" default:"10"`
	Delay    time.Duration `envconfig:"DELAY" yaml:"delay" default:"2s"`
}

// Redis configures the optional report store. An empty address disables it.
type Redis struct {
	Addr     string `envconfig:"ADDR" yaml:"addr"`
	Username string `envconfig:"USERNAME" yaml:"username"`
	Password string `envconfig:"PASSWORD" yaml:"password"`
	DB       int    `envconfig:"DB" yaml:"db"`
}

// Config is the full runtime configuration.
type Config struct {
	LogLevel         string `envconfig:"LOG_LEVEL" yaml:"log_level" default:"info"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED" yaml:"telemetry_enabled"`
	RPC              RPC    `yaml:"rpc"`
	Wait             Wait   `yaml:"wait"`
	Redis            Redis  `yaml:"redis"`
}

// Load builds the configuration from the environment and, when path is
// non-empty, overlays it with the YAML file at path (file values win over
// environment values). CLI flags are applied later by the handler and take
// the highest precedence.
//
// The returned configuration is not yet validated: the handler validates
// after applying flag overrides, so a credential supplied only via flag is
// not rejected here.
func Load(path string) (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment configuration: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading configuration file: %w", err)
		}

		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing configuration file: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks that the configuration is complete enough to run a
// verification. It must be called after all override layers are applied.
func (c Config) Validate() error {
	return validator.Validate(c)
}
