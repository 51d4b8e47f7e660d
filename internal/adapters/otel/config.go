package otel

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `envconfig:"ENDPOINT"`
	Enabled  bool   `envconfig:"ENABLED" default:"false"`
	Insecure bool   `envconfig:"INSECURE" default:"false"`
}

// LoadConfig loads OTEL configuration from WATTLINE_OTEL_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("WATTLINE_OTEL", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read otel config: %w", err)
	}
	return cfg, nil
}
