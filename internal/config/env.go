package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "BIZSYNC"

// parseEnv overlays cfg with BIZSYNC_* variables. Unset variables leave
// the current values alone.
func parseEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}
