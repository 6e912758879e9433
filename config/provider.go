package config

import (
	"fmt"

	"go.uber.org/fx"
)

// NewProvider supplies the configuration to the dependency graph. A non-nil
// customConfig is used as-is; otherwise configuration is loaded from the
// environment, and a load failure aborts application startup.
func NewProvider(customConfig *Config) fx.Option {
	if customConfig != nil {
		return fx.Provide(func() *Config {
			return customConfig
		})
	}

	return fx.Provide(func() (*Config, error) {
		cfg := &Config{}
		if err := LoadConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	})
}
