package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load returns the validated configuration in path, with ${VAR}
// references expanded and unset fields defaulted. An empty path yields
// Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		cfg = &Config{}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
		cfg.applyDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
