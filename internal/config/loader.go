// Package config loads domain.AppConfig from a JSON file, expanding
// ${VAR} references against the process environment before parsing.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/sercha-core/internal/core/domain"
)

// Load reads the JSON config file at path, expands ${VAR} references
// against the environment, and unmarshals the result into an AppConfig.
func Load(path string) (*domain.AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	expanded := os.Expand(string(raw), envLookup)

	var cfg domain.AppConfig
	if err := json.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("%w: parse config %q: %v", domain.ErrConfig, path, err)
	}

	for _, c := range cfg.Connectors {
		if c.Type != "" && !domain.ConnectorType(c.Type).IsValid() {
			return nil, fmt.Errorf("%w: connector %q has unknown type %q", domain.ErrConfig, c.Name, c.Type)
		}
	}

	return &cfg, nil
}

// envLookup is os.Expand's mapping function; unset variables expand to
// empty string rather than leaving the literal ${VAR} in place.
func envLookup(key string) string {
	return os.Getenv(key)
}
