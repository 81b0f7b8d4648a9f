// Package config loads an optional YAML defaults file for the kitchen
// runner. The CLI applies only the endpoint from it, and the --endpoint
// flag takes precedence over that. The timing and metrics fields are
// parsed but not applied: the positional arguments, --metrics-addr and
// their built-in defaults always decide those.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional defaults file's shape. An empty Endpoint means
// "let the CLI default apply instead."
type Config struct {
	Endpoint string `yaml:"endpoint"`

	Timing struct {
		RateMicros      int64 `yaml:"rate_micros"`
		MinPickupMicros int64 `yaml:"min_pickup_micros"`
		MaxPickupMicros int64 `yaml:"max_pickup_micros"`
	} `yaml:"timing"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Load reads and parses the YAML file at path. A missing file is not an
// error — it returns a zero-value Config so the CLI's own defaults apply —
// but a present, malformed file is.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
