package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config selects the listen port and which state backend persists
// preferences and the last-loaded quiz. Backends are optional; with nothing
// configured the server falls back to a state file next to the binary, and
// an empty file path means purely in-memory state.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	State struct {
		File string `yaml:"file"`
	} `yaml:"state"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or
// invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
