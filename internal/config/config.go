package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL        string `yaml:"ttl"`
		DefaultSet string `yaml:"defaultSet"`
	} `yaml:"questions"`
	Game struct {
		PrepareSeconds int `yaml:"prepareSeconds"`
		AnswerSeconds  int `yaml:"answerSeconds"`
	} `yaml:"game"`
	Chat struct {
		HistoryLimit int `yaml:"historyLimit"`
	} `yaml:"chat"`
	Auth struct {
		Tokens map[string]struct {
			UserID   string `yaml:"id"`
			Nickname string `yaml:"nickname"`
		} `yaml:"tokens"`
	} `yaml:"auth"`
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

// Seconds converts a configured second count, falling back when the field
// was omitted or nonsensical.
func Seconds(raw int, fallback time.Duration) time.Duration {
	if raw <= 0 {
		return fallback
	}
	return time.Duration(raw) * time.Second
}
