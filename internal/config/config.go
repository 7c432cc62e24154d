package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
		Format string `yaml:"format" validate:"omitempty,oneof=text json"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		// Bank is a JSON or YAML quiz bank; ignored when Postgres is configured.
		Bank string `yaml:"bank"`
		TTL  string `yaml:"ttl"`
	} `yaml:"quiz"`
	Game struct {
		DefaultQuestions int    `yaml:"defaultQuestions" validate:"gte=0"`
		MinQuestions     int    `yaml:"minQuestions" validate:"gte=0"`
		DefaultTime      int    `yaml:"defaultTime" validate:"gte=0"`
		MinTime          int    `yaml:"minTime" validate:"gte=0"`
		MaxTime          int    `yaml:"maxTime" validate:"gte=0"`
		AdvanceDelay     string `yaml:"advanceDelay"`
	} `yaml:"game"`
	Leaderboard struct {
		Backend  string `yaml:"backend" validate:"omitempty,oneof=memory file redis postgres"`
		Capacity int    `yaml:"capacity" validate:"gte=0"`
		Dir      string `yaml:"dir" validate:"required_if=Backend file"`
	} `yaml:"leaderboard"`
}

// Load reads YAML config from path, applies environment overrides and validates it.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv lets deployments point at their own stores without editing the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks field tags and the backends the leaderboard depends on.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	switch c.Leaderboard.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("invalid config: leaderboard backend redis needs redis.addr")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return fmt.Errorf("invalid config: leaderboard backend postgres needs postgres.url")
		}
	}
	if c.Game.MaxTime > 0 && c.Game.MinTime > c.Game.MaxTime {
		return fmt.Errorf("invalid config: game.minTime %d above game.maxTime %d", c.Game.MinTime, c.Game.MaxTime)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
