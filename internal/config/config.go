package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Events     EventsConfig     `yaml:"events"`
	Sweeper    SweeperConfig    `yaml:"sweeper"`
	Runner     RunnerConfig     `yaml:"runner"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type SweeperConfig struct {
	URL       string `yaml:"url"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Base scorer for the built-in threshold sweeper; ignored when an
	// external sweeper URL is set. Empty weights mean a unit-weight scorer
	// sized to the dataset.
	BaseWeights []float64 `yaml:"base_weights"`
	BaseBias    float64   `yaml:"base_bias"`
}

type RunnerConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms"`
	JobTimeoutMs   int `yaml:"job_timeout_ms"`
}

type EvaluationConfig struct {
	DefaultGridSize     int     `yaml:"default_grid_size"`
	MaxGridSize         int     `yaml:"max_grid_size"`
	DefaultEvalFraction float64 `yaml:"default_eval_fraction"`
	MaxRows             int     `yaml:"max_rows"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Runner.TickIntervalMs) * time.Millisecond
}

func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Runner.JobTimeoutMs) * time.Millisecond
}

func (c *Config) SweeperTimeout() time.Duration {
	return time.Duration(c.Sweeper.TimeoutMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 120,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Sweeper: SweeperConfig{
			TimeoutMs: 60000,
		},
		Runner: RunnerConfig{
			TickIntervalMs: 5000,
			JobTimeoutMs:   600000,
		},
		Evaluation: EvaluationConfig{
			DefaultGridSize:     71,
			MaxGridSize:         501,
			DefaultEvalFraction: 0.3,
			MaxRows:             200000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FAIRSWEEP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FAIRSWEEP_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FAIRSWEEP_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("FAIRSWEEP_SWEEPER_URL"); v != "" {
		cfg.Sweeper.URL = v
	}
	if v := os.Getenv("FAIRSWEEP_SWEEPER_BASE_WEIGHTS"); v != "" {
		if ws, err := parseFloats(v); err == nil {
			cfg.Sweeper.BaseWeights = ws
		}
	}
	if v := os.Getenv("FAIRSWEEP_SWEEPER_BASE_BIAS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sweeper.BaseBias = f
		}
	}
	if v := os.Getenv("FAIRSWEEP_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.TickIntervalMs = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_JOB_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.JobTimeoutMs = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_DEFAULT_GRID_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Evaluation.DefaultGridSize = n
		}
	}
	if v := os.Getenv("FAIRSWEEP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// parseFloats parses a comma-separated list like "0.5,-1.2,3".
func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
