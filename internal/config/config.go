package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Auth     AuthConfig     `yaml:"auth"`
	Judge    JudgeConfig    `yaml:"judge"`
	Narrator NarratorConfig `yaml:"narrator"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int `yaml:"port"`
	MetricsPort        int `yaml:"metrics_port"`
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig points at the hosted auth service that issues bearer tokens.
type AuthConfig struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

type JudgeConfig struct {
	Provider     string `yaml:"provider"`
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	JSONMode     bool   `yaml:"json_mode"`
	MaxLogLength int    `yaml:"max_log_length"`
}

// NarratorConfig controls the adoption summary. It reuses the judge backend.
type NarratorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

type WorkerConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.Judge.TimeoutMs) * time.Millisecond
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Judge.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("judge.provider must be %q or %q, got %q", ProviderOpenAI, ProviderGemini, c.Judge.Provider)
	}
	if c.Judge.TimeoutMs <= 0 {
		return fmt.Errorf("judge.timeout_ms must be positive")
	}
	if c.Worker.MaxConcurrent <= 0 {
		return fmt.Errorf("worker.max_concurrent must be positive")
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("server.rate_limit_per_minute must be positive")
	}
	return nil
}

// Load reads defaults, then the YAML file at path, then FITSCORE_* environment
// overrides. Unknown keys in the file are an error, so a leftover scoring block
// cannot silently change the fixed thresholds.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               8600,
			MetricsPort:        8601,
			RateLimitPerMinute: 120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Auth: AuthConfig{
			URL: "http://localhost:54321",
		},
		Judge: JudgeConfig{
			Provider:     ProviderOpenAI,
			Model:        "gpt-4o-mini",
			TimeoutMs:    60000,
			JSONMode:     true,
			MaxLogLength: 200,
		},
		Narrator: NarratorConfig{
			Enabled: true,
		},
		Worker: WorkerConfig{
			MaxConcurrent: 4,
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
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FITSCORE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FITSCORE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FITSCORE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("FITSCORE_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FITSCORE_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("FITSCORE_AUTH_URL"); v != "" {
		cfg.Auth.URL = v
	}
	if v := os.Getenv("FITSCORE_AUTH_ANON_KEY"); v != "" {
		cfg.Auth.AnonKey = v
	}
	if v := os.Getenv("FITSCORE_JUDGE_PROVIDER"); v != "" {
		cfg.Judge.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("FITSCORE_JUDGE_API_KEY"); v != "" {
		cfg.Judge.APIKey = v
	}
	if v := os.Getenv("FITSCORE_JUDGE_BASE_URL"); v != "" {
		cfg.Judge.BaseURL = v
	}
	if v := os.Getenv("FITSCORE_JUDGE_MODEL"); v != "" {
		cfg.Judge.Model = v
	}
	if v := os.Getenv("FITSCORE_JUDGE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Judge.TimeoutMs = n
		}
	}
	if v := os.Getenv("FITSCORE_NARRATOR_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Narrator.Enabled = b
		}
	}
	if v := os.Getenv("FITSCORE_WORKER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.MaxConcurrent = n
		}
	}
	if v := os.Getenv("FITSCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
