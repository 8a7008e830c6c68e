package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"exceltoquiz/internal/backend"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Backend struct {
		URL       string            `yaml:"url"`
		APIKey    string            `yaml:"api_key"`
		Timeout   string            `yaml:"timeout"`
		Functions backend.Functions `yaml:"functions"`
	} `yaml:"backend"`
	Auth struct {
		SessionPath string `yaml:"session_path"`
	} `yaml:"auth"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Session struct {
		TTL  string `yaml:"ttl"`
		Tick string `yaml:"tick"`
	} `yaml:"session"`
}

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg)
	if cfg.Auth.SessionPath == "" {
		cfg.Auth.SessionPath = DefaultSessionPath()
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"EXCELTOQUIZ_BACKEND_URL", &cfg.Backend.URL},
		{"EXCELTOQUIZ_API_KEY", &cfg.Backend.APIKey},
		{"EXCELTOQUIZ_SESSION_PATH", &cfg.Auth.SessionPath},
		{"EXCELTOQUIZ_REDIS_ADDR", &cfg.Redis.Addr},
		{"EXCELTOQUIZ_POSTGRES_URL", &cfg.Postgres.URL},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// DefaultSessionPath stores the signed-in session under the user config dir.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".exceltoquiz-session.json"
	}
	return filepath.Join(dir, "exceltoquiz", "session.json")
}

// BackendConfig converts the backend section for the client.
func (c Config) BackendConfig() backend.Config {
	return backend.Config{
		BaseURL:   c.Backend.URL,
		APIKey:    c.Backend.APIKey,
		Functions: c.Backend.Functions,
	}
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
