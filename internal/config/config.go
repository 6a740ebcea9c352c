// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv string `env:"APP_ENV" default:"development"`
	Port   string `env:"PORT" default:"8080"`
	WSPath string `env:"WS_PATH" default:"/ws"`

	// Admission control
	MaxConnections      int     `env:"MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP int     `env:"MAX_CONNECTIONS_PER_IP" default:"20"`
	ConnectionRate      float64 `env:"CONNECTION_RATE_PER_SECOND" default:"10"`
	ConnectionBurst     int     `env:"CONNECTION_RATE_BURST" default:"10"`
	AllowedOrigins      string  `env:"ALLOWED_ORIGINS" default:"*"`

	// Heartbeat
	PingInterval time.Duration `env:"PING_INTERVAL" default:"30s"`
	PongTimeout  time.Duration `env:"PONG_TIMEOUT" default:"60s"`

	// Per-connection message rate limiting (fixed window)
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" default:"60s"`
	RateLimitMaxEvents int           `env:"RATE_LIMIT_MAX_EVENTS" default:"100"`

	JWTSecret string `env:"JWT_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.RateLimitMaxEvents <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_EVENTS must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if cfg.PingInterval <= 0 {
		return fmt.Errorf("PING_INTERVAL must be positive")
	}
	if cfg.PongTimeout < cfg.PingInterval {
		return fmt.Errorf("PONG_TIMEOUT must be at least PING_INTERVAL")
	}
	if !strings.HasPrefix(cfg.WSPath, "/") {
		return fmt.Errorf("WS_PATH must start with /")
	}
	return nil
}

// Origins returns the parsed origin allowlist. A single "*" entry allows
// any origin.
func (c *Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
