package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Host      string `env:"HOST" default:"0.0.0.0"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	BroadcastBufferSize int    `env:"BROADCAST_BUFFER_SIZE" default:"100"`
	MaxListeners        int    `env:"MAX_LISTENERS" default:"10000"`
	AllowedOrigins      string `env:"ALLOWED_ORIGINS"`

	SubmitRateLimit float64 `env:"SUBMIT_RATE_LIMIT" default:"20"`
	SubmitRateBurst int     `env:"SUBMIT_RATE_BURST" default:"40"`

	WSPingInterval  time.Duration `env:"WS_PING_INTERVAL" default:"30s"`
	WSPongTimeout   time.Duration `env:"WS_PONG_TIMEOUT" default:"60s"`
	WSWriteTimeout  time.Duration `env:"WS_WRITE_TIMEOUT" default:"5s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
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

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Origins returns the WebSocket origin allowlist. Empty means any origin is accepted.
func (c *Config) Origins() []string {
	var origins []string
	for o := range strings.SplitSeq(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	positive := map[string]int{
		"BROADCAST_BUFFER_SIZE": cfg.BroadcastBufferSize,
		"MAX_LISTENERS":         cfg.MaxListeners,
		"SUBMIT_RATE_BURST":     cfg.SubmitRateBurst,
	}
	for name, value := range positive {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if cfg.SubmitRateLimit <= 0 {
		return errors.New("SUBMIT_RATE_LIMIT must be positive")
	}

	if cfg.WSPingInterval <= 0 || cfg.WSWriteTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return errors.New("WS_PING_INTERVAL, WS_WRITE_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	if cfg.WSPongTimeout <= cfg.WSPingInterval {
		return fmt.Errorf("WS_PONG_TIMEOUT (%s) must be greater than WS_PING_INTERVAL (%s)", cfg.WSPongTimeout, cfg.WSPingInterval)
	}

	return nil
}
