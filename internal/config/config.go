// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const devJWTSecret = "dev-secret-change-me"

type Config struct {
	AppEnv       string `envconfig:"APP_ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"8008"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"studio-ops.db"`

	JWTSecret   string        `envconfig:"JWT_SECRET"`
	JWTIssuer   string        `envconfig:"JWT_ISSUER" default:"studio-ops-api"`
	JWTAudience string        `envconfig:"JWT_AUDIENCE" default:"studio-ops-admin"`
	JWTTTL      time.Duration `envconfig:"JWT_TTL" default:"24h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	WebSocket WebSocketConfig
}

// WebSocketConfig holds the notification server settings.
type WebSocketConfig struct {
	Path                string   `envconfig:"WS_PATH" default:"/websocket"`
	AllowedOrigins      []string `envconfig:"WS_ALLOWED_ORIGINS"`
	AllowEmptyOrigin    bool     `envconfig:"WS_ALLOW_EMPTY_ORIGIN" default:"true"`
	RequireAuthForAdmin bool     `envconfig:"WS_REQUIRE_AUTH_FOR_ADMIN" default:"false"`

	HeartbeatInterval time.Duration `envconfig:"WS_HEARTBEAT_INTERVAL" default:"30s"`
	DeadAfter         time.Duration `envconfig:"WS_DEAD_AFTER" default:"60s"`
	SweepInterval     time.Duration `envconfig:"WS_SWEEP_INTERVAL" default:"60s"`
	WriteWait         time.Duration `envconfig:"WS_WRITE_WAIT" default:"5s"`

	MaxMessageBytes      int64   `envconfig:"WS_MAX_MESSAGE_BYTES" default:"4096"`
	MessageRate          float64 `envconfig:"WS_MESSAGE_RATE" default:"10"`
	MessageBurst         int     `envconfig:"WS_MESSAGE_BURST" default:"20"`
	BroadcastParallelism int     `envconfig:"WS_BROADCAST_PARALLELISM" default:"32"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.JWTSecret == "" && cfg.IsDevelopment() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the permissive development defaults apply,
// including accepting websocket upgrades from any origin.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	ws := cfg.WebSocket
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"WS_HEARTBEAT_INTERVAL", ws.HeartbeatInterval},
		{"WS_DEAD_AFTER", ws.DeadAfter},
		{"WS_SWEEP_INTERVAL", ws.SweepInterval},
		{"WS_WRITE_WAIT", ws.WriteWait},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive", d.name)
		}
	}
	if ws.DeadAfter <= ws.HeartbeatInterval {
		return fmt.Errorf("WS_DEAD_AFTER (%s) must exceed WS_HEARTBEAT_INTERVAL (%s)", ws.DeadAfter, ws.HeartbeatInterval)
	}
	if ws.BroadcastParallelism < 1 {
		return errors.New("WS_BROADCAST_PARALLELISM must be at least 1")
	}
	if ws.MessageRate < 0 {
		return errors.New("WS_MESSAGE_RATE must not be negative")
	}
	return nil
}
