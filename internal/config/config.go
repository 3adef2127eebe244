// Package config loads server configuration with cleanenv.
//
// Configuration comes from a YAML file (CONFIG_PATH) with environment
// variable overrides; when no file is present, everything is read from the
// environment alone, so the server runs in a container with nothing but
// env vars set. Secrets (JWT, SMTP password) have no defaults on purpose.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Auth       `yaml:"auth"`
	SMTP       `yaml:"smtp"`
	ClientURL  string `yaml:"client_url" env:"CLIENT_URL" env-default:"http://localhost:4200"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Database struct {
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/walkonsongs.db"`
}

type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	SessionTTL      time.Duration `yaml:"session_ttl" env:"SESSION_TTL" env-default:"24h"`
	VerificationTTL time.Duration `yaml:"verification_ttl" env:"VERIFICATION_TTL" env-default:"24h"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USER_NAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"EMAIL_FROM" env-default:"WalkOnSongs <no-reply@walkonsongs.local>"`
}

// Load reads configuration from the file named by CONFIG_PATH (if set and
// present) plus the environment. Returns an error rather than panicking so
// main can log it through slog.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	return &cfg, nil
}
