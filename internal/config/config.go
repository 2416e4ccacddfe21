// Package config loads gateway configuration from the environment, with an
// optional YAML override file for deployments that prefer files over env vars.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the optional configuration file consulted by LoadOrDefault.
var DefaultFile = filepath.Join("config", "gateway.yaml")

// defaultAllowedOrigins admit the local dev frontends and the deployed app.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"https://maternal-survey.vercel.app",
}

// Config holds all gateway settings. The allowed-origin list is fixed for
// the process lifetime once loaded.
type Config struct {
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	JWTSecret      string   `yaml:"jwt_secret"`
	MongoURI       string   `yaml:"mongo_uri"`
	MongoDatabase  string   `yaml:"mongo_database"`
	RateLimitRPS   int      `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// Load reads configuration from an optional YAML file and the environment.
// Environment variables win over file values; a missing file is not an error.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env file just means the environment is
	// provided by the deployment instead.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           5000,
		Env:            "development",
		LogLevel:       "info",
		AllowedOrigins: append([]string(nil), defaultAllowedOrigins...),
		MongoURI:       "mongodb://localhost:27017",
		MongoDatabase:  "maternal_survey",
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(os.Getenv("APP_ENV")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); strings.TrimSpace(v) != "" {
		cfg.AllowedOrigins = splitAndTrimCSV(v)
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("MONGODB_URI")); v != "" {
		cfg.MongoURI = v
	}
	if v := strings.TrimSpace(os.Getenv("MONGODB_DATABASE")); v != "" {
		cfg.MongoDatabase = v
	}

	if cfg.JWTSecret == "" && strings.EqualFold(cfg.Env, "production") {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}

// LoadOrDefault loads from the default file path, falling back to built-in
// defaults plus environment on any file error.
func LoadOrDefault() (*Config, error) {
	return Load(DefaultFile)
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitAndTrimCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
