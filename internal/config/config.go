// Package config provides application configuration.
//
// Configuration is loaded from environment variables with sensible defaults,
// optionally via a .env file (github.com/joho/godotenv) loaded by the caller
// before Load runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Backend selects which storage implementation the server constructs.
type Backend string

const (
	BackendMemory     Backend = "memory"
	BackendRelational Backend = "relational"
)

// Config holds all application configuration.
type Config struct {
	ListenAddress   string
	Port            string
	MaxConnections  int
	ThreadPoolSize  int
	StaticDir       string
	TemplateDir     string
	DataDir         string
	LogTarget       string // "stdout", "stderr", or a file path
	Backend         Backend
	RelationalDSN   string // e.g. path to the sqlite database file
	SessionSecret   string
	AdminAddress    string // admin/debug listener, e.g. "127.0.0.1:9090"; empty disables it
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddress:  getEnv("LISTEN_ADDRESS", "0.0.0.0"),
		Port:           getEnv("PORT", "8080"),
		MaxConnections: getEnvInt("MAX_CONNECTIONS", 1024),
		ThreadPoolSize: getEnvInt("THREAD_POOL_SIZE", 8),
		StaticDir:      getEnv("STATIC_DIR", "./static"),
		TemplateDir:    getEnv("TEMPLATE_DIR", "./templates"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		LogTarget:      getEnv("LOG_TARGET", "stdout"),
		Backend:        Backend(getEnv("BACKEND", string(BackendMemory))),
		RelationalDSN:  getEnv("RELATIONAL_DSN", "./data/mail.db"),
		SessionSecret:  getEnv("SESSION_SECRET", ""),
		AdminAddress:   getEnv("ADMIN_ADDRESS", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.MaxConnections <= 0 {
		return fmt.Errorf("MAX_CONNECTIONS must be > 0")
	}
	if c.ThreadPoolSize <= 0 {
		return fmt.Errorf("THREAD_POOL_SIZE must be > 0")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR cannot be empty")
	}
	switch c.Backend {
	case BackendMemory, BackendRelational:
	default:
		return fmt.Errorf("BACKEND must be %q or %q, got %q", BackendMemory, BackendRelational, c.Backend)
	}
	if c.Backend == BackendRelational && c.RelationalDSN == "" {
		return fmt.Errorf("RELATIONAL_DSN cannot be empty when BACKEND=relational")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
