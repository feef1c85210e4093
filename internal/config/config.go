// Package config loads service configuration from the environment. A .env
// file in the working directory is honoured for local development.
package config

import (
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string `env:"SERVER_HOST,default=0.0.0.0"`
	Port            int    `env:"SERVER_PORT,default=8090"`
	ReadTimeoutSec  int    `env:"SERVER_READ_TIMEOUT,default=15"`
	WriteTimeoutSec int    `env:"SERVER_WRITE_TIMEOUT,default=30"`
	ShutdownSec     int    `env:"SERVER_SHUTDOWN_TIMEOUT,default=10"`
}

// DatabaseConfig configures the PostgreSQL store. When DSN is empty the
// application falls back to the in-memory store.
type DatabaseConfig struct {
	Driver          string `env:"DATABASE_DRIVER,default=postgres"`
	DSN             string `env:"DATABASE_URL"`
	MaxOpenConns    int    `env:"DATABASE_MAX_OPEN_CONNS,default=10"`
	MaxIdleConns    int    `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime int    `env:"DATABASE_CONN_MAX_LIFETIME,default=300"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	Level      string `env:"LOG_LEVEL,default=info"`
	Format     string `env:"LOG_FORMAT,default=json"`
	Output     string `env:"LOG_OUTPUT,default=stdout"`
	FilePrefix string `env:"LOG_FILE_PREFIX,default=journald"`
}

// AuthConfig configures the API authentication middleware.
type AuthConfig struct {
	// JWTSecret signs and verifies HS256 caller tokens. Mutations are
	// rejected when neither a JWT nor a dev token authenticates the caller.
	JWTSecret string `env:"AUTH_JWT_SECRET"`
	// DevTokens is a semicolon-separated list of static bearer tokens for
	// local development; callers using them must supply X-Caller-Address.
	DevTokens []string `env:"AUTH_DEV_TOKENS"`
	// CORSOrigins lists origins allowed by the CORS middleware.
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000;http://localhost:5173"`
}

// EventsConfig configures the event log.
type EventsConfig struct {
	BufferSize int `env:"EVENTS_BUFFER_SIZE,default=1024"`
	// SinkPath appends every event as JSONL when set.
	SinkPath string `env:"EVENTS_SINK_PATH"`
}

// AuditConfig configures the HTTP audit trail.
type AuditConfig struct {
	MaxEntries int `env:"AUDIT_MAX_ENTRIES,default=500"`
	// SinkPath appends every audit entry as JSONL when set.
	SinkPath string `env:"AUDIT_SINK_PATH"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Events   EventsConfig
	Audit    AuditConfig
}

// Load reads configuration from the environment, honouring a local .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}
