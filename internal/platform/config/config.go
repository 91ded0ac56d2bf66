// Package config loads server configuration from GUARDIAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// DevTokenSecret is used when GUARDIAN_TOKEN_SECRET is unset outside
// regulated mode. Never rely on it in production.
const DevTokenSecret = "dev-guardian-token-secret-change-me"

type Server struct {
	Addr            string        `env:"GUARDIAN_ADDR" envDefault:":8080"`
	AdminToken      string        `env:"GUARDIAN_ADMIN_TOKEN"`
	LogLevel        string        `env:"GUARDIAN_LOG_LEVEL" envDefault:"info"`
	RegulatedMode   bool          `env:"GUARDIAN_REGULATED_MODE" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"GUARDIAN_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store      string `env:"GUARDIAN_STORE" envDefault:"memory"`
	PolicyPath string `env:"GUARDIAN_POLICY_PATH"`

	HTTP     HTTPConfig
	Database DatabaseConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	OTEL     OTELConfig
	Guardian GuardianConfig
	Audit    AuditConfig
	Incident IncidentConfig
}

type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"GUARDIAN_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"GUARDIAN_HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"GUARDIAN_HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"GUARDIAN_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
}

type DatabaseConfig struct {
	URL          string        `env:"GUARDIAN_DATABASE_URL"`
	MaxOpenConns int           `env:"GUARDIAN_DATABASE_MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int           `env:"GUARDIAN_DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLife  time.Duration `env:"GUARDIAN_DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

type SQLiteConfig struct {
	Path string `env:"GUARDIAN_SQLITE_PATH" envDefault:"guardian.db"`
}

// RedisConfig is optional; an empty URL keeps hints, reputation and
// consumed-token state in memory. Lockdown state uses Redis only with the
// memory store backend.
type RedisConfig struct {
	URL          string        `env:"GUARDIAN_REDIS_URL"`
	PoolSize     int           `env:"GUARDIAN_REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"GUARDIAN_REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"GUARDIAN_REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"GUARDIAN_REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"GUARDIAN_REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig enables the audit outbox relay when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string      `env:"GUARDIAN_KAFKA_BROKERS" envSeparator:","`
	ClientID      string        `env:"GUARDIAN_KAFKA_CLIENT_ID" envDefault:"guardian"`
	RelayInterval time.Duration `env:"GUARDIAN_KAFKA_RELAY_INTERVAL" envDefault:"1s"`
	BatchSize     int           `env:"GUARDIAN_KAFKA_BATCH_SIZE" envDefault:"100"`
	Partitions    int32         `env:"GUARDIAN_KAFKA_PARTITIONS" envDefault:"3"`
}

type OTELConfig struct {
	Enabled     bool   `env:"GUARDIAN_OTEL_ENABLED" envDefault:"true"`
	Endpoint    string `env:"GUARDIAN_OTEL_ENDPOINT"`
	ServiceName string `env:"GUARDIAN_OTEL_SERVICE_NAME" envDefault:"guardian"`
}

type GuardianConfig struct {
	TokenSecret      string        `env:"GUARDIAN_TOKEN_SECRET"`
	TokenTTL         time.Duration `env:"GUARDIAN_TOKEN_TTL" envDefault:"2m"`
	SignalTimeout    time.Duration `env:"GUARDIAN_SIGNAL_TIMEOUT" envDefault:"250ms"`
	HintsTTL         time.Duration `env:"GUARDIAN_HINTS_TTL" envDefault:"24h"`
	BreakerFailures  int           `env:"GUARDIAN_HINTS_BREAKER_FAILURES" envDefault:"5"`
	BreakerSuccesses int           `env:"GUARDIAN_HINTS_BREAKER_SUCCESSES" envDefault:"3"`
}

type AuditConfig struct {
	OpsSampleRate float64 `env:"GUARDIAN_AUDIT_OPS_SAMPLE_RATE" envDefault:"1"`
	// OpsRates overrides the sample rate per event, e.g. "profile_updated:0.1".
	OpsRates       map[string]float64 `env:"GUARDIAN_AUDIT_OPS_RATES"`
	OpsBufferSize  int                `env:"GUARDIAN_AUDIT_OPS_BUFFER" envDefault:"1024"`
	SecurityBuffer int                `env:"GUARDIAN_AUDIT_SECURITY_BUFFER" envDefault:"10000"`
}

type IncidentConfig struct {
	Retention     time.Duration `env:"GUARDIAN_INCIDENT_RETENTION" envDefault:"2160h"`
	PruneInterval time.Duration `env:"GUARDIAN_INCIDENT_PRUNE_INTERVAL" envDefault:"1h"`
}

// FromEnv parses and validates configuration.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and applies the dev token secret.
func (c *Server) Validate() error {
	if !slices.Contains([]string{BackendMemory, BackendPostgres, BackendSQLite}, c.Store) {
		return fmt.Errorf("GUARDIAN_STORE must be memory, postgres or sqlite, got %q", c.Store)
	}
	if c.Store == BackendPostgres && c.Database.URL == "" {
		return errors.New("GUARDIAN_DATABASE_URL is required for the postgres store")
	}
	if c.Guardian.TokenSecret == "" {
		if c.RegulatedMode {
			return errors.New("GUARDIAN_TOKEN_SECRET is required in regulated mode")
		}
		c.Guardian.TokenSecret = DevTokenSecret
	}
	if c.RegulatedMode && c.AdminToken == "" {
		return errors.New("GUARDIAN_ADMIN_TOKEN is required in regulated mode")
	}
	if len(c.Kafka.Brokers) > 0 && c.Store == BackendMemory {
		return errors.New("the kafka audit relay requires a persistent store")
	}
	if c.Audit.OpsSampleRate < 0 || c.Audit.OpsSampleRate > 1 {
		return fmt.Errorf("GUARDIAN_AUDIT_OPS_SAMPLE_RATE must be in [0,1], got %v", c.Audit.OpsSampleRate)
	}
	for event, rate := range c.Audit.OpsRates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("GUARDIAN_AUDIT_OPS_RATES: rate for %s must be in [0,1], got %v", event, rate)
		}
	}
	return nil
}
