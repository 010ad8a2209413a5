package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from the environment so main
// stays lean.
type Config struct {
	Server    Server
	Ledger    Ledger
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	RateLimit RateLimitConfig `envPrefix:"RATELIMIT_"`
	OTel      OTelConfig      `envPrefix:"OTEL_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"CANOPY_ADDR" envDefault:":8080"`
	Environment     string        `env:"CANOPY_ENV" envDefault:"development"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	JWTSigningKey   string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `env:"JWT_ISSUER" envDefault:"canopy"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Ledger holds the authorization settings shared by the four stores.
type Ledger struct {
	// Admin is the identity every store's guard starts with.
	Admin                       string `env:"LEDGER_ADMIN"`
	RequireAdminForRegistration bool   `env:"REQUIRE_ADMIN_FOR_REGISTRATION" envDefault:"false"`
	RequireAdminForReports      bool   `env:"REQUIRE_ADMIN_FOR_REPORTS" envDefault:"false"`
	// StorageDriver selects "memory" or "postgres" stores.
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`
}

type DatabaseConfig struct {
	URL             string        `env:"URL"`
	PingTimeout     time.Duration `env:"PING_TIMEOUT" envDefault:"2s"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

type KafkaConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	Topic        string        `env:"AUDIT_TOPIC" envDefault:"canopy.audit"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1s"`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"100"`
}

type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Limit   int           `env:"WRITES_PER_WINDOW" envDefault:"60"`
	Window  time.Duration `env:"WINDOW" envDefault:"1m"`
}

type OTelConfig struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"canopy"`
}

// IsPostgres reports whether the ledger stores are backed by PostgreSQL.
func (c Config) IsPostgres() bool {
	return c.Ledger.StorageDriver == "postgres"
}

// FromEnv parses and validates the process configuration.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Ledger.Admin == "" {
		return errors.New("LEDGER_ADMIN is required")
	}
	switch c.Ledger.StorageDriver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when STORAGE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Ledger.StorageDriver)
	}
	if c.Database.MaxOpenConns < 1 {
		return errors.New("DATABASE_MAX_OPEN_CONNS must be >= 1")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errors.New("DATABASE_MAX_IDLE_CONNS must be <= DATABASE_MAX_OPEN_CONNS")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit < 1 || c.RateLimit.Window <= 0) {
		return errors.New("RATELIMIT_WRITES_PER_WINDOW and RATELIMIT_WINDOW must be positive")
	}
	if c.OTel.Enabled && c.OTel.Endpoint == "" {
		return errors.New("OTEL_ENDPOINT is required when OTEL_ENABLED=true")
	}
	return nil
}
