// Package config provides configuration loading and management for InnSight.
// It supports loading configuration from YAML files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// StorageMode represents the storage backend mode.
type StorageMode string

const (
	// StorageModeMemory uses in-memory implementations for the broker and all stores.
	StorageModeMemory StorageMode = "memory"
	// StorageModeStorage uses real backends (Kafka, Redis, PostgreSQL).
	StorageModeStorage StorageMode = "storage"
)

// IsValid returns true if the storage mode is valid.
func (m StorageMode) IsValid() bool {
	return m == StorageModeMemory || m == StorageModeStorage
}

// Config represents the complete application configuration.
//
// Values are resolved in three layers: built-in defaults, then the YAML file,
// then INNSIGHT_-prefixed environment variables. Broker queue names,
// durability, and the prefetch limit are fixed by design and deliberately
// absent here; only connection parameters are configurable.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Broker   BrokerConfig   `yaml:"broker"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// StorageConfig holds the storage mode configuration.
type StorageConfig struct {
	Mode StorageMode `yaml:"mode" env:"INNSIGHT_STORAGE_MODE"`
}

// UseMemory returns true if in-memory backends should be used.
func (c *StorageConfig) UseMemory() bool {
	return c.Mode == StorageModeMemory
}

// UseStorage returns true if real backends should be used.
func (c *StorageConfig) UseStorage() bool {
	return c.Mode == StorageModeStorage
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host" env:"INNSIGHT_SERVER_HOST"`
	Port         int           `yaml:"port" env:"INNSIGHT_SERVER_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// BrokerConfig holds message broker connection settings.
type BrokerConfig struct {
	Brokers []string `yaml:"brokers" env:"INNSIGHT_BROKER_ADDRS" envSeparator:","`
	// GroupPrefix namespaces the consumer group IDs so several deployments
	// can share a cluster without stealing each other's messages.
	GroupPrefix string `yaml:"group_prefix" env:"INNSIGHT_BROKER_GROUP_PREFIX"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `yaml:"host" env:"INNSIGHT_REDIS_HOST"`
	Port     int    `yaml:"port" env:"INNSIGHT_REDIS_PORT"`
	Password string `yaml:"password" env:"INNSIGHT_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"INNSIGHT_REDIS_DB"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host         string `yaml:"host" env:"INNSIGHT_POSTGRES_HOST"`
	Port         int    `yaml:"port" env:"INNSIGHT_POSTGRES_PORT"`
	User         string `yaml:"user" env:"INNSIGHT_POSTGRES_USER"`
	Password     string `yaml:"password" env:"INNSIGHT_POSTGRES_PASSWORD"`
	Database     string `yaml:"database" env:"INNSIGHT_POSTGRES_DATABASE"`
	SSLMode      string `yaml:"ssl_mode" env:"INNSIGHT_POSTGRES_SSLMODE"`
	MaxOpenConns int32  `yaml:"max_open_conns"`
	MaxIdleConns int32  `yaml:"max_idle_conns"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level" env:"INNSIGHT_LOG_LEVEL"`
	Format string `yaml:"format" env:"INNSIGHT_LOG_FORMAT"` // "json" or "text"
}

// Load reads configuration from the specified YAML file path and applies
// environment variable overrides on top. A missing file is not an error;
// defaults and environment variables alone are enough to run in memory mode.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	// Clean the path to prevent path traversal attacks
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables win over the file
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	// Apply defaults for any unset values
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if !c.Storage.Mode.IsValid() {
		return fmt.Errorf("invalid storage mode %q (want %q or %q)",
			c.Storage.Mode, StorageModeMemory, StorageModeStorage)
	}
	if c.Storage.UseStorage() {
		if len(c.Broker.Brokers) == 0 {
			return fmt.Errorf("storage mode requires at least one broker address")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("storage mode requires a postgres database name")
		}
	}
	return nil
}

// applyDefaults sets sensible default values for configuration fields
// that are not explicitly set in the config file.
func applyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Mode == "" {
		cfg.Storage.Mode = StorageModeMemory
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}

	// Broker defaults
	if len(cfg.Broker.Brokers) == 0 {
		cfg.Broker.Brokers = []string{"localhost:9092"}
	}
	if cfg.Broker.GroupPrefix == "" {
		cfg.Broker.GroupPrefix = "innsight"
	}

	// Redis defaults
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// Postgres defaults
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.SSLMode == "" {
		cfg.Postgres.SSLMode = "disable"
	}
	if cfg.Postgres.MaxOpenConns == 0 {
		cfg.Postgres.MaxOpenConns = 25
	}
	if cfg.Postgres.MaxIdleConns == 0 {
		cfg.Postgres.MaxIdleConns = 5
	}

	// Logger defaults
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = "json"
	}
}

// Address returns the full server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address in host:port format.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
