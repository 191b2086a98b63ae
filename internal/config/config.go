// Package config handles loading and parsing application configuration.
//
// The config file path comes from (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the YAML file can be overridden by the environment variable
// named in its env:"..." tag.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers understood by package backend.
const (
	DriverMongo    = "mongo"
	DriverDynamoDB = "dynamodb"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// ConfigPathEnv names the environment variable consulted before the flag.
const ConfigPathEnv = "CONFIG_PATH"

// Config is the root configuration structure.
//
// env-required:"true" means the app refuses to start if that value is
// missing. validate:"..." rules are checked after loading.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-required:"true" validate:"oneof=dev staging prod"`

	Storage Storage `yaml:"storage"`

	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the record store.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongo" validate:"oneof=mongo dynamodb sqlite memory"`

	// SkipMigrate stops serve from creating tables and indexes on startup,
	// for deployments that run the migrate command separately.
	SkipMigrate bool `yaml:"skip_migrate" env:"STORAGE_SKIP_MIGRATE"`

	SQLite   SQLite   `yaml:"sqlite"`
	Mongo    Mongo    `yaml:"mongo"`
	DynamoDB DynamoDB `yaml:"dynamodb"`
}

// SQLite holds settings for the sqlite driver.
type SQLite struct {
	// Path is the filesystem path to the SQLite .db file.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/students.db"`
}

// Mongo holds settings for the mongo driver.
type Mongo struct {
	URI        string        `yaml:"uri" env:"MONGODB_URI" env-default:"mongodb://localhost:27017/"`
	Database   string        `yaml:"database" env:"MONGODB_DATABASE" env-default:"student_db"`
	Collection string        `yaml:"collection" env:"MONGODB_COLLECTION" env-default:"students"`
	Timeout    time.Duration `yaml:"timeout" env:"MONGODB_TIMEOUT" env-default:"10s"`
}

// DynamoDB holds settings for the dynamodb driver. Credentials fall back to
// the default AWS chain when the static keys are empty.
type DynamoDB struct {
	Region          string `yaml:"region" env:"DYNAMODB_REGION" env-default:"us-east-1"`
	Endpoint        string `yaml:"endpoint" env:"DYNAMODB_ENDPOINT"`
	Table           string `yaml:"table" env:"DYNAMODB_TABLE" env-default:"students"`
	AccessKeyID     string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-required:"true" validate:"hostname_port"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// ResolvePath picks the config file path: CONFIG_PATH first, then the value
// of the --config flag.
func ResolvePath(flagValue string) (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}
	if flagValue != "" {
		return flagValue, nil
	}
	return "", errors.New("config path is not set: use --config flag or CONFIG_PATH env var")
}

// Load reads, validates and returns the configuration at path.
func Load(path string) (*Config, error) {
	// Checked up front so the error names the path.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	// ReadConfig parses the YAML, applies env overrides and env-default
	// values, and enforces env-required.
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the validate:"..." rules on the whole tree.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
