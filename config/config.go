/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads the catalog configuration from defaults, an
// optional YAML file, an optional .env file and the environment, in that
// order of increasing priority.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/bookcatalog/cache"
)

// Database kinds accepted by DatabaseConfig.Kind.
const (
	DatabasePostgres = "postgres"
	DatabaseSQLite   = "sqlite"
)

type Config struct {
	Environment string         `yaml:"environment"`
	Log         LogConfig      `yaml:"log"`
	DynamoDB    DynamoDBConfig `yaml:"dynamodb"`
	Cache       cache.Config   `yaml:"cache"`
	Database    DatabaseConfig `yaml:"database"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DynamoDBConfig locates the key-value store. Endpoint overrides the
// regional endpoint, e.g. for DynamoDB Local. Static keys are used only
// when both are set; otherwise the default credential chain applies.
type DynamoDBConfig struct {
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	ReviewsTable  string `yaml:"reviewsTable"`
	ActivityTable string `yaml:"activityTable"`
}

type DatabaseConfig struct {
	Kind string `yaml:"kind"`
	DSN  string `yaml:"dsn"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Default returns a configuration that runs locally: SQLite, in-process
// cache, DynamoDB in us-east-1.
func Default() *Config {
	return &Config{
		Environment: "development",
		Log:         LogConfig{Level: "info"},
		DynamoDB: DynamoDBConfig{
			Region:        "us-east-1",
			ReviewsTable:  "book_reviews",
			ActivityTable: "activity_logs",
		},
		Cache:    cache.DefaultConfig(),
		Database: DatabaseConfig{Kind: DatabaseSQLite, DSN: "bookcatalog.db"},
		Metrics:  MetricsConfig{Namespace: "bookcatalog"},
	}
}

// DefaultEnvFile is read by Load when no env file is named.
const DefaultEnvFile = ".env"

// Load builds the configuration. path names a YAML file and may be empty.
// envFile names a dotenv file, DefaultEnvFile when empty; a missing file
// is ignored. Process environment variables win over the env file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if envFile == "" {
		envFile = DefaultEnvFile
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !stderrors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("CATALOG_ENV", &c.Environment)
	str("LOG_LEVEL", &c.Log.Level)
	str("AWS_REGION", &c.DynamoDB.Region)
	str("DYNAMODB_ENDPOINT", &c.DynamoDB.Endpoint)
	str("AWS_ACCESS_KEY_ID", &c.DynamoDB.AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &c.DynamoDB.SecretKey)
	str("REVIEWS_TABLE", &c.DynamoDB.ReviewsTable)
	str("ACTIVITY_TABLE", &c.DynamoDB.ActivityTable)
	str("CACHE_KIND", &c.Cache.Kind)
	str("REDIS_URL", &c.Cache.RedisURL)
	str("DATABASE_KIND", &c.Database.Kind)
	str("DATABASE_URL", &c.Database.DSN)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)

	if v, ok := lookup("LOG_DEVELOPMENT"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &FieldError{Field: "LOG_DEVELOPMENT", Message: "must be a boolean"}
		}
		c.Log.Development = b
	}
	if v, ok := lookup("CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &FieldError{Field: "CACHE_TTL", Message: "must be a duration"}
		}
		c.Cache.Memory.TTL = d
	}
	return nil
}

// FieldError reports an invalid setting.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings the application cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DynamoDB.Region == "" {
		errs = append(errs, &FieldError{Field: "dynamodb.region", Message: "is required"})
	}
	if c.DynamoDB.ReviewsTable == "" {
		errs = append(errs, &FieldError{Field: "dynamodb.reviewsTable", Message: "is required"})
	}
	if c.DynamoDB.ActivityTable == "" {
		errs = append(errs, &FieldError{Field: "dynamodb.activityTable", Message: "is required"})
	}
	switch c.Database.Kind {
	case DatabasePostgres, DatabaseSQLite:
	default:
		errs = append(errs, &FieldError{Field: "database.kind", Message: fmt.Sprintf("must be %s or %s", DatabasePostgres, DatabaseSQLite)})
	}
	if c.Database.DSN == "" {
		errs = append(errs, &FieldError{Field: "database.dsn", Message: "is required"})
	}
	switch strings.ToLower(c.Cache.Kind) {
	case cache.KindMemory, "":
		if err := c.Cache.Memory.Validate(); err != nil {
			errs = append(errs, err)
		}
	case cache.KindRedis:
		if c.Cache.RedisURL == "" {
			errs = append(errs, &FieldError{Field: "cache.redisURL", Message: "is required for the redis backend"})
		}
	case cache.KindNone:
	default:
		errs = append(errs, &FieldError{Field: "cache.kind", Message: fmt.Sprintf("unknown backend %q", c.Cache.Kind)})
	}
	return stderrors.Join(errs...)
}
