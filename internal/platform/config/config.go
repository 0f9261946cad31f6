// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage drivers for generated populations.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Blob drivers for exported artifacts.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// Config is the full process configuration.
type Config struct {
	StorageDriver string `env:"CARECENSUS_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"CARECENSUS_SQLITE_PATH"    envDefault:"./carecensus.db"`
	PostgresDSN   string `env:"CARECENSUS_POSTGRES_DSN"`
	HTTPAddr      string `env:"CARECENSUS_HTTP_ADDR"      envDefault:":8080"`
	Workers       int    `env:"CARECENSUS_WORKERS"        envDefault:"0"`
	LogLevel      string `env:"CARECENSUS_LOG_LEVEL"      envDefault:"info"`
	Blob          Blob
}

// Blob selects and configures the artifact store.
type Blob struct {
	Driver      string `env:"CARECENSUS_BLOB_DRIVER"        envDefault:"fs"`
	FSRoot      string `env:"CARECENSUS_BLOB_FS_ROOT"       envDefault:"./artifacts"`
	S3Bucket    string `env:"CARECENSUS_BLOB_S3_BUCKET"`
	S3Region    string `env:"CARECENSUS_BLOB_S3_REGION"     envDefault:"us-east-1"`
	S3Endpoint  string `env:"CARECENSUS_BLOB_S3_ENDPOINT"`
	S3PathStyle bool   `env:"CARECENSUS_BLOB_S3_PATH_STYLE" envDefault:"false"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates the process configuration.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.Blob.Driver = strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports unknown drivers and missing driver settings.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("CARECENSUS_SQLITE_PATH required for sqlite storage")
		}
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("CARECENSUS_POSTGRES_DSN required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if err := c.Blob.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("CARECENSUS_WORKERS must be non-negative")
	}
	return nil
}

// LoadBlob parses and validates only the artifact store settings.
func LoadBlob() (Blob, error) {
	var b Blob
	if err := ParseEnv(&b); err != nil {
		return Blob{}, err
	}
	b.Driver = strings.ToLower(strings.TrimSpace(b.Driver))
	if err := b.Validate(); err != nil {
		return Blob{}, err
	}
	return b, nil
}

// Validate reports an unknown blob driver or a missing bucket.
func (b Blob) Validate() error {
	switch b.Driver {
	case BlobFilesystem, BlobMemory:
	case BlobS3:
		if b.S3Bucket == "" {
			return fmt.Errorf("CARECENSUS_BLOB_S3_BUCKET required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", b.Driver)
	}
	return nil
}
