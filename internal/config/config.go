// Package config loads QuerySight configuration from an optional YAML
// file plus environment variables (a local .env file is honored), and
// validates it at startup. Missing required settings fail fast — the
// service never starts half-configured.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"

	"github.com/querysight/querysight/internal/errs"
	"github.com/querysight/querysight/internal/store"
)

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Modules    ModulesConfig    `yaml:"modules"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds the store connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // postgres (default) or mysql
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`

	// Schema is the target schema the catalog and planner operate on.
	Schema string `yaml:"schema"`
}

// GenerationConfig holds the text-generation backend settings.
type GenerationConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ModulesConfig holds the saved-module object store settings.
// The module store is optional; with Enabled false the module API
// endpoints are not mounted.
type ModulesConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration baseline before file and env overrides.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Driver: "postgres", Port: 5432, SSLMode: "disable", Schema: "public"},
		Modules:  ModulesConfig{Bucket: "querysight-modules"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped when path is empty), then environment variables. A .env file
// in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional; absence is not an error

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse config file", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from environment variables.
func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Database, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.Schema, "DB_SCHEMA")

	setString(&c.Generation.APIKey, "GROQ_API_KEY")
	setString(&c.Generation.BaseURL, "GROQ_BASE_URL")
	setString(&c.Generation.Model, "GROQ_MODEL")

	setBool(&c.Modules.Enabled, "MODULES_ENABLED")
	setString(&c.Modules.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Modules.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Modules.SecretKey, "MINIO_SECRET_KEY")
	setBool(&c.Modules.UseSSL, "MINIO_USE_SSL")
	setString(&c.Modules.Bucket, "MODULES_BUCKET")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

// Validate reports the first missing required setting.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.Host == "" {
		return errs.New(errs.ErrKindInvalidInput, "database host is required")
	}
	if c.Database.User == "" {
		return errs.New(errs.ErrKindInvalidInput, "database user is required")
	}
	if c.Database.Database == "" {
		return errs.New(errs.ErrKindInvalidInput, "database name is required")
	}
	if c.Database.Schema == "" {
		c.Database.Schema = "public"
	}
	if c.Generation.APIKey == "" {
		return errs.New(errs.ErrKindInvalidInput, "generation API key is required")
	}
	if c.Modules.Enabled {
		if c.Modules.Endpoint == "" {
			return errs.New(errs.ErrKindInvalidInput, "module store endpoint is required when modules are enabled")
		}
		if c.Modules.AccessKey == "" || c.Modules.SecretKey == "" {
			return errs.New(errs.ErrKindInvalidInput, "module store credentials are required when modules are enabled")
		}
	}
	return nil
}

// StoreConfig maps the database section onto store pool settings.
func (c *Config) StoreConfig() *store.Config {
	sc := store.DefaultConfig()
	sc.Driver = store.Dialect(c.Database.Driver)
	sc.Host = c.Database.Host
	sc.Port = c.Database.Port
	sc.User = c.Database.User
	sc.Password = c.Database.Password
	sc.Database = c.Database.Database
	sc.SSLMode = c.Database.SSLMode
	return sc
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
